package melee

import "github.com/sarchlab/sc2melee/game"

// A Suite is the series of games a melee plays, all with the same settings.
type Suite struct {
	Settings game.Settings

	// Games is the number of games to play. Zero repeats forever.
	Games int
}

// OneAndDone plays a single game.
func OneAndDone(settings game.Settings) Suite {
	return Suite{Settings: settings, Games: 1}
}

// EndlessRepeat plays games until the network is stopped.
func EndlessRepeat(settings game.Settings) Suite {
	return Suite{Settings: settings}
}

// Repeat plays n games.
func Repeat(settings game.Settings, n int) Suite {
	if n < 1 {
		panic("a suite must play at least one game")
	}

	return Suite{Settings: settings, Games: n}
}

// Endless tells if the suite never ends.
func (s Suite) Endless() bool {
	return s.Games == 0
}

// HasNext tells if another game follows the given number of played games.
func (s Suite) HasNext(played int) bool {
	return s.Endless() || played < s.Games
}
