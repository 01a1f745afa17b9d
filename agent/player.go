// Package agent drives players through melee games. An agent answers the
// orchestrator on behalf of its player, owns the connection to the player's
// game instance, and runs the game loop.
package agent

import (
	"context"

	"github.com/sarchlab/sc2melee/action"
	"github.com/sarchlab/sc2melee/game"
	"github.com/sarchlab/sc2melee/wire"
)

// A Player is the logic of a bot.
type Player interface {
	// PlayerSetup chooses how the player takes part in a game.
	PlayerSetup(settings game.Settings) game.PlayerSetup

	// OnStep is called once per game step with the latest observation.
	// Commands queued on the step's action client are sent when OnStep
	// returns.
	OnStep(ctx context.Context, step Step) error
}

// A GameStarter is a Player that wants to know when it joined a game.
type GameStarter interface {
	OnGameStart(ctx context.Context, start GameStart) error
}

// A GameEnder is a Player that wants to know the results of its games.
type GameEnder interface {
	OnGameEnd(ctx context.Context, results []wire.PlayerResult) error
}

// GameStart describes the game a player joined.
type GameStart struct {
	PlayerID uint32
	GameInfo *wire.Response
}

// Step is what a player sees and can do during a game step.
type Step struct {
	GameLoop    uint32
	Observation *wire.Response
	Actions     action.Client
	Requests    action.RequestClient
}

// Idle is a player that joins games and never acts.
type Idle struct {
	Race game.Race
	Name string
}

// PlayerSetup returns a participant of the configured race.
func (p Idle) PlayerSetup(game.Settings) game.PlayerSetup {
	return game.NewPlayer(p.Race, p.Name)
}

// OnStep does nothing.
func (Idle) OnStep(context.Context, Step) error {
	return nil
}

// Computer takes the place of the built-in AI. Its agent answers the setup
// request and is never asked to play.
type Computer struct {
	Race       game.Race
	Difficulty game.Difficulty
}

// PlayerSetup returns a computer setup.
func (c Computer) PlayerSetup(game.Settings) game.PlayerSetup {
	return game.NewComputer(c.Race, c.Difficulty)
}

// OnStep does nothing.
func (Computer) OnStep(context.Context, Step) error {
	return nil
}
