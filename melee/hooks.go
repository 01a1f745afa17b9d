package melee

import (
	"time"

	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/game"
)

// Hook positions of a melee.
var (
	// HookPosPhase is invoked on each phase change, with a PhaseChange.
	HookPosPhase = &actor.HookPos{Name: "Melee Phase"}

	// HookPosGameStart is invoked when both sides are asked to join, with
	// a GameRecord.
	HookPosGameStart = &actor.HookPos{Name: "Melee Game Start"}

	// HookPosGameEnd is invoked when a game ended, with a GameRecord.
	HookPosGameEnd = &actor.HookPos{Name: "Melee Game End"}
)

// PhaseChange describes a transition between two phases.
type PhaseChange struct {
	From string
	To   string
}

// Mode tells who plays a game.
type Mode string

// Modes.
const (
	PlayerVsPlayer   Mode = "PvP"
	PlayerVsComputer Mode = "PvC"
)

// A GameRecord describes a game of the suite.
type GameRecord struct {
	Game     int
	Mode     Mode
	Settings game.Settings
	Players  [2]game.PlayerSetup
	Start    time.Time
	End      time.Time
}
