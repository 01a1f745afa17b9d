package melee

import (
	"github.com/sarchlab/sc2melee/game"
)

type phase interface {
	phaseName() string
}

type initPhase struct{}

type setupPhase struct {
	setups [2]*game.PlayerSetup
}

type launchPhase struct {
	mode      Mode
	players   [2]game.PlayerSetup
	instances []game.Instance
	ports     []game.Ports
	poolKnown bool
	launched  int
}

type pvpPhase struct {
	players [2]game.PlayerSetup
	ports   game.Ports
	ready   [2]bool
	created bool
	ended   [2]bool
}

// pvcPhase plays the side at index player against the built-in AI. The
// setups are ordered player first.
type pvcPhase struct {
	player  int
	players [2]game.PlayerSetup
	ready   bool
	created bool
}

type completedPhase struct{}

func (initPhase) phaseName() string      { return "Init" }
func (*setupPhase) phaseName() string    { return "Setup" }
func (*launchPhase) phaseName() string   { return "Launch" }
func (*pvpPhase) phaseName() string      { return "PlayerVsPlayer" }
func (*pvcPhase) phaseName() string      { return "PlayerVsComputer" }
func (completedPhase) phaseName() string { return "Completed" }
