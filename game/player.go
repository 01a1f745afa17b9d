// Package game defines the values exchanged with game instances and between
// the actors that drive them.
package game

import "fmt"

// Race is a playable race. Values follow the game protocol.
type Race int32

// Races.
const (
	NoRace  Race = 0
	Terran  Race = 1
	Zerg    Race = 2
	Protoss Race = 3
	Random  Race = 4
)

func (r Race) String() string {
	switch r {
	case Terran:
		return "Terran"
	case Zerg:
		return "Zerg"
	case Protoss:
		return "Protoss"
	case Random:
		return "Random"
	default:
		return fmt.Sprintf("Race(%d)", int32(r))
	}
}

// ParseRace reads a race from its name, case sensitive.
func ParseRace(s string) (Race, error) {
	for _, r := range []Race{Terran, Zerg, Protoss, Random} {
		if r.String() == s {
			return r, nil
		}
	}

	return NoRace, fmt.Errorf("unknown race %q", s)
}

// Difficulty is the strength of the built-in AI.
type Difficulty int32

// Difficulties.
const (
	VeryEasy      Difficulty = 1
	Easy          Difficulty = 2
	Medium        Difficulty = 3
	MediumHard    Difficulty = 4
	Hard          Difficulty = 5
	Harder        Difficulty = 6
	VeryHard      Difficulty = 7
	CheatVision   Difficulty = 8
	CheatMoney    Difficulty = 9
	CheatInsane   Difficulty = 10
	minDifficulty            = VeryEasy
	maxDifficulty            = CheatInsane
)

// Valid checks if the difficulty is known.
func (d Difficulty) Valid() bool {
	return d >= minDifficulty && d <= maxDifficulty
}

// PlayerType distinguishes a participant from the built-in AI.
type PlayerType int32

// Player types.
const (
	Participant PlayerType = 1
	Computer    PlayerType = 2
	Observer    PlayerType = 3
)

// PlayerSetup describes one slot of a game.
type PlayerSetup struct {
	Type       PlayerType
	Race       Race
	Difficulty Difficulty
	Name       string
}

// NewPlayer creates the setup of a participant, a bot driven by this
// process.
func NewPlayer(race Race, name string) PlayerSetup {
	return PlayerSetup{Type: Participant, Race: race, Name: name}
}

// NewComputer creates the setup of a built-in AI opponent.
func NewComputer(race Race, difficulty Difficulty) PlayerSetup {
	return PlayerSetup{Type: Computer, Race: race, Difficulty: difficulty}
}

// IsPlayer checks if the slot is a participant.
func (s PlayerSetup) IsPlayer() bool {
	return s.Type == Participant
}

// IsComputer checks if the slot is a built-in AI.
func (s PlayerSetup) IsComputer() bool {
	return s.Type == Computer
}

func (s PlayerSetup) String() string {
	switch s.Type {
	case Participant:
		return fmt.Sprintf("Player(%s)", s.Race)
	case Computer:
		return fmt.Sprintf("Computer(%s, %d)", s.Race, s.Difficulty)
	default:
		return fmt.Sprintf("Observer(%s)", s.Name)
	}
}
