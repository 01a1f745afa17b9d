// Package wire encodes and decodes the envelopes exchanged with a game
// instance.
package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Kind tells which member of the envelope one-of is populated.
type Kind int

// Kinds of requests and responses.
const (
	Unknown Kind = iota
	CreateGame
	JoinGame
	RestartGame
	StartReplay
	LeaveGame
	QuickSave
	QuickLoad
	Quit
	GameInfo
	Observation
	Action
	ObserverAction
	Step
	Data
	Query
	SaveReplay
	MapCommand
	ReplayInfo
	AvailableMaps
	SaveMap
	Ping
	Debug
	numKinds
)

const (
	fieldID     protowire.Number = 97
	fieldError  protowire.Number = 98
	fieldStatus protowire.Number = 99
)

var kindFields = [numKinds]protowire.Number{
	CreateGame:     1,
	JoinGame:       2,
	RestartGame:    3,
	StartReplay:    4,
	LeaveGame:      5,
	QuickSave:      6,
	QuickLoad:      7,
	Quit:           8,
	GameInfo:       9,
	Observation:    10,
	Action:         11,
	ObserverAction: 21,
	Step:           12,
	Data:           13,
	Query:          14,
	SaveReplay:     15,
	MapCommand:     22,
	ReplayInfo:     16,
	AvailableMaps:  17,
	SaveMap:        18,
	Ping:           19,
	Debug:          20,
}

var kindNames = [numKinds]string{
	Unknown:        "Unknown",
	CreateGame:     "CreateGame",
	JoinGame:       "JoinGame",
	RestartGame:    "RestartGame",
	StartReplay:    "StartReplay",
	LeaveGame:      "LeaveGame",
	QuickSave:      "QuickSave",
	QuickLoad:      "QuickLoad",
	Quit:           "Quit",
	GameInfo:       "GameInfo",
	Observation:    "Observation",
	Action:         "Action",
	ObserverAction: "ObserverAction",
	Step:           "Step",
	Data:           "Data",
	Query:          "Query",
	SaveReplay:     "SaveReplay",
	MapCommand:     "MapCommand",
	ReplayInfo:     "ReplayInfo",
	AvailableMaps:  "AvailableMaps",
	SaveMap:        "SaveMap",
	Ping:           "Ping",
	Debug:          "Debug",
}

var fieldKinds = func() map[protowire.Number]Kind {
	m := make(map[protowire.Number]Kind, numKinds)
	for k := CreateGame; k < numKinds; k++ {
		m[kindFields[k]] = k
	}

	return m
}()

// Valid checks if the kind names a populated one-of member.
func (k Kind) Valid() bool {
	return k > Unknown && k < numKinds
}

func (k Kind) String() string {
	if k < Unknown || k >= numKinds {
		return fmt.Sprintf("Kind(%d)", int(k))
	}

	return kindNames[k]
}

func (k Kind) field() protowire.Number {
	return kindFields[k]
}

// Status is the state of a game instance, attached to every response.
type Status int32

// Statuses.
const (
	StatusNone     Status = 0
	StatusLaunched Status = 1
	StatusInitGame Status = 2
	StatusInGame   Status = 3
	StatusInReplay Status = 4
	StatusEnded    Status = 5
	StatusQuit     Status = 6
	StatusUnknown  Status = 99
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "None"
	case StatusLaunched:
		return "Launched"
	case StatusInitGame:
		return "InitGame"
	case StatusInGame:
		return "InGame"
	case StatusInReplay:
		return "InReplay"
	case StatusEnded:
		return "Ended"
	case StatusQuit:
		return "Quit"
	case StatusUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}
