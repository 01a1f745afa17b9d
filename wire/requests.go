package wire

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/sarchlab/sc2melee/game"
)

type message []byte

func (m message) varint(num protowire.Number, v uint64) message {
	m = protowire.AppendTag(m, num, protowire.VarintType)
	return protowire.AppendVarint(m, v)
}

func (m message) boolean(num protowire.Number, v bool) message {
	if !v {
		return m
	}

	return m.varint(num, 1)
}

func (m message) str(num protowire.Number, v string) message {
	if v == "" {
		return m
	}

	m = protowire.AppendTag(m, num, protowire.BytesType)

	return protowire.AppendString(m, v)
}

func (m message) bytes(num protowire.Number, v []byte) message {
	m = protowire.AppendTag(m, num, protowire.BytesType)
	return protowire.AppendBytes(m, v)
}

func portSet(ps game.PortSet) message {
	var m message
	m = m.varint(1, uint64(ps.GamePort))
	m = m.varint(2, uint64(ps.BasePort))

	return m
}

func playerSetup(s game.PlayerSetup) message {
	var m message
	m = m.varint(1, uint64(s.Type))
	m = m.varint(2, uint64(s.Race))

	if s.IsComputer() {
		m = m.varint(3, uint64(s.Difficulty))
	}

	return m.str(4, s.Name)
}

// NewCreateGame creates a request that creates a game on a local map.
func NewCreateGame(settings game.Settings, players []game.PlayerSetup) *Request {
	var localMap message
	localMap = localMap.str(1, settings.Map)

	var m message
	m = m.bytes(1, localMap)

	for _, p := range players {
		m = m.bytes(3, playerSetup(p))
	}

	m = m.boolean(4, settings.DisableFog)
	if settings.RandomSeed != 0 {
		m = m.varint(5, uint64(settings.RandomSeed))
	}
	m = m.boolean(6, settings.Realtime)

	return &Request{Kind: CreateGame, Payload: m}
}

// NewJoinGame creates a request that joins a created game with the raw
// interface. Ports are only needed in games with several participants.
func NewJoinGame(setup game.PlayerSetup, ports *game.Ports) *Request {
	var options message
	options = options.boolean(1, true)
	options = options.boolean(2, true)

	var m message
	m = m.varint(1, uint64(setup.Race))
	m = m.bytes(3, options)

	if ports != nil {
		m = m.bytes(4, portSet(ports.ServerPorts))
		for _, ps := range ports.ClientPorts {
			m = m.bytes(5, portSet(ps))
		}
		m = m.varint(6, uint64(ports.SharedPort))
	}

	m = m.str(7, setup.Name)

	return &Request{Kind: JoinGame, Payload: m}
}

// NewLeaveGame creates a request that leaves a multiplayer game.
func NewLeaveGame() *Request {
	return &Request{Kind: LeaveGame, Payload: []byte{}}
}

// NewQuit creates a request that terminates the instance.
func NewQuit() *Request {
	return &Request{Kind: Quit, Payload: []byte{}}
}

// NewPing creates a request that checks the instance is alive.
func NewPing() *Request {
	return &Request{Kind: Ping, Payload: []byte{}}
}

// NewGameInfo creates a request for the static data of the game.
func NewGameInfo() *Request {
	return &Request{Kind: GameInfo, Payload: []byte{}}
}

// NewObservation creates a request for the current observation.
func NewObservation() *Request {
	return &Request{Kind: Observation, Payload: []byte{}}
}

// NewStep creates a request that advances the game by count game loops.
func NewStep(count uint32) *Request {
	var m message
	m = m.varint(1, uint64(count))

	return &Request{Kind: Step, Payload: m}
}

// NewAction creates a request carrying encoded actions, in order.
func NewAction(actions [][]byte) *Request {
	var m message
	for _, a := range actions {
		m = m.bytes(1, a)
	}

	return &Request{Kind: Action, Payload: nonNil(m)}
}

// NewDebug creates a request carrying encoded debug commands, in order.
func NewDebug(commands [][]byte) *Request {
	var m message
	for _, c := range commands {
		m = m.bytes(1, c)
	}

	return &Request{Kind: Debug, Payload: nonNil(m)}
}

func nonNil(m message) []byte {
	if m == nil {
		return []byte{}
	}

	return m
}
