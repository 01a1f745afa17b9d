package agent

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/sc2melee/action"
	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/client"
	"github.com/sarchlab/sc2melee/game"
)

type agentState interface {
	stateName() string
}

type idleState struct{}

type connectingState struct{}

type connectedState struct{}

type creatingState struct{}

type playingState struct{}

type leavingState struct{}

func (idleState) stateName() string       { return "Idle" }
func (connectingState) stateName() string { return "Connecting" }
func (connectedState) stateName() string  { return "Connected" }
func (creatingState) stateName() string   { return "Creating" }
func (playingState) stateName() string    { return "Playing" }
func (leavingState) stateName() string    { return "Leaving" }

// gameCreated reports the outcome of a create game request.
type gameCreated struct {
	err error
}

// gameFinished reports the end of the game loop.
type gameFinished struct {
	err error
}

// An Agent plays melee games on behalf of a Player.
type Agent struct {
	*actor.Base
	actor.HookableBase

	player   Player
	stepSize uint32
	requests *requestClient

	state    agentState
	settings game.Settings
	games    int

	controller actor.ID
	provider   actor.ID
	conn       actor.ID
	connInput  actor.ID
	batcher    actor.ID
}

// Requests returns the client that sends requests through the agent's
// connection.
func (a *Agent) Requests() action.RequestClient {
	return a.requests
}

// State returns the name of the current state.
func (a *Agent) State() string {
	return a.state.stateName()
}

// Games returns the number of games the agent finished.
func (a *Agent) Games() int {
	return a.games
}

// Update handles an event.
func (a *Agent) Update(evt actor.Event) error {
	if a.Intercept(evt) {
		return nil
	}

	switch e := evt.(type) {
	case actor.Start:
		return a.start()
	case actor.Message:
		return a.handle(e)
	case actor.Stop:
		a.requests.failAll(client.ErrTransportClosed)
	}

	return nil
}

func (a *Agent) start() error {
	eff := a.Effector()

	ids := []*actor.ID{&a.controller, &a.provider}
	for i, role := range []actor.Role{game.RoleController, game.RoleInstanceProvider} {
		id, err := eff.ReqInput(role)
		if err != nil {
			return err
		}

		*ids[i] = id
	}

	ids = []*actor.ID{&a.conn, &a.connInput, &a.batcher}
	for i, role := range []actor.Role{
		game.RoleClient, game.RoleInstanceProvider, game.RoleAgent,
	} {
		id, err := eff.ReqOutput(role)
		if err != nil {
			return err
		}

		*ids[i] = id
	}

	a.requests.bind(eff, a.conn)
	a.state = idleState{}

	return nil
}

func (a *Agent) handle(msg actor.Message) error {
	switch m := msg.Payload.(type) {
	case client.ClientResponse, client.ClientTimeout:
		a.requests.resolve(msg)
		return nil
	case client.ClientError:
		if err := a.ExpectSource(msg, a.conn); err != nil {
			return err
		}

		a.Effector().Logger().WithError(m.Err).Warn("connection error")
		a.requests.failAll(m.Err)

		return nil
	}

	switch a.state.(type) {
	case idleState:
		return a.idle(msg)
	case connectingState:
		return a.connecting(msg)
	case connectedState:
		return a.connected(msg)
	case creatingState:
		return a.creating(msg)
	case playingState:
		return a.playing(msg)
	case leavingState:
		return a.leaving(msg)
	}

	return a.unexpected(msg)
}

func (a *Agent) unexpected(msg actor.Message) error {
	return actor.Unexpected(a.Name(), a.state.stateName(), msg)
}

func (a *Agent) idle(msg actor.Message) error {
	switch m := msg.Payload.(type) {
	case game.RequestPlayerSetup:
		if err := a.ExpectSource(msg, a.controller); err != nil {
			return err
		}

		a.settings = m.Settings
		a.Effector().Send(a.controller, game.PlayerSetupReply{
			Setup: a.player.PlayerSetup(m.Settings),
		})

		return nil
	case game.ProvideInstance:
		if err := a.ExpectSource(msg, a.provider); err != nil {
			return err
		}

		a.state = connectingState{}
		a.Effector().Send(a.connInput, m)

		return nil
	}

	return a.unexpected(msg)
}

func (a *Agent) connecting(msg actor.Message) error {
	if _, ok := msg.Payload.(client.ClientReady); !ok {
		return a.unexpected(msg)
	}

	if err := a.ExpectSource(msg, a.conn); err != nil {
		return err
	}

	a.state = connectedState{}
	a.Effector().Send(a.controller, game.Ready{})

	return nil
}

func (a *Agent) connected(msg actor.Message) error {
	switch m := msg.Payload.(type) {
	case game.CreateGame:
		if err := a.ExpectSource(msg, a.controller); err != nil {
			return err
		}

		a.createGame(m)

		return nil
	case game.GameReady:
		if err := a.ExpectSource(msg, a.controller); err != nil {
			return err
		}

		a.startGame(m)

		return nil
	case client.ClientClosed:
		return a.lostConnection(msg)
	}

	return a.unexpected(msg)
}

func (a *Agent) creating(msg actor.Message) error {
	switch m := msg.Payload.(type) {
	case gameCreated:
		if err := a.ExpectSource(msg, a.Effector().Self()); err != nil {
			return err
		}

		if m.err != nil {
			return errors.Wrap(m.err, "creating game")
		}

		a.state = connectedState{}
		a.Effector().Send(a.controller, game.GameCreated{})

		return nil
	case client.ClientClosed:
		return a.lostConnection(msg)
	}

	return a.unexpected(msg)
}

func (a *Agent) playing(msg actor.Message) error {
	switch m := msg.Payload.(type) {
	case gameFinished:
		if err := a.ExpectSource(msg, a.Effector().Self()); err != nil {
			return err
		}

		if m.err != nil {
			return m.err
		}

		a.state = leavingState{}
		a.Effector().Send(a.conn, client.ClientDisconnect{})

		return nil
	case client.ClientClosed:
		if err := a.ExpectSource(msg, a.conn); err != nil {
			return err
		}

		a.requests.failAll(client.ErrTransportClosed)

		return nil
	}

	return a.unexpected(msg)
}

func (a *Agent) leaving(msg actor.Message) error {
	if _, ok := msg.Payload.(client.ClientClosed); !ok {
		return a.unexpected(msg)
	}

	if err := a.ExpectSource(msg, a.conn); err != nil {
		return err
	}

	a.games++
	a.state = idleState{}
	a.Effector().Send(a.controller, game.GameEnded{})

	return nil
}

func (a *Agent) lostConnection(msg actor.Message) error {
	if err := a.ExpectSource(msg, a.conn); err != nil {
		return err
	}

	return errors.Wrapf(client.ErrTransportClosed,
		"%s while %s", a.Name(), a.state.stateName())
}
