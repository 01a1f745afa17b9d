package agent

import (
	"context"
	"sync"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/client"
	"github.com/sarchlab/sc2melee/game"
	"github.com/sarchlab/sc2melee/wire"
)

// fakeInstance plays games that end after a number of steps. A game that
// is never stepped advances one loop per observation, as in real time.
type fakeInstance struct {
	lock        sync.Mutex
	steps       int
	loop        uint32
	stepped     bool
	createError bool
	dials       int
	requests    []wire.Kind
	actions     [][][]byte
}

func newFakeInstance(steps int) *fakeInstance {
	return &fakeInstance{steps: steps}
}

func (f *fakeInstance) Dial(context.Context, string) (client.Transport, error) {
	f.lock.Lock()
	f.dials++
	f.lock.Unlock()

	return &fakeConn{
		instance: f,
		incoming: make(chan client.Frame, 100),
		closed:   make(chan struct{}),
	}, nil
}

type fakeConn struct {
	instance  *fakeInstance
	incoming  chan client.Frame
	closed    chan struct{}
	closeOnce sync.Once
}

func (f *fakeConn) Read(ctx context.Context) (client.Frame, error) {
	select {
	case frame := <-f.incoming:
		return frame, nil
	case <-f.closed:
		return client.Frame{}, client.ErrTransportClosed
	case <-ctx.Done():
		return client.Frame{}, ctx.Err()
	}
}

func (f *fakeConn) Write(_ context.Context, data []byte) error {
	req, err := wire.UnmarshalRequest(data)
	if err != nil {
		return err
	}

	rsp := f.instance.respond(req)

	b, err := rsp.Marshal()
	if err != nil {
		return err
	}

	f.incoming <- client.Frame{Type: client.Binary, Data: b}

	return nil
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeInstance) respond(req *wire.Request) *wire.Response {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.requests = append(f.requests, req.Kind)
	rsp := &wire.Response{Kind: req.Kind, Status: wire.StatusInGame}

	switch req.Kind {
	case wire.CreateGame:
		f.loop = 0
		f.stepped = false
		rsp.Status = wire.StatusInitGame
		if f.createError {
			var m []byte
			m = protowire.AppendTag(m, 1, protowire.VarintType)
			m = protowire.AppendVarint(m, 2)
			rsp.Payload = m
		}
	case wire.JoinGame:
		var m []byte
		m = protowire.AppendTag(m, 1, protowire.VarintType)
		m = protowire.AppendVarint(m, 1)
		rsp.Payload = m
	case wire.Observation:
		rsp.Payload = f.observation()
		if int(f.loop) >= f.steps {
			rsp.Status = wire.StatusEnded
		} else if !f.stepped {
			f.loop++
		}
	case wire.Step:
		f.stepped = true
		f.loop++
	case wire.Action:
		f.actions = append(f.actions, wire.RepeatedBytes(req.Payload, 1))
	case wire.LeaveGame:
		rsp.Status = wire.StatusLaunched
		rsp.Errors = []string{"not in a game"}
	}

	return rsp
}

func (f *fakeInstance) observation() []byte {
	var obs []byte
	obs = protowire.AppendTag(obs, 9, protowire.VarintType)
	obs = protowire.AppendVarint(obs, uint64(f.loop))

	var m []byte
	m = protowire.AppendTag(m, 2, protowire.BytesType)
	m = protowire.AppendBytes(m, obs)

	if int(f.loop) >= f.steps {
		var result []byte
		result = protowire.AppendTag(result, 1, protowire.VarintType)
		result = protowire.AppendVarint(result, 1)
		result = protowire.AppendTag(result, 2, protowire.VarintType)
		result = protowire.AppendVarint(result, uint64(wire.Victory))

		m = protowire.AppendTag(m, 3, protowire.BytesType)
		m = protowire.AppendBytes(m, result)
	}

	return m
}

func (f *fakeInstance) sentActions() [][][]byte {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.actions
}

func (f *fakeInstance) dialCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.dials
}

func (f *fakeInstance) sentRequests() []wire.Kind {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.requests
}

// recordingPlayer queues one action per step and records what it sees.
type recordingPlayer struct {
	loops   []uint32
	start   *GameStart
	results []wire.PlayerResult
}

func (p *recordingPlayer) PlayerSetup(game.Settings) game.PlayerSetup {
	return game.NewPlayer(game.Zerg, "recorder")
}

func (p *recordingPlayer) OnGameStart(_ context.Context, start GameStart) error {
	p.start = &start
	return nil
}

func (p *recordingPlayer) OnStep(ctx context.Context, step Step) error {
	p.loops = append(p.loops, step.GameLoop)
	return step.Actions.SendAction(ctx, []byte{byte(step.GameLoop)})
}

func (p *recordingPlayer) OnGameEnd(_ context.Context, results []wire.PlayerResult) error {
	p.results = results
	return nil
}

// controller walks an agent through one game, the way the orchestrator
// does.
type controller struct {
	*actor.Base

	agent    actor.ID
	settings game.Settings
	received []interface{}
	games    int
	replay   bool
}

func newController() *controller {
	return &controller{
		Base: actor.NewBase(actor.PortSpec{
			Outputs: []actor.Constraint{
				actor.RequireOne(game.RoleController),
				actor.RequireOne(game.RoleInstanceProvider),
			},
		}),
		settings: game.Settings{Map: "Test.SC2Map"},
	}
}

func (c *controller) Update(evt actor.Event) error {
	if c.Intercept(evt) {
		return nil
	}

	eff := c.Effector()

	switch e := evt.(type) {
	case actor.Start:
		eff.Send(c.agent, game.RequestPlayerSetup{Settings: c.settings})
	case actor.Message:
		c.received = append(c.received, e.Payload)

		switch e.Payload.(type) {
		case game.PlayerSetupReply:
			eff.Send(c.agent, game.ProvideInstance{
				ID:  game.NewInstanceID(),
				URL: "ws://127.0.0.1:9168/sc2api",
			})
		case game.Ready:
			eff.Send(c.agent, game.CreateGame{
				Settings: c.settings,
				Players:  []game.PlayerSetup{game.NewPlayer(game.Zerg, "")},
			})
		case game.GameCreated:
			eff.Send(c.agent, game.GameReady{
				Setup: game.NewPlayer(game.Zerg, "recorder"),
			})
		case game.GameEnded:
			c.games++
			if c.replay && c.games < 2 {
				eff.Send(c.agent, game.RequestPlayerSetup{Settings: c.settings})
				return nil
			}

			eff.Stop()
		}
	}

	return nil
}
