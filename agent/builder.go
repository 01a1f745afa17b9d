package agent

import (
	"time"

	"github.com/sarchlab/sc2melee/action"
	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/client"
	"github.com/sarchlab/sc2melee/game"
	"github.com/sarchlab/sc2melee/tracing"
)

// Builder can build agents.
type Builder struct {
	player        Player
	dialer        client.Dialer
	connectDelay  time.Duration
	stepSize      uint32
	batchCapacity int
	tracers       []tracing.Tracer
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		dialer:        client.WebsocketDialer{},
		connectDelay:  client.ConnectDelay,
		stepSize:      1,
		batchCapacity: action.DefaultCapacity,
	}
}

// WithPlayer sets the player the agent drives.
func (b Builder) WithPlayer(p Player) Builder {
	b.player = p
	return b
}

// WithDialer sets the dialer of the agent's connection.
func (b Builder) WithDialer(d client.Dialer) Builder {
	b.dialer = d
	return b
}

// WithConnectDelay sets the wait before each connection attempt.
func (b Builder) WithConnectDelay(d time.Duration) Builder {
	b.connectDelay = d
	return b
}

// WithStepSize sets the number of game loops per step.
func (b Builder) WithStepSize(n uint32) Builder {
	b.stepSize = n
	return b
}

// WithBatchCapacity sets the number of commands a step can carry.
func (b Builder) WithBatchCapacity(n int) Builder {
	b.batchCapacity = n
	return b
}

// WithTracer traces the steps of the agent's batcher.
func (b Builder) WithTracer(t tracing.Tracer) Builder {
	b.tracers = append(b.tracers[:len(b.tracers):len(b.tracers)], t)
	return b
}

// Build creates an agent. The agent needs a connection and a batcher, see
// Join.
func (b Builder) Build() *Agent {
	if b.player == nil {
		panic("agent requires a player")
	}

	if b.stepSize == 0 {
		panic("step size must be positive")
	}

	return &Agent{
		Base: actor.NewBase(actor.PortSpec{
			Inputs: []actor.Constraint{
				actor.RequireOne(game.RoleController),
				actor.RequireOne(game.RoleInstanceProvider),
			},
			Outputs: []actor.Constraint{
				actor.RequireOne(game.RoleClient),
				actor.RequireOne(game.RoleInstanceProvider),
				actor.RequireOne(game.RoleAgent),
			},
		}),
		player:   b.player,
		stepSize: b.stepSize,
		requests: newRequestClient(),
		state:    idleState{},
	}
}

// Join adds an agent to the network, together with its connection and its
// batcher. It returns the agent.
func (b Builder) Join(net *actor.Network, name string) (*Agent, actor.ID) {
	a := b.Build()
	conn := client.MakeBuilder().
		WithDialer(b.dialer).
		WithConnectDelay(b.connectDelay).
		Build()
	batcher := action.MakeBuilder().
		WithCapacity(b.batchCapacity).
		WithRequestClient(a.Requests()).
		Build(name + ".Batcher")
	for _, t := range b.tracers {
		tracing.CollectTrace(batcher, t)
	}

	agentID := net.Add(name, a)
	connID := net.Add(name+".Connection", conn)
	batcherID := net.Add(name+".Batcher", batcher)

	net.Connect(agentID, connID, game.RoleClient)
	net.Connect(agentID, connID, game.RoleInstanceProvider)
	net.Connect(agentID, batcherID, game.RoleAgent)

	return a, agentID
}

// Join adds an agent driving the player to the network, with the default
// parameters.
func Join(net *actor.Network, name string, player Player) actor.ID {
	_, id := MakeBuilder().WithPlayer(player).Join(net, name)
	return id
}
