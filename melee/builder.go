package melee

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/datarecording"
	"github.com/sarchlab/sc2melee/game"
	"github.com/sarchlab/sc2melee/monitoring"
)

// A Participant adds the actors that play one side of the melee to a
// network. The returned actor must accept the Controller and the
// InstanceProvider roles as inputs.
type Participant interface {
	Join(net *actor.Network, name string) actor.ID
}

// ParticipantFunc is a function that can be used as a Participant.
type ParticipantFunc func(net *actor.Network, name string) actor.ID

// Join calls f.
func (f ParticipantFunc) Join(net *actor.Network, name string) actor.ID {
	return f(net, name)
}

// Builder can build melee networks.
type Builder struct {
	launcher     actor.Actor
	players      []Participant
	suite        Suite
	breaker      bool
	hooks        []actor.Hook
	monitor      *monitoring.Monitor
	dataRecorder datarecording.DataRecorder
}

// MakeBuilder creates a builder that plays a single game on the default
// settings.
func MakeBuilder() Builder {
	return Builder{suite: OneAndDone(game.Settings{})}
}

// WithLauncher sets the actor that launches game instances.
func (b Builder) WithLauncher(l actor.Actor) Builder {
	b.launcher = l
	return b
}

// WithPlayers sets the two participants.
func (b Builder) WithPlayers(players ...Participant) Builder {
	b.players = players
	return b
}

// WithSuite sets the games to play.
func (b Builder) WithSuite(s Suite) Builder {
	b.suite = s
	return b
}

// WithInterruptBreaker stops the network on interrupt signals.
func (b Builder) WithInterruptBreaker() Builder {
	b.breaker = true
	return b
}

// WithHook adds a hook to the melee actor.
func (b Builder) WithHook(h actor.Hook) Builder {
	b.hooks = append(b.hooks, h)
	return b
}

// WithMonitor registers the network to a monitor and reports the games
// played as a progress bar.
func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}

// WithDataRecorder records the result of each game.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.dataRecorder = r
	return b
}

// Build creates a network that contains the melee, the launcher, and the
// participants. The network is validated when it runs.
func (b Builder) Build() (*actor.Network, *Melee, error) {
	if b.launcher == nil {
		return nil, nil, errors.New("melee requires a launcher")
	}

	for _, p := range b.players {
		if p == nil {
			return nil, nil, errors.New("participant must not be nil")
		}
	}

	net := actor.NewNetwork("Melee")

	m := New(b.suite)
	for _, h := range b.hooks {
		m.AcceptHook(h)
	}

	if b.dataRecorder != nil {
		m.AcceptHook(NewResultRecorder(b.dataRecorder))
	}

	meleeID := net.Add("Melee", m)
	launcherID := net.Add("Launcher", b.launcher)
	net.Connect(meleeID, launcherID, game.RoleLauncher)

	for i, p := range b.players {
		id := p.Join(net, fmt.Sprintf("Player%d", i+1))
		net.Connect(meleeID, id, game.RoleController)
		net.Connect(meleeID, id, game.RoleInstanceProvider)
	}

	if b.breaker {
		net.Add("InterruptBreaker", actor.NewInterruptBreaker())
	}

	if b.monitor != nil {
		b.monitor.RegisterNetwork(net)
		m.AcceptHook(newProgressHook(b.monitor, b.suite))
	}

	return net, m, nil
}

// progressHook shows the games of the suite as a progress bar.
type progressHook struct {
	monitor *monitoring.Monitor
	bar     *monitoring.ProgressBar
}

func newProgressHook(m *monitoring.Monitor, s Suite) *progressHook {
	return &progressHook{
		monitor: m,
		bar:     m.CreateProgressBar("Games", uint64(s.Games)),
	}
}

func (h *progressHook) Func(ctx actor.HookCtx) {
	switch ctx.Pos {
	case HookPosGameStart:
		h.bar.IncrementInProgress(1)
	case HookPosGameEnd:
		h.bar.MoveInProgressToFinished(1)
	case HookPosPhase:
		if change, ok := ctx.Item.(PhaseChange); ok &&
			change.To == (completedPhase{}).phaseName() {
			h.monitor.CompleteProgressBar(h.bar)
		}
	}
}
