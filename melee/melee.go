// Package melee orchestrates games between two participants, either two
// bots or a bot and the built-in AI.
package melee

import (
	"time"

	"github.com/pkg/errors"

	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/game"
)

// ErrInvalidPlayers is returned when the participants cannot play against
// each other.
var ErrInvalidPlayers = errors.New("invalid player setups")

// A Melee is the actor that walks two participants through the games of a
// suite. It asks them how they play, gets game instances from the launcher,
// and tells the participants when to create, join, and leave games.
type Melee struct {
	*actor.Base
	actor.HookableBase

	suite  Suite
	phase  phase
	played int
	record GameRecord

	launcher  actor.ID
	agents    [2]actor.ID
	providers [2]actor.ID
}

// New creates a melee that plays the suite.
func New(suite Suite) *Melee {
	return &Melee{
		Base: actor.NewBase(actor.PortSpec{
			Outputs: []actor.Constraint{
				actor.RequireOne(game.RoleLauncher),
				actor.RequireExactly(game.RoleController, 2),
				actor.RequireExactly(game.RoleInstanceProvider, 2),
			},
		}),
		suite: suite,
		phase: initPhase{},
	}
}

// State returns the name of the current phase.
func (m *Melee) State() string {
	return m.phase.phaseName()
}

// Played returns the number of games played.
func (m *Melee) Played() int {
	return m.played
}

// Suite returns the suite the melee plays.
func (m *Melee) Suite() Suite {
	return m.suite
}

// Update handles an event.
func (m *Melee) Update(evt actor.Event) error {
	if m.Intercept(evt) {
		return nil
	}

	switch e := evt.(type) {
	case actor.Start:
		return m.start()
	case actor.Message:
		return m.handle(e)
	}

	return nil
}

func (m *Melee) start() error {
	eff := m.Effector()

	launcher, err := eff.ReqOutput(game.RoleLauncher)
	if err != nil {
		return err
	}

	m.launcher = launcher
	copy(m.agents[:], eff.VarOutputs(game.RoleController))
	copy(m.providers[:], eff.VarOutputs(game.RoleInstanceProvider))

	m.setup()

	return nil
}

func (m *Melee) handle(msg actor.Message) error {
	if m.isStalePool(msg) {
		return nil
	}

	switch p := m.phase.(type) {
	case *setupPhase:
		return m.inSetup(p, msg)
	case *launchPhase:
		return m.inLaunch(p, msg)
	case *pvpPhase:
		return m.inPvP(p, msg)
	case *pvcPhase:
		return m.inPvC(p, msg)
	}

	return m.unexpected(msg)
}

// isStalePool tells if the message is a pool the launcher sent after a
// launch that the melee no longer waits for.
func (m *Melee) isStalePool(msg actor.Message) bool {
	if _, launching := m.phase.(*launchPhase); launching {
		return false
	}

	if msg.Src != m.launcher {
		return false
	}

	switch msg.Payload.(type) {
	case game.InstancePool, game.PortsPool:
		return true
	}

	return false
}

func (m *Melee) unexpected(msg actor.Message) error {
	return actor.Unexpected(m.Name(), m.phase.phaseName(), msg)
}

func (m *Melee) enter(next phase) {
	change := PhaseChange{From: m.phase.phaseName(), To: next.phaseName()}
	m.phase = next

	m.Effector().Logger().
		WithField("from", change.From).
		WithField("to", change.To).
		Debug("phase changed")

	m.InvokeHook(actor.HookCtx{Domain: m, Pos: HookPosPhase, Item: change})
}

// side returns the index of the participant that sent a message.
func (m *Melee) side(msg actor.Message) (int, error) {
	for i, id := range m.agents {
		if id == msg.Src {
			return i, nil
		}
	}

	return -1, errors.Errorf("%s: %T from %q, which is not a participant",
		m.Name(), msg.Payload, msg.Src)
}

func (m *Melee) setup() {
	m.enter(&setupPhase{})

	eff := m.Effector()
	for _, agent := range m.agents {
		eff.Send(agent, game.RequestPlayerSetup{Settings: m.suite.Settings})
	}
}

func (m *Melee) inSetup(p *setupPhase, msg actor.Message) error {
	reply, ok := msg.Payload.(game.PlayerSetupReply)
	if !ok {
		return m.unexpected(msg)
	}

	i, err := m.side(msg)
	if err != nil {
		return err
	}

	setup := reply.Setup
	p.setups[i] = &setup

	if p.setups[0] == nil || p.setups[1] == nil {
		return nil
	}

	return m.launch([2]game.PlayerSetup{*p.setups[0], *p.setups[1]})
}

func classify(players [2]game.PlayerSetup) (Mode, error) {
	switch {
	case players[0].IsPlayer() && players[1].IsPlayer():
		return PlayerVsPlayer, nil
	case players[0].IsPlayer() && players[1].IsComputer(),
		players[0].IsComputer() && players[1].IsPlayer():
		return PlayerVsComputer, nil
	}

	return "", errors.Wrapf(ErrInvalidPlayers, "%s and %s", players[0], players[1])
}

func (m *Melee) launch(players [2]game.PlayerSetup) error {
	mode, err := classify(players)
	if err != nil {
		return err
	}

	m.enter(&launchPhase{mode: mode, players: players})

	m.Effector().SendInOrder(m.launcher,
		game.GetInstancePool{}, game.GetPortsPool{})

	return nil
}

func (m *Melee) inLaunch(p *launchPhase, msg actor.Message) error {
	switch pool := msg.Payload.(type) {
	case game.InstancePool:
		if err := m.ExpectSource(msg, m.launcher); err != nil {
			return err
		}

		p.instances = pool.Instances
		p.poolKnown = true
	case game.PortsPool:
		if err := m.ExpectSource(msg, m.launcher); err != nil {
			return err
		}

		p.ports = pool.Ports
	default:
		return m.unexpected(msg)
	}

	m.launchShortfall(p)
	m.tryProvide(p)

	return nil
}

// launchShortfall asks for the instances the pool lacks, counting the
// launches already requested.
func (m *Melee) launchShortfall(p *launchPhase) {
	if !p.poolKnown {
		return
	}

	want := 1
	if p.mode == PlayerVsPlayer {
		want = 2
	}

	for len(p.instances)+p.launched < want {
		m.Effector().Send(m.launcher, game.LaunchInstance{})
		p.launched++
	}
}

func (m *Melee) tryProvide(p *launchPhase) {
	eff := m.Effector()

	if p.mode == PlayerVsPlayer {
		if len(p.instances) < 2 || len(p.ports) < 1 {
			return
		}

		ports := p.ports[0].Clone()
		ports.ClientPorts = []game.PortSet{
			p.instances[0].Ports, p.instances[1].Ports,
		}

		for i := range m.providers {
			eff.Send(m.providers[i], game.ProvideInstance{
				ID:  p.instances[i].ID,
				URL: p.instances[i].URL,
			})
		}

		m.enter(&pvpPhase{players: p.players, ports: ports})

		return
	}

	if len(p.instances) < 1 {
		return
	}

	player, computer := 0, 1
	if !p.players[0].IsPlayer() {
		player, computer = 1, 0
	}

	eff.Send(m.providers[player], game.ProvideInstance{
		ID:  p.instances[0].ID,
		URL: p.instances[0].URL,
	})

	m.enter(&pvcPhase{
		player:  player,
		players: [2]game.PlayerSetup{p.players[player], p.players[computer]},
	})
}

func (m *Melee) inPvP(p *pvpPhase, msg actor.Message) error {
	i, err := m.side(msg)
	if err != nil {
		return err
	}

	eff := m.Effector()

	switch msg.Payload.(type) {
	case game.Ready:
		if p.ready[i] {
			return m.unexpected(msg)
		}

		p.ready[i] = true
		if p.ready[0] && p.ready[1] {
			eff.Send(m.agents[0], game.CreateGame{
				Settings: m.suite.Settings,
				Players:  p.players[:],
			})
		}

		return nil
	case game.GameCreated:
		if i != 0 || !p.ready[0] || !p.ready[1] || p.created {
			return m.unexpected(msg)
		}

		p.created = true
		m.startGame(PlayerVsPlayer, p.players)

		for j, agent := range m.agents {
			ports := p.ports.Clone()
			eff.Send(agent, game.GameReady{Setup: p.players[j], Ports: &ports})
		}

		return nil
	case game.GameEnded:
		if !p.created || p.ended[i] {
			return m.unexpected(msg)
		}

		p.ended[i] = true
		if p.ended[0] && p.ended[1] {
			m.endGame()
		}

		return nil
	}

	return m.unexpected(msg)
}

func (m *Melee) inPvC(p *pvcPhase, msg actor.Message) error {
	i, err := m.side(msg)
	if err != nil {
		return err
	}

	if i != p.player {
		return m.unexpected(msg)
	}

	eff := m.Effector()
	agent := m.agents[p.player]

	switch msg.Payload.(type) {
	case game.Ready:
		if p.ready {
			return m.unexpected(msg)
		}

		p.ready = true
		eff.Send(agent, game.CreateGame{
			Settings: m.suite.Settings,
			Players:  p.players[:],
		})

		return nil
	case game.GameCreated:
		if !p.ready || p.created {
			return m.unexpected(msg)
		}

		p.created = true
		m.startGame(PlayerVsComputer, p.players)
		eff.Send(agent, game.GameReady{Setup: p.players[0]})

		return nil
	case game.GameEnded:
		if !p.created {
			return m.unexpected(msg)
		}

		m.endGame()

		return nil
	}

	return m.unexpected(msg)
}

func (m *Melee) startGame(mode Mode, players [2]game.PlayerSetup) {
	m.record = GameRecord{
		Game:     m.played + 1,
		Mode:     mode,
		Settings: m.suite.Settings,
		Players:  players,
		Start:    time.Now(),
	}

	m.Effector().Logger().
		WithField("game", m.record.Game).
		WithField("mode", string(mode)).
		WithField("map", m.suite.Settings.Map).
		Info("game starting")

	m.InvokeHook(actor.HookCtx{Domain: m, Pos: HookPosGameStart, Item: m.record})
}

func (m *Melee) endGame() {
	m.played++
	m.record.End = time.Now()

	m.Effector().Logger().
		WithField("game", m.record.Game).
		WithField("duration", m.record.End.Sub(m.record.Start).String()).
		Info("game ended")

	m.InvokeHook(actor.HookCtx{Domain: m, Pos: HookPosGameEnd, Item: m.record})

	if m.suite.HasNext(m.played) {
		m.setup()
		return
	}

	m.enter(completedPhase{})
	m.Effector().Stop()
}
