package launcher

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/client"
	"github.com/sarchlab/sc2melee/game"
)

// A Launcher is the actor that starts game instances and reserves game
// ports for the actors connected to it.
type Launcher struct {
	*actor.Base
	actor.HookableBase

	settings Settings
	install  Install
	starter  Starter

	nextPort  int32
	instances []game.Instance
	ports     []game.Ports
	processes []Process
}

// Builder can build launchers.
type Builder struct {
	settings Settings
	install  *Install
	starter  Starter
}

// MakeBuilder creates a builder with default settings.
func MakeBuilder() Builder {
	return Builder{
		settings: DefaultSettings(),
		starter:  ExecStarter{},
	}
}

// WithSettings sets the launcher settings.
func (b Builder) WithSettings(s Settings) Builder {
	b.settings = s
	return b
}

// WithInstall skips detection and uses the given installation.
func (b Builder) WithInstall(i Install) Builder {
	b.install = &i
	return b
}

// WithStarter sets how processes are started.
func (b Builder) WithStarter(s Starter) Builder {
	b.starter = s
	return b
}

// Build creates a launcher. It detects the installation if none is given.
func (b Builder) Build() (*Launcher, error) {
	if b.settings.BasePort <= 0 {
		return nil, errors.Errorf("invalid base port %d", b.settings.BasePort)
	}

	var install Install
	if b.install != nil {
		install = *b.install
	} else {
		var err error
		if install, err = Detect(b.settings); err != nil {
			return nil, err
		}
	}

	if b.settings.Host == "" {
		b.settings.Host = DefaultSettings().Host
	}

	return &Launcher{
		Base: actor.NewBase(actor.PortSpec{
			Inputs: []actor.Constraint{actor.Variadic(game.RoleLauncher)},
		}),
		settings: b.settings,
		install:  install,
		starter:  b.starter,
		nextPort: b.settings.BasePort,
	}, nil
}

// Instances returns the launched instances, in launch order.
func (l *Launcher) Instances() []game.Instance {
	return append([]game.Instance(nil), l.instances...)
}

// Update handles an event.
func (l *Launcher) Update(evt actor.Event) error {
	if l.Intercept(evt) {
		return nil
	}

	switch e := evt.(type) {
	case actor.Message:
		return l.handle(e)
	case actor.Stop:
		l.killAll()
	}

	return nil
}

func (l *Launcher) handle(msg actor.Message) error {
	if err := l.expectRequester(msg); err != nil {
		return err
	}

	eff := l.Effector()

	switch msg.Payload.(type) {
	case game.GetInstancePool:
		eff.Send(msg.Src, l.instancePool())
	case game.GetPortsPool:
		eff.Send(msg.Src, l.portsPool())
	case game.LaunchInstance:
		if err := l.launch(); err != nil {
			return err
		}

		eff.SendInOrder(msg.Src, l.instancePool(), l.portsPool())
	default:
		return actor.Unexpected(l.Name(), "Serving", msg)
	}

	return nil
}

func (l *Launcher) expectRequester(msg actor.Message) error {
	for _, id := range l.Effector().VarInputs(game.RoleLauncher) {
		if id == msg.Src {
			return nil
		}
	}

	return errors.Errorf("%s: message %T from %q, which is not a requester",
		l.Name(), msg.Payload, msg.Src)
}

func (l *Launcher) instancePool() game.InstancePool {
	return game.InstancePool{Instances: l.Instances()}
}

func (l *Launcher) portsPool() game.PortsPool {
	ports := make([]game.Ports, 0, len(l.ports))
	for _, p := range l.ports {
		ports = append(ports, p.Clone())
	}

	return game.PortsPool{Ports: ports}
}

// launch starts an instance listening on the next port, with its game and
// base ports right after. It reserves one set of game ports per two
// instances.
func (l *Launcher) launch() error {
	port := l.take()
	cmd := instanceCommand(l.install, l.settings, port)

	proc, err := l.starter.Start(cmd)
	if err != nil {
		return errors.Wrap(err, "launching instance")
	}

	instance := game.Instance{
		ID:  game.NewInstanceID(),
		URL: client.InstanceURL(l.settings.Host, int(port)),
		Ports: game.PortSet{
			GamePort: port + 1,
			BasePort: port + 2,
		},
	}
	l.instances = append(l.instances, instance)
	l.processes = append(l.processes, proc)

	l.Effector().Logger().
		WithField("instance", instance.ID.String()).
		WithField("url", instance.URL).
		WithField("pid", proc.Pid()).
		Info("instance launched")

	if len(l.ports) < (len(l.instances)+1)/2 {
		shared := l.take()
		l.ports = append(l.ports, game.Ports{
			SharedPort: shared,
			ServerPorts: game.PortSet{
				GamePort: shared + 1,
				BasePort: shared + 2,
			},
		})
	}

	return nil
}

// take reserves three consecutive ports and returns the first.
func (l *Launcher) take() int32 {
	port := l.nextPort
	l.nextPort += 3

	return port
}

func (l *Launcher) killAll() {
	for i, p := range l.processes {
		if err := p.Kill(); err != nil {
			l.Effector().Logger().WithError(err).
				WithField("instance", l.instances[i].ID.String()).
				Warn("failed to kill instance")
		}
	}

	l.processes = nil
}
