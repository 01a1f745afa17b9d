package actor

import (
	"github.com/pkg/errors"
)

// An Actor reacts to the events delivered by a network. Update is always
// called from the network's event loop, one event at a time.
type Actor interface {
	// Ports declares the connections the actor accepts.
	Ports() PortSpec

	// Update handles an event. Returning an error terminates the network.
	Update(evt Event) error
}

// Base provides the bookkeeping shared by all actors.
type Base struct {
	ports PortSpec
	eff   *Effector
}

// NewBase creates a Base that declares the given ports.
func NewBase(ports PortSpec) *Base {
	return &Base{ports: ports}
}

// Ports returns the declared ports.
func (b *Base) Ports() PortSpec {
	return b.ports
}

// Intercept consumes the events that the base handles by itself. It returns
// true if the actor should not process the event further.
func (b *Base) Intercept(evt Event) bool {
	init, ok := evt.(Init)
	if !ok {
		return false
	}

	b.eff = init.Effector

	return true
}

// Effector returns the effector received on Init.
func (b *Base) Effector() *Effector {
	if b.eff == nil {
		panic("actor is not initialized")
	}

	return b.eff
}

// Name returns the name the actor is registered with. It is empty before
// Init.
func (b *Base) Name() string {
	if b.eff == nil {
		return ""
	}

	return b.eff.Name()
}

// ExpectSource checks the provenance of a message.
func (b *Base) ExpectSource(msg Message, want ID) error {
	if msg.Src == want {
		return nil
	}

	return errors.Errorf(
		"%s: message %T from %q, expected from %q",
		b.Name(), msg.Payload, msg.Src, want)
}
