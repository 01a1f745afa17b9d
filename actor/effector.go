package actor

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// An Effector lets an actor act on the network. All the methods are safe to
// call from any goroutine, except Spawn, which must be called from the
// actor's own handler.
type Effector struct {
	net    *Network
	self   *entry
	logger *logrus.Entry
}

func newEffector(n *Network, e *entry) *Effector {
	return &Effector{
		net:    n,
		self:   e,
		logger: n.logger.WithField("actor", e.name),
	}
}

// Self returns the ID of the actor.
func (e *Effector) Self() ID {
	return e.self.id
}

// Name returns the name of the actor.
func (e *Effector) Name() string {
	return e.self.name
}

// Logger returns a logger tagged with the actor name.
func (e *Effector) Logger() *logrus.Entry {
	return e.logger
}

// Send posts a payload to another actor. Payloads sent to unknown actors, or
// after the network stopped, are dropped.
func (e *Effector) Send(dst ID, payload interface{}) {
	e.net.post(e.self.id, dst, payload)
}

// SendInOrder posts several payloads to the same actor, one after another.
func (e *Effector) SendInOrder(dst ID, payloads ...interface{}) {
	for _, p := range payloads {
		e.Send(dst, p)
	}
}

// SendSelf posts a payload back to the actor itself.
func (e *Effector) SendSelf(payload interface{}) {
	e.Send(e.self.id, payload)
}

// After posts a payload back to the actor itself once the delay passed.
func (e *Effector) After(delay time.Duration, payload interface{}) *time.Timer {
	return time.AfterFunc(delay, func() {
		e.SendSelf(payload)
	})
}

// Spawn runs a task in its own goroutine. The context is cancelled when the
// network stops, and the network waits for the task before Run returns.
// Tasks report back by sending messages.
func (e *Effector) Spawn(task func(ctx context.Context)) {
	e.net.spawn(task)
}

// Fail terminates the network with an error.
func (e *Effector) Fail(err error) {
	e.net.mailbox.push(item{
		kind: itemFail,
		src:  e.self.id,
		err:  errors.Wrapf(err, "actor %s", e.self.name),
	})
}

// Stop terminates the network normally.
func (e *Effector) Stop() {
	e.net.Stop()
}

// ReqInput returns the only actor connected to the given input role.
func (e *Effector) ReqInput(role Role) (ID, error) {
	return e.only(Input, role, e.self.inputs[role])
}

// ReqOutput returns the only actor connected to the given output role.
func (e *Effector) ReqOutput(role Role) (ID, error) {
	return e.only(Output, role, e.self.outputs[role])
}

// VarInputs returns the actors connected to the given input role, in the
// order they were connected.
func (e *Effector) VarInputs(role Role) []ID {
	return append([]ID(nil), e.self.inputs[role]...)
}

// VarOutputs returns the actors connected to the given output role, in the
// order they were connected.
func (e *Effector) VarOutputs(role Role) []ID {
	return append([]ID(nil), e.self.outputs[role]...)
}

// SendReqInput sends a payload to the only actor of the given input role.
func (e *Effector) SendReqInput(role Role, payload interface{}) error {
	dst, err := e.ReqInput(role)
	if err != nil {
		return err
	}

	e.Send(dst, payload)

	return nil
}

// SendReqOutput sends a payload to the only actor of the given output role.
func (e *Effector) SendReqOutput(role Role, payload interface{}) error {
	dst, err := e.ReqOutput(role)
	if err != nil {
		return err
	}

	e.Send(dst, payload)

	return nil
}

func (e *Effector) only(dir Direction, role Role, ids []ID) (ID, error) {
	if len(ids) != 1 {
		return External, errors.Errorf(
			"actor %s: expected exactly one %s of role %s, found %d",
			e.self.name, dir, role, len(ids))
	}

	return ids[0], nil
}
