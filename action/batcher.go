package action

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/xid"

	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/game"
	"github.com/sarchlab/sc2melee/tracing"
	"github.com/sarchlab/sc2melee/wire"
)

// DefaultCapacity is the number of commands a batch holds by default.
const DefaultCapacity = 4096

// ErrBatchFull is returned when a command is queued on a full batch.
var ErrBatchFull = errors.New("batch is full")

// A Batcher holds the action and debug commands of its owner until the owner
// steps it. A step sends the action batch, then the debug batch, as two
// requests.
type Batcher struct {
	*actor.Base
	actor.HookableBase

	requests RequestClient
	actions  actor.Buffer
	debug    actor.Buffer

	owner    actor.ID
	flushing bool
	steps    []chan<- error
}

// Builder can build batchers.
type Builder struct {
	capacity int
	requests RequestClient
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{capacity: DefaultCapacity}
}

// WithCapacity sets the number of commands each batch can hold.
func (b Builder) WithCapacity(n int) Builder {
	b.capacity = n
	return b
}

// WithRequestClient sets the client that sends the batches.
func (b Builder) WithRequestClient(rc RequestClient) Builder {
	b.requests = rc
	return b
}

// Build creates a batcher.
func (b Builder) Build(name string) *Batcher {
	if b.requests == nil {
		panic("batcher requires a request client")
	}

	return &Batcher{
		Base: actor.NewBase(actor.PortSpec{
			Inputs: []actor.Constraint{actor.RequireOne(game.RoleAgent)},
		}),
		requests: b.requests,
		actions:  actor.NewBuffer(name+".Actions", b.capacity),
		debug:    actor.NewBuffer(name+".Debug", b.capacity),
	}
}

// Queued returns the number of action and debug commands waiting for the
// next step.
func (b *Batcher) Queued() (actions, debug int) {
	return b.actions.Size(), b.debug.Size()
}

// Update handles an event.
func (b *Batcher) Update(evt actor.Event) error {
	if b.Intercept(evt) {
		return nil
	}

	switch e := evt.(type) {
	case actor.Start:
		owner, err := b.Effector().ReqInput(game.RoleAgent)
		if err != nil {
			return err
		}

		b.owner = owner
	case actor.Message:
		return b.handle(e)
	}

	return nil
}

func (b *Batcher) handle(msg actor.Message) error {
	switch m := msg.Payload.(type) {
	case queueCommand:
		if err := b.ExpectSource(msg, b.owner); err != nil {
			return err
		}

		m.ack <- b.enqueue(m)

		return nil
	case stepRequest:
		if err := b.ExpectSource(msg, b.owner); err != nil {
			return err
		}

		b.steps = append(b.steps, m.ack)
		b.flushNext()

		return nil
	case flushDone:
		if err := b.ExpectSource(msg, b.Effector().Self()); err != nil {
			return err
		}

		b.finishFlush(m)

		return nil
	}

	state := "Idle"
	if b.flushing {
		state = "Flushing"
	}

	return actor.Unexpected(b.Name(), state, msg)
}

func (b *Batcher) batch(k batchKind) actor.Buffer {
	if k == debugBatch {
		return b.debug
	}

	return b.actions
}

func (b *Batcher) enqueue(m queueCommand) error {
	buf := b.batch(m.batch)
	if !buf.CanPush() {
		return errors.Wrapf(ErrBatchFull, "%s batch of %s", m.batch, b.Name())
	}

	buf.Push(m.command)

	return nil
}

// flushNext starts the oldest waiting step, unless a flush is running.
func (b *Batcher) flushNext() {
	if b.flushing || len(b.steps) == 0 {
		return
	}

	ack := b.steps[0]
	b.steps = b.steps[1:]
	b.flushing = true

	done := flushDone{
		step:    xid.New().String(),
		ack:     ack,
		actions: b.actions.Drain(),
		debug:   b.debug.Drain(),
	}

	tracing.StartTask(done.step, "", b, "step", "flush", nil)

	eff := b.Effector()
	rc := b.requests
	eff.Spawn(func(ctx context.Context) {
		eff.SendSelf(flush(ctx, rc, done))
	})
}

func flush(ctx context.Context, rc RequestClient, done flushDone) flushDone {
	_, err := rc.Request(ctx, wire.NewAction(commands(done.actions)))
	if err != nil {
		done.err = errors.Wrap(err, "sending actions")
		return done
	}

	done.actions = nil

	_, err = rc.Request(ctx, wire.NewDebug(commands(done.debug)))
	if err != nil {
		done.err = errors.Wrap(err, "sending debug commands")
		return done
	}

	done.debug = nil

	return done
}

func (b *Batcher) finishFlush(m flushDone) {
	b.flushing = false

	if m.err != nil {
		b.actions.Restore(m.actions)
		b.debug.Restore(m.debug)

		b.Effector().Logger().WithError(m.err).
			WithField("actions", len(m.actions)).
			WithField("debug", len(m.debug)).
			Warn("step failed, commands queued again")
		tracing.AddTaskStep(m.step, b, "failed")
	}

	tracing.EndTask(m.step, b)

	m.ack <- m.err

	b.flushNext()
}

func commands(elements []interface{}) [][]byte {
	cmds := make([][]byte, 0, len(elements))
	for _, e := range elements {
		cmds = append(cmds, e.([]byte))
	}

	return cmds
}
