package actor

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// HookPosBeforeDeliver is triggered before an event is handed to an actor.
var HookPosBeforeDeliver = &HookPos{Name: "BeforeDeliver"}

// HookPosAfterDeliver is triggered after an actor handled an event. The
// detail is the error returned by the actor, if any.
var HookPosAfterDeliver = &HookPos{Name: "AfterDeliver"}

// A Delivery is the item of the deliver hooks.
type Delivery struct {
	Dst   ID
	Actor string
	Event Event
}

// ActorInfo describes an actor registered in a network.
type ActorInfo struct {
	ID    ID
	Name  string
	Actor Actor
}

type entry struct {
	id      ID
	name    string
	actor   Actor
	inputs  map[Role][]ID
	outputs map[Role][]ID

	initialized bool
}

// A Network owns a group of connected actors and runs them on a single
// event loop.
type Network struct {
	HookableBase

	name    string
	logger  *logrus.Entry
	entries []*entry
	byID    map[ID]*entry
	byName  map[string]*entry
	mailbox *mailbox

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	runLock sync.Mutex
	started bool
}

// NewNetwork creates an empty network.
func NewNetwork(name string) *Network {
	return &Network{
		name:    name,
		logger:  logrus.WithField("network", name),
		byID:    make(map[ID]*entry),
		byName:  make(map[string]*entry),
		mailbox: newMailbox(),
		ctx:     context.Background(),
	}
}

// Name returns the name of the network.
func (n *Network) Name() string {
	return n.name
}

// Add registers an actor and returns its ID. Names must be unique within the
// network.
func (n *Network) Add(name string, a Actor) ID {
	n.mustNotBeStarted()

	if name == "" {
		log.Panic("actor name must not be empty")
	}

	if _, found := n.byName[name]; found {
		log.Panicf("actor %s already exists in network %s", name, n.name)
	}

	e := &entry{
		id:      ID(GetIDGenerator().Generate()),
		name:    name,
		actor:   a,
		inputs:  make(map[Role][]ID),
		outputs: make(map[Role][]ID),
	}

	n.entries = append(n.entries, e)
	n.byID[e.id] = e
	n.byName[name] = e

	return e.id
}

// Connect creates a directed connection of the given role. The source owns
// an output of the role and the destination owns an input of the role.
// Messages can flow in both directions.
func (n *Network) Connect(src, dst ID, role Role) {
	n.mustNotBeStarted()

	s := n.mustFind(src)
	d := n.mustFind(dst)

	s.outputs[role] = append(s.outputs[role], dst)
	d.inputs[role] = append(d.inputs[role], src)
}

// Actors lists the actors in the order they were added.
func (n *Network) Actors() []ActorInfo {
	infos := make([]ActorInfo, 0, len(n.entries))
	for _, e := range n.entries {
		infos = append(infos, ActorInfo{ID: e.id, Name: e.name, Actor: e.actor})
	}

	return infos
}

// NameOf returns the name of an actor. It returns an empty string for
// unknown IDs.
func (n *Network) NameOf(id ID) string {
	e, found := n.byID[id]
	if !found {
		return ""
	}

	return e.name
}

// Pending returns the number of messages waiting to be delivered.
func (n *Network) Pending() int {
	return n.mailbox.Len()
}

// Send injects a payload from outside the network. It returns false if the
// network already stopped.
func (n *Network) Send(dst ID, payload interface{}) bool {
	return n.post(External, dst, payload)
}

// Stop asks the network to stop after the messages currently being handled.
func (n *Network) Stop() {
	n.mailbox.push(item{kind: itemStop})
}

// Pause prevents the network from delivering more events.
func (n *Network) Pause() {
	n.isPausedLock.Lock()
	defer n.isPausedLock.Unlock()

	if n.isPaused {
		return
	}

	n.pauseLock.Lock()
	n.isPaused = true
}

// IsPaused checks if the network is paused.
func (n *Network) IsPaused() bool {
	n.isPausedLock.Lock()
	defer n.isPausedLock.Unlock()

	return n.isPaused
}

// Continue allows the network to deliver events again.
func (n *Network) Continue() {
	n.isPausedLock.Lock()
	defer n.isPausedLock.Unlock()

	if !n.isPaused {
		return
	}

	n.pauseLock.Unlock()
	n.isPaused = false
}

// Inspect calls f while no event is being delivered, so that f can read the
// actors' state safely.
func (n *Network) Inspect(f func()) {
	n.isPausedLock.Lock()
	defer n.isPausedLock.Unlock()

	if !n.isPaused {
		n.pauseLock.Lock()
		defer n.pauseLock.Unlock()
	}

	f()
}

// Run validates the connections, starts all the actors and delivers messages
// until the network stops. It returns the error that terminated the network,
// nil if an actor stopped it, or the context error if the context ends first.
func (n *Network) Run(ctx context.Context) error {
	n.runLock.Lock()
	if n.started {
		n.runLock.Unlock()
		return errors.Errorf("network %s already ran", n.name)
	}
	n.started = true
	n.runLock.Unlock()

	if err := n.validate(); err != nil {
		n.mailbox.close()
		return err
	}

	n.ctx, n.cancel = context.WithCancel(ctx)

	for _, e := range n.entries {
		e.initialized = true
		if err := n.deliver(e, Init{Effector: newEffector(n, e)}); err != nil {
			return n.shutdown(err)
		}
	}

	for _, e := range n.entries {
		if err := n.deliver(e, Start{}); err != nil {
			return n.shutdown(err)
		}
	}

	return n.loop(ctx)
}

func (n *Network) loop(ctx context.Context) error {
	for {
		it, ok := n.mailbox.pop()
		if !ok {
			select {
			case <-n.mailbox.notify:
				continue
			case <-ctx.Done():
				return n.shutdown(ctx.Err())
			}
		}

		switch it.kind {
		case itemStop:
			return n.shutdown(nil)
		case itemFail:
			return n.shutdown(it.err)
		}

		dst, found := n.byID[it.dst]
		if !found {
			n.logger.WithField("dst", it.dst).
				Debugf("dropping %T sent to unknown actor", it.payload)
			continue
		}

		err := n.deliver(dst, Message{Src: it.src, Payload: it.payload})
		if err != nil {
			return n.shutdown(err)
		}
	}
}

func (n *Network) deliver(e *entry, evt Event) error {
	n.pauseLock.Lock()
	defer n.pauseLock.Unlock()

	_, span := startSpan(n.ctx, "actor.deliver",
		attribute.String("network", n.name),
		attribute.String("actor", e.name),
		attribute.String("event", eventName(evt)),
	)
	defer span.End()

	hookCtx := HookCtx{
		Domain: n,
		Pos:    HookPosBeforeDeliver,
		Item:   Delivery{Dst: e.id, Actor: e.name, Event: evt},
	}
	n.InvokeHook(hookCtx)

	err := e.actor.Update(evt)

	hookCtx.Pos = HookPosAfterDeliver
	hookCtx.Detail = err
	n.InvokeHook(hookCtx)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return errors.Wrapf(err, "actor %s", e.name)
	}

	return nil
}

// shutdown delivers Stop to every actor and waits for the spawned tasks.
func (n *Network) shutdown(cause error) error {
	n.mailbox.close()

	for _, e := range n.entries {
		if !e.initialized {
			continue
		}

		if err := n.deliver(e, Stop{}); err != nil {
			n.logger.WithError(err).Warn("error while stopping actor")
		}
	}

	n.cancel()
	n.tasks.Wait()

	if cause != nil {
		n.logger.WithError(cause).Error("network terminated")
	} else {
		n.logger.Info("network stopped")
	}

	return cause
}

func (n *Network) post(src, dst ID, payload interface{}) bool {
	return n.mailbox.push(item{
		kind:    itemMessage,
		src:     src,
		dst:     dst,
		payload: payload,
	})
}

func (n *Network) spawn(task func(ctx context.Context)) {
	if n.mailbox.isClosed() {
		return
	}

	n.tasks.Add(1)
	go func() {
		defer n.tasks.Done()
		task(n.ctx)
	}()
}

func (n *Network) validate() error {
	for _, e := range n.entries {
		ports := e.actor.Ports()

		if err := checkDirection(e, Input, ports.Inputs, e.inputs); err != nil {
			return err
		}

		if err := checkDirection(e, Output, ports.Outputs, e.outputs); err != nil {
			return err
		}
	}

	return nil
}

func checkDirection(
	e *entry,
	dir Direction,
	constraints []Constraint,
	connected map[Role][]ID,
) error {
	declared := make(map[Role]bool)

	for _, c := range constraints {
		declared[c.Role] = true

		got := len(connected[c.Role])
		if !c.Allows(got) {
			return &ConstraintError{
				Actor:     e.name,
				Direction: dir,
				Role:      c.Role,
				Want:      c,
				Got:       got,
			}
		}
	}

	roles := make([]string, 0, len(connected))
	for role := range connected {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)

	for _, role := range roles {
		if !declared[Role(role)] {
			return &ConstraintError{
				Actor:      e.name,
				Direction:  dir,
				Role:       Role(role),
				Got:        len(connected[Role(role)]),
				Undeclared: true,
			}
		}
	}

	return nil
}

func (n *Network) mustFind(id ID) *entry {
	e, found := n.byID[id]
	if !found {
		log.Panicf("actor %q is not in network %s", id, n.name)
	}

	return e
}

func (n *Network) mustNotBeStarted() {
	n.runLock.Lock()
	defer n.runLock.Unlock()

	if n.started {
		log.Panicf("network %s is already running", n.name)
	}
}

func eventName(evt Event) string {
	if msg, ok := evt.(Message); ok {
		return fmt.Sprintf("%T", msg.Payload)
	}

	return fmt.Sprintf("%T", evt)
}
