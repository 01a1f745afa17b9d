package client

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/game"
	"github.com/sarchlab/sc2melee/wire"
)

// fakeTransport answers the requests written to it with the responder.
type fakeTransport struct {
	incoming  chan Frame
	failure   chan error
	closed    chan struct{}
	closeOnce sync.Once
	responder func(req *wire.Request) []*wire.Response
}

func newFakeTransport(responder func(req *wire.Request) []*wire.Response) *fakeTransport {
	return &fakeTransport{
		incoming:  make(chan Frame, 100),
		failure:   make(chan error, 1),
		closed:    make(chan struct{}),
		responder: responder,
	}
}

func echo(req *wire.Request) []*wire.Response {
	return []*wire.Response{{Kind: req.Kind, Status: wire.StatusInGame}}
}

func silent(*wire.Request) []*wire.Response {
	return nil
}

func (t *fakeTransport) Read(ctx context.Context) (Frame, error) {
	select {
	case f := <-t.incoming:
		return f, nil
	case err := <-t.failure:
		return Frame{}, err
	case <-t.closed:
		return Frame{}, ErrTransportClosed
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

func (t *fakeTransport) Write(ctx context.Context, data []byte) error {
	req, err := wire.UnmarshalRequest(data)
	if err != nil {
		return err
	}

	for _, rsp := range t.responder(req) {
		t.deliver(rsp)
	}

	return nil
}

func (t *fakeTransport) deliver(rsp *wire.Response) {
	b, err := rsp.Marshal()
	if err != nil {
		panic(err)
	}

	t.incoming <- Frame{Type: Binary, Data: b}
}

func (t *fakeTransport) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

// fakeDialer fails the first failures dials, then hands out transports.
type fakeDialer struct {
	failures  int64
	dials     int64
	lock      sync.Mutex
	opened    []*fakeTransport
	responder func(req *wire.Request) []*wire.Response
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Transport, error) {
	n := atomic.AddInt64(&d.dials, 1)
	if d.failures < 0 || n <= d.failures {
		return nil, errors.New("connection refused")
	}

	t := newFakeTransport(d.responder)

	d.lock.Lock()
	d.opened = append(d.opened, t)
	d.lock.Unlock()

	return t, nil
}

func (d *fakeDialer) dialCount() int64 {
	return atomic.LoadInt64(&d.dials)
}

func (d *fakeDialer) transport(i int) *fakeTransport {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.opened[i]
}

// owner plays both the client and the instance provider of a connection.
type owner struct {
	*actor.Base

	conn      actor.ID
	received  []interface{}
	onMessage func(eff *actor.Effector, msg actor.Message) error
}

func newOwner() *owner {
	return &owner{
		Base: actor.NewBase(actor.PortSpec{
			Outputs: []actor.Constraint{
				actor.RequireOne(game.RoleClient),
				actor.RequireOne(game.RoleInstanceProvider),
			},
		}),
	}
}

func (o *owner) Update(evt actor.Event) error {
	if o.Intercept(evt) {
		return nil
	}

	switch e := evt.(type) {
	case actor.Start:
		o.Effector().Send(o.conn, game.ProvideInstance{
			ID:  game.NewInstanceID(),
			URL: "ws://127.0.0.1:9168/sc2api",
		})
	case actor.Message:
		o.received = append(o.received, e.Payload)
		if o.onMessage != nil {
			return o.onMessage(o.Effector(), e)
		}
	}

	return nil
}

func (o *owner) provideInstance() {
	o.Effector().Send(o.conn, game.ProvideInstance{
		ID:  game.NewInstanceID(),
		URL: "ws://127.0.0.1:9168/sc2api",
	})
}
