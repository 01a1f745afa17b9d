package client

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/game"
	"github.com/sarchlab/sc2melee/tracing"
	"github.com/sarchlab/sc2melee/wire"
)

const (
	// ConnectAttempts is the number of times a connection is attempted
	// before giving up.
	ConnectAttempts = 10

	// ConnectDelay is the wait before each connection attempt.
	ConnectDelay = 5 * time.Second
)

type connState interface {
	stateName() string
}

type initState struct{}

type awaitInstanceState struct{}

type connectingState struct {
	url      string
	policy   backoff.BackOff
	attempts int
}

type openState struct {
	transport    Transport
	out          *outbox
	transactions *transactionQueue
}

type disconnectState struct {
	transport Transport
}

func (initState) stateName() string          { return "Init" }
func (awaitInstanceState) stateName() string { return "AwaitInstance" }
func (*connectingState) stateName() string   { return "Connecting" }
func (*openState) stateName() string         { return "Open" }
func (*disconnectState) stateName() string   { return "Disconnect" }

// A Connection is the actor that owns the transport to one game instance. It
// waits for an instance, connects to it, and pairs the responses of the
// instance with the requests of its client, in order.
type Connection struct {
	*actor.Base
	actor.HookableBase

	dialer         Dialer
	connectDelay   time.Duration
	connectRetries uint64

	state    connState
	gen      int
	client   actor.ID
	provider actor.ID

	// transactions is the queue of the open transport, kept for monitoring.
	transactions actor.Buffer
}

// Builder can build connections.
type Builder struct {
	dialer       Dialer
	connectDelay time.Duration
}

// MakeBuilder creates a builder with the websocket dialer.
func MakeBuilder() Builder {
	return Builder{dialer: WebsocketDialer{}, connectDelay: ConnectDelay}
}

// WithDialer sets the dialer used to open transports.
func (b Builder) WithDialer(d Dialer) Builder {
	b.dialer = d
	return b
}

// WithConnectDelay sets the wait before each connection attempt.
func (b Builder) WithConnectDelay(d time.Duration) Builder {
	b.connectDelay = d
	return b
}

// Build creates a connection.
func (b Builder) Build() *Connection {
	return &Connection{
		Base: actor.NewBase(actor.PortSpec{
			Inputs: []actor.Constraint{
				actor.RequireOne(game.RoleInstanceProvider),
				actor.RequireOne(game.RoleClient),
			},
		}),
		dialer:         b.dialer,
		connectDelay:   b.connectDelay,
		connectRetries: ConnectAttempts,
		state:          initState{},
	}
}

// State returns the name of the current state.
func (c *Connection) State() string {
	return c.state.stateName()
}

// PendingTransactions returns the number of requests waiting for their
// responses.
func (c *Connection) PendingTransactions() int {
	if s, ok := c.state.(*openState); ok {
		return s.transactions.size()
	}

	return 0
}

// Update handles an event.
func (c *Connection) Update(evt actor.Event) error {
	if c.Intercept(evt) {
		return nil
	}

	switch e := evt.(type) {
	case actor.Start:
		return c.start()
	case actor.Message:
		return c.handle(e)
	case actor.Stop:
		c.stop()
	}

	return nil
}

func (c *Connection) start() error {
	eff := c.Effector()

	var err error
	if c.client, err = eff.ReqInput(game.RoleClient); err != nil {
		return err
	}

	if c.provider, err = eff.ReqInput(game.RoleInstanceProvider); err != nil {
		return err
	}

	c.state = awaitInstanceState{}

	return nil
}

func (c *Connection) handle(msg actor.Message) error {
	if c.isStale(msg) {
		return nil
	}

	switch s := c.state.(type) {
	case awaitInstanceState:
		return c.awaitInstance(msg)
	case *connectingState:
		return c.connecting(s, msg)
	case *openState:
		return c.open(s, msg)
	case *disconnectState:
		return c.disconnecting(msg)
	}

	return c.unexpected(msg)
}

func (c *Connection) isStale(msg actor.Message) bool {
	g, ok := msg.Payload.(generational)
	if !ok || g.generation() == c.gen {
		return false
	}

	if conn, ok := msg.Payload.(connected); ok {
		closeTransport(c.Effector(), conn.transport)
	}

	return true
}

func (c *Connection) unexpected(msg actor.Message) error {
	return actor.Unexpected(c.Name(), c.state.stateName(), msg)
}

func (c *Connection) awaitInstance(msg actor.Message) error {
	instance, ok := msg.Payload.(game.ProvideInstance)
	if !ok {
		return c.unexpected(msg)
	}

	if err := c.ExpectSource(msg, c.provider); err != nil {
		return err
	}

	c.gen++
	c.state = &connectingState{
		url: instance.URL,
		policy: backoff.WithMaxRetries(
			backoff.NewConstantBackOff(c.connectDelay), c.connectRetries),
	}

	c.Effector().Logger().
		WithField("instance", instance.ID.String()).
		WithField("url", instance.URL).
		Info("connecting to instance")

	c.Effector().SendSelf(connectAttempt{gen: c.gen})

	return nil
}

func (c *Connection) connecting(s *connectingState, msg actor.Message) error {
	switch m := msg.Payload.(type) {
	case connectAttempt:
		return c.attemptConnect(s)
	case connected:
		c.openTransport(m.transport)
		return nil
	}

	return c.unexpected(msg)
}

func (c *Connection) attemptConnect(s *connectingState) error {
	delay := s.policy.NextBackOff()
	if delay == backoff.Stop {
		return errors.Wrapf(ErrConnectFailed,
			"%s after %d attempts", s.url, s.attempts)
	}

	s.attempts++

	eff := c.Effector()
	gen := c.gen
	url := s.url
	attempt := s.attempts

	eff.Spawn(func(ctx context.Context) {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}

		t, err := c.dialer.Dial(ctx, url)
		if err != nil {
			eff.Logger().WithError(err).
				WithField("attempt", attempt).
				Warn("connection attempt failed")
			eff.SendSelf(connectAttempt{gen: gen})

			return
		}

		eff.SendSelf(connected{gen: gen, transport: t})
	})

	return nil
}

func (c *Connection) openTransport(t Transport) {
	eff := c.Effector()
	s := &openState{
		transport:    t,
		out:          newOutbox(),
		transactions: newTransactionQueue(c.Name()),
	}
	c.state = s
	c.transactions = s.transactions.buf

	gen := c.gen
	eff.Spawn(func(ctx context.Context) {
		pump(ctx, eff, gen, t, s.out)
	})

	eff.Logger().Info("connection open")
	eff.Send(c.client, ClientReady{})
}

// pump reads and writes frames until the transport closes, and reports how
// it closed.
func pump(
	ctx context.Context,
	eff *actor.Effector,
	gen int,
	t Transport,
	out *outbox,
) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			frame, err := t.Read(gctx)
			if err != nil {
				return err
			}

			eff.SendSelf(frameReceived{gen: gen, frame: frame})
		}
	})

	g.Go(func() error {
		for {
			data, err := out.next(gctx)
			if err != nil {
				return err
			}

			if err := t.Write(gctx, data); err != nil {
				return err
			}
		}
	})

	err := g.Wait()

	switch {
	case ctx.Err() != nil:
		_ = t.Close()
	case errors.Is(err, ErrTransportClosed):
		eff.SendSelf(transportClosed{gen: gen})
	default:
		_ = t.Close()
		eff.SendSelf(transportFailed{gen: gen, err: err})
	}
}

func (c *Connection) open(s *openState, msg actor.Message) error {
	switch m := msg.Payload.(type) {
	case ClientRequest:
		if err := c.ExpectSource(msg, c.client); err != nil {
			return err
		}

		return c.send(s, m)
	case frameReceived:
		return c.receive(s, m.frame)
	case transactionExpired:
		c.expire(s, m.id)
		return nil
	case ClientDisconnect:
		if err := c.ExpectSource(msg, c.client); err != nil {
			return err
		}

		c.disconnect(s)

		return nil
	case transportClosed:
		s.transactions.settleAll()
		c.reset(nil)

		return nil
	case transportFailed:
		s.transactions.settleAll()
		c.reset(m.err)

		return nil
	}

	return c.unexpected(msg)
}

func (c *Connection) send(s *openState, req ClientRequest) error {
	data, err := req.Request.Marshal()
	if err != nil {
		return errors.Wrapf(err, "transaction %s", req.Transaction)
	}

	if s.transactions.has(req.Transaction) {
		return &ProtocolError{Reason: "duplicate transaction"}
	}

	if !s.transactions.canPush() {
		return ErrTooManyTransactions
	}

	tx := &transaction{
		id:      req.Transaction,
		kind:    req.Request.Kind,
		sentAt:  time.Now(),
		settled: make(chan struct{}),
	}
	s.transactions.push(tx)
	s.out.push(data)

	tracing.StartTask(string(tx.id), "", c, "transaction", tx.kind.String(), req)

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	eff := c.Effector()
	gen := c.gen
	eff.Spawn(func(ctx context.Context) {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-tx.settled:
		case <-timer.C:
			eff.SendSelf(transactionExpired{gen: gen, id: tx.id})
		case <-ctx.Done():
		}
	})

	return nil
}

func (c *Connection) receive(s *openState, frame Frame) error {
	if frame.Type != Binary {
		return &ProtocolError{Reason: "received a non-binary frame"}
	}

	rsp, err := wire.UnmarshalResponse(frame.Data)
	if err != nil {
		return &ProtocolError{Reason: err.Error()}
	}

	tx, found := s.transactions.pop()
	if !found {
		return &ProtocolError{
			Reason: "no pending transactions",
			Got:    rsp.Kind,
		}
	}

	tx.settle()

	if tx.kind != rsp.Kind {
		return &ProtocolError{
			Reason: "response does not match the oldest request",
			Want:   tx.kind,
			Got:    rsp.Kind,
		}
	}

	tracing.EndTask(string(tx.id), c)

	c.Effector().Send(c.client, ClientResponse{
		Transaction: tx.id,
		Response:    rsp,
	})

	return nil
}

func (c *Connection) expire(s *openState, id TransactionID) {
	tx, found := s.transactions.remove(id)
	if !found {
		return
	}

	tx.settle()

	tracing.AddTaskStep(string(id), c, "timeout")
	tracing.EndTask(string(id), c)

	c.Effector().Logger().
		WithField("transaction", id).
		WithField("kind", tx.kind.String()).
		Warn("transaction timed out")

	c.Effector().Send(c.client, ClientTimeout{Transaction: id})
}

func (c *Connection) disconnect(s *openState) {
	s.transactions.settleAll()
	c.state = &disconnectState{transport: s.transport}

	c.Effector().Logger().Info("disconnecting")
	closeTransport(c.Effector(), s.transport)
}

func (c *Connection) disconnecting(msg actor.Message) error {
	switch m := msg.Payload.(type) {
	case transportClosed:
		c.reset(nil)
		return nil
	case transportFailed:
		c.Effector().Logger().WithError(m.err).
			Debug("transport error while disconnecting")
		c.reset(nil)

		return nil
	case frameReceived, transactionExpired:
		return nil
	}

	return c.unexpected(msg)
}

// reset returns to AwaitInstance and tells the client the connection closed.
func (c *Connection) reset(cause error) {
	c.gen++
	c.state = awaitInstanceState{}

	eff := c.Effector()
	if cause != nil {
		eff.Logger().WithError(cause).Warn("connection lost")
		eff.SendInOrder(c.client, ClientError{Err: cause}, ClientClosed{})

		return
	}

	eff.Logger().Info("connection closed")
	eff.Send(c.client, ClientClosed{})
}

func (c *Connection) stop() {
	switch s := c.state.(type) {
	case *openState:
		s.transactions.settleAll()
		_ = s.transport.Close()
	case *disconnectState:
		_ = s.transport.Close()
	}
}

func closeTransport(eff *actor.Effector, t Transport) {
	eff.Spawn(func(context.Context) {
		_ = t.Close()
	})
}
