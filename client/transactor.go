package client

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/wire"
)

// A Transactor follows one request sent to a connection until its response
// or its timeout arrives.
type Transactor struct {
	conn        actor.ID
	transaction TransactionID
	kind        wire.Kind
}

// Send sends a request to a connection and returns the transactor that
// waits for its outcome.
func Send(eff *actor.Effector, conn actor.ID, req ClientRequest) Transactor {
	t := Track(conn, req)
	eff.Send(conn, req)

	return t
}

// Track returns the transactor of a request without sending it.
func Track(conn actor.ID, req ClientRequest) Transactor {
	return Transactor{
		conn:        conn,
		transaction: req.Transaction,
		kind:        req.Request.Kind,
	}
}

// Transaction returns the ID of the transaction.
func (t Transactor) Transaction() TransactionID {
	return t.transaction
}

// Matches checks if a message is the outcome of the transaction.
func (t Transactor) Matches(msg actor.Message) bool {
	if msg.Src != t.conn {
		return false
	}

	switch m := msg.Payload.(type) {
	case ClientResponse:
		return m.Transaction == t.transaction
	case ClientTimeout:
		return m.Transaction == t.transaction
	}

	return false
}

// Expect extracts the response of the transaction from a message. The
// errors listed by the game instance are returned as a GameError along with
// the response.
func (t Transactor) Expect(msg actor.Message) (*wire.Response, error) {
	if msg.Src != t.conn {
		return nil, errors.Errorf(
			"transaction %s: outcome from %q, expected from %q",
			t.transaction, msg.Src, t.conn)
	}

	switch m := msg.Payload.(type) {
	case ClientResponse:
		if m.Transaction != t.transaction {
			return nil, errors.Errorf(
				"transaction %s: received response of %s",
				t.transaction, m.Transaction)
		}

		if m.Response.Kind != t.kind {
			return nil, &ProtocolError{
				Reason: "unexpected response kind",
				Want:   t.kind,
				Got:    m.Response.Kind,
			}
		}

		return m.Response, ResponseError(m.Response)
	case ClientTimeout:
		if m.Transaction != t.transaction {
			return nil, errors.Errorf(
				"transaction %s: received timeout of %s",
				t.transaction, m.Transaction)
		}

		return nil, errors.Wrapf(ErrTimeout, "%s %s", t.kind, t.transaction)
	}

	return nil, errors.Errorf(
		"transaction %s: unexpected %T", t.transaction, msg.Payload)
}
