package client

import (
	"time"

	"github.com/rs/xid"

	"github.com/sarchlab/sc2melee/wire"
)

// DefaultTimeout is the time a request waits for its response.
const DefaultTimeout = 5 * time.Second

// TransactionID identifies a request and its response.
type TransactionID string

// NewTransactionID generates a unique TransactionID.
func NewTransactionID() TransactionID {
	return TransactionID(xid.New().String())
}

// ClientRequest asks the connection to send a request to the game instance.
type ClientRequest struct {
	Transaction TransactionID
	Request     *wire.Request
	Timeout     time.Duration
}

// NewRequest wraps a request into a new transaction with the default
// timeout.
func NewRequest(req *wire.Request) ClientRequest {
	return ClientRequest{
		Transaction: NewTransactionID(),
		Request:     req,
		Timeout:     DefaultTimeout,
	}
}

// WithTimeout returns a copy of the request with a different timeout.
func (r ClientRequest) WithTimeout(timeout time.Duration) ClientRequest {
	r.Timeout = timeout
	return r
}

// ClientResponse carries the response of a transaction.
type ClientResponse struct {
	Transaction TransactionID
	Response    *wire.Response
}

// ClientTimeout reports a transaction that received no response in time.
type ClientTimeout struct {
	Transaction TransactionID
}

// ClientReady reports that the connection is open.
type ClientReady struct{}

// ClientDisconnect asks the connection to close.
type ClientDisconnect struct{}

// ClientClosed reports that the connection closed and waits for a new
// instance.
type ClientClosed struct{}

// ClientError reports the transport error that closed the connection. It is
// always followed by ClientClosed.
type ClientError struct {
	Err error
}

// Messages the connection sends to itself. Each carries the generation of the
// transport it belongs to, so that messages of an older transport are
// ignored.

type connectAttempt struct {
	gen int
}

type connected struct {
	gen       int
	transport Transport
}

type frameReceived struct {
	gen   int
	frame Frame
}

type transportClosed struct {
	gen int
}

type transportFailed struct {
	gen int
	err error
}

type transactionExpired struct {
	gen int
	id  TransactionID
}

type generational interface {
	generation() int
}

func (m connectAttempt) generation() int     { return m.gen }
func (m connected) generation() int          { return m.gen }
func (m frameReceived) generation() int      { return m.gen }
func (m transportClosed) generation() int    { return m.gen }
func (m transportFailed) generation() int    { return m.gen }
func (m transactionExpired) generation() int { return m.gen }
