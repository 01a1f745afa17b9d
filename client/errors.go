package client

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/sarchlab/sc2melee/wire"
)

var (
	// ErrConnectFailed is raised when all connection attempts failed.
	ErrConnectFailed = errors.New("unable to connect to instance")

	// ErrTimeout is returned when a transaction received no response in
	// time.
	ErrTimeout = errors.New("transaction timed out")

	// ErrTransportClosed is returned by a transport closed normally.
	ErrTransportClosed = errors.New("transport closed")

	// ErrTooManyTransactions is raised when too many requests are waiting
	// for their responses.
	ErrTooManyTransactions = errors.New("too many pending transactions")
)

// A ProtocolError reports a frame that breaks the request/response protocol.
type ProtocolError struct {
	Reason string
	Want   wire.Kind
	Got    wire.Kind
}

func (e *ProtocolError) Error() string {
	if e.Want != wire.Unknown || e.Got != wire.Unknown {
		return fmt.Sprintf(
			"protocol error: %s (expected %s, got %s)",
			e.Reason, e.Want, e.Got)
	}

	return "protocol error: " + e.Reason
}

// A GameError reports the errors listed in a response by the game instance.
type GameError struct {
	Kind   wire.Kind
	Errors []string
}

func (e *GameError) Error() string {
	return fmt.Sprintf(
		"%s failed: %s", e.Kind, strings.Join(e.Errors, "; "))
}

// ResponseError returns a GameError if the response lists errors.
func ResponseError(rsp *wire.Response) error {
	if len(rsp.Errors) == 0 {
		return nil
	}

	return &GameError{Kind: rsp.Kind, Errors: rsp.Errors}
}
