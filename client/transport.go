package client

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/coder/websocket"
	"github.com/pkg/errors"
)

// MessageType is the type of a frame.
type MessageType int

// Frame types.
const (
	Binary MessageType = iota
	Text
)

// A Frame is a message read from a transport.
type Frame struct {
	Type MessageType
	Data []byte
}

// A Transport exchanges frames with a game instance.
type Transport interface {
	// Read blocks until a frame arrives. It returns ErrTransportClosed once
	// the transport closed normally.
	Read(ctx context.Context) (Frame, error)

	// Write sends a binary frame.
	Write(ctx context.Context, data []byte) error

	// Close closes the transport. Pending reads return.
	Close() error
}

// A Dialer opens transports.
type Dialer interface {
	Dial(ctx context.Context, url string) (Transport, error)
}

// InstanceURL returns the address of the API endpoint of a game instance.
func InstanceURL(host string, port int) string {
	return fmt.Sprintf("ws://%s:%d/sc2api", host, port)
}

// WebsocketDialer dials game instances over websocket.
type WebsocketDialer struct {
	// ReadLimit is the largest frame accepted. Observations of large maps
	// exceed the default limit of the websocket library.
	ReadLimit int64
}

// DefaultReadLimit is the ReadLimit used when none is set.
const DefaultReadLimit = 256 << 20

// Dial opens a websocket connection.
func (d WebsocketDialer) Dial(ctx context.Context, url string) (Transport, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", url)
	}

	limit := d.ReadLimit
	if limit == 0 {
		limit = DefaultReadLimit
	}
	conn.SetReadLimit(limit)

	return &websocketTransport{conn: conn}, nil
}

type websocketTransport struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

func (t *websocketTransport) Read(ctx context.Context) (Frame, error) {
	typ, data, err := t.conn.Read(ctx)
	if err != nil {
		if isNormalClosure(err) {
			return Frame{}, ErrTransportClosed
		}

		return Frame{}, err
	}

	frame := Frame{Type: Binary, Data: data}
	if typ == websocket.MessageText {
		frame.Type = Text
	}

	return frame, nil
}

func (t *websocketTransport) Write(ctx context.Context, data []byte) error {
	return t.conn.Write(ctx, websocket.MessageBinary, data)
}

func (t *websocketTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.conn.Close(websocket.StatusNormalClosure, "disconnect")
	})

	return t.closeErr
}

func isNormalClosure(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}

	return errors.Is(err, io.EOF)
}
