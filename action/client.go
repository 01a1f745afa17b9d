// Package action batches the commands a bot issues during a game step and
// sends them to the game instance when the step ends.
package action

import (
	"context"

	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/wire"
)

// A RequestClient sends a request to a game instance and waits for its
// response.
type RequestClient interface {
	Request(ctx context.Context, req *wire.Request) (*wire.Response, error)
}

// A Poster posts payloads into a network. An actor.Effector is a Poster.
type Poster interface {
	Send(dst actor.ID, payload interface{})
}

// Client queues commands on a batcher.
type Client struct {
	poster  Poster
	batcher actor.ID
}

// NewClient creates a client that posts to the batcher on behalf of the
// batcher's owner.
func NewClient(poster Poster, batcher actor.ID) Client {
	return Client{poster: poster, batcher: batcher}
}

// SendAction queues an encoded action. It returns once the action is queued,
// not once it is sent.
func (c Client) SendAction(ctx context.Context, action []byte) error {
	return c.queue(ctx, actionBatch, action)
}

// SendDebug queues an encoded debug command. It returns once the command is
// queued.
func (c Client) SendDebug(ctx context.Context, cmd []byte) error {
	return c.queue(ctx, debugBatch, cmd)
}

func (c Client) queue(ctx context.Context, b batchKind, cmd []byte) error {
	ack := make(chan error, 1)
	c.poster.Send(c.batcher, queueCommand{batch: b, command: cmd, ack: ack})

	return wait(ctx, ack)
}

// ControlClient steps a batcher.
type ControlClient struct {
	poster  Poster
	batcher actor.ID
}

// NewControlClient creates a client that steps the batcher on behalf of the
// batcher's owner.
func NewControlClient(poster Poster, batcher actor.ID) ControlClient {
	return ControlClient{poster: poster, batcher: batcher}
}

// Step sends the queued actions, then the queued debug commands. It returns
// once both requests completed. After a failure, the commands that were not
// sent are queued again for the next step.
func (c ControlClient) Step(ctx context.Context) error {
	ack := make(chan error, 1)
	c.poster.Send(c.batcher, stepRequest{ack: ack})

	return wait(ctx, ack)
}

func wait(ctx context.Context, ack <-chan error) error {
	select {
	case err := <-ack:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
