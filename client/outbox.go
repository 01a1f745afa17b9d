package client

import (
	"context"
	"sync"
)

// outbox queues the frames to write. Pushing never blocks and the frames are
// written in the order they were pushed.
type outbox struct {
	sync.Mutex
	frames [][]byte
	notify chan struct{}
}

func newOutbox() *outbox {
	return &outbox{notify: make(chan struct{}, 1)}
}

func (o *outbox) push(frame []byte) {
	o.Lock()
	o.frames = append(o.frames, frame)
	o.Unlock()

	select {
	case o.notify <- struct{}{}:
	default:
	}
}

// next blocks until a frame is available or the context ends.
func (o *outbox) next(ctx context.Context) ([]byte, error) {
	for {
		o.Lock()
		if len(o.frames) > 0 {
			frame := o.frames[0]
			o.frames[0] = nil
			o.frames = o.frames[1:]
			o.Unlock()

			return frame, nil
		}
		o.Unlock()

		select {
		case <-o.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
