package actor

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// An InterruptBreaker stops the network when the process receives an
// interrupt or termination signal.
type InterruptBreaker struct {
	*Base

	subscribe func() (<-chan os.Signal, func())
}

// NewInterruptBreaker creates an InterruptBreaker.
func NewInterruptBreaker() *InterruptBreaker {
	return &InterruptBreaker{
		Base:      NewBase(PortSpec{}),
		subscribe: subscribeInterrupts,
	}
}

func subscribeInterrupts() (<-chan os.Signal, func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	return c, func() { signal.Stop(c) }
}

// Update handles an event.
func (b *InterruptBreaker) Update(evt Event) error {
	if b.Intercept(evt) {
		return nil
	}

	switch e := evt.(type) {
	case Start:
		b.listen()
	case Message:
		return Unexpected(b.Name(), "listening", e)
	}

	return nil
}

func (b *InterruptBreaker) listen() {
	eff := b.Effector()
	signals, unsubscribe := b.subscribe()

	eff.Spawn(func(ctx context.Context) {
		defer unsubscribe()

		select {
		case sig := <-signals:
			eff.Logger().WithField("signal", sig.String()).
				Warn("interrupted, stopping network")
			eff.Stop()
		case <-ctx.Done():
		}
	})
}
