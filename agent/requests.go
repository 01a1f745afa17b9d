package agent

import (
	"context"
	"sync"

	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/client"
	"github.com/sarchlab/sc2melee/wire"
)

type outcome struct {
	rsp *wire.Response
	err error
}

type waiter struct {
	transactor client.Transactor
	outcome    chan outcome
}

// requestClient posts requests to the connection of an agent and waits for
// the agent to hand back their outcomes.
type requestClient struct {
	lock    sync.Mutex
	eff     *actor.Effector
	conn    actor.ID
	waiting map[client.TransactionID]*waiter
}

func newRequestClient() *requestClient {
	return &requestClient{
		waiting: make(map[client.TransactionID]*waiter),
	}
}

func (rc *requestClient) bind(eff *actor.Effector, conn actor.ID) {
	rc.lock.Lock()
	defer rc.lock.Unlock()

	rc.eff = eff
	rc.conn = conn
}

// Request sends a request and waits for its response. The errors reported
// by the game instance are returned with the response.
func (rc *requestClient) Request(
	ctx context.Context,
	req *wire.Request,
) (*wire.Response, error) {
	cr := client.NewRequest(req)

	rc.lock.Lock()
	w := &waiter{
		transactor: client.Track(rc.conn, cr),
		outcome:    make(chan outcome, 1),
	}
	rc.waiting[cr.Transaction] = w
	eff, conn := rc.eff, rc.conn
	rc.lock.Unlock()

	eff.Send(conn, cr)

	select {
	case o := <-w.outcome:
		return o.rsp, o.err
	case <-ctx.Done():
		rc.take(cr.Transaction)
		return nil, ctx.Err()
	}
}

func (rc *requestClient) take(id client.TransactionID) (*waiter, bool) {
	rc.lock.Lock()
	defer rc.lock.Unlock()

	w, found := rc.waiting[id]
	delete(rc.waiting, id)

	return w, found
}

// resolve hands a response or a timeout to the request waiting for it.
// Outcomes nobody waits for any more are dropped.
func (rc *requestClient) resolve(msg actor.Message) {
	var id client.TransactionID

	switch m := msg.Payload.(type) {
	case client.ClientResponse:
		id = m.Transaction
	case client.ClientTimeout:
		id = m.Transaction
	}

	w, found := rc.take(id)
	if !found {
		return
	}

	rsp, err := w.transactor.Expect(msg)
	w.outcome <- outcome{rsp: rsp, err: err}
}

// failAll ends all the waiting requests with an error.
func (rc *requestClient) failAll(err error) {
	rc.lock.Lock()
	waiting := rc.waiting
	rc.waiting = make(map[client.TransactionID]*waiter)
	rc.lock.Unlock()

	for _, w := range waiting {
		w.outcome <- outcome{err: err}
	}
}

func (rc *requestClient) pending() int {
	rc.lock.Lock()
	defer rc.lock.Unlock()

	return len(rc.waiting)
}
