package client

import (
	"time"

	"github.com/sarchlab/sc2melee/actor"
	"github.com/sarchlab/sc2melee/wire"
)

const maxPendingTransactions = 4096

// A transaction is a request waiting for its response.
type transaction struct {
	id      TransactionID
	kind    wire.Kind
	sentAt  time.Time
	settled chan struct{}
}

func (t *transaction) settle() {
	close(t.settled)
}

// transactionQueue pairs responses with requests in the order the requests
// were sent.
type transactionQueue struct {
	buf     actor.Buffer
	pending map[TransactionID]bool
}

func newTransactionQueue(name string) *transactionQueue {
	return &transactionQueue{
		buf:     actor.NewBuffer(name+".Transactions", maxPendingTransactions),
		pending: make(map[TransactionID]bool),
	}
}

func (q *transactionQueue) canPush() bool {
	return q.buf.CanPush()
}

func (q *transactionQueue) push(t *transaction) {
	q.buf.Push(t)
	q.pending[t.id] = true
}

func (q *transactionQueue) has(id TransactionID) bool {
	return q.pending[id]
}

// pop removes the oldest transaction.
func (q *transactionQueue) pop() (*transaction, bool) {
	t := q.buf.Pop()
	if t == nil {
		return nil, false
	}

	tx := t.(*transaction)
	delete(q.pending, tx.id)

	return tx, true
}

// remove takes a transaction out of the queue, wherever it is.
func (q *transactionQueue) remove(id TransactionID) (*transaction, bool) {
	t := q.buf.Remove(func(e interface{}) bool {
		return e.(*transaction).id == id
	})
	if t == nil {
		return nil, false
	}

	delete(q.pending, id)

	return t.(*transaction), true
}

// settleAll empties the queue.
func (q *transactionQueue) settleAll() {
	for _, t := range q.buf.Drain() {
		t.(*transaction).settle()
	}

	q.pending = make(map[TransactionID]bool)
}

func (q *transactionQueue) size() int {
	return q.buf.Size()
}
