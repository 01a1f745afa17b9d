package actor

import "sync"

type itemKind int

const (
	itemMessage itemKind = iota
	itemStop
	itemFail
)

type item struct {
	kind    itemKind
	src     ID
	dst     ID
	payload interface{}
	err     error
}

// mailbox is the thread-safe, unbounded FIFO that feeds the event loop.
// Pushing never blocks so that handlers can send while being dispatched.
type mailbox struct {
	sync.Mutex
	items  []item
	closed bool
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

// push appends an item. It returns false if the mailbox is closed.
func (m *mailbox) push(it item) bool {
	m.Lock()
	if m.closed {
		m.Unlock()
		return false
	}
	m.items = append(m.items, it)
	m.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}

	return true
}

func (m *mailbox) pop() (item, bool) {
	m.Lock()
	defer m.Unlock()

	if len(m.items) == 0 {
		return item{}, false
	}

	it := m.items[0]
	m.items[0] = item{}
	m.items = m.items[1:]

	return it, true
}

func (m *mailbox) close() {
	m.Lock()
	m.closed = true
	m.items = nil
	m.Unlock()
}

func (m *mailbox) isClosed() bool {
	m.Lock()
	defer m.Unlock()

	return m.closed
}

// Len returns the number of pending items.
func (m *mailbox) Len() int {
	m.Lock()
	defer m.Unlock()

	return len(m.items)
}
