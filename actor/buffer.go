package actor

import "log"

// HookPosBufPush marks when an element is pushed into the buffer.
var HookPosBufPush = &HookPos{Name: "Buffer Push"}

// HookPosBufPop marks when an element is removed from the buffer.
var HookPosBufPop = &HookPos{Name: "Buffer Pop"}

// Named describes an object that has a name.
type Named interface {
	Name() string
}

// A Buffer is a fifo queue for anything
type Buffer interface {
	Named
	Hookable

	CanPush() bool
	Push(e interface{})
	Pop() interface{}
	Peek() interface{}
	Capacity() int
	Size() int

	// Remove takes out the first element that matches. It returns nil if no
	// element matches.
	Remove(match func(e interface{}) bool) interface{}

	// Drain removes all the elements and returns them in order.
	Drain() []interface{}

	// Restore puts elements back at the front of the buffer, keeping their
	// order. Restored elements may exceed the capacity.
	Restore(elements []interface{})

	// Remove all elements in the buffer
	Clear()
}

// NewBuffer creates a default buffer object.
func NewBuffer(name string, capacity int) Buffer {
	if name == "" {
		log.Panic("buffer name must not be empty")
	}

	if capacity <= 0 {
		log.Panicf("buffer %s must have a positive capacity", name)
	}

	return &bufferImpl{
		name:     name,
		capacity: capacity,
	}
}

type bufferImpl struct {
	HookableBase

	name     string
	capacity int
	elements []interface{}
}

// Name returns the name of the buffer.
func (b *bufferImpl) Name() string {
	return b.name
}

func (b *bufferImpl) CanPush() bool {
	return len(b.elements) < b.capacity
}

func (b *bufferImpl) Push(e interface{}) {
	if len(b.elements) >= b.capacity {
		log.Panicf("buffer %s overflow", b.name)
	}

	b.elements = append(b.elements, e)

	b.invoke(HookPosBufPush, e)
}

func (b *bufferImpl) Pop() interface{} {
	if len(b.elements) == 0 {
		return nil
	}

	e := b.elements[0]
	b.elements[0] = nil
	b.elements = b.elements[1:]

	b.invoke(HookPosBufPop, e)

	return e
}

func (b *bufferImpl) Peek() interface{} {
	if len(b.elements) == 0 {
		return nil
	}

	return b.elements[0]
}

func (b *bufferImpl) Remove(match func(e interface{}) bool) interface{} {
	for i, e := range b.elements {
		if !match(e) {
			continue
		}

		b.elements = append(b.elements[:i:i], b.elements[i+1:]...)
		b.invoke(HookPosBufPop, e)

		return e
	}

	return nil
}

func (b *bufferImpl) Drain() []interface{} {
	elements := b.elements
	b.elements = nil

	for _, e := range elements {
		b.invoke(HookPosBufPop, e)
	}

	return elements
}

func (b *bufferImpl) Restore(elements []interface{}) {
	if len(elements) == 0 {
		return
	}

	restored := make([]interface{}, 0, len(elements)+len(b.elements))
	restored = append(restored, elements...)
	restored = append(restored, b.elements...)
	b.elements = restored

	for _, e := range elements {
		b.invoke(HookPosBufPush, e)
	}
}

func (b *bufferImpl) Capacity() int {
	return b.capacity
}

func (b *bufferImpl) Size() int {
	return len(b.elements)
}

func (b *bufferImpl) Clear() {
	b.elements = nil
}

func (b *bufferImpl) invoke(pos *HookPos, e interface{}) {
	if b.NumHooks() == 0 {
		return
	}

	b.InvokeHook(HookCtx{
		Domain: b,
		Pos:    pos,
		Item:   e,
	})
}
