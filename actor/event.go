package actor

import "fmt"

// An Event is delivered to an actor by the network.
type Event interface {
	isEvent()
}

// Init is the first event of every actor. It hands over the effector, the
// only way for the actor to act on the network.
type Init struct {
	Effector *Effector
}

// Start is delivered after every actor received Init.
type Start struct{}

// Message carries a payload sent by another actor, by the actor itself, or
// from outside the network.
type Message struct {
	Src     ID
	Payload interface{}
}

// Stop is the last event of every actor.
type Stop struct{}

func (Init) isEvent()    {}
func (Start) isEvent()   {}
func (Message) isEvent() {}
func (Stop) isEvent()    {}

// UnexpectedMessageError reports a message that the receiving actor cannot
// handle in its current state.
type UnexpectedMessageError struct {
	Actor   string
	State   string
	Src     ID
	Payload interface{}
}

// Unexpected creates an UnexpectedMessageError.
func Unexpected(actor, state string, msg Message) *UnexpectedMessageError {
	return &UnexpectedMessageError{
		Actor:   actor,
		State:   state,
		Src:     msg.Src,
		Payload: msg.Payload,
	}
}

func (e *UnexpectedMessageError) Error() string {
	return fmt.Sprintf(
		"actor %s received unexpected message %T from %q in state %s",
		e.Actor, e.Payload, e.Src, e.State)
}
