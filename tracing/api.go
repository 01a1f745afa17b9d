// Package tracing traces tasks, such as transactions with game instances,
// through hooks.
package tracing

import (
	"github.com/sarchlab/sc2melee/actor"
)

// NamedHookable is an actor part that has a name and accepts hooks.
type NamedHookable interface {
	actor.Named
	actor.Hookable
}

// Hook positions of the task events.
var (
	HookPosTaskStart = &actor.HookPos{Name: "TaskStart"}
	HookPosTaskStep  = &actor.HookPos{Name: "TaskStep"}
	HookPosTaskEnd   = &actor.HookPos{Name: "TaskEnd"}
)

// StartTask tells the tracers of the domain that a task started. The task is
// located at the domain's name. Nothing happens when the domain has no hooks.
func StartTask(
	id string,
	parentID string,
	domain NamedHookable,
	kind string,
	what string,
	detail interface{},
) {
	if domain == nil {
		panic("domain must not be nil")
	}

	if domain.NumHooks() == 0 {
		return
	}

	switch {
	case id == "":
		panic("id must not be empty")
	case kind == "":
		panic("kind must not be empty")
	case what == "":
		panic("what must not be empty")
	case domain.Name() == "":
		panic("domain must have a name")
	}

	invoke(domain, HookPosTaskStart, Task{
		ID:       id,
		ParentID: parentID,
		Kind:     kind,
		What:     what,
		Location: domain.Name(),
		Detail:   detail,
	})
}

// AddTaskStep tells the tracers that a task reached a milestone.
func AddTaskStep(id string, domain NamedHookable, what string) {
	if domain.NumHooks() == 0 {
		return
	}

	invoke(domain, HookPosTaskStep, Task{
		ID:    id,
		Steps: []TaskStep{{What: what}},
	})
}

// EndTask tells the tracers that a task completed.
func EndTask(id string, domain NamedHookable) {
	if domain.NumHooks() == 0 {
		return
	}

	invoke(domain, HookPosTaskEnd, Task{ID: id})
}

func invoke(domain NamedHookable, pos *actor.HookPos, task Task) {
	domain.InvokeHook(actor.HookCtx{Domain: domain, Pos: pos, Item: task})
}
