package tracing

import (
	"fmt"

	"github.com/sarchlab/sc2melee/actor"
)

// CollectTrace makes the tracer receive the tasks of the domain. A tracer
// can only be attached once to a domain.
func CollectTrace(domain NamedHookable, tracer Tracer) {
	for _, h := range domain.Hooks() {
		if th, ok := h.(*traceHook); ok && th.tracer == tracer {
			panic(fmt.Sprintf("domain %s already has tracer %T", domain.Name(), tracer))
		}
	}

	domain.AcceptHook(&traceHook{tracer: tracer})
}

// traceHook forwards task events to a tracer.
type traceHook struct {
	tracer Tracer
}

func (h *traceHook) Func(ctx actor.HookCtx) {
	task, ok := ctx.Item.(Task)
	if !ok {
		return
	}

	switch ctx.Pos {
	case HookPosTaskStart:
		h.tracer.StartTask(task)
	case HookPosTaskStep:
		h.tracer.StepTask(task)
	case HookPosTaskEnd:
		h.tracer.EndTask(task)
	}
}
