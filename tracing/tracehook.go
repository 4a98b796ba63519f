package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/simradio/connector"
	"github.com/sarchlab/simradio/sim"
)

// NamedHookable is a hookable object with a name.
type NamedHookable interface {
	sim.Hookable
	Name() string
}

// NewTraceHook returns a hook that reports the requests of a connector to the
// tracer. Use it with the connector builder's WithHook.
func NewTraceHook(tracer Tracer) sim.Hook {
	return &traceHook{t: tracer}
}

// CollectTrace lets the tracer collect traces from a domain. It may be called
// on a running connector; requests that started earlier are not traced.
func CollectTrace(domain NamedHookable, tracer Tracer) {
	for _, hook := range domain.Hooks() {
		hook, ok := hook.(*traceHook)
		if ok && hook.t == tracer {
			panic(fmt.Sprintf(
				"domain %s already has tracer %s",
				domain.Name(), reflect.TypeOf(tracer)))
		}
	}

	domain.AcceptHook(NewTraceHook(tracer))
}

// A traceHook is a hook that traces tasks
type traceHook struct {
	t Tracer
}

// Func calls the tracer interfaces when the hook is triggered
func (h *traceHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case connector.HookPosRequestStart:
		h.t.StartTask(taskFromRequest(ctx))
	case connector.HookPosRequestEnd:
		h.t.EndTask(taskFromRequest(ctx))
	}
}

func taskFromRequest(ctx sim.HookCtx) Task {
	req := ctx.Item.(*connector.RequestInfo)

	task := Task{
		ID:        req.ID,
		Kind:      req.Kind.String(),
		What:      req.Band,
		StartTime: req.Start,
		EndTime:   req.End,
		Err:       req.Err,
	}

	if named, ok := ctx.Domain.(NamedHookable); ok {
		task.Where = named.Name()
	}

	if !req.End.IsZero() {
		task.Latency = req.End.Sub(req.Start)
	}

	return task
}
