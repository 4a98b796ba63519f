package sim

import (
	"sync"
	"sync/atomic"
)

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookCtx is the context that holds all the information about the site that a
// hook is triggered.
type HookCtx struct {
	// Domain is the hookable object that is raising this hook.
	Domain Hookable

	// Pos identifies where the hook is firing from.
	Pos *HookPos

	// Item carries the primary subject associated with the hook (a frame or a
	// request).
	Item any

	// Detail holds optional auxiliary data; hook sites may leave it nil.
	Detail any
}

// Hookable defines an object that accept Hooks.
type Hookable interface {
	// AcceptHook registers a hook. It is safe to call while hooks are being
	// invoked; the new hook sees only later invocations. Hooks cannot be
	// removed.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// Hooks returns all the hooks registered.
	Hooks() []Hook

	// InvokeHook triggers the registered Hooks.
	InvokeHook(ctx HookCtx)
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked. It may be called from
	// several goroutines at the same time.
	Func(ctx HookCtx)
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func calls f(ctx).
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// A HookableBase provides some utility function for other type that implement
// the Hookable interface. The zero value has no hooks and is ready to use.
type HookableBase struct {
	mu    sync.Mutex
	hooks atomic.Pointer[[]Hook]
}

// NewHookableBase creates a HookableBase object.
func NewHookableBase() *HookableBase {
	return new(HookableBase)
}

func (h *HookableBase) list() []Hook {
	if l := h.hooks.Load(); l != nil {
		return *l
	}

	return nil
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.list())
}

// Hooks returns a copy of the hooks registered.
func (h *HookableBase) Hooks() []Hook {
	return append([]Hook(nil), h.list()...)
}

// AcceptHook register a hook. Readers keep the list they loaded; a new list
// is published on every registration.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()

	old := h.list()
	mustNotHaveDuplicatedHook(old, hook)

	next := make([]Hook, len(old), len(old)+1)
	copy(next, old)
	next = append(next, hook)
	h.hooks.Store(&next)
}

func mustNotHaveDuplicatedHook(registered []Hook, hook Hook) {
	if _, isFunc := hook.(HookFunc); isFunc {
		return
	}

	for _, r := range registered {
		if r == hook {
			panic("duplicated hook")
		}
	}
}

// InvokeHook triggers the register Hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.list() {
		hook.Func(ctx)
	}
}

var _ Hookable = (*HookableBase)(nil)
