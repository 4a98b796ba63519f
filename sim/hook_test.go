package sim

import (
	"bytes"
	"log"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingHook struct {
	calls []HookCtx
}

func (h *recordingHook) Func(ctx HookCtx) {
	h.calls = append(h.calls, ctx)
}

var _ = Describe("HookableBase", func() {
	var (
		domain *HookableBase
		pos    *HookPos
	)

	BeforeEach(func() {
		domain = NewHookableBase()
		pos = &HookPos{Name: "Test"}
	})

	It("should invoke hooks in registration order", func() {
		order := []string{}
		domain.AcceptHook(HookFunc(func(HookCtx) { order = append(order, "a") }))
		domain.AcceptHook(HookFunc(func(HookCtx) { order = append(order, "b") }))

		domain.InvokeHook(HookCtx{Domain: domain, Pos: pos})

		Expect(order).To(Equal([]string{"a", "b"}))
		Expect(domain.NumHooks()).To(Equal(2))
	})

	It("should pass the context through", func() {
		hook := &recordingHook{}
		domain.AcceptHook(hook)

		domain.InvokeHook(HookCtx{
			Domain: domain,
			Pos:    pos,
			Item:   "item",
			Detail: 42,
		})

		Expect(hook.calls).To(HaveLen(1))
		Expect(hook.calls[0].Pos).To(BeIdenticalTo(pos))
		Expect(hook.calls[0].Item).To(Equal("item"))
		Expect(hook.calls[0].Detail).To(Equal(42))
	})

	It("should panic on duplicated hook", func() {
		hook := &recordingHook{}
		domain.AcceptHook(hook)

		Expect(func() { domain.AcceptHook(hook) }).To(Panic())
	})

	It("should hand out a copy of the hook list", func() {
		domain.AcceptHook(&recordingHook{})

		hooks := domain.Hooks()
		hooks[0] = nil

		Expect(domain.Hooks()[0]).NotTo(BeNil())
	})

	It("should accept hooks while invoking them", func() {
		var invoked atomic.Int64
		done := make(chan struct{})

		go func() {
			defer close(done)
			for i := 0; i < 1000; i++ {
				domain.InvokeHook(HookCtx{Domain: domain, Pos: pos})
			}
		}()

		for i := 0; i < 50; i++ {
			domain.AcceptHook(HookFunc(func(HookCtx) { invoked.Add(1) }))
		}
		<-done

		Expect(domain.NumHooks()).To(Equal(50))

		before := invoked.Load()
		domain.InvokeHook(HookCtx{Domain: domain, Pos: pos})
		Expect(invoked.Load() - before).To(Equal(int64(50)))
	})

	It("should work as a zero value", func() {
		var zero HookableBase

		zero.InvokeHook(HookCtx{Pos: pos})
		Expect(zero.NumHooks()).To(BeZero())
		Expect(zero.Hooks()).To(BeEmpty())
	})
})

var _ = Describe("SequentialIDGenerator", func() {
	It("should generate increasing ids", func() {
		g := &sequentialIDGenerator{}

		Expect(g.Generate()).To(Equal("1"))
		Expect(g.Generate()).To(Equal("2"))
	})

	It("should generate distinct parallel ids", func() {
		g := parallelIDGenerator{}

		Expect(g.Generate()).NotTo(Equal(g.Generate()))
	})
})

var _ = Describe("LogHookBase", func() {
	It("should tag lines with the level", func() {
		buf := new(bytes.Buffer)
		h := LogHookBase{Logger: log.New(buf, "", 0)}

		h.Logf("a=%d", 1)
		h.Level = "INFO"
		h.Logf("b")

		Expect(buf.String()).To(Equal("[DEBUG] a=1\n[INFO] b\n"))
	})

	It("should discard lines without a logger", func() {
		h := LogHookBase{}

		Expect(func() { h.Logf("nothing") }).NotTo(Panic())
	})
})
