package connector

import (
	"log"

	"github.com/sarchlab/simradio/message"
	"github.com/sarchlab/simradio/sim"
)

// FrameLogger is a hook that writes every frame a connector sends, receives or
// drops into a logger.
type FrameLogger struct {
	sim.LogHookBase
}

// NewFrameLogger returns a new FrameLogger which will write into the logger.
func NewFrameLogger(logger *log.Logger) *FrameLogger {
	h := new(FrameLogger)
	h.Logger = logger
	return h
}

// Func writes the frame information into the logger.
func (h *FrameLogger) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosFrameSent &&
		ctx.Pos != HookPosFrameReceived &&
		ctx.Pos != HookPosFrameDropped {
		return
	}

	env, _ := ctx.Item.(*message.Envelope)
	info, _ := ctx.Detail.(FrameInfo)

	name := ""
	if c, ok := ctx.Domain.(*Connector); ok {
		name = c.Name()
	}

	if info.Err != nil {
		h.Logf("%s,%s,%d,%s,%v",
			name, ctx.Pos.Name, info.Size, message.Describe(env), info.Err)
		return
	}

	h.Logf("%s,%s,%d,%s",
		name, ctx.Pos.Name, info.Size, message.Describe(env))
}
