package datarecording

import (
	"github.com/sarchlab/simradio/connector"
	"github.com/sarchlab/simradio/message"
	"github.com/sarchlab/simradio/sim"
)

// FrameRecorder is a connector hook that stores every frame into the frames
// table.
type FrameRecorder struct {
	recorder DataRecorder
}

// NewFrameRecorder creates the frames table and returns the hook.
func NewFrameRecorder(recorder DataRecorder) *FrameRecorder {
	recorder.CreateTable(FrameTable, FrameEntry{})

	return &FrameRecorder{recorder: recorder}
}

// Func records the frame.
func (r *FrameRecorder) Func(ctx sim.HookCtx) {
	var direction string

	switch ctx.Pos {
	case connector.HookPosFrameSent:
		direction = "sent"
	case connector.HookPosFrameReceived:
		direction = "received"
	case connector.HookPosFrameDropped:
		direction = "dropped"
	default:
		return
	}

	info, _ := ctx.Detail.(connector.FrameInfo)

	entry := FrameEntry{
		ID:        sim.GetIDGenerator().Generate(),
		Time:      TimeInSec(info.Time),
		Direction: direction,
		Size:      info.Size,
	}

	if c, ok := ctx.Domain.(*connector.Connector); ok {
		entry.Connector = c.Name()
	}

	if env, ok := ctx.Item.(*message.Envelope); ok {
		entry.Kind = env.Kind().String()
		entry.Band, _ = env.Band()
	}

	if info.Err != nil {
		entry.Error = info.Err.Error()
	}

	r.recorder.InsertData(FrameTable, entry)
}
