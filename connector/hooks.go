package connector

import (
	"time"

	"github.com/sarchlab/simradio/message"
	"github.com/sarchlab/simradio/sim"
)

// HookPosFrameSent marks a frame written to the channel.
var HookPosFrameSent = &sim.HookPos{Name: "FrameSent"}

// HookPosFrameReceived marks a frame read from the channel and decoded.
var HookPosFrameReceived = &sim.HookPos{Name: "FrameReceived"}

// HookPosFrameDropped marks an inbound frame that was discarded.
var HookPosFrameDropped = &sim.HookPos{Name: "FrameDropped"}

// HookPosRequestStart marks a query that is about to be sent.
var HookPosRequestStart = &sim.HookPos{Name: "RequestStart"}

// HookPosRequestEnd marks a query that resolved, failed or timed out.
var HookPosRequestEnd = &sim.HookPos{Name: "RequestEnd"}

// FrameInfo is the Detail of the frame hooks. Item is the *message.Envelope,
// which is nil if the frame could not be decoded.
type FrameInfo struct {
	Time time.Time
	Size int
	Err  error
}

// RequestInfo is the Item of the request hooks.
type RequestInfo struct {
	ID    string
	Band  string
	Kind  message.Kind
	Start time.Time
	End   time.Time
	Err   error
}

func (c *Connector) frameHook(
	pos *sim.HookPos,
	env *message.Envelope,
	size int,
	err error,
) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   env,
		Detail: FrameInfo{Time: time.Now(), Size: size, Err: err},
	})
}

func (c *Connector) startRequest(band string, kind message.Kind) *RequestInfo {
	req := &RequestInfo{
		ID:    sim.GetIDGenerator().Generate(),
		Band:  band,
		Kind:  kind,
		Start: time.Now(),
	}

	if c.NumHooks() > 0 {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosRequestStart,
			Item:   req,
		})
	}

	return req
}

func (c *Connector) endRequest(req *RequestInfo, err error) {
	req.End = time.Now()
	req.Err = err

	if c.NumHooks() > 0 {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosRequestEnd,
			Item:   req,
		})
	}
}
