package connector

import (
	"fmt"

	"github.com/sarchlab/simradio/message"
)

// receiveLoop reads frames until the channel fails or the connector closes.
func (c *Connector) receiveLoop() {
	defer close(c.dispatcherDone)

	c.logger.Printf("[DEBUG] %s: receive loop started", c.name)

	for {
		frame, err := c.channel.Receive()
		if err != nil {
			if !c.running.Load() {
				c.logger.Printf("[DEBUG] %s: receive loop stopped", c.name)
				return
			}

			c.fail(&ChannelError{Op: "receive", Err: err})

			return
		}

		c.handleFrame(frame)
	}
}

func (c *Connector) handleFrame(frame []byte) {
	env, err := c.codec.Decode(frame)
	if err != nil {
		c.drop(nil, len(frame), err)
		return
	}

	c.frameHook(HookPosFrameReceived, env, len(frame), nil)

	switch body := env.Body.(type) {
	case *message.Packet:
		c.handlePacket(env, body, len(frame))
	case *message.SignalResponse:
		c.handleSignalResponse(env, body, len(frame))
	case *message.StateResponse:
		c.handleStateResponse(env, body, len(frame))
	case *message.SendComplete:
		c.handleSendComplete(env, body, len(frame))
	case *message.FieldSet:
		c.storeField(body.Name, body.Data)
	default:
		c.drop(env, len(frame),
			fmt.Errorf("%w: %s", ErrUnexpectedKind, env.Kind()))
	}
}

func (c *Connector) handlePacket(
	env *message.Envelope,
	p *message.Packet,
	size int,
) {
	if len(p.Data) == 0 || p.Info.Band == "" {
		c.drop(env, size, fmt.Errorf("%w: empty packet", ErrInvalidFrame))
		return
	}

	r := c.radioForFrame(env, p.Info.Band, size)
	if r == nil {
		return
	}

	n := r.storePacket(p.Data)
	if n < len(p.Data) {
		c.logger.Printf("[WARN] %s: packet of %d bytes truncated to %d",
			r.band, len(p.Data), n)
	}

	c.logger.Printf("[DEBUG] %s: %s", r.band,
		message.FormatBytes("received packet", p.Data[:n]))

	r.notify(EventPacketReceived)
}

func (c *Connector) handleSignalResponse(
	env *message.Envelope,
	rsp *message.SignalResponse,
	size int,
) {
	r := c.radioForFrame(env, rsp.Info.Band, size)
	if r == nil {
		return
	}

	c.logger.Printf("[DEBUG] %s: signal strength %.2f", r.band, rsp.Value)
	r.signal.deliver(rsp.Value)
}

func (c *Connector) handleStateResponse(
	env *message.Envelope,
	rsp *message.StateResponse,
	size int,
) {
	r := c.radioForFrame(env, rsp.Info.Band, size)
	if r == nil {
		return
	}

	c.logger.Printf("[DEBUG] %s: state %s", r.band, rsp.State)
	r.state.deliver(rsp.State)
}

func (c *Connector) handleSendComplete(
	env *message.Envelope,
	sc *message.SendComplete,
	size int,
) {
	r := c.radioForFrame(env, sc.Info.Band, size)
	if r == nil {
		return
	}

	c.logger.Printf("[DEBUG] %s: send complete", r.band)
	r.completeSend()
	r.notify(EventSendDone)
}

// radioForFrame finds the radio a frame is addressed to, dropping the frame
// if there is none.
func (c *Connector) radioForFrame(
	env *message.Envelope,
	band string,
	size int,
) *Radio {
	if band == "" {
		c.drop(env, size, fmt.Errorf("%w: missing band", ErrInvalidFrame))
		return nil
	}

	r, found := c.FindByBand(band)
	if !found {
		c.drop(env, size, fmt.Errorf("%w: %q", ErrRadioNotFound, band))
		return nil
	}

	return r
}

func (c *Connector) drop(env *message.Envelope, size int, err error) {
	c.logger.Printf("[WARN] %s: dropped frame: %v", c.name, err)
	c.frameHook(HookPosFrameDropped, env, size, err)
}
