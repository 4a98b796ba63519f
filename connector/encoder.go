package connector

import (
	"fmt"

	"github.com/sarchlab/simradio/message"
)

func registerEnvelope(address string) *message.Envelope {
	return message.New(&message.Register{Address: address})
}

func deregisterEnvelope(address string) *message.Envelope {
	return message.New(&message.Deregister{Address: address})
}

func packetEnvelope(band string, channel int32, data []byte) *message.Envelope {
	return message.New(&message.Packet{
		Info: message.NewRFInfo(band, channel),
		Data: data,
	})
}

func signalRequestEnvelope(band string, channel int32) *message.Envelope {
	return message.New(&message.SignalRequest{
		Info: message.NewRFInfo(band, channel),
	})
}

func stateRequestEnvelope(band string) *message.Envelope {
	return message.New(&message.StateRequest{
		Info: message.NewRFInfo(band, 0),
	})
}

func stateSetEnvelope(
	band string,
	channel int32,
	state message.RadioState,
) *message.Envelope {
	return message.New(&message.StateSet{
		Info:     message.NewRFInfo(band, channel),
		State:    state,
		HasState: true,
	})
}

func fieldSetEnvelope(name, data string) *message.Envelope {
	return message.New(&message.FieldSet{Name: name, Data: data})
}

func fieldRequestEnvelope(name string) *message.Envelope {
	return message.New(&message.FieldRequest{Name: name})
}

func eventEnvelope(data string) *message.Envelope {
	return message.New(&message.Event{Data: data})
}

// send encodes the envelope and writes it to the channel. Writes are
// serialized so frames never interleave.
func (c *Connector) send(env *message.Envelope) error {
	frame, err := c.codec.Encode(env)
	if err != nil {
		return fmt.Errorf("connector: encode %s: %w", env.Kind(), err)
	}

	c.sendMu.Lock()
	err = c.channel.Send(frame)
	c.sendMu.Unlock()

	if err != nil {
		return &ChannelError{Op: "send", Err: err}
	}

	c.frameHook(HookPosFrameSent, env, len(frame), nil)

	return nil
}
