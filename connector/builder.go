package connector

import (
	"errors"
	"log"
	"time"

	"github.com/sarchlab/simradio/channel"
	"github.com/sarchlab/simradio/message"
	"github.com/sarchlab/simradio/sim"
)

// Defaults used by MakeBuilder.
const (
	DefaultMaxRadios         = 16
	DefaultReceiveBufferSize = 256
	DefaultRequestTimeout    = time.Second
)

// A Builder can build connectors.
type Builder struct {
	dialer            channel.Dialer
	codec             message.Codec
	logger            *log.Logger
	name              string
	maxRadios         int
	receiveBufferSize int
	requestTimeout    time.Duration
	hooks             []sim.Hook
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		dialer:            channel.Dial,
		codec:             message.NewProtoCodec(),
		maxRadios:         DefaultMaxRadios,
		receiveBufferSize: DefaultReceiveBufferSize,
		requestTimeout:    DefaultRequestTimeout,
	}
}

// WithDialer sets how the channel to the server is opened.
func (b Builder) WithDialer(d channel.Dialer) Builder {
	b.dialer = d
	return b
}

// WithChannel makes the connector use an already open channel.
func (b Builder) WithChannel(ch channel.Channel) Builder {
	b.dialer = func(string) (channel.Channel, error) { return ch, nil }
	return b
}

// WithCodec sets the codec.
func (b Builder) WithCodec(c message.Codec) Builder {
	b.codec = c
	return b
}

// WithLogger sets the logger. The default is the standard logger.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// WithName sets the name of the connector. The default is the local address.
func (b Builder) WithName(name string) Builder {
	b.name = name
	return b
}

// WithMaxRadios sets how many radios can be attached at the same time.
func (b Builder) WithMaxRadios(n int) Builder {
	b.maxRadios = n
	return b
}

// WithReceiveBufferSize sets the per-radio receive buffer capacity. Longer
// packets are truncated.
func (b Builder) WithReceiveBufferSize(n int) Builder {
	b.receiveBufferSize = n
	return b
}

// WithRequestTimeout sets the timeout used by queries that are given a
// non-positive timeout.
func (b Builder) WithRequestTimeout(t time.Duration) Builder {
	b.requestTimeout = t
	return b
}

// WithHook registers a hook on the connector before any traffic flows.
func (b Builder) WithHook(h sim.Hook) Builder {
	hooks := make([]sim.Hook, 0, len(b.hooks)+1)
	hooks = append(hooks, b.hooks...)
	b.hooks = append(hooks, h)

	return b
}

// Build opens the channel to the server, starts the receive loop and
// registers the local address.
func (b Builder) Build(serverAddress, localAddress string) (*Connector, error) {
	b.parametersMustBeValid()

	if localAddress == "" {
		return nil, errors.New("connector: local address must not be empty")
	}

	logger := b.logger
	if logger == nil {
		logger = log.Default()
	}

	name := b.name
	if name == "" {
		name = localAddress
	}

	logger.Printf("[INFO] %s: connecting to '%s' as '%s'",
		name, serverAddress, localAddress)

	ch, err := b.dialer(serverAddress)
	if err != nil {
		return nil, &ChannelError{Op: "open", Err: err}
	}

	c := &Connector{
		HookableBase:      sim.NewHookableBase(),
		name:              name,
		serverAddress:     serverAddress,
		localAddress:      localAddress,
		codec:             b.codec,
		channel:           ch,
		logger:            logger,
		maxRadios:         b.maxRadios,
		receiveBufferSize: b.receiveBufferSize,
		requestTimeout:    b.requestTimeout,
		radios:            make(map[string]*Radio),
		fields:            make(map[string]string),
		done:              make(chan struct{}),
		dispatcherDone:    make(chan struct{}),
	}

	for _, h := range b.hooks {
		c.AcceptHook(h)
	}

	c.running.Store(true)
	go c.receiveLoop()

	err = c.send(registerEnvelope(localAddress))
	if err != nil {
		c.closeOnce.Do(func() {})
		_ = c.shutdown()

		return nil, err
	}

	return c, nil
}

func (b Builder) parametersMustBeValid() {
	if b.dialer == nil {
		panic("dialer is not set")
	}

	if b.codec == nil {
		panic("codec is not set")
	}

	if b.maxRadios <= 0 {
		panic("max radios must be positive")
	}

	if b.receiveBufferSize <= 0 {
		panic("receive buffer size must be positive")
	}

	if b.requestTimeout <= 0 {
		panic("request timeout must be positive")
	}
}
