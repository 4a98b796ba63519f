package simserver

import (
	"log"

	"github.com/sarchlab/simradio/message"
)

// A Builder can build servers.
type Builder struct {
	codec          message.Codec
	logger         *log.Logger
	signalStrength float32
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		codec:          message.NewProtoCodec(),
		signalStrength: DefaultSignalStrength,
	}
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

// WithSignalStrength sets the RSSI reported to signal queries.
func (b Builder) WithSignalStrength(rssi float32) Builder {
	b.signalStrength = rssi
	return b
}

// Build creates a server.
func (b Builder) Build() *Server {
	if b.codec == nil {
		panic("codec is not set")
	}

	logger := b.logger
	if logger == nil {
		logger = log.Default()
	}

	return &Server{
		codec:          b.codec,
		logger:         logger,
		signalStrength: b.signalStrength,
		clients:        make(map[*client]struct{}),
		fields:         make(map[string]string),
	}
}
