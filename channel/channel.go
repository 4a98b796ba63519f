// Package channel provides the message-framed duplex links that carry
// envelopes between a connector and a simulation server.
package channel

import (
	"errors"
	"fmt"
	"strings"
)

// ErrChannelClosed is returned by a channel that has been closed, locally or
// by the peer.
var ErrChannelClosed = errors.New("channel: closed")

// A Channel is a reliable, ordered, message-framed duplex link to one peer.
// Each Receive yields exactly one frame.
type Channel interface {
	// Send writes one frame. Send is safe for concurrent use.
	Send(frame []byte) error

	// Receive blocks until a frame arrives or the channel is closed.
	Receive() ([]byte, error)

	// Close releases the channel and unblocks a pending Receive.
	Close() error
}

// A Dialer opens a channel to the given address.
type Dialer func(address string) (Channel, error)

// Dial opens a channel by looking at the address scheme. "ws://" and "wss://"
// addresses use websockets, "inproc://" addresses connect to an in-process
// listener.
func Dial(address string) (Channel, error) {
	switch {
	case strings.HasPrefix(address, "ws://"),
		strings.HasPrefix(address, "wss://"):
		ch, err := DialWebSocket(address)
		if err != nil {
			return nil, err
		}

		return ch, nil
	case strings.HasPrefix(address, inprocScheme):
		return DialInproc(address)
	default:
		return nil, fmt.Errorf("channel: unsupported address %q", address)
	}
}
