package channel

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout     = 5 * time.Second
	handshakeTimeout = 10 * time.Second
)

// MaxFrameSize bounds one inbound websocket message. A frame is a small
// envelope around at most one packet payload.
const MaxFrameSize = 64 << 10

// ErrFrameTooLarge is returned by Receive when the peer sends a message over
// MaxFrameSize. The connection is closed afterwards.
var ErrFrameTooLarge = errors.New("channel: frame too large")

// WebSocketChannel carries one frame per binary websocket message.
type WebSocketChannel struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

// DialWebSocket connects to a websocket endpoint such as
// "ws://localhost:8100/ons".
func DialWebSocket(address string) (*WebSocketChannel, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
	}

	conn, _, err := dialer.Dial(address, nil)
	if err != nil {
		return nil, err
	}

	return NewWebSocketChannel(conn), nil
}

// NewWebSocketChannel wraps an established websocket connection, for example
// one produced by a websocket.Upgrader.
func NewWebSocketChannel(conn *websocket.Conn) *WebSocketChannel {
	conn.SetReadLimit(MaxFrameSize)

	return &WebSocketChannel{
		conn:   conn,
		closed: make(chan struct{}),
	}
}

// Send writes the frame as one binary message.
func (c *WebSocketChannel) Send(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.isClosed() {
		return ErrChannelClosed
	}

	err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err != nil {
		return err
	}

	return c.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// Receive returns the next binary message. Text and control messages are
// skipped.
func (c *WebSocketChannel) Receive() ([]byte, error) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				return nil, ErrFrameTooLarge
			}

			if c.isClosed() ||
				websocket.IsCloseError(err,
					websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
				errors.Is(err, net.ErrClosed) {
				return nil, ErrChannelClosed
			}

			return nil, err
		}

		if messageType == websocket.BinaryMessage {
			return data, nil
		}
	}
}

// Close sends a close message to the peer and closes the connection.
func (c *WebSocketChannel) Close() error {
	var err error

	c.closeOnce.Do(func() {
		close(c.closed)

		c.writeMu.Lock()
		closeMsg := websocket.FormatCloseMessage(
			websocket.CloseNormalClosure, "closing")
		_ = c.conn.WriteControl(websocket.CloseMessage, closeMsg,
			time.Now().Add(time.Second))
		c.writeMu.Unlock()

		err = c.conn.Close()
	})

	return err
}

// Kind names the transport, for status reports.
func (c *WebSocketChannel) Kind() string {
	return "websocket"
}

func (c *WebSocketChannel) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
