package channel

import "sync"

const pipeQueueLength = 64

type pipeLink struct {
	closeOnce sync.Once
	done      chan struct{}
}

func (l *pipeLink) close() {
	l.closeOnce.Do(func() { close(l.done) })
}

type pipeEnd struct {
	link *pipeLink
	in   <-chan []byte
	out  chan<- []byte
	kind string
}

// NewPipe creates two connected in-memory channel ends. Closing either end
// closes both.
func NewPipe() (Channel, Channel) {
	link := &pipeLink{done: make(chan struct{})}
	aToB := make(chan []byte, pipeQueueLength)
	bToA := make(chan []byte, pipeQueueLength)

	a := &pipeEnd{link: link, in: bToA, out: aToB, kind: "pipe"}
	b := &pipeEnd{link: link, in: aToB, out: bToA, kind: "pipe"}

	return a, b
}

func (p *pipeEnd) Send(frame []byte) error {
	select {
	case <-p.link.done:
		return ErrChannelClosed
	default:
	}

	copied := append([]byte(nil), frame...)

	select {
	case p.out <- copied:
		return nil
	case <-p.link.done:
		return ErrChannelClosed
	}
}

// Receive returns frames queued before the pipe closed before reporting
// ErrChannelClosed.
func (p *pipeEnd) Receive() ([]byte, error) {
	select {
	case frame := <-p.in:
		return frame, nil
	case <-p.link.done:
	}

	select {
	case frame := <-p.in:
		return frame, nil
	default:
		return nil, ErrChannelClosed
	}
}

func (p *pipeEnd) Close() error {
	p.link.close()
	return nil
}

// Kind names the transport, for status reports.
func (p *pipeEnd) Kind() string {
	return p.kind
}
