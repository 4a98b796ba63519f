package channel

import (
	"fmt"
	"sync"
)

const inprocScheme = "inproc://"

var (
	inprocMutex     sync.Mutex
	inprocListeners = map[string]*InprocListener{}
)

// An InprocListener accepts in-process connections on an "inproc://" address.
type InprocListener struct {
	address  string
	incoming chan Channel
	link     *pipeLink
}

// ListenInproc binds an in-process address.
func ListenInproc(address string) (*InprocListener, error) {
	inprocMutex.Lock()
	defer inprocMutex.Unlock()

	if _, taken := inprocListeners[address]; taken {
		return nil, fmt.Errorf("channel: address %q already in use", address)
	}

	l := &InprocListener{
		address:  address,
		incoming: make(chan Channel),
		link:     &pipeLink{done: make(chan struct{})},
	}
	inprocListeners[address] = l

	return l, nil
}

// DialInproc connects to a listener bound with ListenInproc.
func DialInproc(address string) (Channel, error) {
	inprocMutex.Lock()
	l, ok := inprocListeners[address]
	inprocMutex.Unlock()

	if !ok {
		return nil, fmt.Errorf("channel: nothing listening on %q", address)
	}

	client, server := NewPipe()
	client.(*pipeEnd).kind = "inproc"
	server.(*pipeEnd).kind = "inproc"

	select {
	case l.incoming <- server:
		return client, nil
	case <-l.link.done:
		return nil, fmt.Errorf("channel: listener on %q closed", address)
	}
}

// Accept waits for the next connection.
func (l *InprocListener) Accept() (Channel, error) {
	select {
	case ch := <-l.incoming:
		return ch, nil
	case <-l.link.done:
		return nil, ErrChannelClosed
	}
}

// Address returns the bound address.
func (l *InprocListener) Address() string {
	return l.address
}

// Close unbinds the address and unblocks Accept.
func (l *InprocListener) Close() error {
	inprocMutex.Lock()
	if inprocListeners[l.address] == l {
		delete(inprocListeners, l.address)
	}
	inprocMutex.Unlock()

	l.link.close()

	return nil
}
