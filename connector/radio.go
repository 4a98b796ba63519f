package connector

import (
	"sync"
	"time"

	"github.com/sarchlab/simradio/message"
)

// A Radio is one virtual radio attached to a connector, identified by its
// band. The receive buffer, the transmit flag, the signal strength and the
// power state are guarded by separate locks, so a blocked query on one radio
// never holds up traffic for another.
type Radio struct {
	connector *Connector
	band      string

	rxMu     sync.Mutex
	rxBuffer []byte
	rxLength int

	txMu       sync.Mutex
	txComplete bool

	signal responseSlot[float32]
	state  responseSlot[message.RadioState]

	sinkMu sync.RWMutex
	sink   EventSink

	closeOnce sync.Once
	closed    chan struct{}
}

func newRadio(c *Connector, band string) *Radio {
	return &Radio{
		connector: c,
		band:      band,
		rxBuffer:  make([]byte, c.receiveBufferSize),
		closed:    make(chan struct{}),
	}
}

// Band returns the band of the radio.
func (r *Radio) Band() string {
	return r.band
}

// Connector returns the connector the radio is attached to.
func (r *Radio) Connector() *Connector {
	return r.connector
}

// SetEventSink registers the sink that receives this radio's events. A nil
// sink removes the current one.
func (r *Radio) SetEventSink(sink EventSink) {
	r.sinkMu.Lock()
	defer r.sinkMu.Unlock()

	r.sink = sink
}

// Send transmits a packet on the given channel. CheckSend turns true once the
// server reports the transmission complete.
func (r *Radio) Send(channel int32, data []byte) error {
	if err := r.usable(); err != nil {
		return err
	}

	r.txMu.Lock()
	r.txComplete = false
	r.txMu.Unlock()

	r.connector.logger.Printf("[DEBUG] %s: send %d bytes on channel %d",
		r.band, len(data), channel)

	return r.connector.send(packetEnvelope(r.band, channel, data))
}

// CheckSend tells if the last sent packet has been completed.
func (r *Radio) CheckSend() bool {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	return r.txComplete
}

// StartReceive asks the server to put the radio into receive mode on the
// given channel.
func (r *Radio) StartReceive(channel int32) error {
	return r.setState(channel, message.StateReceive)
}

// StopReceive asks the server to put the radio back to idle.
func (r *Radio) StopReceive() error {
	return r.setState(0, message.StateIdle)
}

// Sleep asks the server to put the radio to sleep. Only StartReceive wakes it.
func (r *Radio) Sleep() error {
	return r.setState(0, message.StateSleep)
}

func (r *Radio) setState(channel int32, state message.RadioState) error {
	if err := r.usable(); err != nil {
		return err
	}

	r.connector.logger.Printf("[DEBUG] %s: request state %s", r.band, state)

	return r.connector.send(stateSetEnvelope(r.band, channel, state))
}

// CheckReceive tells if an unread packet is waiting.
func (r *Radio) CheckReceive() bool {
	r.rxMu.Lock()
	defer r.rxMu.Unlock()

	return r.rxLength > 0
}

// GetReceived returns up to maxLen bytes of the waiting packet and consumes
// it. It returns false if there is no packet.
func (r *Radio) GetReceived(maxLen int) ([]byte, bool) {
	r.rxMu.Lock()
	defer r.rxMu.Unlock()

	if r.rxLength == 0 {
		return nil, false
	}

	n := min(r.rxLength, max(maxLen, 0))
	data := make([]byte, n)
	copy(data, r.rxBuffer[:n])

	r.rxLength = 0

	return data, true
}

// GetSignalStrength asks the server for the signal strength the radio sees on
// a channel and waits at most timeout for the answer. A non-positive timeout
// uses the connector's default.
func (r *Radio) GetSignalStrength(
	channel int32,
	timeout time.Duration,
) (float32, error) {
	if err := r.usable(); err != nil {
		return 0, err
	}

	return awaitResponse(r, &r.signal,
		signalRequestEnvelope(r.band, channel), timeout)
}

// GetState asks the server for the power state of the radio and waits at
// most timeout for the answer. A non-positive timeout uses the connector's
// default.
func (r *Radio) GetState(timeout time.Duration) (message.RadioState, error) {
	if err := r.usable(); err != nil {
		return 0, err
	}

	return awaitResponse(r, &r.state, stateRequestEnvelope(r.band), timeout)
}

// LastSignalStrength returns the most recent signal strength reported by the
// server.
func (r *Radio) LastSignalStrength() (float32, bool) {
	return r.signal.last()
}

// LastState returns the most recent power state reported by the server.
func (r *Radio) LastState() (message.RadioState, bool) {
	return r.state.last()
}

// Close detaches the radio from its connector. Queries waiting on the radio
// return ErrRadioClosed.
func (r *Radio) Close() error {
	err := ErrRadioClosed

	r.closeOnce.Do(func() {
		close(r.closed)
		r.connector.detach(r)
		r.connector.logger.Printf("[DEBUG] %s: radio closed", r.band)
		err = nil
	})

	return err
}

func (r *Radio) isClosed() bool {
	select {
	case <-r.closed:
		return true
	default:
		return false
	}
}

func (r *Radio) usable() error {
	if r.isClosed() {
		return ErrRadioClosed
	}

	return r.connector.checkOpen()
}

func (r *Radio) storePacket(data []byte) int {
	r.rxMu.Lock()
	defer r.rxMu.Unlock()

	n := copy(r.rxBuffer, data)
	r.rxLength = n

	return n
}

func (r *Radio) completeSend() {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.txComplete = true
}

func (r *Radio) notify(e Event) {
	r.sinkMu.RLock()
	sink := r.sink
	r.sinkMu.RUnlock()

	if sink != nil {
		sink.HandleRadioEvent(r, e)
	}
}
