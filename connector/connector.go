// Package connector lets a process drive virtual radios inside a network
// simulator. A Connector owns one channel to the simulation server and routes
// inbound frames to the Radio attached to the frame's band.
package connector

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sarchlab/simradio/channel"
	"github.com/sarchlab/simradio/message"
	"github.com/sarchlab/simradio/sim"
)

// A Connector multiplexes the radios of one client over one channel.
type Connector struct {
	*sim.HookableBase

	name              string
	serverAddress     string
	localAddress      string
	codec             message.Codec
	channel           channel.Channel
	logger            *log.Logger
	maxRadios         int
	receiveBufferSize int
	requestTimeout    time.Duration

	sendMu sync.Mutex

	registryMu sync.RWMutex
	radios     map[string]*Radio

	fieldsMu sync.RWMutex
	fields   map[string]string

	running        atomic.Bool
	closeOnce      sync.Once
	done           chan struct{}
	dispatcherDone chan struct{}

	errMu sync.Mutex
	err   error
}

// Connect opens a connector with the default settings.
func Connect(serverAddress, localAddress string) (*Connector, error) {
	return MakeBuilder().Build(serverAddress, localAddress)
}

// Name returns the name of the connector.
func (c *Connector) Name() string {
	return c.name
}

// ServerAddress returns the address of the simulation server.
func (c *Connector) ServerAddress() string {
	return c.serverAddress
}

// LocalAddress returns the address the connector registered with.
func (c *Connector) LocalAddress() string {
	return c.localAddress
}

// Running tells if the connector is open and its receive loop is alive.
func (c *Connector) Running() bool {
	if !c.running.Load() {
		return false
	}

	select {
	case <-c.dispatcherDone:
		return false
	default:
		return true
	}
}

// Err returns the error that stopped the receive loop, if any.
func (c *Connector) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()

	return c.err
}

// AttachRadio creates a radio for the band.
func (c *Connector) AttachRadio(band string) (*Radio, error) {
	if band == "" {
		return nil, ErrEmptyBand
	}

	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	c.registryMu.Lock()
	defer c.registryMu.Unlock()

	if _, exists := c.radios[band]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateBand, band)
	}

	if len(c.radios) >= c.maxRadios {
		return nil, ErrRegistryFull
	}

	r := newRadio(c, band)
	c.radios[band] = r

	c.logger.Printf("[DEBUG] %s: attached radio %q", c.name, band)

	return r, nil
}

func (c *Connector) detach(r *Radio) {
	c.registryMu.Lock()
	defer c.registryMu.Unlock()

	if c.radios[r.band] == r {
		delete(c.radios, r.band)
	}
}

// FindByBand returns the radio attached to the band.
func (c *Connector) FindByBand(band string) (*Radio, bool) {
	c.registryMu.RLock()
	defer c.registryMu.RUnlock()

	r, ok := c.radios[band]

	return r, ok
}

// Radios returns the attached radios ordered by band.
func (c *Connector) Radios() []*Radio {
	c.registryMu.RLock()
	radios := make([]*Radio, 0, len(c.radios))
	for _, r := range c.radios {
		radios = append(radios, r)
	}
	c.registryMu.RUnlock()

	sort.Slice(radios, func(i, j int) bool {
		return radios[i].band < radios[j].band
	})

	return radios
}

// NumRadios returns the number of attached radios.
func (c *Connector) NumRadios() int {
	c.registryMu.RLock()
	defer c.registryMu.RUnlock()

	return len(c.radios)
}

// MaxRadios returns the capacity of the radio registry.
func (c *Connector) MaxRadios() int {
	return c.maxRadios
}

// SetField sets a named simulation field.
func (c *Connector) SetField(name, value string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	return c.send(fieldSetEnvelope(name, value))
}

// SetFieldf sets a named simulation field to a formatted value.
func (c *Connector) SetFieldf(name, format string, args ...any) error {
	value := fmt.Sprintf(format, args...)

	c.logger.Printf("[INFO] set field '%s' data: '%s'", name, value)

	return c.SetField(name, value)
}

// RequestField asks the server for the value of a field. The answer becomes
// visible through Field once it arrives.
func (c *Connector) RequestField(name string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	return c.send(fieldRequestEnvelope(name))
}

// Field returns the last value of a field reported by the server.
func (c *Connector) Field(name string) (string, bool) {
	c.fieldsMu.RLock()
	defer c.fieldsMu.RUnlock()

	v, ok := c.fields[name]

	return v, ok
}

func (c *Connector) storeField(name, value string) {
	c.fieldsMu.Lock()
	c.fields[name] = value
	c.fieldsMu.Unlock()

	c.logger.Printf("[DEBUG] %s: field %s = %q", c.name, name, value)
}

// SendEvent sends an application event to the server.
func (c *Connector) SendEvent(data string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	return c.send(eventEnvelope(data))
}

// Close stops the receive loop, wakes every waiting query with ErrClosed and
// releases the channel. Calling Close again returns ErrClosed.
func (c *Connector) Close() error {
	first := false
	c.closeOnce.Do(func() { first = true })

	if !first {
		return ErrClosed
	}

	c.logger.Printf("[INFO] %s: closing", c.name)

	err := c.send(deregisterEnvelope(c.localAddress))
	if err != nil {
		c.logger.Printf("[WARN] %s: deregister failed: %v", c.name, err)
	}

	err = c.shutdown()

	c.logger.Printf("[INFO] %s: closed", c.name)

	return err
}

func (c *Connector) shutdown() error {
	c.running.Store(false)
	close(c.done)

	err := c.channel.Close()

	<-c.dispatcherDone

	if err != nil {
		return &ChannelError{Op: "close", Err: err}
	}

	return nil
}

func (c *Connector) checkOpen() error {
	if !c.running.Load() {
		return ErrClosed
	}

	return nil
}

func (c *Connector) fail(err error) {
	c.errMu.Lock()
	c.err = err
	c.errMu.Unlock()

	c.logger.Printf("[ERROR] %s: receive loop stopped: %v", c.name, err)
}

// receiveLoopErr is what queries report when the receive loop has exited.
func (c *Connector) receiveLoopErr() error {
	if !c.running.Load() {
		return ErrClosed
	}

	if err := c.Err(); err != nil {
		return err
	}

	return ErrClosed
}

// RadioStatus summarizes one radio.
type RadioStatus struct {
	Band          string  `json:"band"`
	HasPacket     bool    `json:"has_packet"`
	SendComplete  bool    `json:"send_complete"`
	State         string  `json:"state,omitempty"`
	Signal        float32 `json:"signal,omitempty"`
	QueryInFlight bool    `json:"query_in_flight"`
}

// Status summarizes a connector.
type Status struct {
	Name          string        `json:"name"`
	ServerAddress string        `json:"server_address"`
	LocalAddress  string        `json:"local_address"`
	Running       bool          `json:"running"`
	Transport     string        `json:"transport"`
	MaxRadios     int           `json:"max_radios"`
	Radios        []RadioStatus `json:"radios"`
	Error         string        `json:"error,omitempty"`
}

// Status reports the state of the connector and its radios.
func (c *Connector) Status() Status {
	s := Status{
		Name:          c.name,
		ServerAddress: c.serverAddress,
		LocalAddress:  c.localAddress,
		Running:       c.Running(),
		Transport:     "unknown",
		MaxRadios:     c.maxRadios,
	}

	if k, ok := c.channel.(interface{ Kind() string }); ok {
		s.Transport = k.Kind()
	}

	if err := c.Err(); err != nil {
		s.Error = err.Error()
	}

	for _, r := range c.Radios() {
		s.Radios = append(s.Radios, r.status())
	}

	return s
}

func (r *Radio) status() RadioStatus {
	rs := RadioStatus{
		Band:          r.band,
		HasPacket:     r.CheckReceive(),
		SendComplete:  r.CheckSend(),
		QueryInFlight: r.signal.isPending() || r.state.isPending(),
	}

	if state, ok := r.LastState(); ok {
		rs.State = state.String()
	}

	if signal, ok := r.LastSignalStrength(); ok {
		rs.Signal = signal
	}

	return rs
}

func (s Status) String() string {
	sb := strings.Builder{}

	fmt.Fprintf(&sb, "Connector %s status: ", s.Name)
	if !s.Running {
		sb.WriteString("Not connected\n")
	} else {
		sb.WriteString("Running\n")
	}

	fmt.Fprintf(&sb, "\t- Server: %s\n", s.ServerAddress)
	fmt.Fprintf(&sb, "\t- Local: %s\n", s.LocalAddress)
	fmt.Fprintf(&sb, "\t- Transport: %s\n", s.Transport)
	fmt.Fprintf(&sb, "\t- Radios: %d/%d\n", len(s.Radios), s.MaxRadios)

	for _, r := range s.Radios {
		fmt.Fprintf(&sb, "\t\t%s: packet=%t sent=%t", r.Band, r.HasPacket,
			r.SendComplete)
		if r.State != "" {
			fmt.Fprintf(&sb, " state=%s", r.State)
		}
		sb.WriteString("\n")
	}

	if s.Error != "" {
		fmt.Fprintf(&sb, "\t- Error: %s\n", s.Error)
	}

	return sb.String()
}
