// Package simserver provides a small simulation medium that connectors can
// talk to. It is used by tests and by the serve command.
package simserver

import (
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/sarchlab/simradio/channel"
	"github.com/sarchlab/simradio/message"
)

// DefaultSignalStrength is the RSSI reported to every signal query unless
// configured otherwise.
const DefaultSignalStrength = -60

// ErrServerClosed is returned when serving on a closed server.
var ErrServerClosed = errors.New("simserver: server closed")

// A Listener yields incoming channels.
type Listener interface {
	Accept() (channel.Channel, error)
}

type radioKey struct {
	band string
}

type radioState struct {
	state   message.RadioState
	channel int32
}

type client struct {
	ch      channel.Channel
	address string
	radios  map[radioKey]radioState
}

// Server is a simulation medium. It tracks the power state of every client
// radio and moves packets between clients on the same band.
type Server struct {
	codec          message.Codec
	logger         *log.Logger
	signalStrength float32

	mu      sync.Mutex
	clients map[*client]struct{}
	fields  map[string]string
	closed  bool

	wg sync.WaitGroup
}

// Serve handles one connection until the peer closes it, deregisters, or the
// server closes. It returns immediately; the connection is handled in the
// background.
func (s *Server) Serve(ch channel.Channel) error {
	cl := &client{
		ch:     ch,
		radios: make(map[radioKey]radioState),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ch.Close()

		return ErrServerClosed
	}
	s.clients[cl] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.handle(cl)

	return nil
}

// ServeListener accepts connections until the listener fails.
func (s *Server) ServeListener(l Listener) error {
	for {
		ch, err := l.Accept()
		if err != nil {
			if errors.Is(err, channel.ErrChannelClosed) {
				return nil
			}

			return err
		}

		err = s.Serve(ch)
		if err != nil {
			return err
		}
	}
}

// Close drops all clients and waits for their handlers to return.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.closed = true

	clients := make([]*client, 0, len(s.clients))
	for cl := range s.clients {
		clients = append(clients, cl)
	}
	s.mu.Unlock()

	for _, cl := range clients {
		_ = cl.ch.Close()
	}

	s.wg.Wait()

	return nil
}

// ClientStatus describes one connected client.
type ClientStatus struct {
	Address string            `json:"address"`
	Radios  map[string]string `json:"radios"`
}

// Clients lists the connected clients ordered by address.
func (s *Server) Clients() []ClientStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ClientStatus, 0, len(s.clients))
	for cl := range s.clients {
		cs := ClientStatus{
			Address: cl.address,
			Radios:  make(map[string]string, len(cl.radios)),
		}

		for k, r := range cl.radios {
			cs.Radios[k.band] = r.state.String()
		}

		out = append(out, cs)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Address < out[j].Address
	})

	return out
}

// Field returns the current value of a simulation field.
func (s *Server) Field(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.fields[name]

	return v, ok
}

func (s *Server) handle(cl *client) {
	defer s.wg.Done()
	defer s.drop(cl)

	for {
		frame, err := cl.ch.Receive()
		if err != nil {
			return
		}

		env, err := s.codec.Decode(frame)
		if err != nil {
			s.logger.Printf("[WARN] simserver: bad frame from %q: %v",
				cl.address, err)
			continue
		}

		if !s.process(cl, env) {
			return
		}
	}
}

// process handles one envelope. It returns false when the client is done.
func (s *Server) process(cl *client, env *message.Envelope) bool {
	switch b := env.Body.(type) {
	case *message.Register:
		s.register(cl, b.Address)
	case *message.Deregister:
		s.logger.Printf("[INFO] simserver: %q deregistered", cl.address)
		return false
	case *message.Packet:
		s.transmit(cl, b)
	case *message.StateSet:
		s.setState(cl, b)
	case *message.StateRequest:
		s.reply(cl, &message.StateResponse{
			Info:     b.Info,
			State:    s.stateOf(cl, b.Info.Band).state,
			HasState: true,
		})
	case *message.SignalRequest:
		s.reply(cl, &message.SignalResponse{
			Info:     b.Info,
			Value:    s.signalStrength,
			HasValue: true,
		})
	case *message.FieldSet:
		s.mu.Lock()
		s.fields[b.Name] = b.Data
		s.mu.Unlock()
		s.logger.Printf("[INFO] simserver: field %s = %q", b.Name, b.Data)
	case *message.FieldRequest:
		if v, ok := s.Field(b.Name); ok {
			s.reply(cl, &message.FieldSet{Name: b.Name, Data: v})
		}
	case *message.Event:
		s.logger.Printf("[INFO] simserver: event from %q: %s",
			cl.address, b.Data)
	default:
		s.logger.Printf("[WARN] simserver: %q sent unexpected %s",
			cl.address, env.Kind())
	}

	return true
}

func (s *Server) register(cl *client, address string) {
	s.mu.Lock()
	cl.address = address
	s.mu.Unlock()

	s.logger.Printf("[INFO] simserver: %q registered", address)
}

func (s *Server) setState(cl *client, b *message.StateSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cl.radios[radioKey{band: b.Info.Band}] = radioState{
		state:   b.State,
		channel: b.Info.Channel,
	}
}

func (s *Server) stateOf(cl *client, band string) radioState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cl.radios[radioKey{band: band}]
}

// transmit completes the sender's transmission and delivers the packet to the
// other clients listening on the same band and channel.
func (s *Server) transmit(sender *client, p *message.Packet) {
	s.mu.Lock()
	var receivers []*client
	for cl := range s.clients {
		if cl == sender {
			continue
		}

		r, ok := cl.radios[radioKey{band: p.Info.Band}]
		if ok && r.state == message.StateReceive &&
			r.channel == p.Info.Channel {
			receivers = append(receivers, cl)
		}
	}
	s.mu.Unlock()

	s.logger.Printf("[DEBUG] simserver: %q sent %s to %d receivers",
		sender.address, message.FormatBytes(p.Info.Band, p.Data),
		len(receivers))

	for _, cl := range receivers {
		s.reply(cl, &message.Packet{Info: p.Info, Data: p.Data})
	}

	s.reply(sender, &message.SendComplete{Info: p.Info})
}

func (s *Server) reply(cl *client, body message.Body) {
	frame, err := s.codec.Encode(message.New(body))
	if err != nil {
		s.logger.Printf("[ERROR] simserver: %v", err)
		return
	}

	err = cl.ch.Send(frame)
	if err != nil {
		s.logger.Printf("[WARN] simserver: send %s: %v", body.Kind(), err)
	}
}

func (s *Server) drop(cl *client) {
	s.mu.Lock()
	delete(s.clients, cl)
	s.mu.Unlock()

	_ = cl.ch.Close()

	s.logger.Printf("[DEBUG] simserver: dropped client %q", cl.address)
}
