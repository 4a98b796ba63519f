// Package message defines the envelope exchanged between a connector and the
// simulation server, and the codec that turns envelopes into frames.
package message

import "fmt"

// Kind identifies which body an envelope carries.
type Kind int

// All the envelope kinds.
const (
	KindNone Kind = iota
	KindRegister
	KindDeregister
	KindPacket
	KindSignalRequest
	KindSignalResponse
	KindStateRequest
	KindStateResponse
	KindStateSet
	KindFieldSet
	KindFieldRequest
	KindSendComplete
	KindEvent
)

var kindNames = map[Kind]string{
	KindNone:           "None",
	KindRegister:       "Register",
	KindDeregister:     "Deregister",
	KindPacket:         "Packet",
	KindSignalRequest:  "SignalRequest",
	KindSignalResponse: "SignalResponse",
	KindStateRequest:   "StateRequest",
	KindStateResponse:  "StateResponse",
	KindStateSet:       "StateSet",
	KindFieldSet:       "FieldSet",
	KindFieldRequest:   "FieldRequest",
	KindSendComplete:   "SendComplete",
	KindEvent:          "Event",
}

func (k Kind) String() string {
	name, ok := kindNames[k]
	if !ok {
		return fmt.Sprintf("Kind(%d)", int(k))
	}

	return name
}

// Body is one of the message kinds an envelope can carry.
type Body interface {
	Kind() Kind
}

// Envelope wraps exactly one Body.
type Envelope struct {
	Body Body
}

// New wraps a body into an envelope.
func New(body Body) *Envelope {
	return &Envelope{Body: body}
}

// Kind returns the kind of the body, or KindNone if the envelope is empty.
func (e *Envelope) Kind() Kind {
	if e == nil || e.Body == nil {
		return KindNone
	}

	return e.Body.Kind()
}

// Band returns the band the envelope is addressed to, if its body carries an
// RFInfo.
func (e *Envelope) Band() (string, bool) {
	if e == nil {
		return "", false
	}

	carrier, ok := e.Body.(interface{ RF() *RFInfo })
	if !ok {
		return "", false
	}

	info := carrier.RF()
	if info == nil {
		return "", false
	}

	return info.Band, true
}

// RFInfo names the band and channel a radio message refers to.
type RFInfo struct {
	Band    string
	Channel int32
}

// NewRFInfo creates an RFInfo.
func NewRFInfo(band string, channel int32) *RFInfo {
	return &RFInfo{Band: band, Channel: channel}
}

// Register announces a client to the server.
type Register struct {
	Address string
}

// Kind returns KindRegister.
func (*Register) Kind() Kind { return KindRegister }

// Deregister removes a client from the server.
type Deregister struct {
	Address string
}

// Kind returns KindDeregister.
func (*Deregister) Kind() Kind { return KindDeregister }

// Packet carries radio payload.
type Packet struct {
	Info *RFInfo
	Data []byte
}

// Kind returns KindPacket.
func (*Packet) Kind() Kind { return KindPacket }

// RF returns the RFInfo of the packet.
func (p *Packet) RF() *RFInfo { return p.Info }

// SignalRequest asks for the signal strength on a band and channel.
type SignalRequest struct {
	Info *RFInfo
}

// Kind returns KindSignalRequest.
func (*SignalRequest) Kind() Kind { return KindSignalRequest }

// RF returns the RFInfo of the request.
func (r *SignalRequest) RF() *RFInfo { return r.Info }

// SignalResponse answers a SignalRequest.
type SignalResponse struct {
	Info     *RFInfo
	Value    float32
	HasValue bool
}

// Kind returns KindSignalResponse.
func (*SignalResponse) Kind() Kind { return KindSignalResponse }

// RF returns the RFInfo of the response.
func (r *SignalResponse) RF() *RFInfo { return r.Info }

// StateRequest asks for the power state of a radio.
type StateRequest struct {
	Info *RFInfo
}

// Kind returns KindStateRequest.
func (*StateRequest) Kind() Kind { return KindStateRequest }

// RF returns the RFInfo of the request.
func (r *StateRequest) RF() *RFInfo { return r.Info }

// StateResponse answers a StateRequest.
type StateResponse struct {
	Info     *RFInfo
	State    RadioState
	HasState bool
}

// Kind returns KindStateResponse.
func (*StateResponse) Kind() Kind { return KindStateResponse }

// RF returns the RFInfo of the response.
func (r *StateResponse) RF() *RFInfo { return r.Info }

// StateSet requests a power state change.
type StateSet struct {
	Info     *RFInfo
	State    RadioState
	HasState bool
}

// Kind returns KindStateSet.
func (*StateSet) Kind() Kind { return KindStateSet }

// RF returns the RFInfo of the request.
func (s *StateSet) RF() *RFInfo { return s.Info }

// FieldSet sets a named simulation field. The server also uses it to answer
// a FieldRequest.
type FieldSet struct {
	Name string
	Data string
}

// Kind returns KindFieldSet.
func (*FieldSet) Kind() Kind { return KindFieldSet }

// FieldRequest asks for the value of a named simulation field.
type FieldRequest struct {
	Name string
}

// Kind returns KindFieldRequest.
func (*FieldRequest) Kind() Kind { return KindFieldRequest }

// SendComplete reports that a packet sent on a band left the radio.
type SendComplete struct {
	Info *RFInfo
}

// Kind returns KindSendComplete.
func (*SendComplete) Kind() Kind { return KindSendComplete }

// RF returns the RFInfo of the notification.
func (s *SendComplete) RF() *RFInfo { return s.Info }

// Event carries an opaque application event to the server.
type Event struct {
	Data string
}

// Kind returns KindEvent.
func (*Event) Kind() Kind { return KindEvent }
