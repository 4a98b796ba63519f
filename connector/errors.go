package connector

import "errors"

var (
	// ErrClosed is returned by operations on a connector that has been
	// closed, and by queries that were waiting when it closed.
	ErrClosed = errors.New("connector: closed")

	// ErrRadioClosed is returned by operations on a radio that has been
	// closed.
	ErrRadioClosed = errors.New("connector: radio closed")

	// ErrRegistryFull is returned when attaching more radios than the
	// connector allows.
	ErrRegistryFull = errors.New("connector: radio registry full")

	// ErrDuplicateBand is returned when a band is attached twice.
	ErrDuplicateBand = errors.New("connector: band already attached")

	// ErrEmptyBand is returned when attaching a radio without a band.
	ErrEmptyBand = errors.New("connector: band must not be empty")

	// ErrRadioNotFound is reported (through logs and the frame-dropped hook)
	// when an inbound frame names a band that is not attached.
	ErrRadioNotFound = errors.New("connector: no radio attached to band")

	// ErrTimeout is returned by a query that got no response in time.
	ErrTimeout = errors.New("connector: no response before timeout")

	// ErrNoResponse is the same error as ErrTimeout.
	ErrNoResponse = ErrTimeout

	// ErrRequestPending is returned when a query is issued while the same
	// query on the same radio is still waiting.
	ErrRequestPending = errors.New("connector: request already pending")

	// ErrInvalidFrame is reported when an inbound frame decodes but lacks the
	// data the dispatcher needs.
	ErrInvalidFrame = errors.New("connector: invalid frame")

	// ErrUnexpectedKind is reported when an inbound frame has a kind that a
	// client does not handle.
	ErrUnexpectedKind = errors.New("connector: unexpected message kind")
)

// ChannelError reports a failure of the underlying channel.
type ChannelError struct {
	Op  string
	Err error
}

func (e *ChannelError) Error() string {
	return "connector: channel " + e.Op + ": " + e.Err.Error()
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}
