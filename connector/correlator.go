package connector

import (
	"sync"
	"time"

	"github.com/sarchlab/simradio/message"
)

// responseSlot holds the last value of one queried resource of a radio and the
// one-shot channel of the single query waiting for it.
type responseSlot[T any] struct {
	mu       sync.Mutex
	value    T
	received bool
	pending  chan T
}

func (s *responseSlot[T]) open() (<-chan T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		return nil, ErrRequestPending
	}

	s.received = false
	s.pending = make(chan T, 1)

	return s.pending, nil
}

// deliver stores a value and hands it to the waiting query, if any.
func (s *responseSlot[T]) deliver(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = v
	s.received = true

	if s.pending != nil {
		s.pending <- v
		s.pending = nil
	}
}

// release gives the slot up without a value. It only clears the slot if it
// still belongs to the given query.
func (s *responseSlot[T]) release(wake <-chan T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil && s.pending == wake {
		s.pending = nil
	}
}

// last returns the most recent value and whether it arrived after the latest
// query was opened.
func (s *responseSlot[T]) last() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.value, s.received
}

func (s *responseSlot[T]) isPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pending != nil
}

// awaitResponse sends req and blocks until the slot receives a value, the
// timeout expires, the radio or the connector closes, or the receive loop
// fails.
func awaitResponse[T any](
	r *Radio,
	slot *responseSlot[T],
	req *message.Envelope,
	timeout time.Duration,
) (T, error) {
	var zero T

	c := r.connector
	if timeout <= 0 {
		timeout = c.requestTimeout
	}

	wake, err := slot.open()
	if err != nil {
		return zero, err
	}

	info := c.startRequest(r.band, req.Kind())

	err = c.send(req)
	if err != nil {
		slot.release(wake)
		c.endRequest(info, err)

		return zero, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var v T

	select {
	case v = <-wake:
	case <-timer.C:
		err = ErrTimeout
	case <-r.closed:
		err = ErrRadioClosed
	case <-c.done:
		err = ErrClosed
	case <-c.dispatcherDone:
		err = c.receiveLoopErr()
	}

	if err != nil {
		// A response that raced with the failure still wins.
		select {
		case v = <-wake:
			err = nil
		default:
			slot.release(wake)
			c.endRequest(info, err)

			return zero, err
		}
	}

	c.endRequest(info, nil)

	return v, nil
}
