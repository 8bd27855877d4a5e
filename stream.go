package resulty

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// SessionState is the lifecycle state of a streaming session.
type SessionState int

const (
	// SessionActive accepts partial events.
	SessionActive SessionState = iota
	// SessionDone is terminal: the final value decoded successfully.
	SessionDone
	// SessionFailed is terminal: the engine failed or a decode failed.
	SessionFailed
)

// EventKind tags a session event.
type EventKind int

const (
	// EventPartial carries a best-effort value decoded from an incomplete raw
	// value; fields not yet materialized are Unset.
	EventPartial EventKind = iota
	// EventDone carries the fully decoded terminal value.
	EventDone
	// EventError carries the failure that terminated the session.
	EventError
)

// Event is one delivery from a streaming session: zero or more Partial
// events followed by exactly one Done or Error.
type Event struct {
	Kind  EventKind
	Value HostValue
	Err   error
}

// Handler consumes session events. It is invoked synchronously, one event at
// a time, in arrival order, from the goroutine driving the engine.
type Handler func(Event)

// Session is the state machine behind both streaming delivery modes. The
// push adapter is the Handler supplied at creation; the pull adapter is
// Wait. Both are driven by the same single event sequence: no duplication,
// no reordering, and nothing is delivered after Detach or after the terminal
// event.
type Session struct {
	id     string
	target Type
	schema Schema

	mu       sync.Mutex
	state    SessionState
	detached bool
	handler  Handler
	partials int
	value    HostValue
	err      error
	done     chan struct{}
}

func newSession(target Type, schema Schema, handler Handler) *Session {
	return &Session{
		id:      uuid.NewString(),
		target:  target,
		schema:  schema,
		handler: handler,
		done:    make(chan struct{}),
	}
}

// ID returns the session's correlation identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Partials returns the number of partial events delivered so far.
func (s *Session) Partials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partials
}

// Detach stops handler delivery. The engine-side work is not cancelled here
// (that belongs to the engine's context), and the session still runs to its
// terminal state: Wait continues to return the terminal value or error.
func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detached = true
}

// Wait blocks until the session terminates or ctx is cancelled, returning
// the terminal value or error. If no terminal event ever arrives, Wait
// blocks until ctx does something about it.
func (s *Session) Wait(ctx context.Context) (HostValue, error) {
	select {
	case <-s.done:
	case <-ctx.Done():
		return HostValue{}, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionDone {
		return s.value, nil
	}
	return HostValue{}, s.err
}

// terminalError returns the failure recorded at termination, nil otherwise.
func (s *Session) terminalError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// partial runs one inbound raw partial through relaxed decoding and delivers
// it. A decode failure (structural mismatch) fails the session and is
// returned so the driver can stop feeding it.
func (s *Session) partial(raw RawValue) error {
	s.mu.Lock()
	if s.state != SessionActive {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	hv, err := DecodePartial(raw, s.target, s.schema)
	if err != nil {
		s.mu.Unlock()
		s.fail(err)
		return err
	}
	s.partials++
	h := s.handler
	deliver := !s.detached && h != nil
	s.mu.Unlock()
	if deliver {
		h(Event{Kind: EventPartial, Value: hv})
	}
	return nil
}

// finish runs the terminal raw value through full decoding and transitions
// to Done, or to Failed when the terminal decode fails.
func (s *Session) finish(raw RawValue) {
	s.mu.Lock()
	if s.state != SessionActive {
		s.mu.Unlock()
		return
	}
	hv, err := Decode(raw, s.target, s.schema)
	if err != nil {
		s.mu.Unlock()
		s.fail(err)
		return
	}
	s.state = SessionDone
	s.value = hv
	h := s.handler
	deliver := !s.detached && h != nil
	close(s.done)
	s.mu.Unlock()
	if deliver {
		h(Event{Kind: EventDone, Value: hv})
	}
}

// fail transitions to Failed, short-circuiting any remaining delivery.
// It is a no-op once the session is terminal.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.state != SessionActive {
		s.mu.Unlock()
		return
	}
	s.state = SessionFailed
	s.err = err
	h := s.handler
	deliver := !s.detached && h != nil
	close(s.done)
	s.mu.Unlock()
	if deliver {
		h(Event{Kind: EventError, Err: err})
	}
}
