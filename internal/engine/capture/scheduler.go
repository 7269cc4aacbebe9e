// Package capture coalesces bursts of change notifications into deferred
// capture requests.
package capture

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/rewind/internal/clock"
	"github.com/dshills/rewind/internal/engine/history"
)

// DefaultDelay is the debounce window used when none is configured.
const DefaultDelay = 500 * time.Millisecond

// ErrClosed is returned by RequestNow after Close.
var ErrClosed = errors.New("scheduler closed")

// Request carries the caller-supplied hints for one capture.
type Request struct {
	Action      history.ActionType
	Description string
	// Immediate is set for requests made through RequestNow.
	Immediate bool
}

// Func performs a capture.
type Func func(Request) error

// Scheduler debounces capture requests.
//
// At most one deferred request is pending. Each Request call replaces the
// pending hints and restarts the window; the capture runs once the window
// elapses without another call.
//
// Thread-safety: All methods are safe for concurrent use. The capture
// function is never called with the scheduler lock held.
type Scheduler struct {
	mu      sync.Mutex
	clock   clock.Clock
	delay   time.Duration
	timer   clock.Timer
	pending bool
	seq     uint64 // sequence number to detect stale callbacks
	req     Request
	fn      Func
	onError func(error)
	closed  bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock used for the debounce timer.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithErrorHandler receives errors returned by deferred captures.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// New creates a scheduler that calls fn after delay of quiet.
// A non-positive delay selects DefaultDelay.
func New(delay time.Duration, fn Func, opts ...Option) *Scheduler {
	if delay <= 0 {
		delay = DefaultDelay
	}
	s := &Scheduler{
		clock: clock.Real(),
		delay: delay,
		fn:    fn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request arms or re-arms the deferred capture. The latest hints win.
func (s *Scheduler) Request(action history.ActionType, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.pending = true
	s.req = Request{Action: action, Description: description}
	s.seq++
	currentSeq := s.seq

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.clock.AfterFunc(s.delay, func() {
		s.fire(currentSeq)
	})
}

// fire runs the deferred capture if seq is still current.
func (s *Scheduler) fire(seq uint64) {
	s.mu.Lock()
	if !s.pending || s.seq != seq || s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.timer = nil
	req := s.req
	s.mu.Unlock()

	s.run(req)
}

func (s *Scheduler) run(req Request) {
	if s.fn == nil {
		return
	}
	if err := s.fn(req); err != nil && s.onError != nil {
		s.onError(err)
	}
}

// RequestNow captures synchronously. A pending deferred request is left
// untouched and still fires when its window elapses.
func (s *Scheduler) RequestNow(action history.ActionType, description string) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if s.fn == nil {
		return nil
	}
	return s.fn(Request{Action: action, Description: description, Immediate: true})
}

// Flush runs the pending deferred capture now, if there is one.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	// Increment seq to invalidate any running timer callback
	s.seq++

	if !s.pending || s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = false
	req := s.req
	s.mu.Unlock()

	s.run(req)
}

// Cancel drops the pending deferred capture.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

func (s *Scheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.seq++
	s.pending = false
	s.req = Request{}
}

// IsPending returns true if a deferred capture is armed.
func (s *Scheduler) IsPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Delay returns the debounce window.
func (s *Scheduler) Delay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delay
}

// SetDelay changes the debounce window for subsequent requests.
func (s *Scheduler) SetDelay(d time.Duration) {
	if d <= 0 {
		d = DefaultDelay
	}
	s.mu.Lock()
	s.delay = d
	s.mu.Unlock()
}

// Close cancels any pending capture and rejects further requests.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.closed = true
}
