// Package clock provides the clock used by timer-driven components, built
// on clockwork so tests can drive time manually.
package clock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock provides the current time and schedules callbacks.
type Clock = clockwork.Clock

// Timer is a cancellable deferred callback.
type Timer = clockwork.Timer

// Real returns a Clock backed by the time package.
func Real() Clock {
	return clockwork.NewRealClock()
}

// fakeBase is the part of clockwork's fake clock that Fake drives.
type fakeBase interface {
	clockwork.Clock
	Advance(d time.Duration)
}

// Fake is a manually advanced Clock.
//
// clockwork runs AfterFunc callbacks on their own goroutines. Fake steps
// through due timers in deadline order and waits for each callback to
// return, so the effects of Advance are visible as soon as it returns.
type Fake struct {
	fakeBase

	mu     sync.Mutex
	timers map[*fakeTimer]struct{}
}

type fakeTimer struct {
	clock *Fake
	inner clockwork.Timer
	fn    func()
	when  time.Time

	// done is closed once fn has returned.
	done    chan struct{}
	fired   bool
	stopped bool
}

// NewFake creates a fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{
		fakeBase: clockwork.NewFakeClockAt(start),
		timers:   make(map[*fakeTimer]struct{}),
	}
}

// AfterFunc schedules f to run once the clock has advanced by d.
func (c *Fake) AfterFunc(d time.Duration, f func()) clockwork.Timer {
	t := &fakeTimer{clock: c, fn: f}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.armLocked(t, d)
	return t
}

func (c *Fake) armLocked(t *fakeTimer, d time.Duration) {
	t.when = c.fakeBase.Now().Add(d)
	t.done = make(chan struct{})
	t.fired = false
	t.stopped = false

	done := t.done
	t.inner = c.fakeBase.AfterFunc(d, func() {
		defer close(done)
		t.fn()
	})
	c.timers[t] = struct{}{}
}

// Advance moves the clock forward by d and runs every timer that became due,
// waiting for each callback. Once Advance has committed to a timer, Stop
// returns false and the callback still runs. Callbacks may schedule new timers; those also
// fire if they fall within the advanced window.
func (c *Fake) Advance(d time.Duration) {
	target := c.fakeBase.Now().Add(d)

	for {
		c.mu.Lock()
		due := c.nextDueLocked(target)
		if len(due) == 0 {
			c.mu.Unlock()
			break
		}
		step := due[0].when.Sub(c.fakeBase.Now())
		waits := make([]chan struct{}, len(due))
		for i, t := range due {
			t.fired = true
			waits[i] = t.done
			delete(c.timers, t)
		}
		c.mu.Unlock()

		c.fakeBase.Advance(step)
		for _, done := range waits {
			<-done
		}
	}

	if rest := target.Sub(c.fakeBase.Now()); rest > 0 {
		c.fakeBase.Advance(rest)
	}
}

// Pending returns the number of scheduled timers that have not fired or been
// stopped.
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// nextDueLocked returns the pending timers sharing the earliest deadline not
// after target. clockwork runs them concurrently.
func (c *Fake) nextDueLocked(target time.Time) []*fakeTimer {
	var due []*fakeTimer
	for t := range c.timers {
		if t.when.After(target) {
			continue
		}
		switch {
		case len(due) == 0 || t.when.Before(due[0].when):
			due = []*fakeTimer{t}
		case t.when.Equal(due[0].when):
			due = append(due, t)
		}
	}
	return due
}

// Chan returns nil; AfterFunc timers do not deliver on a channel.
func (t *fakeTimer) Chan() <-chan time.Time {
	return nil
}

// Stop prevents the timer from firing. It returns false if the timer
// already fired or was already stopped.
func (t *fakeTimer) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	t.inner.Stop()
	delete(c.timers, t)
	return true
}

// Reset re-arms the timer to fire after d. It reports whether the timer
// was pending.
func (t *fakeTimer) Reset(d time.Duration) bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()

	active := !t.fired && !t.stopped
	if active {
		t.inner.Stop()
		delete(c.timers, t)
	}
	c.armLocked(t, d)
	return active
}
