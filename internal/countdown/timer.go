// Package countdown implements the advisory display clock of a seat hold.
//
// A Timer counts whole seconds down to zero and signals expiry once.  It is
// only a display: the server's expiresAt stays authoritative, so callers
// reseed the timer from it (StartUntil) whenever they learn it.
package countdown

import (
	"sync"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// State is the lifecycle state of a Timer.
type State int

const (
	Idle State = iota
	Running
	Expired
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Expired:
		return "expired"
	default:
		return "idle"
	}
}

// Option configures a Timer.
type Option func(*Timer)

// WithInterval sets the real-time length of one tick.  Default one second.
func WithInterval(d time.Duration) Option {
	return func(t *Timer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// Manual disables the internal ticker; the owner drives the timer with
// Tick.  Tests use it to simulate seconds deterministically.
func Manual() Option {
	return func(t *Timer) { t.manual = true }
}

// WithOnExpire registers the expiry signal.  It is called once per run,
// outside the timer's lock, so it may call back into the timer.
func WithOnExpire(fn func()) Option {
	return func(t *Timer) { t.onExpire = fn }
}

// WithOnTick registers a callback invoked after every decrement with the
// new remaining value.
func WithOnTick(fn func(remaining int)) Option {
	return func(t *Timer) { t.onTick = fn }
}

// Timer is an explicitly owned countdown.  The zero value is not usable;
// build one with New.  Stop must be called when the owner is disposed.
type Timer struct {
	mu        sync.Mutex
	state     State
	remaining int
	gen       uint64
	stopCh    chan struct{}

	interval time.Duration
	manual   bool
	onExpire func()
	onTick   func(int)
}

func New(opts ...Option) *Timer {
	t := &Timer{interval: time.Second}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start resets the timer to Running(seconds), cancelling any previous run.
// A non-positive value leaves the timer Expired without a signal; the
// caller already knows the time is up.
func (t *Timer) Start(seconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.haltLocked()
	if seconds <= 0 {
		t.state = Expired
		t.remaining = 0
		return
	}
	t.state = Running
	t.remaining = seconds
	if t.manual {
		return
	}
	t.stopCh = make(chan struct{})
	go t.run(t.gen, t.stopCh)
}

// StartUntil seeds the timer from a server expiry: the countdown starts at
// floor(expiresAt - now) so it never shows more time than the server
// grants.  It returns the seconds the timer was started with.
func (t *Timer) StartUntil(expiresAt, now time.Time) int {
	secs := model.SecondsUntil(expiresAt, now)
	t.Start(secs)
	if secs < 0 {
		return 0
	}
	return secs
}

// Stop clears the repeating tick.  No decrement happens after Stop
// returns.  A signal already being delivered by a concurrent tick is not
// recalled; owners that care guard their handler with their own epoch.
// A running timer goes back to Idle; an expired one stays Expired.  Stop
// does not wait for the tick goroutine to exit.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.haltLocked()
	if t.state == Running {
		t.state = Idle
		t.remaining = 0
	}
}

// Reset stops the timer and returns it to Idle.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.haltLocked()
	t.state = Idle
	t.remaining = 0
}

// Tick advances a running timer by one second.  It reports whether a
// decrement happened.  Reaching zero moves the timer to Expired and fires
// the expiry signal.
func (t *Timer) Tick() bool {
	t.mu.Lock()
	gen := t.gen
	t.mu.Unlock()
	return t.tick(gen)
}

func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// haltLocked invalidates the current run.  Ticks already queued by the old
// goroutine carry a stale generation and are ignored.
func (t *Timer) haltLocked() {
	t.gen++
	if t.stopCh != nil {
		close(t.stopCh)
		t.stopCh = nil
	}
}

func (t *Timer) tick(gen uint64) bool {
	t.mu.Lock()
	if gen != t.gen || t.state != Running {
		t.mu.Unlock()
		return false
	}
	t.remaining--
	remaining := t.remaining
	expired := remaining <= 0
	if expired {
		t.remaining = 0
		t.state = Expired
		t.haltLocked()
	}
	onTick, onExpire := t.onTick, t.onExpire
	t.mu.Unlock()

	if onTick != nil {
		onTick(remaining)
	}
	if expired && onExpire != nil {
		onExpire()
	}
	return true
}

func (t *Timer) run(gen uint64, stopCh <-chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !t.tick(gen) {
				return
			}
		}
	}
}
