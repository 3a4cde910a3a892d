package pipeline

import (
	"sync"
	"sync/atomic"
	"time"
)

// Ticker lifecycle states, guarded by compare-and-swap so double-arm and
// use-after-stop races cannot occur.
const (
	tickerStopped int32 = iota
	tickerRunning
	tickerStopping
)

// Ticker simulates the periodic hard interrupt: a one-shot timer whose
// callback re-arms itself. The callback mutex makes ticks logically
// single-instance (a tick may run on any goroutine, but never concurrently
// with another tick), and Disarm uses it to wait out an in-flight tick.
type Ticker struct {
	delay time.Duration
	fire  func() bool // returns whether to re-arm

	state atomic.Int32
	mu    sync.Mutex // serializes callbacks; guards timer
	timer *time.Timer
}

func NewTicker(delay time.Duration, fire func() bool) *Ticker {
	if delay <= 0 {
		panic("pipeline: tick delay must be positive")
	}
	if fire == nil {
		panic("pipeline: nil tick callback")
	}
	return &Ticker{delay: delay, fire: fire}
}

// Arm starts the tick cadence. It reports false if the ticker was already
// armed or is mid-stop.
func (t *Ticker) Arm() bool {
	if !t.state.CompareAndSwap(tickerStopped, tickerRunning) {
		return false
	}
	t.mu.Lock()
	t.timer = time.AfterFunc(t.delay, t.tick)
	t.mu.Unlock()
	return true
}

// Armed reports whether the cadence is currently running.
func (t *Ticker) Armed() bool {
	return t.state.Load() == tickerRunning
}

func (t *Ticker) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Load() != tickerRunning {
		return
	}

	rearm := t.fire()

	// Disarm may have begun while the callback ran; it owns the
	// transition in that case.
	if !rearm {
		t.state.CompareAndSwap(tickerRunning, tickerStopped)
		return
	}
	if t.state.Load() == tickerRunning {
		t.timer = time.AfterFunc(t.delay, t.tick)
	}
}

// Disarm stops the cadence and synchronously waits for any in-flight tick
// callback to finish. Safe to call in any state.
func (t *Ticker) Disarm() {
	for {
		switch t.state.Load() {
		case tickerStopped:
			// Wait out a callback that observed the stop mid-flight.
			t.mu.Lock()
			t.mu.Unlock()
			return
		case tickerRunning:
			if !t.state.CompareAndSwap(tickerRunning, tickerStopping) {
				continue
			}
			t.mu.Lock()
			if t.timer != nil {
				t.timer.Stop()
				t.timer = nil
			}
			t.state.Store(tickerStopped)
			t.mu.Unlock()
			return
		case tickerStopping:
			// Another Disarm is in progress; wait for it.
			t.mu.Lock()
			t.mu.Unlock()
			if t.state.Load() == tickerStopped {
				return
			}
		}
	}
}
