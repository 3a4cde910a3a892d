// Package attr exposes the pipeline's runtime controls as a textual
// key/value attribute surface: three single-character flags, read far more
// often than written.
package attr

import (
	"fmt"
	"sync"
)

// Attributes holds the display, resume, and end controls. Display gates
// snapshot production; end, when set, keeps the game in its terminal state
// instead of auto-restarting; resume makes a reopened device continue the
// previous game. Readers (the render task and the tick path) take the
// shared lock; only external configuration writes.
type Attributes struct {
	mu      sync.RWMutex
	display byte
	resume  byte
	end     byte
}

// New builds the attribute set from its initial flag characters.
func New(display, resume, end byte) *Attributes {
	return &Attributes{display: display, resume: resume, end: end}
}

// Default returns the attribute set the pipeline starts with: display on,
// resume on, auto-restart on.
func Default() *Attributes {
	return New('1', '1', '0')
}

// Show renders the flags as "d r e\n".
func (a *Attributes) Show() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return fmt.Sprintf("%c %c %c\n", a.display, a.resume, a.end)
}

// Store parses up to three space-separated flag characters. Parsing is
// best-effort: fields that fail to scan retain their prior value.
func (a *Attributes) Store(s string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var display, resume, end rune
	n, _ := fmt.Sscanf(s, "%c %c %c", &display, &resume, &end)
	if n > 0 {
		a.display = byte(display)
	}
	if n > 1 {
		a.resume = byte(resume)
	}
	if n > 2 {
		a.end = byte(end)
	}
}

// Display reports whether snapshot production is enabled.
func (a *Attributes) Display() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.display == '1'
}

// Resume reports whether a reopened device continues the previous game.
func (a *Attributes) Resume() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.resume == '1'
}

// End reports whether the game should stay in its terminal state rather
// than restarting.
func (a *Attributes) End() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.end == '1'
}
