// Package button turns polled, active-low button levels into discrete press
// events.
//
// The debounce window is measured from the last accepted press, not from the
// release: a bounce that re-asserts inside the window is ignored even if a
// release was seen in between.
package button

import "time"

// DefaultPollInterval is how often the button task samples the pins.
const DefaultPollInterval = 20 * time.Millisecond

// Debouncer tracks one button. Not safe for concurrent use.
type Debouncer struct {
	window       time.Duration
	lastAccepted time.Time
	accepted     bool // at least one press accepted
	pressed      bool
	presses      int
}

// New creates a debouncer with the given window.
func New(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Update feeds one poll sample. asserted is the logical level (true while
// the button is held). It returns true when a new press is accepted.
func (d *Debouncer) Update(asserted bool, now time.Time) bool {
	if !asserted {
		// Released. The acceptance timer is left alone.
		d.pressed = false
		return false
	}

	if d.pressed {
		return false
	}
	if d.accepted && now.Sub(d.lastAccepted) <= d.window {
		return false
	}

	d.pressed = true
	d.accepted = true
	d.lastAccepted = now
	d.presses++
	return true
}

// SetWindow changes the debounce window. It applies from the next Update.
func (d *Debouncer) SetWindow(window time.Duration) {
	d.window = window
}

// Window returns the current debounce window.
func (d *Debouncer) Window() time.Duration {
	return d.window
}

// Pressed reports whether the button is in the Pressed state.
func (d *Debouncer) Pressed() bool {
	return d.pressed
}

// Presses returns the number of presses accepted since creation.
func (d *Debouncer) Presses() int {
	return d.presses
}
