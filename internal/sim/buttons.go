package sim

import (
	"errors"
	"sync"
)

var errClosed = errors.New("buttons closed")

// Buttons is a gpio.Reader whose levels are set from another goroutine,
// typically the simulator window's key handler.
type Buttons struct {
	mu     sync.Mutex
	next   bool
	sel    bool
	closed bool
}

// Set updates both levels. true means held down.
func (b *Buttons) Set(next, sel bool) {
	b.mu.Lock()
	b.next, b.sel = next, sel
	b.mu.Unlock()
}

// Read returns the current levels.
func (b *Buttons) Read() (bool, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false, false, errClosed
	}
	return b.next, b.sel, nil
}

// Close makes further reads fail.
func (b *Buttons) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}
