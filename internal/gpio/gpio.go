// Package gpio provides button and tachometer access with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the two menu buttons.
type Reader interface {
	// Read returns the logical pressed states of NEXT and SELECT.
	// Buttons are active-low: raw 0 = pressed.
	// Returns (nextPressed, selectPressed, error).
	Read() (bool, bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Default line offsets (BCM numbering)
const (
	DefaultChip = "gpiochip0"
	PinNext     = 23 // "B" button: next / back
	PinSelect   = 24 // "A" button: select / step
	PinTach     = 17 // fan tachometer, open collector
)
