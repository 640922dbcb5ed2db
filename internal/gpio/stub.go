//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(chipName string, pinNext, pinSelect int) (*RealReader, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (bool, bool, error) {
	return false, false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}

// RealTach is not available on non-Linux platforms.
type RealTach struct{}

// NewRealTach returns an error on non-Linux platforms.
func NewRealTach(chipName string, pin int, onPulse func()) (*RealTach, error) {
	return nil, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (t *RealTach) Close() error {
	return nil
}
