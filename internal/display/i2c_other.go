//go:build !linux

package display

import "errors"

// LinuxI2C is not available on non-Linux platforms.
type LinuxI2C struct{}

// OpenI2C returns an error on non-Linux platforms.
func OpenI2C(path string) (*LinuxI2C, error) {
	return nil, errors.New("display: i2c-dev not supported on this platform (requires Linux)")
}

// Tx is not implemented on non-Linux platforms.
func (b *LinuxI2C) Tx(addr uint16, w, r []byte) error {
	return errors.New("display: i2c not supported")
}

// Close is not implemented on non-Linux platforms.
func (b *LinuxI2C) Close() error {
	return nil
}
