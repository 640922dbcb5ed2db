//go:build linux

package display

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// i2cSlave is the I2C_SLAVE ioctl from linux/i2c-dev.h.
const i2cSlave = 0x0703

// LinuxI2C is a drivers.I2C over /dev/i2c-N.
type LinuxI2C struct {
	mu   sync.Mutex
	f    *os.File
	addr int
}

// OpenI2C opens an i2c-dev bus such as /dev/i2c-1.
func OpenI2C(path string) (*LinuxI2C, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	return &LinuxI2C{f: f, addr: -1}, nil
}

// Tx implements drivers.I2C: write w, then read len(r) bytes.
func (b *LinuxI2C) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if int(addr) != b.addr {
		if err := unix.IoctlSetInt(int(b.f.Fd()), i2cSlave, int(addr)); err != nil {
			return fmt.Errorf("i2c select 0x%02X: %w", addr, err)
		}
		b.addr = int(addr)
	}
	if len(w) > 0 {
		if _, err := b.f.Write(w); err != nil {
			return fmt.Errorf("i2c write: %w", err)
		}
	}
	if len(r) > 0 {
		if _, err := b.f.Read(r); err != nil {
			return fmt.Errorf("i2c read: %w", err)
		}
	}
	return nil
}

// Close releases the bus.
func (b *LinuxI2C) Close() error {
	return b.f.Close()
}
