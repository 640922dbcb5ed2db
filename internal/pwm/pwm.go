// Package pwm drives the fan PWM input through the Linux sysfs PWM class.
//
// The real implementation writes /sys/class/pwm/pwmchipN/pwmM/{period,
// duty_cycle,enable}. The fake implementation records writes for tests.
package pwm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/multierr"
)

// Defaults for a 4-pin PC fan on the first hardware PWM channel.
const (
	DefaultChip      = "/sys/class/pwm/pwmchip0"
	DefaultChannel   = 0
	DefaultFrequency = 25000 // Hz, Intel 4-wire fan spec

	maxU16 = 65535
)

// exportWait bounds how long Open waits for udev to create the channel
// directory after export.
var exportWait = time.Second

// Sysfs is a PWM channel exposed by the kernel.
type Sysfs struct {
	dir      string
	periodNs uint64
}

// Open exports the channel if needed, programs the period for freqHz and
// enables the output at 0% duty.
func Open(chip string, channel, freqHz int) (*Sysfs, error) {
	if freqHz <= 0 {
		return nil, fmt.Errorf("pwm: invalid frequency %d", freqHz)
	}
	dir := filepath.Join(chip, "pwm"+strconv.Itoa(channel))

	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := writeFile(filepath.Join(chip, "export"), strconv.Itoa(channel)); err != nil {
			return nil, fmt.Errorf("export pwm channel %d: %w", channel, err)
		}
		if err := waitForDir(dir, exportWait); err != nil {
			return nil, err
		}
	}

	p := &Sysfs{
		dir:      dir,
		periodNs: uint64(time.Second) / uint64(freqHz),
	}

	// duty_cycle must never exceed period, so clear it first.
	if err := p.write("duty_cycle", "0"); err != nil {
		return nil, err
	}
	if err := p.write("period", strconv.FormatUint(p.periodNs, 10)); err != nil {
		return nil, err
	}
	if err := p.write("enable", "1"); err != nil {
		return nil, err
	}
	return p, nil
}

// SetDutyU16 maps v linearly onto the programmed period.
func (p *Sysfs) SetDutyU16(v uint16) error {
	ns := p.periodNs * uint64(v) / maxU16
	return p.write("duty_cycle", strconv.FormatUint(ns, 10))
}

// PeriodNs returns the programmed period in nanoseconds.
func (p *Sysfs) PeriodNs() uint64 {
	return p.periodNs
}

// Close drives the output to 0% and disables the channel.
func (p *Sysfs) Close() error {
	return multierr.Combine(
		p.write("duty_cycle", "0"),
		p.write("enable", "0"),
	)
}

func (p *Sysfs) write(attr, value string) error {
	if err := writeFile(filepath.Join(p.dir, attr), value); err != nil {
		return fmt.Errorf("pwm %s: %w", attr, err)
	}
	return nil
}

func writeFile(path, value string) error {
	return os.WriteFile(path, []byte(value), 0o644)
}

func waitForDir(dir string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := os.Stat(dir); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("pwm channel %s did not appear after export", dir)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
