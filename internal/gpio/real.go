//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"
)

// RealReader reads the buttons from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip      *gpiocdev.Chip
	nextPin   *gpiocdev.Line
	selectPin *gpiocdev.Line
}

// NewRealReader requests the two button lines on chipName.
func NewRealReader(chipName string, pinNext, pinSelect int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Buttons short to ground; the internal pull-up holds the line high
	// while released.
	nextLine, err := chip.RequestLine(pinNext, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request NEXT pin %d: %w", pinNext, err)
	}

	selectLine, err := chip.RequestLine(pinSelect, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		nextLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request SELECT pin %d: %w", pinSelect, err)
	}

	return &RealReader{
		chip:      chip,
		nextPin:   nextLine,
		selectPin: selectLine,
	}, nil
}

// Read returns the logical pressed states of NEXT and SELECT.
// Inverts raw GPIO: raw low (0) = pressed.
func (r *RealReader) Read() (bool, bool, error) {
	nextRaw, err := r.nextPin.Value()
	if err != nil {
		return false, false, fmt.Errorf("read NEXT pin: %w", err)
	}

	selectRaw, err := r.selectPin.Value()
	if err != nil {
		return false, false, fmt.Errorf("read SELECT pin: %w", err)
	}

	return nextRaw == 0, selectRaw == 0, nil
}

// Close releases GPIO resources.
func (r *RealReader) Close() error {
	var err error
	if r.nextPin != nil {
		err = multierr.Append(err, wrap("close NEXT pin", r.nextPin.Close()))
	}
	if r.selectPin != nil {
		err = multierr.Append(err, wrap("close SELECT pin", r.selectPin.Close()))
	}
	if r.chip != nil {
		err = multierr.Append(err, wrap("close chip", r.chip.Close()))
	}
	return err
}

// RealTach delivers a callback for every falling edge on the tachometer
// line. The callback runs on the gpiocdev event goroutine and must not block.
type RealTach struct {
	line *gpiocdev.Line
}

// NewRealTach requests the tachometer line with edge detection and calls
// onPulse for each falling edge.
func NewRealTach(chipName string, pin int, onPulse func()) (*RealTach, error) {
	handler := func(gpiocdev.LineEvent) {
		onPulse()
	}

	line, err := gpiocdev.RequestLine(chipName, pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(handler),
	)
	if err != nil {
		return nil, fmt.Errorf("request TACH pin %d: %w", pin, err)
	}
	return &RealTach{line: line}, nil
}

// Close stops edge delivery and releases the line. It reconfigures the line
// without edge detection first so no callback fires during teardown.
func (t *RealTach) Close() error {
	if t.line == nil {
		return nil
	}
	return multierr.Combine(
		wrap("reconfigure TACH pin", t.line.Reconfigure(gpiocdev.WithoutEdges)),
		wrap("close TACH pin", t.line.Close()),
	)
}

func wrap(msg string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
