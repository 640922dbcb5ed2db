package pwm

// Fake is a test double that records every duty write.
type Fake struct {
	// Writes contains every value passed to SetDutyU16, in order.
	Writes []uint16

	// WriteError, if set, is returned by SetDutyU16. The value is still recorded.
	WriteError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFake creates a Fake actuator.
func NewFake() *Fake {
	return &Fake{}
}

// SetDutyU16 records v.
func (f *Fake) SetDutyU16(v uint16) error {
	f.Writes = append(f.Writes, v)
	return f.WriteError
}

// Last returns the most recent write, or 0 if nothing was written.
func (f *Fake) Last() uint16 {
	if len(f.Writes) == 0 {
		return 0
	}
	return f.Writes[len(f.Writes)-1]
}

// Close marks the actuator as closed.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded writes.
func (f *Fake) Reset() {
	f.Writes = nil
	f.WriteError = nil
	f.Closed = false
}
