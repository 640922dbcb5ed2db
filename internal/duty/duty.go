// Package duty owns the commanded PWM duty of the fan.
//
// The Controller supports open-loop duty setting and a coarse closed-loop
// mode that steps the duty toward a target RPM once per sampling period.
// It is not a PID: near the target it may oscillate by one step, which is
// accepted behaviour.
package duty

import (
	"fmt"
	"log"
)

// MaxU16 is the full-scale hardware duty value.
const MaxU16 = 65535

// Defaults for the closed-loop stepper.
const (
	DefaultTolerance  = 100 // RPM
	DefaultCoarseBand = 500 // RPM; errors at or above use the coarse step
	DefaultFineStep   = 1   // percent
	DefaultCoarseStep = 5   // percent
)

// Actuator writes a 16-bit duty value to the PWM hardware.
type Actuator interface {
	SetDutyU16(v uint16) error
}

// Config holds the closed-loop parameters.
type Config struct {
	Tolerance  int
	CoarseBand int
	FineStep   int
	CoarseStep int
}

// DefaultConfig returns the reference closed-loop parameters.
func DefaultConfig() Config {
	return Config{
		Tolerance:  DefaultTolerance,
		CoarseBand: DefaultCoarseBand,
		FineStep:   DefaultFineStep,
		CoarseStep: DefaultCoarseStep,
	}
}

// State is a copy of the controller state.
type State struct {
	Percent    int  // always within [0, 100]
	Target     int  // RPM, meaningful when HasTarget
	HasTarget  bool
	ClosedLoop bool
}

// Controller owns the duty state. Mutate it only through its methods.
type Controller struct {
	act Actuator
	cfg Config
	st  State
}

// New creates a controller and drives the actuator to 0%.
func New(act Actuator, cfg Config) *Controller {
	c := &Controller{act: act, cfg: cfg}
	c.SetDuty(0)
	return c
}

// Clamp limits percent to [0, 100].
func Clamp(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// ToU16 maps a clamped percent linearly onto 0..MaxU16.
func ToU16(percent int) uint16 {
	return uint16(Clamp(percent) * MaxU16 / 100)
}

// SetDuty clamps percent, writes it to the actuator and records it.
// Out-of-range input is corrected, not rejected. A hardware write error is
// logged and the recorded percent is still updated.
func (c *Controller) SetDuty(percent int) {
	c.st.Percent = Clamp(percent)
	if err := c.act.SetDutyU16(ToU16(c.st.Percent)); err != nil {
		log.Printf("pwm write error: %v", err)
	}
}

// SetTarget stores a target RPM and enables closed-loop mode.
func (c *Controller) SetTarget(rpm int) {
	c.st.Target = rpm
	c.st.HasTarget = true
	c.st.ClosedLoop = true
}

// DisableTarget leaves closed-loop mode. The duty is unchanged.
func (c *Controller) DisableTarget() {
	c.st.ClosedLoop = false
}

// ClosedLoop reports whether the controller is tracking a target.
func (c *Controller) ClosedLoop() bool {
	return c.st.ClosedLoop
}

// StepTowardTarget moves the duty one step toward the target given the
// measured RPM. Call it once per sampling period while closed loop is on.
func (c *Controller) StepTowardTarget(currentRPM int) {
	if c.st.Target <= 0 {
		c.SetDuty(0)
		return
	}

	diff := c.st.Target - currentRPM
	mag := diff
	if mag < 0 {
		mag = -mag
	}
	if mag <= c.cfg.Tolerance {
		return
	}

	step := c.cfg.FineStep
	if mag >= c.cfg.CoarseBand {
		step = c.cfg.CoarseStep
	}
	if diff > 0 {
		c.SetDuty(c.st.Percent + step)
	} else {
		c.SetDuty(c.st.Percent - step)
	}
}

// ForceOff drives the actuator to 0% and leaves closed-loop mode. Unlike
// SetDuty it reports the hardware error so fail-safe paths can surface it.
func (c *Controller) ForceOff() error {
	c.st.Percent = 0
	c.st.ClosedLoop = false
	if err := c.act.SetDutyU16(0); err != nil {
		return fmt.Errorf("force duty off: %w", err)
	}
	return nil
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	return c.st
}
