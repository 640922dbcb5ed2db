// Package sim provides a software stand-in for the fan test bench: a
// first-order fan model that consumes PWM duty and produces tach pulses,
// and a pair of virtual buttons.
package sim

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pandafix/fan-tester/internal/duty"
)

// PlantConfig describes the simulated fan.
type PlantConfig struct {
	MaxRPM       float64       // speed at 100% duty
	DeadZone     int           // duty percent below which the rotor does not turn
	TimeConstant time.Duration // first-order response time
	PulsesPerRev int
}

// DefaultPlantConfig returns a 3000 RPM fan that needs 20% to start.
func DefaultPlantConfig() PlantConfig {
	return PlantConfig{
		MaxRPM:       3000,
		DeadZone:     20,
		TimeConstant: 1500 * time.Millisecond,
		PulsesPerRev: 2,
	}
}

// Plant is a simulated fan. It implements duty.Actuator and reports
// tach pulses through the onPulse callback.
type Plant struct {
	mu      sync.Mutex
	cfg     PlantConfig
	duty    uint16
	rpm     float64
	carry   float64 // fractional pulses
	stalled bool
	onPulse func()
}

// NewPlant creates a stopped fan. onPulse may be nil.
func NewPlant(cfg PlantConfig, onPulse func()) *Plant {
	if cfg.PulsesPerRev < 1 {
		cfg.PulsesPerRev = 2
	}
	if cfg.TimeConstant <= 0 {
		cfg.TimeConstant = time.Millisecond
	}
	return &Plant{cfg: cfg, onPulse: onPulse}
}

// SetDutyU16 sets the commanded duty.
func (p *Plant) SetDutyU16(v uint16) error {
	p.mu.Lock()
	p.duty = v
	p.mu.Unlock()
	return nil
}

// Duty returns the commanded duty.
func (p *Plant) Duty() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duty
}

// RPM returns the modelled rotor speed.
func (p *Plant) RPM() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rpm
}

// SetStalled seizes or frees the rotor. A seized rotor stops at once.
func (p *Plant) SetStalled(stalled bool) {
	p.mu.Lock()
	p.stalled = stalled
	if stalled {
		p.rpm = 0
		p.carry = 0
	}
	p.mu.Unlock()
}

// Stalled reports whether the rotor is seized.
func (p *Plant) Stalled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stalled
}

// Advance moves the model forward by dt and emits the pulses produced in
// that time. It returns the number of pulses emitted.
func (p *Plant) Advance(dt time.Duration) int {
	p.mu.Lock()
	target := 0.0
	if !p.stalled && p.duty >= duty.ToU16(p.cfg.DeadZone) {
		target = p.cfg.MaxRPM * float64(p.duty) / duty.MaxU16
	}
	alpha := 1 - math.Exp(-float64(dt)/float64(p.cfg.TimeConstant))
	p.rpm += (target - p.rpm) * alpha

	p.carry += p.rpm / 60 * dt.Seconds() * float64(p.cfg.PulsesPerRev)
	n := int(p.carry)
	p.carry -= float64(n)
	onPulse := p.onPulse
	p.mu.Unlock()

	if onPulse != nil {
		for i := 0; i < n; i++ {
			onPulse()
		}
	}
	return n
}

// Run advances the model every step of wall time until ctx is done.
func (p *Plant) Run(ctx context.Context, step time.Duration) error {
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			p.Advance(now.Sub(last))
			last = now
		}
	}
}
