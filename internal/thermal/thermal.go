// Package thermal reads a temperature for display on the test screens.
// It is not part of the control loop.
package thermal

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/sysfs"
)

// DefaultZone is the SoC thermal zone on a Raspberry Pi.
const DefaultZone = "thermal_zone0"

// Sensor returns a temperature in degrees Celsius.
type Sensor interface {
	Celsius() (float64, error)
}

// envSensor is the subset of a periph environmental sensor Zone uses.
type envSensor interface {
	Sense(e *physic.Env) error
}

// Zone reads a sysfs thermal zone through periph's ThermalSensor.
type Zone struct {
	name string
	open func(name string) (envSensor, error)
	dev  envSensor
}

// NewZone returns a sensor for the named zone, e.g. "thermal_zone0". The
// zone is looked up on the first read, and again after a failed lookup.
func NewZone(name string) *Zone {
	return &Zone{name: name, open: openSysfs}
}

var hostInit = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

func openSysfs(name string) (envSensor, error) {
	if err := hostInit(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	s, err := sysfs.ThermalSensorByName(name)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Celsius reads the zone once.
func (z *Zone) Celsius() (float64, error) {
	if z.dev == nil {
		dev, err := z.open(z.name)
		if err != nil {
			return 0, fmt.Errorf("open thermal zone %s: %w", z.name, err)
		}
		z.dev = dev
	}
	var env physic.Env
	if err := z.dev.Sense(&env); err != nil {
		return 0, fmt.Errorf("read thermal zone %s: %w", z.name, err)
	}
	return toCelsius(env.Temperature), nil
}

func toCelsius(t physic.Temperature) float64 {
	return float64(t-physic.ZeroCelsius) / float64(physic.Kelvin)
}

// Fake is a Sensor with a settable reading.
type Fake struct {
	Value float64
	Err   error
	Reads int
}

// Celsius returns Value or Err.
func (f *Fake) Celsius() (float64, error) {
	f.Reads++
	if f.Err != nil {
		return 0, f.Err
	}
	return f.Value, nil
}
