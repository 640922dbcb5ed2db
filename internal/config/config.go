// Package config loads the hardware and timing configuration of the fan
// tester from a YAML file.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.yaml.in/yaml/v3"
)

// DefaultPath is where the daemon looks for its config file.
const DefaultPath = "/etc/fan-tester/config.yaml"

// MinTaskPeriod is the scheduler tick; no task may run more often.
const MinTaskPeriod = 10 * time.Millisecond

// Config is the root of the YAML document.
type Config struct {
	GPIO         GPIOConfig    `yaml:"gpio"`
	PWM          PWMConfig     `yaml:"pwm"`
	Display      DisplayConfig `yaml:"display"`
	Thermal      ThermalConfig `yaml:"thermal"`
	Fan          FanConfig     `yaml:"fan"`
	Timing       TimingConfig  `yaml:"timing"`
	Tasks        TaskConfig    `yaml:"tasks"`
	SettingsPath string        `yaml:"settings_path"`
}

// GPIOConfig names the character device and line offsets (BCM numbering).
type GPIOConfig struct {
	Chip   string `yaml:"chip"`
	Next   int    `yaml:"next"`
	Select int    `yaml:"select"`
	Tach   int    `yaml:"tach"`
}

// PWMConfig selects the sysfs PWM channel driving the fan.
type PWMConfig struct {
	Chip      string `yaml:"chip"`
	Channel   int    `yaml:"channel"`
	Frequency int    `yaml:"frequency"`
}

// DisplayConfig describes the OLED panel.
type DisplayConfig struct {
	Enabled bool   `yaml:"enabled"`
	Bus     string `yaml:"bus"`
	Address uint16 `yaml:"address"`
	Width   int16  `yaml:"width"`
	Height  int16  `yaml:"height"`
}

// ThermalConfig names a sysfs thermal zone under /sys/class/thermal.
type ThermalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Zone    string `yaml:"zone"`
}

// FanConfig holds the tachometer and controller constants.
type FanConfig struct {
	PulsesPerRev   int           `yaml:"pulses_per_rev"`
	SampleInterval time.Duration `yaml:"sample_interval"`
	Samples        int           `yaml:"samples"`
	StallThreshold int           `yaml:"stall_threshold"`
	Tolerance      int           `yaml:"tolerance"`
}

// TimingConfig holds the state machine and supervisor timers.
type TimingConfig struct {
	Splash       time.Duration `yaml:"splash"`
	AutoStep     time.Duration `yaml:"auto_step"`
	SavedMessage time.Duration `yaml:"saved_message"`
	RestartDelay time.Duration `yaml:"restart_delay"`
	Heartbeat    time.Duration `yaml:"heartbeat"`
}

// TaskConfig holds the scheduler periods.
type TaskConfig struct {
	Sample  time.Duration `yaml:"sample"`
	Buttons time.Duration `yaml:"buttons"`
	Logic   time.Duration `yaml:"logic"`
	Render  time.Duration `yaml:"render"`
}

// Default returns the reference configuration for a Raspberry Pi with a
// 4-pin fan on GPIO18 (pwmchip0/pwm0) and an SSD1306 on I2C bus 1.
func Default() *Config {
	return &Config{
		GPIO: GPIOConfig{
			Chip:   "gpiochip0",
			Next:   23,
			Select: 24,
			Tach:   17,
		},
		PWM: PWMConfig{
			Chip:      "/sys/class/pwm/pwmchip0",
			Channel:   0,
			Frequency: 25000,
		},
		Display: DisplayConfig{
			Enabled: true,
			Bus:     "/dev/i2c-1",
			Address: 0x3C,
			Width:   128,
			Height:  32,
		},
		Thermal: ThermalConfig{
			Enabled: true,
			Zone:    "thermal_zone0",
		},
		Fan: FanConfig{
			PulsesPerRev:   2,
			SampleInterval: 1000 * time.Millisecond,
			Samples:        5,
			StallThreshold: 30,
			Tolerance:      100,
		},
		Timing: TimingConfig{
			Splash:       2000 * time.Millisecond,
			AutoStep:     5000 * time.Millisecond,
			SavedMessage: 1500 * time.Millisecond,
			RestartDelay: 2 * time.Second,
			Heartbeat:    60 * time.Second,
		},
		Tasks: TaskConfig{
			Sample:  100 * time.Millisecond,
			Buttons: 20 * time.Millisecond,
			Logic:   50 * time.Millisecond,
			Render:  100 * time.Millisecond,
		},
		SettingsPath: "/var/lib/fan-tester/settings.json",
	}
}

// Load reads the config at path. A missing file is created with the
// defaults. Keys absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := Save(cfg, path); err != nil {
			return nil, fmt.Errorf("create default config: %w", err)
		}
		log.Printf("Created default config at %s", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating the parent directory.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks ranges that would make the controller misbehave.
func (c *Config) Validate() error {
	var errs []error

	if c.GPIO.Chip == "" {
		errs = append(errs, errors.New("gpio.chip is empty"))
	}
	for _, p := range []struct {
		name string
		pin  int
	}{{"next", c.GPIO.Next}, {"select", c.GPIO.Select}, {"tach", c.GPIO.Tach}} {
		if p.pin < 0 {
			errs = append(errs, fmt.Errorf("gpio.%s: negative line offset %d", p.name, p.pin))
		}
	}
	if c.GPIO.Next == c.GPIO.Select || c.GPIO.Next == c.GPIO.Tach || c.GPIO.Select == c.GPIO.Tach {
		errs = append(errs, errors.New("gpio: next, select and tach must use distinct lines"))
	}

	if c.PWM.Frequency <= 0 {
		errs = append(errs, fmt.Errorf("pwm.frequency must be positive, got %d", c.PWM.Frequency))
	}
	if c.PWM.Channel < 0 {
		errs = append(errs, fmt.Errorf("pwm.channel must not be negative, got %d", c.PWM.Channel))
	}

	if c.Display.Enabled {
		if c.Display.Address == 0 || c.Display.Address > 0x7F {
			errs = append(errs, fmt.Errorf("display.address 0x%X is not a 7-bit I2C address", c.Display.Address))
		}
		if c.Display.Width <= 0 || c.Display.Height <= 0 || c.Display.Height%8 != 0 {
			errs = append(errs, fmt.Errorf("display: invalid size %dx%d", c.Display.Width, c.Display.Height))
		}
	}

	if c.Fan.PulsesPerRev < 1 {
		errs = append(errs, fmt.Errorf("fan.pulses_per_rev must be at least 1, got %d", c.Fan.PulsesPerRev))
	}
	if c.Fan.Samples < 1 {
		errs = append(errs, fmt.Errorf("fan.samples must be at least 1, got %d", c.Fan.Samples))
	}
	if c.Fan.SampleInterval < time.Millisecond {
		errs = append(errs, fmt.Errorf("fan.sample_interval too short: %v", c.Fan.SampleInterval))
	}
	if c.Fan.StallThreshold < 0 || c.Fan.StallThreshold > 100 {
		errs = append(errs, fmt.Errorf("fan.stall_threshold out of range: %d", c.Fan.StallThreshold))
	}
	if c.Fan.Tolerance < 0 {
		errs = append(errs, fmt.Errorf("fan.tolerance must not be negative, got %d", c.Fan.Tolerance))
	}

	for _, p := range []struct {
		name string
		d    time.Duration
		min  time.Duration
	}{
		{"tasks.sample", c.Tasks.Sample, MinTaskPeriod},
		{"tasks.buttons", c.Tasks.Buttons, MinTaskPeriod},
		{"tasks.logic", c.Tasks.Logic, MinTaskPeriod},
		{"tasks.render", c.Tasks.Render, MinTaskPeriod},
		{"timing.restart_delay", c.Timing.RestartDelay, 0},
	} {
		switch {
		case p.d <= 0:
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", p.name, p.d))
		case p.d < p.min:
			errs = append(errs, fmt.Errorf("%s must be at least %v, got %v", p.name, p.min, p.d))
		}
	}
	if c.Timing.Heartbeat < 0 {
		errs = append(errs, fmt.Errorf("timing.heartbeat must not be negative, got %v", c.Timing.Heartbeat))
	}

	if c.SettingsPath == "" {
		errs = append(errs, errors.New("settings_path is empty"))
	}

	return multierr.Combine(errs...)
}
