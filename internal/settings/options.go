// Package settings holds the three user settings persisted across reboots
// and the option lists the settings menu offers for them.
package settings

import "time"

// Keys under which settings are persisted.
const (
	KeyLanguage   = "language"
	KeyPWMStep    = "pwm_step"
	KeyDebounceMs = "debounce_ms"
)

// Built-in defaults, used for a missing file or key.
const (
	DefaultLanguage   = "en"
	DefaultPWMStep    = 20
	DefaultDebounceMs = 200
)

// Option lists offered by the settings menu, in display order.
var (
	Languages       = []string{"en", "hu", "de", "es", "fr", "it"}
	StepOptions     = []int{5, 10, 20, 25}
	DebounceOptions = []int{50, 100, 200, 300, 500}
)

// Settings is the typed view of the store.
type Settings struct {
	Language   string
	PWMStep    int
	DebounceMs int
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Language:   DefaultLanguage,
		PWMStep:    DefaultPWMStep,
		DebounceMs: DefaultDebounceMs,
	}
}

// Debounce returns the debounce window. A non-positive stored value yields
// the default.
func (s Settings) Debounce() time.Duration {
	ms := s.DebounceMs
	if ms <= 0 {
		ms = DefaultDebounceMs
	}
	return time.Duration(ms) * time.Millisecond
}

// IndexOf returns the position of v in opts, or 0 when v is not an option.
func IndexOf(opts []int, v int) int {
	for i, o := range opts {
		if o == v {
			return i
		}
	}
	return 0
}

// IndexOfString is IndexOf for string options.
func IndexOfString(opts []string, v string) int {
	for i, o := range opts {
		if o == v {
			return i
		}
	}
	return 0
}
