// Package status provides a thread-safe snapshot of the fan tester for
// readers outside the scheduler goroutine: the renderer, the simulator
// window and the shutdown log.
package status

import (
	"sync"
	"time"

	"github.com/pandafix/fan-tester/internal/duty"
	"github.com/pandafix/fan-tester/internal/logic"
	"github.com/pandafix/fan-tester/internal/tach"
)

// Config contains daemon configuration for display.
type Config struct {
	SampleMs     int64
	LogicMs      int64
	RenderMs     int64
	HeartbeatMs  int64
	PWMFrequency int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	View    logic.View
	Reading tach.Reading
	Duty    duty.State
	Counts  logic.Counts
	Stalls  int // stall onsets since startup

	Temperature    float64
	HasTemperature bool

	StartTime time.Time
	Now       time.Time
	Config    Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Now:       startTime,
			Config:    cfg,
		},
	}
}

// Update sets the control state. Called from the scheduler on every logic
// and sample tick; now is the tick time.
func (t *Tracker) Update(now time.Time, view logic.View, reading tach.Reading, d duty.State, counts logic.Counts, stalls int) {
	t.mu.Lock()
	t.snap.Now = now
	t.snap.View = view
	t.snap.Reading = reading
	t.snap.Duty = d
	t.snap.Counts = counts
	t.snap.Stalls = stalls
	t.mu.Unlock()
}

// SetTemperature records the latest sensor reading. ok=false clears it.
func (t *Tracker) SetTemperature(celsius float64, ok bool) {
	t.mu.Lock()
	t.snap.Temperature = celsius
	t.snap.HasTemperature = ok
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}
