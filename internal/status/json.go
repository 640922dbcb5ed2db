package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	State         string     `json:"state"`
	DutyPercent   int        `json:"duty_percent"`
	TargetRPM     int        `json:"target_rpm,omitempty"`
	ClosedLoop    bool       `json:"closed_loop"`
	RPM           int        `json:"rpm"`
	RawRPM        int        `json:"raw_rpm"`
	Stall         bool       `json:"stall"`
	TemperatureC  *float64   `json:"temperature_c,omitempty"`
	Language      string     `json:"language"`
	PWMStep       int        `json:"pwm_step"`
	DebounceMs    int        `json:"debounce_ms"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	Counts        CountsJSON `json:"counts"`
	Config        ConfigJSON `json:"config"`
}

// CountsJSON is the JSON representation of activity counts.
type CountsJSON struct {
	NextPresses   int `json:"next_presses"`
	SelectPresses int `json:"select_presses"`
	TestRuns      int `json:"test_runs"`
	Saves         int `json:"saves"`
	Stalls        int `json:"stalls"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	SampleMs     int64 `json:"sample_ms"`
	LogicMs      int64 `json:"logic_ms"`
	RenderMs     int64 `json:"render_ms"`
	HeartbeatMs  int64 `json:"heartbeat_ms"`
	PWMFrequency int   `json:"pwm_frequency"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.View.State)
	if state == "" {
		state = "UNKNOWN"
	}

	inner := StatusInner{
		State:         state,
		DutyPercent:   snap.Duty.Percent,
		ClosedLoop:    snap.Duty.ClosedLoop,
		RPM:           snap.Reading.Smoothed,
		RawRPM:        snap.Reading.Raw,
		Stall:         snap.Reading.Stall,
		Language:      snap.View.Language,
		PWMStep:       snap.View.PWMStep,
		DebounceMs:    snap.View.DebounceMs,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Counts: CountsJSON{
			NextPresses:   snap.Counts.NextPresses,
			SelectPresses: snap.Counts.SelectPresses,
			TestRuns:      snap.Counts.TestRuns,
			Saves:         snap.Counts.Saves,
			Stalls:        snap.Stalls,
		},
		Config: ConfigJSON{
			SampleMs:     snap.Config.SampleMs,
			LogicMs:      snap.Config.LogicMs,
			RenderMs:     snap.Config.RenderMs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			PWMFrequency: snap.Config.PWMFrequency,
		},
	}
	if snap.Duty.HasTarget {
		inner.TargetRPM = snap.Duty.Target
	}
	if snap.HasTemperature {
		c := snap.Temperature
		inner.TemperatureC = &c
	}
	return inner
}

// FormatJSON returns the indented JSON status, as printed by -print-state.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the single-line JSON status for a log event
// such as "shutdown" or "fault".
func FormatStatusEvent(snap Snapshot, event string) []byte {
	inner := buildInner(snap)
	inner.Event = event

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
