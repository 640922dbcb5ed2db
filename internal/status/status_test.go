package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/pandafix/fan-tester/internal/duty"
	"github.com/pandafix/fan-tester/internal/logic"
	"github.com/pandafix/fan-tester/internal/tach"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{SampleMs: 100, LogicMs: 50, PWMFrequency: 25000}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if !snap.Now.Equal(start) {
		t.Errorf("Now: got %v, want %v", snap.Now, start)
	}
	if snap.Config.PWMFrequency != 25000 {
		t.Errorf("Config.PWMFrequency: got %d, want 25000", snap.Config.PWMFrequency)
	}
	if snap.HasTemperature {
		t.Error("expected no temperature initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{})

	now := start.Add(5 * time.Second)
	tr.Update(now,
		logic.View{State: logic.StateRunTarget, TargetIndex: 4},
		tach.Reading{Raw: 1480, Smoothed: 1420},
		duty.State{Percent: 47, Target: 1500, HasTarget: true, ClosedLoop: true},
		logic.Counts{TestRuns: 1},
		2,
	)

	snap := tr.Snapshot()
	if snap.View.State != logic.StateRunTarget {
		t.Errorf("State: got %q, want RUN_TARGET", snap.View.State)
	}
	if snap.Reading.Smoothed != 1420 {
		t.Errorf("Smoothed: got %d, want 1420", snap.Reading.Smoothed)
	}
	if snap.Duty.Percent != 47 || !snap.Duty.ClosedLoop {
		t.Errorf("Duty: got %+v", snap.Duty)
	}
	if snap.Counts.TestRuns != 1 || snap.Stalls != 2 {
		t.Errorf("Counts: got %+v stalls %d", snap.Counts, snap.Stalls)
	}
	if snap.Uptime() != 5*time.Second {
		t.Errorf("Uptime: got %v, want 5s", snap.Uptime())
	}
}

func TestSetTemperature(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetTemperature(41.5, true)
	snap := tr.Snapshot()
	if !snap.HasTemperature || snap.Temperature != 41.5 {
		t.Errorf("expected 41.5, got %v (ok=%v)", snap.Temperature, snap.HasTemperature)
	}

	tr.SetTemperature(0, false)
	if tr.Snapshot().HasTemperature {
		t.Error("expected temperature cleared")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	start := time.Now()
	tr := NewTracker(start, Config{})
	tr.Update(start, logic.View{State: logic.StateMenu}, tach.Reading{}, duty.State{}, logic.Counts{}, 0)

	snap1 := tr.Snapshot()

	tr.Update(start, logic.View{State: logic.StateRunAuto}, tach.Reading{}, duty.State{Percent: 20}, logic.Counts{}, 0)

	// snap1 should still reflect old state
	if snap1.View.State != logic.StateMenu {
		t.Error("snapshot should be a copy; State was modified")
	}
	if snap1.Duty.Percent != 0 {
		t.Error("snapshot should be a copy; Duty was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		View:           logic.View{State: logic.StateRunTarget, Language: "de", PWMStep: 20, DebounceMs: 200},
		Reading:        tach.Reading{Raw: 1510, Smoothed: 1490},
		Duty:           duty.State{Percent: 52, Target: 1500, HasTarget: true, ClosedLoop: true},
		Counts:         logic.Counts{NextPresses: 5, SelectPresses: 3, TestRuns: 1},
		Stalls:         1,
		Temperature:    38.25,
		HasTemperature: true,
		StartTime:      start,
		Now:            start.Add(15 * time.Minute),
		Config:         Config{SampleMs: 100, LogicMs: 50, RenderMs: 100, HeartbeatMs: 60000, PWMFrequency: 25000},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.State != "RUN_TARGET" {
		t.Errorf("State: got %q, want RUN_TARGET", s.State)
	}
	if s.DutyPercent != 52 || s.TargetRPM != 1500 || !s.ClosedLoop {
		t.Errorf("duty fields: got %d %d %v", s.DutyPercent, s.TargetRPM, s.ClosedLoop)
	}
	if s.RPM != 1490 || s.RawRPM != 1510 {
		t.Errorf("rpm fields: got %d %d", s.RPM, s.RawRPM)
	}
	if s.TemperatureC == nil || *s.TemperatureC != 38.25 {
		t.Errorf("temperature: got %v", s.TemperatureC)
	}
	if s.Language != "de" {
		t.Errorf("Language: got %q, want de", s.Language)
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if s.Counts.NextPresses != 5 || s.Counts.Stalls != 1 {
		t.Errorf("Counts: got %+v", s.Counts)
	}
	if s.Config.PWMFrequency != 25000 {
		t.Errorf("Config.PWMFrequency: got %d", s.Config.PWMFrequency)
	}
	// Event should be omitted
	if s.Event != "" {
		t.Errorf("expected empty Event, got %q", s.Event)
	}
}

func TestFormatJSONOmitsOptional(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	var raw map[string]interface{}
	json.Unmarshal(FormatJSON(snap), &raw)
	status := raw["status"].(map[string]interface{})

	if status["state"] != "UNKNOWN" {
		t.Errorf("state: got %v, want UNKNOWN", status["state"])
	}
	for _, key := range []string{"event", "target_rpm", "temperature_c"} {
		if _, exists := status[key]; exists {
			t.Errorf("%s should be omitted", key)
		}
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		View:      logic.View{State: logic.StateMenu},
		StartTime: start,
		Now:       start.Add(30 * time.Minute),
	}

	data := FormatStatusEvent(snap, "shutdown")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "shutdown" {
		t.Errorf("Event: got %q, want shutdown", parsed.Status.Event)
	}
	if parsed.Status.State != "MENU" {
		t.Errorf("State: got %q, want MENU", parsed.Status.State)
	}
	for _, b := range data {
		if b == '\n' {
			t.Fatal("event format must be a single line")
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(time.Now(), logic.View{State: logic.StateMenu}, tach.Reading{Smoothed: i}, duty.State{}, logic.Counts{}, 0)
			tr.SetTemperature(float64(i), i%2 == 0)
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
		}
	}()

	wg.Wait()
}
