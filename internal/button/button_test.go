package button

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

type sample struct {
	ms    int
	level bool
}

func TestFirstPressAccepted(t *testing.T) {
	d := New(200 * time.Millisecond)
	if !d.Update(true, t0) {
		t.Fatal("expected first press at t=0 to be accepted")
	}
	if !d.Pressed() {
		t.Error("expected Pressed state")
	}
}

func TestHeldButtonDoesNotRepeat(t *testing.T) {
	d := New(200 * time.Millisecond)
	d.Update(true, at(0))

	for ms := 20; ms <= 2000; ms += 20 {
		if d.Update(true, at(ms)) {
			t.Fatalf("unexpected repeat press at t=%dms while held", ms)
		}
	}
	if d.Presses() != 1 {
		t.Errorf("expected 1 press, got %d", d.Presses())
	}
}

func TestDebounceTimeline(t *testing.T) {
	tests := []struct {
		name     string
		steps    []sample
		wantLast bool
	}{
		{
			name: "re-assert at 100ms without release",
			steps: []sample{
				{0, true}, {100, true},
			},
			wantLast: false,
		},
		{
			name: "release then re-assert at 250ms",
			steps: []sample{
				{0, true}, {60, false}, {250, true},
			},
			wantLast: true,
		},
		{
			name: "release then re-assert at 150ms",
			steps: []sample{
				{0, true}, {60, false}, {150, true},
			},
			wantLast: false,
		},
		{
			name: "re-assert exactly at the window",
			steps: []sample{
				{0, true}, {60, false}, {200, true},
			},
			wantLast: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(200 * time.Millisecond)
			var got bool
			for i, s := range tt.steps {
				got = d.Update(s.level, at(s.ms))
				if i == 0 && !got {
					t.Fatal("expected the initial press to be accepted")
				}
			}
			if got != tt.wantLast {
				t.Errorf("expected final accept=%v, got %v", tt.wantLast, got)
			}
		})
	}
}

// TestBounceAfterRejectedPressNeedsRelease checks that a press rejected by
// the window does not enter Pressed, so it becomes acceptable once the
// window expires even while still held.
func TestBounceAfterRejectedPressNeedsRelease(t *testing.T) {
	d := New(200 * time.Millisecond)
	d.Update(true, at(0))
	d.Update(false, at(40))
	if d.Update(true, at(100)) {
		t.Fatal("expected bounce at 100ms rejected")
	}
	if d.Pressed() {
		t.Fatal("rejected bounce must not enter Pressed")
	}
	if !d.Update(true, at(220)) {
		t.Error("expected still-held press accepted after the window")
	}
}

func TestSetWindowAppliesImmediately(t *testing.T) {
	d := New(500 * time.Millisecond)
	d.Update(true, at(0))
	d.Update(false, at(20))

	if d.Update(true, at(120)) {
		t.Fatal("expected rejection with 500ms window")
	}
	d.Update(false, at(140))

	d.SetWindow(50 * time.Millisecond)
	if d.Window() != 50*time.Millisecond {
		t.Errorf("expected window 50ms, got %v", d.Window())
	}
	if !d.Update(true, at(160)) {
		t.Error("expected acceptance after shrinking the window")
	}
}

func TestPollAt20ms(t *testing.T) {
	// A clean 3-press sequence sampled at the real poll rate.
	d := New(200 * time.Millisecond)
	levels := map[int]bool{}
	for _, start := range []int{0, 400, 800} {
		for ms := start; ms < start+100; ms += 20 {
			levels[ms] = true
		}
	}

	accepted := 0
	for ms := 0; ms < 1200; ms += 20 {
		if d.Update(levels[ms], at(ms)) {
			accepted++
		}
	}
	if accepted != 3 {
		t.Errorf("expected 3 presses, got %d", accepted)
	}
}
