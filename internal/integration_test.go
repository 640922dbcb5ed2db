package internal

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/pandafix/fan-tester/internal/display"
	"github.com/pandafix/fan-tester/internal/duty"
	"github.com/pandafix/fan-tester/internal/logic"
	"github.com/pandafix/fan-tester/internal/settings"
	"github.com/pandafix/fan-tester/internal/sim"
	"github.com/pandafix/fan-tester/internal/status"
	"github.com/pandafix/fan-tester/internal/tach"
	"github.com/pandafix/fan-tester/internal/tester"
	"github.com/pandafix/fan-tester/internal/thermal"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// bench wires the whole stack to a simulated fan and advances it on a 10ms
// clock: the plant moves first, then the scheduler ticks.
type bench struct {
	t       *testing.T
	app     *tester.App
	plant   *sim.Plant
	buttons *sim.Buttons
	panel   *display.Panel
	ms      int
}

func newBench(t *testing.T, store settings.Store) *bench {
	t.Helper()
	counter := &tach.PulseCounter{}
	b := &bench{
		t:       t,
		plant:   sim.NewPlant(sim.DefaultPlantConfig(), counter.OnPulse),
		buttons: &sim.Buttons{},
		panel:   display.NewPanel(128, 32, nil),
	}
	cfg := tester.DefaultConfig()
	cfg.Heartbeat = 0
	app, err := tester.New(cfg, tester.Deps{
		Buttons:  b.buttons,
		Actuator: b.plant,
		Counter:  counter,
		Settings: store,
		Renderer: display.NewRenderer(b.panel),
		Sensor:   &thermal.Fake{Value: 38},
	}, t0)
	if err != nil {
		t.Fatalf("tester.New failed: %v", err)
	}
	b.app = app
	return b
}

func (b *bench) advance(ms int) {
	for end := b.ms + ms; b.ms < end; {
		b.ms += 10
		b.plant.Advance(10 * time.Millisecond)
		b.app.Tick(t0.Add(time.Duration(b.ms) * time.Millisecond))
	}
}

func (b *bench) press(next bool) {
	b.buttons.Set(next, !next)
	b.advance(60)
	b.buttons.Set(false, false)
	b.advance(250)
}

func (b *bench) status() status.StatusInner {
	b.t.Helper()
	var parsed status.StatusJSON
	if err := json.Unmarshal(status.FormatJSON(b.app.Snapshot()), &parsed); err != nil {
		b.t.Fatalf("invalid status JSON: %v", err)
	}
	return parsed.Status
}

func (b *bench) menuTo(item logic.MenuItem) {
	b.t.Helper()
	for i := 0; b.app.Snapshot().View.Item() != item; i++ {
		if i > len(logic.MainMenu) {
			b.t.Fatalf("menu item %s not reachable", item)
		}
		b.press(true)
	}
	b.press(false)
}

func TestIntegrationTargetRunOnSimulatedFan(t *testing.T) {
	b := newBench(t, settings.NewMemStore(nil))
	b.advance(2100)
	b.menuTo(logic.ItemTarget)

	b.advance(60000)

	want := logic.TargetRPMs[logic.DefaultTargetIndex]
	st := b.status()
	if st.State != string(logic.StateRunTarget) || !st.ClosedLoop || st.TargetRPM != want {
		t.Fatalf("unexpected status: %+v", st)
	}
	if st.RPM < want-100 || st.RPM > want+100 {
		t.Errorf("expected RPM within tolerance of %d, got %d (duty %d%%)", want, st.RPM, st.DutyPercent)
	}
	if st.Stall {
		t.Error("unexpected stall")
	}
	if st.TemperatureC == nil || *st.TemperatureC != 38 {
		t.Errorf("expected temperature 38C, got %v", st.TemperatureC)
	}
	if b.panel.Frames() == 0 {
		t.Error("expected rendered frames")
	}

	// NEXT leaves the test and stops the fan
	b.press(true)
	if b.plant.Duty() != 0 {
		t.Fatalf("expected plant duty 0 after leaving the test, got %d", b.plant.Duty())
	}
	b.advance(15000)
	if rpm := b.plant.RPM(); rpm > 1 {
		t.Errorf("expected fan spun down, got %v RPM", rpm)
	}
}

func TestIntegrationSeizedRotorRaisesStall(t *testing.T) {
	b := newBench(t, settings.NewMemStore(nil))
	b.advance(2100)
	b.menuTo(logic.ItemTarget)
	b.advance(20000)

	b.plant.SetStalled(true)
	b.advance(15000)

	st := b.status()
	if !st.Stall {
		t.Fatalf("expected stall with seized rotor at %d%% duty", st.DutyPercent)
	}
	if st.RPM != 0 {
		t.Errorf("expected 0 RPM, got %d", st.RPM)
	}
	if st.Counts.Stalls != 1 {
		t.Errorf("expected 1 stall onset, got %d", st.Counts.Stalls)
	}

	b.plant.SetStalled(false)
	b.press(true)
	if b.plant.Duty() != 0 || b.app.Snapshot().Duty.ClosedLoop {
		t.Errorf("expected open loop at 0 after NEXT, got %+v", b.app.Snapshot().Duty)
	}
}

func TestIntegrationManualRunFollowsSavedStep(t *testing.T) {
	b := newBench(t, settings.NewMemStore(map[string]any{settings.KeyPWMStep: 25}))
	b.advance(2100)
	b.menuTo(logic.ItemManual)

	want := []int{25, 50, 75, 100, 0, 25}
	for i, w := range want {
		if i > 0 {
			b.press(false)
		}
		if got := b.app.Snapshot().Duty.Percent; got != w {
			t.Fatalf("rung %d: expected %d%%, got %d", i, w, got)
		}
		if b.plant.Duty() != duty.ToU16(w) {
			t.Fatalf("rung %d: expected plant at %d, got %d", i, duty.ToU16(w), b.plant.Duty())
		}
	}
}

func TestIntegrationLanguagePersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "settings.json")
	store, err := settings.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	b := newBench(t, store)
	b.advance(2100)
	b.menuTo(logic.ItemSettings)
	b.press(false) // LANGUAGE
	b.press(true)  // hu
	b.press(true)  // de
	b.press(false)

	if st := b.status(); st.State != string(logic.StateMessageSaved) || st.Language != "de" {
		t.Fatalf("expected saved de, got state=%s language=%s", st.State, st.Language)
	}

	reopened, err := settings.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if got := reopened.Settings().Language; got != "de" {
		t.Fatalf("expected persisted language de, got %q", got)
	}

	b2 := newBench(t, reopened)
	b2.advance(100)
	if st := b2.status(); st.Language != "de" {
		t.Errorf("expected restarted app in de, got %q", st.Language)
	}
	if b.panel.Frames() == 0 || b2.panel.Frames() == 0 {
		t.Error("expected both benches to render")
	}
}
