package main

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/pandafix/fan-tester/internal/config"
	"github.com/pandafix/fan-tester/internal/gpio"
	"github.com/pandafix/fan-tester/internal/pwm"
	"github.com/pandafix/fan-tester/internal/settings"
	"github.com/pandafix/fan-tester/internal/status"
	"github.com/pandafix/fan-tester/internal/tach"
	"github.com/pandafix/fan-tester/internal/tester"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

type panicRenderer struct{}

func (panicRenderer) Render(status.Snapshot) error { panic("i2c bus wedged") }

// bench holds the fakes shared by every app instance runLoop creates.
type bench struct {
	act     *pwm.Fake
	reader  gpio.Reader
	store   *settings.MemStore
	counter *tach.PulseCounter
	tracker *status.Tracker
	cfg     tester.Config

	mu        sync.Mutex
	created   int
	renderers []tester.Renderer // per instance; nil entries render nothing
}

func newBench(reader gpio.Reader) *bench {
	cfg := tester.DefaultConfig()
	cfg.Heartbeat = 0
	cfg.Timing.Splash = 100 * time.Millisecond
	cfg.Timing.AutoStep = 200 * time.Millisecond
	return &bench{
		act:     pwm.NewFake(),
		reader:  reader,
		store:   settings.NewMemStore(nil),
		counter: &tach.PulseCounter{},
		tracker: status.NewTracker(t0, status.Config{}),
		cfg:     cfg,
	}
}

func (b *bench) newApp(start time.Time) (*tester.App, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var r tester.Renderer
	if b.created < len(b.renderers) {
		r = b.renderers[b.created]
	}
	b.created++
	return tester.New(b.cfg, tester.Deps{
		Buttons:  b.reader,
		Actuator: b.act,
		Counter:  b.counter,
		Settings: b.store,
		Renderer: r,
		Tracker:  b.tracker,
	}, start)
}

func (b *bench) instances() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.created
}

func idleReader() *gpio.FakeReader {
	return gpio.NewFakeReader(gpio.Press(false, false, 1))
}

// drive runs runLoop, sends nTicks ticks and then sig.
func drive(t *testing.T, b *bench, after func(time.Duration) <-chan time.Time, nTicks int, sig os.Signal) error {
	t.Helper()
	tick := make(chan time.Time)
	sigCh := make(chan os.Signal, 1)
	clock := fakeClock(t0, tickInterval)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(b.newApp, b.tracker, 2*time.Second, clock, tick, sigCh, after)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sigCh <- sig

	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("runLoop did not return")
		return nil
	}
}

func immediate(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func TestRunLoopShutdownForcesFanOff(t *testing.T) {
	// released through the splash, then SELECT on AUTO
	samples := append(gpio.Press(false, false, 10), gpio.Tap(false, 3, 1)...)
	b := newBench(gpio.NewFakeReader(samples))

	err := drive(t, b, immediate, 100, syscall.SIGTERM)
	if err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	spun := false
	for _, w := range b.act.Writes {
		if w != 0 {
			spun = true
		}
	}
	if !spun {
		t.Fatalf("expected the auto test to drive the fan, writes=%v", b.act.Writes)
	}
	if b.act.Last() != 0 {
		t.Errorf("expected fan off after shutdown, got %d", b.act.Last())
	}
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	b := newBench(idleReader())
	if err := drive(t, b, immediate, 5, syscall.SIGINT); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if b.instances() != 1 {
		t.Errorf("expected 1 app instance, got %d", b.instances())
	}
}

func TestRunLoopRestartsAfterFault(t *testing.T) {
	b := newBench(idleReader())
	b.renderers = []tester.Renderer{panicRenderer{}}

	var mu sync.Mutex
	var delays []time.Duration
	after := func(d time.Duration) <-chan time.Time {
		mu.Lock()
		delays = append(delays, d)
		mu.Unlock()
		return immediate(d)
	}

	if err := drive(t, b, after, 20, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if b.instances() != 2 {
		t.Fatalf("expected a restart after the fault, got %d instances", b.instances())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(delays) != 1 || delays[0] != 2*time.Second {
		t.Errorf("expected one 2s restart delay, got %v", delays)
	}
	if b.act.Last() != 0 {
		t.Errorf("expected fan off, got %d", b.act.Last())
	}
}

func TestRunLoopSignalDuringRestartDelay(t *testing.T) {
	b := newBench(idleReader())
	b.renderers = []tester.Renderer{panicRenderer{}}
	never := func(time.Duration) <-chan time.Time { return make(chan time.Time) }

	if err := drive(t, b, never, 1, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if b.instances() != 1 {
		t.Errorf("expected no restart once the signal arrived, got %d instances", b.instances())
	}
	if b.act.Last() != 0 {
		t.Errorf("expected fan off, got %d", b.act.Last())
	}
}

func TestRunLoopInitError(t *testing.T) {
	newApp := func(time.Time) (*tester.App, error) { return nil, errors.New("no buttons") }
	err := runLoop(newApp, nil, time.Second, fakeClock(t0, tickInterval), make(chan time.Time), make(chan os.Signal), immediate)
	if err == nil {
		t.Fatal("expected init error")
	}
}

func TestRunLoopTickClosed(t *testing.T) {
	b := newBench(idleReader())
	tick := make(chan time.Time)
	close(tick)

	err := runLoop(b.newApp, b.tracker, time.Second, fakeClock(t0, tickInterval), tick, make(chan os.Signal), immediate)
	if err != nil {
		t.Fatalf("expected nil when the tick source closes, got %v", err)
	}
}

func TestAppConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Fan.Tolerance = 150
	cfg.Tasks.Buttons = 25 * time.Millisecond

	c := appConfig(cfg)
	if c.Sampler.PulsesPerRev != 2 || c.Sampler.Interval != time.Second || c.Sampler.Samples != 5 || c.Sampler.StallThreshold != 30 {
		t.Errorf("unexpected sampler config: %+v", c.Sampler)
	}
	if c.Duty.Tolerance != 150 {
		t.Errorf("expected tolerance 150, got %d", c.Duty.Tolerance)
	}
	if c.Duty.CoarseStep != 5 || c.Duty.FineStep != 1 {
		t.Errorf("expected default step sizes, got %+v", c.Duty)
	}
	if c.Timing.Splash != 2*time.Second || c.Timing.AutoStep != 5*time.Second || c.Timing.SavedMessage != 1500*time.Millisecond {
		t.Errorf("unexpected timing: %+v", c.Timing)
	}
	if c.Periods.Buttons != 25*time.Millisecond || c.Periods.Logic != 50*time.Millisecond {
		t.Errorf("unexpected periods: %+v", c.Periods)
	}
	if c.Periods.Thermal != time.Second {
		t.Errorf("expected default thermal period, got %v", c.Periods.Thermal)
	}
	if c.Heartbeat != time.Minute {
		t.Errorf("expected 1m heartbeat, got %v", c.Heartbeat)
	}
}

func TestLevelString(t *testing.T) {
	if levelString(true) != "PRESSED" || levelString(false) != "RELEASED" {
		t.Error("unexpected level strings")
	}
}

func TestStateJSON(t *testing.T) {
	data := stateJSON(t0, t0.Add(time.Second), 1260, 48.5, true, 25000)

	var doc status.StatusJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, data)
	}
	st := doc.Status
	if st.State != "UNKNOWN" {
		t.Errorf("expected UNKNOWN state, got %q", st.State)
	}
	if st.RPM != 1260 || st.RawRPM != 1260 {
		t.Errorf("expected 1260 RPM, got %d/%d", st.RPM, st.RawRPM)
	}
	if st.DutyPercent != 0 || st.ClosedLoop {
		t.Errorf("expected fan off, got %d%% closed=%v", st.DutyPercent, st.ClosedLoop)
	}
	if st.TemperatureC == nil || *st.TemperatureC != 48.5 {
		t.Errorf("expected 48.5C, got %v", st.TemperatureC)
	}
	if st.UptimeSeconds != 1 || st.Config.PWMFrequency != 25000 {
		t.Errorf("unexpected uptime/config: %d %+v", st.UptimeSeconds, st.Config)
	}
}

func TestStateJSONWithoutSensor(t *testing.T) {
	data := stateJSON(t0, t0, 0, 0, false, 25000)

	var doc status.StatusJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.Status.TemperatureC != nil {
		t.Errorf("expected no temperature, got %v", *doc.Status.TemperatureC)
	}
}
