// Package tester wires the fan tester together: it owns every piece of
// control state, registers the periodic tasks on a single scheduler and
// applies the state machine's actions to the hardware.
package tester

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"github.com/pandafix/fan-tester/internal/button"
	"github.com/pandafix/fan-tester/internal/duty"
	"github.com/pandafix/fan-tester/internal/gpio"
	"github.com/pandafix/fan-tester/internal/logic"
	"github.com/pandafix/fan-tester/internal/sched"
	"github.com/pandafix/fan-tester/internal/settings"
	"github.com/pandafix/fan-tester/internal/status"
	"github.com/pandafix/fan-tester/internal/tach"
	"github.com/pandafix/fan-tester/internal/thermal"
)

// ErrFault is returned by Run when a task panicked. The fan has been
// forced off by the time it is returned.
var ErrFault = errors.New("runtime fault")

// Renderer draws a snapshot. *display.Renderer implements it.
type Renderer interface {
	Render(s status.Snapshot) error
}

// Periods holds the scheduler task periods.
type Periods struct {
	Sample  time.Duration
	Buttons time.Duration
	Logic   time.Duration
	Render  time.Duration
	Thermal time.Duration
}

// Config holds everything the app needs besides its collaborators.
type Config struct {
	Sampler   tach.Config
	Duty      duty.Config
	Timing    logic.Timing
	Periods   Periods
	Heartbeat time.Duration // 0 disables
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		Sampler: tach.DefaultConfig(),
		Duty:    duty.DefaultConfig(),
		Timing:  logic.DefaultTiming(),
		Periods: Periods{
			Sample:  100 * time.Millisecond,
			Buttons: button.DefaultPollInterval,
			Logic:   50 * time.Millisecond,
			Render:  100 * time.Millisecond,
			Thermal: time.Second,
		},
		Heartbeat: time.Minute,
	}
}

// Deps are the app's collaborators. Renderer, Sensor and Tracker may be nil.
type Deps struct {
	Buttons  gpio.Reader
	Actuator duty.Actuator
	Counter  *tach.PulseCounter
	Settings settings.Store
	Renderer Renderer
	Sensor   thermal.Sensor
	Tracker  *status.Tracker
}

type task struct {
	name   string
	period time.Duration
	fn     sched.Func
}

// App is the application context. All fields are touched only from the
// scheduler goroutine, except Counter (atomic) and Tracker (locked).
type App struct {
	cfg  Config
	deps Deps

	sched   *sched.Scheduler
	machine *logic.Machine
	sampler *tach.Sampler
	duty    *duty.Controller
	next    *button.Debouncer
	sel     *button.Debouncer
	tracker *status.Tracker

	// single-slot press registers, consumed by the logic task
	pendingNext bool
	pendingSel  bool

	stalls    int
	lastStall bool
}

// New builds the app. The actuator is driven to 0 before New returns.
func New(cfg Config, deps Deps, start time.Time) (*App, error) {
	if deps.Buttons == nil || deps.Actuator == nil || deps.Counter == nil || deps.Settings == nil {
		return nil, errors.New("tester: buttons, actuator, counter and settings are required")
	}

	s := deps.Settings.Settings()

	a := &App{
		cfg:     cfg,
		deps:    deps,
		sched:   sched.New(),
		machine: logic.NewMachine(cfg.Timing, s, start),
		sampler: tach.NewSampler(deps.Counter, cfg.Sampler, start),
		duty:    duty.New(deps.Actuator, cfg.Duty),
		next:    button.New(s.Debounce()),
		sel:     button.New(s.Debounce()),
		tracker: deps.Tracker,
	}
	if a.tracker == nil {
		a.tracker = status.NewTracker(start, status.Config{
			SampleMs:    cfg.Periods.Sample.Milliseconds(),
			LogicMs:     cfg.Periods.Logic.Milliseconds(),
			RenderMs:    cfg.Periods.Render.Milliseconds(),
			HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		})
	}

	tasks := []task{
		{"sample", cfg.Periods.Sample, a.sampleTask},
		{"buttons", cfg.Periods.Buttons, a.buttonTask},
		{"logic", cfg.Periods.Logic, a.logicTask},
	}
	if deps.Sensor != nil {
		tasks = append(tasks, task{"thermal", cfg.Periods.Thermal, a.thermalTask})
	}
	if deps.Renderer != nil {
		tasks = append(tasks, task{"render", cfg.Periods.Render, a.renderTask})
	}
	if cfg.Heartbeat > 0 {
		tasks = append(tasks, task{"heartbeat", cfg.Heartbeat, a.heartbeatTask})
	}
	for _, t := range tasks {
		if err := a.sched.Add(t.name, t.period, t.fn); err != nil {
			return nil, fmt.Errorf("register task: %w", err)
		}
	}

	a.publish(start)
	return a, nil
}

// Tick runs every due task once.
func (a *App) Tick(now time.Time) {
	a.sched.Tick(now)
}

// MinPeriod is the shortest task period; the driving ticker must not be
// slower.
func (a *App) MinPeriod() time.Duration {
	return a.sched.MinPeriod()
}

// Run drives the scheduler from tick until ctx is done. A panic in any task
// is recovered: the fan is forced off and ErrFault is returned.
func (a *App) Run(ctx context.Context, now func() time.Time, tick <-chan time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("fault: %v\n%s", r, debug.Stack())
			if ferr := a.duty.ForceOff(); ferr != nil {
				log.Printf("fail-safe error: %v", ferr)
			}
			err = fmt.Errorf("%w: %v", ErrFault, r)
		}
	}()
	return a.sched.Run(ctx, now, tick)
}

// ForceOff drives the fan to 0 and leaves closed-loop mode.
func (a *App) ForceOff() error {
	return a.duty.ForceOff()
}

// Snapshot returns the latest published state.
func (a *App) Snapshot() status.Snapshot {
	return a.tracker.Snapshot()
}

// Tracker returns the status tracker the app publishes to.
func (a *App) Tracker() *status.Tracker {
	return a.tracker
}

func (a *App) sampleTask(now time.Time) {
	reading, fresh := a.sampler.Sample(now, a.duty.State().Percent)
	if !fresh {
		return
	}

	if a.duty.ClosedLoop() {
		a.duty.StepTowardTarget(reading.Smoothed)
	}

	if reading.Stall && !a.lastStall {
		a.stalls++
		log.Printf("event: STALL (duty=%d%%)", a.duty.State().Percent)
	} else if !reading.Stall && a.lastStall {
		log.Printf("event: STALL_CLEARED (rpm=%d)", reading.Smoothed)
	}
	a.lastStall = reading.Stall

	a.publish(now)
}

func (a *App) buttonTask(now time.Time) {
	next, sel, err := a.deps.Buttons.Read()
	if err != nil {
		log.Printf("button read error: %v", err)
		return
	}
	if a.next.Update(next, now) {
		a.pendingNext = true
	}
	if a.sel.Update(sel, now) {
		a.pendingSel = true
	}
}

func (a *App) logicTask(now time.Time) {
	in := logic.Input{Next: a.pendingNext, Select: a.pendingSel, Time: now}
	a.pendingNext, a.pendingSel = false, false

	before := a.machine.State()
	for _, act := range a.machine.Process(in) {
		a.apply(act)
	}
	if after := a.machine.State(); after != before {
		log.Printf("event: %s -> %s", before, after)
	}

	a.publish(now)
}

func (a *App) apply(act logic.Action) {
	switch act.Type {
	case logic.ActionSetDuty:
		a.duty.SetDuty(act.Value)
	case logic.ActionSetTarget:
		a.duty.SetTarget(act.Value)
	case logic.ActionDisableTarget:
		a.duty.DisableTarget()
	case logic.ActionSaveLanguage:
		a.save(settings.KeyLanguage, act.Language)
	case logic.ActionSaveStep:
		a.save(settings.KeyPWMStep, act.Value)
	case logic.ActionSaveDebounce:
		a.save(settings.KeyDebounceMs, act.Value)
		window := time.Duration(act.Value) * time.Millisecond
		a.next.SetWindow(window)
		a.sel.SetWindow(window)
	default:
		log.Printf("unknown action: %s", act.Type)
	}
}

func (a *App) save(key string, value any) {
	if err := a.deps.Settings.Set(key, value); err != nil {
		log.Printf("settings save error: %v", err)
		return
	}
	log.Printf("event: SAVED %s=%v", key, value)
}

func (a *App) renderTask(now time.Time) {
	if err := a.deps.Renderer.Render(a.tracker.Snapshot()); err != nil {
		log.Printf("display error: %v", err)
	}
}

func (a *App) thermalTask(now time.Time) {
	c, err := a.deps.Sensor.Celsius()
	if err != nil {
		log.Printf("thermal read error: %v", err)
		a.tracker.SetTemperature(0, false)
		return
	}
	a.tracker.SetTemperature(c, true)
}

func (a *App) heartbeatTask(now time.Time) {
	hb := a.machine.CheckHeartbeat(now, a.cfg.Heartbeat)
	if hb == nil {
		return
	}
	d := a.duty.State()
	log.Printf("heartbeat: uptime=%v state=%s duty=%d%% rpm=%d next=%d select=%d runs=%d saves=%d stalls=%d",
		hb.Uptime, hb.State, d.Percent, a.sampler.Reading().Smoothed,
		hb.Counts.NextPresses, hb.Counts.SelectPresses, hb.Counts.TestRuns, hb.Counts.Saves, a.stalls)
}

func (a *App) publish(now time.Time) {
	a.tracker.Update(now, a.machine.View(), a.sampler.Reading(), a.duty.State(), a.machine.Counts(), a.stalls)
}
