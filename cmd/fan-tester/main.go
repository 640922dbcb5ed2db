// Command fan-tester drives a 4-pin PC fan through its test modes from two
// buttons and an OLED, measuring RPM from the tach line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"github.com/pandafix/fan-tester/internal/config"
	"github.com/pandafix/fan-tester/internal/display"
	"github.com/pandafix/fan-tester/internal/duty"
	"github.com/pandafix/fan-tester/internal/gpio"
	"github.com/pandafix/fan-tester/internal/logic"
	"github.com/pandafix/fan-tester/internal/pwm"
	"github.com/pandafix/fan-tester/internal/settings"
	"github.com/pandafix/fan-tester/internal/status"
	"github.com/pandafix/fan-tester/internal/tach"
	"github.com/pandafix/fan-tester/internal/tester"
	"github.com/pandafix/fan-tester/internal/thermal"
)

var version = "dev"

// tickInterval drives the scheduler. config.Validate rejects task periods
// shorter than it.
const tickInterval = config.MinTaskPeriod

func main() {
	cfgPath := flag.String("config", config.DefaultPath, "Path to YAML config file")
	settingsPath := flag.String("settings", "", "Path to settings JSON (overrides config)")
	printState := flag.Bool("print-state", false, "Print button levels and a JSON status snapshot, then exit")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	if err := run(*cfgPath, *settingsPath, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfgPath, settingsPath string, printState bool) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if settingsPath != "" {
		cfg.SettingsPath = settingsPath
	}

	// PWM first so every later failure can leave the fan off
	act, err := pwm.Open(cfg.PWM.Chip, cfg.PWM.Channel, cfg.PWM.Frequency)
	if err != nil {
		return fmt.Errorf("init pwm: %w", err)
	}
	defer act.Close()
	defer func() {
		if err := act.SetDutyU16(0); err != nil {
			log.Printf("fail-safe error: %v", err)
		}
	}()
	if err := act.SetDutyU16(0); err != nil {
		return fmt.Errorf("init pwm: %w", err)
	}

	buttons, err := gpio.NewRealReader(cfg.GPIO.Chip, cfg.GPIO.Next, cfg.GPIO.Select)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer buttons.Close()

	counter := &tach.PulseCounter{}
	tachLine, err := gpio.NewRealTach(cfg.GPIO.Chip, cfg.GPIO.Tach, counter.OnPulse)
	if err != nil {
		return fmt.Errorf("init tach: %w", err)
	}
	defer tachLine.Close()

	var sensor thermal.Sensor
	if cfg.Thermal.Enabled {
		sensor = thermal.NewZone(cfg.Thermal.Zone)
	}

	if printState {
		return printCurrentState(buttons, counter, sensor, cfg.Fan.PulsesPerRev, cfg.PWM.Frequency)
	}

	store, err := settings.Open(cfg.SettingsPath)
	if err != nil {
		log.Printf("settings load error: %v (using defaults)", err)
	}

	var renderer tester.Renderer
	if cfg.Display.Enabled {
		r, closeDisplay, err := openDisplay(cfg.Display)
		if err != nil {
			log.Printf("display init error: %v (running headless)", err)
		} else {
			defer closeDisplay()
			renderer = r
		}
	}

	appCfg := appConfig(cfg)
	tracker := status.NewTracker(time.Now(), status.Config{
		SampleMs:     appCfg.Periods.Sample.Milliseconds(),
		LogicMs:      appCfg.Periods.Logic.Milliseconds(),
		RenderMs:     appCfg.Periods.Render.Milliseconds(),
		HeartbeatMs:  appCfg.Heartbeat.Milliseconds(),
		PWMFrequency: cfg.PWM.Frequency,
	})

	newApp := func(start time.Time) (*tester.App, error) {
		return tester.New(appCfg, tester.Deps{
			Buttons:  buttons,
			Actuator: act,
			Counter:  counter,
			Settings: store,
			Renderer: renderer,
			Sensor:   sensor,
			Tracker:  tracker,
		}, start)
	}

	s := store.Settings()
	log.Printf("started: version=%s pwm=%s/pwm%d@%dHz tach=%s:%d language=%s step=%d%% debounce=%dms",
		version, cfg.PWM.Chip, cfg.PWM.Channel, cfg.PWM.Frequency, cfg.GPIO.Chip, cfg.GPIO.Tach,
		s.Language, s.PWMStep, s.DebounceMs)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(newApp, tracker, cfg.Timing.RestartDelay, time.Now, ticker.C, sigCh, time.After)
}

// runLoop runs the app until a signal arrives, restarting it after a fault.
// The fan is forced off before every restart and on shutdown.
func runLoop(newApp func(time.Time) (*tester.App, error), tracker *status.Tracker, restartDelay time.Duration,
	now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, after func(time.Duration) <-chan time.Time) error {
	for restarts := 0; ; restarts++ {
		app, err := newApp(now())
		if err != nil {
			return fmt.Errorf("init app: %w", err)
		}
		if restarts > 0 {
			log.Printf("restarted: count=%d", restarts)
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- app.Run(ctx, now, tick) }()

		select {
		case s := <-sig:
			cancel()
			<-done
			shutdown(app, tracker, s)
			return nil

		case err := <-done:
			cancel()
			if !errors.Is(err, tester.ErrFault) {
				return err
			}
			log.Printf("%v; restarting in %v", err, restartDelay)
			select {
			case s := <-sig:
				shutdown(app, tracker, s)
				return nil
			case <-after(restartDelay):
			}
		}
	}
}

func shutdown(app *tester.App, tracker *status.Tracker, s os.Signal) {
	log.Printf("received %v, shutting down", s)
	if err := app.ForceOff(); err != nil {
		log.Printf("fail-safe error: %v", err)
	}
	if tracker != nil {
		log.Printf("event: %s", status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN"))
	}
}

// appConfig maps the file configuration onto the application's.
func appConfig(cfg *config.Config) tester.Config {
	c := tester.DefaultConfig()
	c.Sampler = tach.Config{
		PulsesPerRev:   cfg.Fan.PulsesPerRev,
		Interval:       cfg.Fan.SampleInterval,
		Samples:        cfg.Fan.Samples,
		StallThreshold: cfg.Fan.StallThreshold,
	}
	c.Duty.Tolerance = cfg.Fan.Tolerance
	c.Timing = logic.Timing{
		Splash:       cfg.Timing.Splash,
		AutoStep:     cfg.Timing.AutoStep,
		SavedMessage: cfg.Timing.SavedMessage,
	}
	c.Periods.Sample = cfg.Tasks.Sample
	c.Periods.Buttons = cfg.Tasks.Buttons
	c.Periods.Logic = cfg.Tasks.Logic
	c.Periods.Render = cfg.Tasks.Render
	c.Heartbeat = cfg.Timing.Heartbeat
	return c
}

func openDisplay(cfg config.DisplayConfig) (*display.Renderer, func(), error) {
	bus, err := display.OpenI2C(cfg.Bus)
	if err != nil {
		return nil, nil, err
	}
	oled := display.NewSSD1306(bus, cfg.Address, cfg.Width, cfg.Height)
	if err := oled.Init(); err != nil {
		bus.Close()
		return nil, nil, err
	}
	panel := display.NewPanel(cfg.Width, cfg.Height, oled)
	closeFn := func() {
		if err := multierr.Combine(oled.Off(), bus.Close()); err != nil {
			log.Printf("display close error: %v", err)
		}
	}
	return display.NewRenderer(panel), closeFn, nil
}

func printCurrentState(buttons gpio.Reader, counter *tach.PulseCounter, sensor thermal.Sensor, ppr, pwmFreq int) error {
	next, sel, err := buttons.Read()
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}

	start := time.Now()
	counter.Swap()
	time.Sleep(time.Second)
	if ppr < 1 {
		ppr = tach.DefaultPulsesPerRev
	}
	rpm := int(counter.Swap()) * 60 / ppr

	var celsius float64
	hasTemp := false
	if sensor != nil {
		c, err := sensor.Celsius()
		if err != nil {
			return fmt.Errorf("read temperature: %w", err)
		}
		celsius, hasTemp = c, true
	}

	fmt.Printf("NEXT: %s, SELECT: %s\n", levelString(next), levelString(sel))
	fmt.Println(string(stateJSON(start, time.Now(), rpm, celsius, hasTemp, pwmFreq)))
	return nil
}

// stateJSON renders a one-shot measurement as the status document. The fan
// is held off and no state machine runs, so the state reads UNKNOWN.
func stateJSON(start, now time.Time, rpm int, celsius float64, hasTemp bool, pwmFreq int) []byte {
	tr := status.NewTracker(start, status.Config{PWMFrequency: pwmFreq})
	tr.Update(now, logic.View{}, tach.Reading{Raw: rpm, Smoothed: rpm}, duty.State{}, logic.Counts{}, 0)
	tr.SetTemperature(celsius, hasTemp)
	return status.FormatJSON(tr.Snapshot())
}

func levelString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}
