// Command fan-tester-sim runs the fan tester against a simulated fan in a
// desktop window. N/Space is NEXT, S/Enter is SELECT, T seizes the rotor.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/pandafix/fan-tester/internal/config"
	"github.com/pandafix/fan-tester/internal/display"
	"github.com/pandafix/fan-tester/internal/settings"
	"github.com/pandafix/fan-tester/internal/sim"
	"github.com/pandafix/fan-tester/internal/sim/window"
	"github.com/pandafix/fan-tester/internal/status"
	"github.com/pandafix/fan-tester/internal/tach"
	"github.com/pandafix/fan-tester/internal/tester"
)

func main() {
	settingsPath := flag.String("settings", "", "Settings JSON file (empty keeps settings in memory)")
	scale := flag.Int("scale", window.DefaultScale, "Window pixel scale")
	heartbeat := flag.Duration("heartbeat", time.Minute, "Heartbeat interval (0 to disable)")

	flag.Parse()

	if err := run(*settingsPath, *scale, *heartbeat); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(settingsPath string, scale int, heartbeat time.Duration) error {
	var store settings.Store = settings.NewMemStore(nil)
	if settingsPath != "" {
		fs, err := settings.Open(settingsPath)
		if err != nil {
			log.Printf("settings load error: %v (using defaults)", err)
		}
		store = fs
	}

	dcfg := config.Default().Display
	counter := &tach.PulseCounter{}
	plant := sim.NewPlant(sim.DefaultPlantConfig(), counter.OnPulse)
	buttons := &sim.Buttons{}
	panel := display.NewPanel(dcfg.Width, dcfg.Height, nil)

	cfg := tester.DefaultConfig()
	cfg.Heartbeat = heartbeat
	app, err := tester.New(cfg, tester.Deps{
		Buttons:  buttons,
		Actuator: plant,
		Counter:  counter,
		Settings: store,
		Renderer: display.NewRenderer(panel),
	}, time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go plant.Run(ctx, 5*time.Millisecond)

	ticker := time.NewTicker(app.MinPeriod())
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := app.Run(ctx, time.Now, ticker.C); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("app stopped: %v", err)
		}
	}()

	log.Printf("started: simulator %dx%d scale=%d", dcfg.Width, dcfg.Height, scale)

	werr := window.Run(panel, buttons, window.Options{
		Scale: scale,
		ToggleStall: func() {
			seized := !plant.Stalled()
			plant.SetStalled(seized)
			log.Printf("sim: rotor seized=%v", seized)
		},
	})

	cancel()
	<-done
	if err := app.ForceOff(); err != nil {
		log.Printf("fail-safe error: %v", err)
	}
	log.Printf("event: %s", status.FormatStatusEvent(app.Snapshot(), "SHUTDOWN"))
	return werr
}
