package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"rover/core"
	"rover/host/config"
	"rover/host/monitor"
	"rover/sim"
)

var (
	configPath = flag.String("config", "", "YAML configuration file (defaults when empty)")
	duration   = flag.Uint("duration", 5000, "Simulated run time in milliseconds")
	hangAt     = flag.Uint("hang", 0, "Stop the main loop at this time in ms to trip the watchdog (0 = never)")
	idleAt     = flag.Uint("idle", 0, "Send the idle command at this time in ms (0 = never)")
	verbose    = flag.Bool("verbose", false, "Log every odometry sample and firmware debug line")
)

// writerFunc adapts a function to io.Writer
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

// commandLink carries monitor commands into the rover's receive interrupt
type commandLink struct {
	ctrl *core.Controller
}

func (l *commandLink) Read([]byte) (int, error) { return 0, nil }

func (l *commandLink) Write(p []byte) (int, error) {
	for _, b := range p {
		b := b
		core.SimulateInterrupt(func() { l.ctrl.OnReceive(b) })
	}
	return len(p), nil
}

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
		core.SetDebugEnabled(true)
	}
	core.SetDebugWriter(func(s string) { log.WithField("source", "firmware").Debug(s) })

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	board := sim.NewBoard(sim.BoardConfig{
		Motor1PWM:       cfg.Rover.Motor1.PWM,
		Motor2PWM:       cfg.Rover.Motor2.PWM,
		PulsesPerSecond: cfg.Board.PulsesPerSecond,
	})

	link := &commandLink{}
	mon := monitor.New(link, 8, log.StandardLogger())

	hw := board.Hardware()
	hw.Telemetry = writerFunc(func(p []byte) (int, error) {
		mon.Feed(p)
		return len(p), nil
	})
	ctrl := core.NewController(cfg.Rover, hw, nil)
	link.ctrl = ctrl

	hung := false
	board.OnWatchdog(ctrl.OnWatchdogTimeout)
	board.OnReset(func() {
		log.WithField("at_ms", board.Now()).Warn("Watchdog reset")
		hung = false
		if err := ctrl.Initialize(); err != nil {
			log.WithError(err).Fatal("Reboot failed")
		}
	})

	if err := ctrl.Initialize(); err != nil {
		log.WithError(err).Fatal("Initialize failed")
	}

	period := cfg.Rover.TickPeriodMs
	for board.Now() < uint64(*duration) {
		board.Advance(period)
		now := board.Now()

		if *hangAt != 0 && now >= uint64(*hangAt) && board.Resets() == 0 {
			if !hung {
				log.WithField("at_ms", now).Warn("Main loop hung")
			}
			hung = true
		}
		if *idleAt != 0 && now == uint64(*idleAt)/uint64(period)*uint64(period) {
			if err := mon.Command(core.StateIdle); err != nil {
				log.WithError(err).Error("Command failed")
			}
		}

		if !hung {
			ctrl.Tick()
		}
	}

	s := mon.Stats()
	log.WithFields(log.Fields{
		"frames":    s.Frames,
		"samples":   s.Samples,
		"overrides": s.Overrides,
		"boots":     s.Boots,
		"resets":    board.Resets(),
		"velocity":  s.Smoothed,
		"state":     ctrl.State(),
	}).Info("Simulation finished")
}
