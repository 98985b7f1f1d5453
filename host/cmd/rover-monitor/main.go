package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/google/shlex"
	log "github.com/sirupsen/logrus"

	"rover/core"
	"rover/host/monitor"
	"rover/host/serial"
)

// EnvConfig is read from the environment; flags override it
type EnvConfig struct {
	Device   string `env:"ROVER_SERIAL" envDefault:"/dev/ttyACM0"`
	Baud     int    `env:"ROVER_BAUD" envDefault:"115200"`
	Window   int    `env:"ROVER_WINDOW" envDefault:"8"`
	LogLevel string `env:"ROVER_LOG_LEVEL" envDefault:"info"`
}

func main() {
	cfg := EnvConfig{}
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad environment: %v\n", err)
		os.Exit(1)
	}

	flag.StringVar(&cfg.Device, "device", cfg.Device, "Serial device path")
	flag.IntVar(&cfg.Baud, "baud", cfg.Baud, "Baud rate of the rover UART")
	flag.IntVar(&cfg.Window, "window", cfg.Window, "Velocity moving average window")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug shows every sample)")
	flag.Parse()

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log.SetLevel(level)

	serialCfg := serial.DefaultConfig(cfg.Device)
	serialCfg.Baud = cfg.Baud
	port, err := serial.Open(serialCfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect")
	}
	defer port.Close()

	log.WithFields(log.Fields{
		"device": cfg.Device,
		"baud":   cfg.Baud,
	}).Info("Connected to rover")

	mon := monitor.New(port, cfg.Window, log.StandardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := mon.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("Telemetry stopped")
		}
	}()

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		cmd, err := parseCommand(scanner.Text())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		if cmd == "" {
			continue
		}

		switch cmd {
		case "quit", "exit", "q":
			return

		case "help", "?":
			printHelp()

		case "run":
			if err := mon.Command(core.StateRun); err != nil {
				log.WithError(err).Error("Command failed")
			}

		case "idle":
			if err := mon.Command(core.StateIdle); err != nil {
				log.WithError(err).Error("Command failed")
			}

		case "stats":
			printStats(mon.Stats())

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", cmd)
		}
	}

	if err := scanner.Err(); err != nil {
		log.WithError(err).Fatal("Error reading input")
	}
}

// parseCommand splits a prompt line shell-style and returns the lowercased
// command word, or "" for a blank line
func parseCommand(line string) (string, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return "", err
	}
	if len(args) == 0 {
		return "", nil
	}
	return strings.ToLower(args[0]), nil
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help           - Show this help message")
	fmt.Println("  run            - Drive both motors at the run speed")
	fmt.Println("  idle           - Stop commanding the motors")
	fmt.Println("  stats          - Print telemetry counters")
	fmt.Println("  quit/exit/q    - Exit the program")
	fmt.Println()
}

func printStats(s monitor.Stats) {
	fmt.Printf("frames=%d dropped=%d unknown=%d\n", s.Frames, s.Dropped, s.Unknown)
	fmt.Printf("boots=%d last cause=%s\n", s.Boots, s.Cause)
	fmt.Printf("state=%d overrides=%d\n", s.State, s.Overrides)
	fmt.Printf("samples=%d velocity=%.4f smoothed=%.4f\n", s.Samples, s.Velocity, s.Smoothed)
}
