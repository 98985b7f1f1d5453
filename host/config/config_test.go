package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"rover/core"
)

const testYaml = `
rover:
  run_speed: 40
  initial_state: 1
  motor2:
    pwm: 1
    inverted: false
board:
  pulses_per_second: 600
serial:
  device: /dev/ttyUSB1
`

func TestConfigParsing(t *testing.T) {
	Convey("parsing is successful", t, func() {
		f, err := Parse([]byte(testYaml))
		So(err, ShouldBeNil)

		Convey("listed settings are applied", func() {
			So(f.Rover.RunSpeed, ShouldEqual, 40)
			So(f.Rover.InitialState, ShouldEqual, core.StateIdle)
			So(f.Board.PulsesPerSecond, ShouldEqual, uint32(600))
			So(f.Serial.Device, ShouldEqual, "/dev/ttyUSB1")
		})

		Convey("unlisted settings keep their defaults", func() {
			def := core.DefaultConfig()
			So(f.Rover.WatchdogTimeoutMs, ShouldEqual, def.WatchdogTimeoutMs)
			So(f.Rover.TickPeriodMs, ShouldEqual, def.TickPeriodMs)
			So(f.Rover.Motor1, ShouldResemble, def.Motor1)
			So(f.Serial.Baud, ShouldEqual, 115200)
		})

		Convey("nested blocks merge field by field", func() {
			So(f.Rover.Motor2.Inverted, ShouldBeFalse)
			So(f.Rover.Motor2.HasDirection, ShouldBeTrue)
			So(f.Rover.Motor2.DirectionPin, ShouldEqual, core.GPIOPin(12))
		})
	})

	Convey("an empty document yields the defaults", t, func() {
		f, err := Parse(nil)
		So(err, ShouldBeNil)
		So(f, ShouldResemble, Default())
	})

	Convey("malformed yaml is rejected", t, func() {
		_, err := Parse([]byte("rover: [1, 2"))
		So(err, ShouldNotBeNil)
	})
}

func TestConfigValidation(t *testing.T) {
	Convey("Given the defaults", t, func() {
		f := Default()
		So(f.Validate(), ShouldBeNil)

		Convey("a zero tick period is rejected", func() {
			f.Rover.TickPeriodMs = 0
			So(f.Validate(), ShouldEqual, ErrTickPeriod)
		})

		Convey("a watchdog shorter than a tick is rejected", func() {
			f.Rover.WatchdogTimeoutMs = 5
			So(f.Validate(), ShouldEqual, ErrWatchdog)
		})

		Convey("an out of range speed is rejected", func() {
			f.Rover.RunSpeed = 150
			So(errors.Is(f.Validate(), ErrRunSpeed), ShouldBeTrue)
		})

		Convey("shared pins are rejected", func() {
			f.Rover.Motor2.BrakePin = f.Rover.Motor1.DirectionPin
			So(errors.Is(f.Validate(), ErrPinConflict), ShouldBeTrue)
		})

		Convey("a shared PWM channel is rejected", func() {
			f.Rover.Motor2.PWM = f.Rover.Motor1.PWM
			So(f.Validate(), ShouldEqual, ErrChannelOverlap)
		})
	})
}

func TestConfigLoad(t *testing.T) {
	Convey("Loading from disk", t, func() {
		path := filepath.Join(t.TempDir(), "rover.yaml")
		So(os.WriteFile(path, []byte("rover:\n  run_speed: -20\n"), 0644), ShouldBeNil)

		f, err := Load(path)
		So(err, ShouldBeNil)
		So(f.Rover.RunSpeed, ShouldEqual, -20)

		_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
		So(err, ShouldNotBeNil)
	})
}
