//go:build rp2040

package main

import (
	"machine"
	"time"
)

// initTelemetry configures the UART carrying telemetry out and command
// bytes in
func initTelemetry() error {
	return telemetryUART.Configure(machine.UARTConfig{
		BaudRate: telemetryBaud,
		TX:       telemetryTX,
		RX:       telemetryRX,
	})
}

// receiveLoop forwards received command bytes to the controller. The UART
// driver buffers bytes from its own interrupt, so polling here loses
// nothing between iterations.
func receiveLoop() {
	// Recover from panics to prevent a firmware crash
	defer func() {
		if r := recover(); r != nil {
			time.Sleep(100 * time.Millisecond)
			go receiveLoop()
		}
	}()

	for {
		for telemetryUART.Buffered() > 0 {
			b, err := telemetryUART.ReadByte()
			if err != nil {
				break
			}
			ctrl.OnReceive(b)
		}
		time.Sleep(1 * time.Millisecond)
	}
}

// debugWrite sends firmware debug lines to USB CDC, keeping the telemetry
// UART free of text
func debugWrite(s string) {
	machine.Serial.Write([]byte(s))
	machine.Serial.Write([]byte("\r\n"))
}
