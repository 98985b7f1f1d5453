package core

import (
	"math"
	"sync"
	"testing"
)

func approxEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-6
}

func TestOdometryVelocityFormula(t *testing.T) {
	odo := NewOdometry(1.0)

	for i := 0; i < 10; i++ {
		odo.OnEdge(0)
	}
	for i := 0; i < 8; i++ {
		odo.OnEdge(1)
	}

	v := odo.Update(1000)
	if !approxEqual(v, 0.009) {
		t.Errorf("Expected velocity 0.009, got %v", v)
	}
	if odo.Velocity() != v {
		t.Errorf("Velocity() = %v, Update returned %v", odo.Velocity(), v)
	}

	c1, c2 := odo.Counts()
	if c1 != 0 || c2 != 0 {
		t.Errorf("Counters not cleared: %d/%d", c1, c2)
	}
	l1, l2 := odo.LastCounts()
	if l1 != 10 || l2 != 8 {
		t.Errorf("Expected last counts 10/8, got %d/%d", l1, l2)
	}
}

func TestOdometryHistoryOrder(t *testing.T) {
	odo := NewOdometry(2.0)
	var results []float32

	for k := 1; k <= HistorySize+3; k++ {
		// A different pulse count per call makes every sample distinct
		for i := 0; i < k; i++ {
			odo.OnEdge(0)
			odo.OnEdge(1)
		}
		results = append(results, odo.Update(100))

		history := odo.History()
		for i := 0; i < HistorySize; i++ {
			if i < k {
				if history[i] != results[k-1-i] {
					t.Errorf("after %d calls: slot %d = %v, expected call %d result %v",
						k, i, history[i], k-i, results[k-1-i])
				}
			} else if history[i] != 0 {
				t.Errorf("after %d calls: slot %d should still be zero, got %v", k, i, history[i])
			}
		}
	}

	if odo.Samples() != HistorySize+3 {
		t.Errorf("Expected %d samples, got %d", HistorySize+3, odo.Samples())
	}
}

func TestOdometryReset(t *testing.T) {
	odo := NewOdometry(1.0)
	odo.OnEdge(0)
	odo.Update(10)
	odo.OnEdge(1)

	odo.Reset()

	for i, v := range odo.History() {
		if v != 0 {
			t.Errorf("History slot %d not zero after reset: %v", i, v)
		}
	}
	c1, c2 := odo.Counts()
	if c1 != 0 || c2 != 0 {
		t.Errorf("Counters not zero after reset: %d/%d", c1, c2)
	}
	if odo.Samples() != 0 {
		t.Errorf("Samples not zero after reset: %d", odo.Samples())
	}
}

// Pulses delivered from concurrent simulated interrupts must each land in
// exactly one sample
func TestOdometryNoPulseLostOrDoubled(t *testing.T) {
	odo := NewOdometry(1.0)

	const pulsesPerMotor = 20000
	var wg sync.WaitGroup
	for motor := 0; motor < 2; motor++ {
		wg.Add(1)
		go func(motor int) {
			defer wg.Done()
			for i := 0; i < pulsesPerMotor; i++ {
				SimulateInterrupt(func() { odo.OnEdge(motor) })
			}
		}(motor)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var total1, total2 uint64
	sample := func() {
		odo.Update(10)
		c1, c2 := odo.LastCounts()
		total1 += uint64(c1)
		total2 += uint64(c2)
	}

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
			sample()
		}
	}
	sample()

	if total1 != pulsesPerMotor || total2 != pulsesPerMotor {
		t.Errorf("Expected %d pulses per motor, counted %d/%d", pulsesPerMotor, total1, total2)
	}
}
