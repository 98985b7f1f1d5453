package core

import "testing"

func TestSupervisorBoot(t *testing.T) {
	testCases := []struct {
		cause ResetCause
		saves int
	}{
		{ResetPowerOn, 0},
		{ResetExternal, 0},
		{ResetBrownOut, 1},
		{ResetWatchdog, 0},
		{ResetUnknown, 0},
	}

	for _, tc := range testCases {
		log := &opLog{}
		wd := &MockWatchdog{log: log, armed: true}
		rs := &MockResetSource{log: log, cause: tc.cause}
		saves := 0
		s := NewSupervisor(wd, 500, func() { saves++ })

		if got := s.Boot(rs); got != tc.cause {
			t.Errorf("%s: Boot returned %s", tc.cause, got)
		}
		if !rs.cleared {
			t.Errorf("%s: reset flags not cleared", tc.cause)
		}
		if wd.armed {
			t.Errorf("%s: watchdog left armed after boot", tc.cause)
		}
		if log.index("reset.clear") > log.index("wd.disarm") {
			t.Errorf("%s: flags must be cleared before disarming, ops=%v", tc.cause, log.ops)
		}
		if saves != tc.saves {
			t.Errorf("%s: expected %d saves, got %d", tc.cause, tc.saves, saves)
		}
		if s.Cause() != tc.cause {
			t.Errorf("%s: Cause() = %s", tc.cause, s.Cause())
		}
	}
}

func TestSupervisorArm(t *testing.T) {
	wd := &MockWatchdog{log: &opLog{}}
	s := NewSupervisor(wd, 500, nil)

	if err := s.Arm(); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}
	if !wd.armed || wd.timeoutMs != 500 || wd.mode != WatchdogInterruptReset {
		t.Errorf("Unexpected watchdog state %+v", wd)
	}

	s.Pet()
	s.Pet()
	if wd.pets != 3 {
		t.Errorf("Expected 3 pets (one from Arm), got %d", wd.pets)
	}
}

func TestSupervisorTimeoutSavesOnce(t *testing.T) {
	saves := 0
	s := NewSupervisor(&MockWatchdog{log: &opLog{}}, 500, func() { saves++ })

	s.OnTimeout()
	s.OnTimeout()
	if saves != 1 {
		t.Errorf("Expected a single save, got %d", saves)
	}
	if !s.Fired() {
		t.Error("Fired() should be true")
	}

	// A new boot re-arms the hook
	s.Boot(&MockResetSource{log: &opLog{}, cause: ResetWatchdog})
	s.OnTimeout()
	if saves != 2 {
		t.Errorf("Expected a save after reboot, got %d", saves)
	}
}

func TestResetCauseString(t *testing.T) {
	if ResetBrownOut.String() != "brown-out" || ResetCause(99).String() != "unknown" {
		t.Errorf("Unexpected names %q %q", ResetBrownOut.String(), ResetCause(99).String())
	}
}
