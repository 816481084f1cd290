package logic

import (
	"testing"
	"time"
)

func newTestAlarm(now time.Time) (*Alarm, *fakePiezo, *scheduler) {
	piezo := &fakePiezo{}
	sched := &scheduler{}
	a := NewAlarm(piezo, DefaultAlarmConfig(), now, WithAfterFunc(sched.after))
	return a, piezo, sched
}

func TestAlarmBurst(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a, piezo, sched := newTestAlarm(now)

	a.Trigger()
	if !a.Update(now.Add(11*time.Second), false) {
		t.Fatal("expected a burst")
	}

	if len(piezo.beeps) != 1 {
		t.Errorf("expected 1 immediate beep, got %d", len(piezo.beeps))
	}
	if len(sched.delays) != 2 {
		t.Fatalf("expected 2 scheduled beeps, got %d", len(sched.delays))
	}
	if sched.delays[0] != 300*time.Millisecond || sched.delays[1] != 600*time.Millisecond {
		t.Errorf("unexpected offsets %v", sched.delays)
	}

	sched.runAll()
	if len(piezo.beeps) != 3 {
		t.Errorf("expected 3 beeps after the burst, got %d", len(piezo.beeps))
	}
	for i, f := range piezo.beeps {
		if f != 440 {
			t.Errorf("beep %d: expected 440Hz, got %v", i, f)
		}
	}
	if a.Triggered() {
		t.Error("expected triggered flag cleared")
	}
	if !a.LastBeep().Equal(now.Add(11 * time.Second)) {
		t.Errorf("expected lastBeep reset, got %v", a.LastBeep())
	}
}

func TestAlarmWithinInterval(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a, piezo, _ := newTestAlarm(now)

	a.Trigger()
	if a.Update(now.Add(5*time.Second), false) {
		t.Error("must not beep inside the interval")
	}
	if len(piezo.beeps) != 0 {
		t.Errorf("expected no beeps, got %d", len(piezo.beeps))
	}
	if !a.Triggered() {
		t.Error("triggered flag must survive until the next eligible tick")
	}

	if !a.Update(now.Add(10*time.Second), false) {
		t.Error("expected a burst once the interval has elapsed")
	}
}

func TestAlarmRepeatNeedsNewTrigger(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a, _, _ := newTestAlarm(now)

	a.Trigger()
	a.Update(now.Add(10*time.Second), false)
	if a.Update(now.Add(30*time.Second), false) {
		t.Error("must not beep without a new trigger")
	}

	a.Trigger()
	if !a.Update(now.Add(35*time.Second), false) {
		t.Error("expected a burst for a new trigger once the interval has passed")
	}

	// Last burst at +35s, interval 10s.
	a.Trigger()
	if a.Update(now.Add(40*time.Second), false) {
		t.Error("must not beep within the interval of the last burst")
	}
	if !a.Update(now.Add(45*time.Second), false) {
		t.Error("expected a burst when the interval has elapsed")
	}
}

func TestAlarmLightsOut(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a, piezo, sched := newTestAlarm(now)

	a.Trigger()
	if a.Update(now.Add(time.Minute), true) {
		t.Error("must not beep with the lights out")
	}
	if len(piezo.beeps) != 0 || len(sched.delays) != 0 {
		t.Error("expected no beeps scheduled")
	}
}

func TestAlarmDisabled(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a, piezo, _ := newTestAlarm(now)
	a.Disable()

	a.Trigger()
	if a.Update(now.Add(time.Minute), false) || len(piezo.beeps) != 0 {
		t.Error("disabled alarm must not beep")
	}

	a.Enable()
	if !a.Update(now.Add(time.Minute), false) {
		t.Error("expected burst after re-enabling")
	}
}

func TestAlarmSleep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a, piezo, _ := newTestAlarm(now)

	a.Sleep(now, 300*time.Second)
	a.Trigger()
	for _, at := range []time.Duration{11 * time.Second, 100 * time.Second, 299 * time.Second} {
		if a.Update(now.Add(at), false) {
			t.Errorf("beeped at +%v while sleeping", at)
		}
		if !a.Sleeping() {
			t.Errorf("expected Sleeping at +%v", at)
		}
	}
	if len(piezo.beeps) != 0 {
		t.Errorf("expected no beeps, got %d", len(piezo.beeps))
	}
	if got := a.State(now.Add(time.Minute)); got != AlarmSleeping {
		t.Errorf("expected SLEEPING, got %s", got)
	}

	if !a.Update(now.Add(300*time.Second), false) {
		t.Error("expected a burst once the snooze expired")
	}
	if a.Sleeping() {
		t.Error("expected snooze cleared by Update")
	}
}

func TestAlarmSleepingIsLazy(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a, _, _ := newTestAlarm(now)

	a.Sleep(now, 10*time.Second)
	if !a.Sleeping() {
		t.Fatal("expected Sleeping")
	}
	// Past the deadline, but Update has not run yet.
	if !a.Sleeping() {
		t.Error("Sleeping must stay true until Update notices expiry")
	}
	if got := a.State(now.Add(20 * time.Second)); got == AlarmSleeping {
		t.Error("State compares against now and must not report SLEEPING")
	}

	a.Update(now.Add(20*time.Second), false)
	if a.Sleeping() {
		t.Error("expected Sleeping false after Update")
	}
}

func TestAlarmSleepDefault(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a, _, _ := newTestAlarm(now)

	a.Sleep(now, 0)
	until, ok := a.SleepUntil()
	if !ok {
		t.Fatal("expected a snooze")
	}
	if want := now.Add(DefaultSnooze); !until.Equal(want) {
		t.Errorf("expected snooze until %v, got %v", want, until)
	}
}

func TestAlarmCancelSleep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a, _, _ := newTestAlarm(now)

	a.Sleep(now, time.Hour)
	a.CancelSleep()
	if a.Sleeping() {
		t.Error("expected no snooze after CancelSleep")
	}

	a.Trigger()
	if !a.Update(now.Add(11*time.Second), false) {
		t.Error("expected burst after cancelling the snooze")
	}
}

func TestAlarmState(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a, _, _ := newTestAlarm(now)

	if got := a.State(now); got != AlarmIdle {
		t.Errorf("expected IDLE, got %s", got)
	}
	a.Trigger()
	if got := a.State(now); got != AlarmTriggered {
		t.Errorf("expected TRIGGERED, got %s", got)
	}
	a.Update(now.Add(11*time.Second), false)
	if got := a.State(now.Add(11 * time.Second)); got != AlarmIdle {
		t.Errorf("expected IDLE after the burst, got %s", got)
	}
}

func TestAlarmRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	src, _, _ := newTestAlarm(now)
	src.SetEnabled(false)
	src.SetInterval(45)

	dst, _, _ := newTestAlarm(now)
	if err := dst.UpdateFromMap(src.ToMap()); err != nil {
		t.Fatalf("UpdateFromMap: %v", err)
	}
	if dst.Config() != src.Config() {
		t.Errorf("round trip mismatch: got %+v, want %+v", dst.Config(), src.Config())
	}
}

func TestAlarmUpdateFromMapErrors(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cases := map[string]map[string]any{
		"enabled type":   {KeyAlarmEnabled: "yes"},
		"interval type":  {KeyInterval: "10s"},
		"interval range": {KeyInterval: 7200},
		"frequency":      {KeyBeepFrequency: 5},
	}
	for name, m := range cases {
		a, _, _ := newTestAlarm(now)
		if err := a.UpdateFromMap(m); err == nil {
			t.Errorf("%s: expected error", name)
		}
		if a.Config() != DefaultAlarmConfig() {
			t.Errorf("%s: config changed despite error", name)
		}
	}
}
