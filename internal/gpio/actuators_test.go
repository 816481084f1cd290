package gpio

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestPWMSquareWave(t *testing.T) {
	line := &FakeLine{}
	var slept []time.Duration
	p := NewPWM(line, func(d time.Duration) { slept = append(slept, d) })

	if err := p.Run(100, 0.25, 30*time.Millisecond); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []int{1, 0, 1, 0, 1, 0, 0}
	got := line.Values()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d: expected %d, got %d", i, want[i], got[i])
		}
	}
	if slept[0] != 2500*time.Microsecond || slept[1] != 7500*time.Microsecond {
		t.Errorf("unexpected high/low times %v", slept[:2])
	}
}

func TestPWMFullAndZeroDuty(t *testing.T) {
	line := &FakeLine{}
	p := NewPWM(line, func(time.Duration) {})

	if err := p.Run(100, 1, time.Second); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := line.Values(); len(got) != 2 || got[0] != 1 || got[1] != 0 {
		t.Errorf("full duty: expected [1 0], got %v", got)
	}

	line = &FakeLine{}
	p = NewPWM(line, func(time.Duration) {})
	if err := p.Run(100, 0, time.Second); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := line.Values(); len(got) != 1 || got[0] != 0 {
		t.Errorf("zero duty: expected [0], got %v", got)
	}
}

func TestPWMLineError(t *testing.T) {
	line := &FakeLine{SetError: errors.New("line gone")}
	p := NewPWM(line, func(time.Duration) {})

	if err := p.Run(100, 0.5, time.Second); err == nil {
		t.Error("expected error from a failing line")
	}
}

func TestPumpSharedLock(t *testing.T) {
	var lock sync.Mutex
	release := make(chan struct{})
	sleep := func(time.Duration) { <-release }

	line1, line2 := &FakeLine{}, &FakeLine{}
	p1 := NewPump(1, NewPWM(line1, sleep), &lock, nil)
	p2 := NewPump(2, NewPWM(line2, sleep), &lock, nil)

	if !p1.Dose(1, time.Second) {
		t.Fatal("expected first dose to start")
	}
	if p2.Dose(1, time.Second) {
		t.Error("expected second pump to be refused while the first runs")
	}

	close(release)
	p1.Wait()

	if !p2.Dose(1, time.Second) {
		t.Error("expected second pump to run once the first finished")
	}
	p2.Wait()

	if got := line1.Values(); len(got) != 2 || got[0] != 1 {
		t.Errorf("pump 1: expected [1 0], got %v", got)
	}
	if got := line2.Values(); len(got) != 2 || got[0] != 1 {
		t.Errorf("pump 2: expected [1 0], got %v", got)
	}
}

func TestPiezoBeep(t *testing.T) {
	line := &FakeLine{}
	p := NewPiezo(NewPWM(line, func(time.Duration) {}), nil)

	p.Beep(440, 100*time.Millisecond)
	p.Beep(440, 100*time.Millisecond)
	p.Wait()

	ones := 0
	for _, v := range line.Values() {
		if v == 1 {
			ones++
		}
	}
	// 440Hz for 100ms is 44 cycles per beep.
	if ones != 88 {
		t.Errorf("expected 88 high edges, got %d", ones)
	}
}
