package gpio

import (
	"testing"
	"time"
)

func TestFakeBoard(t *testing.T) {
	f := NewFakeBoard(3)
	b := f.Board()

	if b.Channels() != 3 {
		t.Fatalf("expected 3 channels, got %d", b.Channels())
	}

	f.Moisture[1].Set(12, 0.4)
	if b.Sensors[1].Moisture() != 12 || b.Sensors[1].Saturation() != 0.4 {
		t.Error("sensor 2 not backed by the fake")
	}
	if !b.Sensors[1].Active() || b.Sensors[0].Active() {
		t.Error("only a sensor with a reading should be active")
	}

	b.Pumps[2].Dose(0.5, time.Second)
	if d := f.Pumps[2].Doses(); len(d) != 1 || d[0].Speed != 0.5 {
		t.Errorf("expected one dose on pump 3, got %v", d)
	}

	b.Piezo.Beep(440, 100*time.Millisecond)
	if len(f.Piezo.Tones()) != 1 {
		t.Error("expected one tone")
	}

	f.Presses <- ButtonB
	if got := <-b.Buttons; got != ButtonB {
		t.Errorf("expected B, got %s", got)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !f.Closed {
		t.Error("expected board closed")
	}
}

func TestFakeMoistureHistory(t *testing.T) {
	var m FakeMoisture
	m.Set(10, 0.6)
	m.Set(11, 0.5)

	h := m.History()
	if len(h) != 2 || h[0] != 0.5 || h[1] != 0.6 {
		t.Errorf("expected [0.5 0.6], got %v", h)
	}

	m.SetWetPoint(1)
	m.SetDryPoint(25)
	if m.WetPoint != 1 || m.DryPoint != 25 {
		t.Error("calibration not recorded")
	}
}

func TestFakePumpRefuse(t *testing.T) {
	p := &FakePump{Refuse: true}
	if p.Dose(1, time.Second) {
		t.Error("expected refused dose")
	}
}

func TestDefaultPins(t *testing.T) {
	p := DefaultPins()
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if p.Buttons != [4]int{5, 6, 16, 24} {
		t.Errorf("unexpected button pins %v", p.Buttons)
	}

	p.Pumps = p.Pumps[:2]
	if err := p.Validate(); err == nil {
		t.Error("expected error for mismatched pins")
	}
}
