package gpio

import (
	"sync"
	"time"
)

// FakeMoisture is a test double for a moisture probe with scripted values.
type FakeMoisture struct {
	mu         sync.Mutex
	moisture   float64
	saturation float64
	history    []float64

	// WetPoint and DryPoint record the last calibration.
	WetPoint float64
	DryPoint float64
}

// Set scripts the next reading. The saturation is also pushed onto the history.
func (f *FakeMoisture) Set(moisture, saturation float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moisture = moisture
	f.saturation = saturation
	f.history = append([]float64{saturation}, f.history...)
}

// Moisture returns the scripted frequency.
func (f *FakeMoisture) Moisture() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.moisture
}

// Saturation returns the scripted saturation.
func (f *FakeMoisture) Saturation() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saturation
}

// Active reports whether the scripted frequency is non-zero.
func (f *FakeMoisture) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.moisture > 0
}

// History returns the saturations set so far, newest first.
func (f *FakeMoisture) History() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.history...)
}

// SetWetPoint records the wet calibration point.
func (f *FakeMoisture) SetWetPoint(hz float64) {
	f.mu.Lock()
	f.WetPoint = hz
	f.mu.Unlock()
}

// SetDryPoint records the dry calibration point.
func (f *FakeMoisture) SetDryPoint(hz float64) {
	f.mu.Lock()
	f.DryPoint = hz
	f.mu.Unlock()
}

// Dose is one recorded pump run.
type Dose struct {
	Speed    float64
	Duration time.Duration
}

// FakePump records doses instead of running a motor.
type FakePump struct {
	mu    sync.Mutex
	doses []Dose

	// Refuse makes Dose report a busy pump.
	Refuse bool
}

// Dose records the dose. It returns false when Refuse is set.
func (f *FakePump) Dose(speed float64, d time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.doses = append(f.doses, Dose{Speed: speed, Duration: d})
	return !f.Refuse
}

// Doses returns the recorded doses.
func (f *FakePump) Doses() []Dose {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Dose(nil), f.doses...)
}

// Tone is one recorded beep.
type Tone struct {
	Frequency float64
	Duration  time.Duration
}

// FakePiezo records beeps. Beep may be called from timer goroutines.
type FakePiezo struct {
	mu    sync.Mutex
	tones []Tone
}

// Beep records the tone.
func (f *FakePiezo) Beep(frequency float64, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tones = append(f.tones, Tone{Frequency: frequency, Duration: d})
}

// Tones returns the recorded beeps.
func (f *FakePiezo) Tones() []Tone {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Tone(nil), f.tones...)
}

// FakeLine records the values written to an output line.
type FakeLine struct {
	mu     sync.Mutex
	values []int

	// SetError, if set, will be returned by SetValue.
	SetError error
}

// SetValue records v.
func (f *FakeLine) SetValue(v int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.values = append(f.values, v)
	return nil
}

// Values returns every value written so far.
func (f *FakeLine) Values() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.values...)
}

// FakeBoard bundles fake devices for a number of channels.
type FakeBoard struct {
	Moisture []*FakeMoisture
	Pumps    []*FakePump
	Piezo    *FakePiezo

	// Presses feeds the board's button channel.
	Presses chan Button

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeBoard creates fake devices for channels sensor/pump pairs.
func NewFakeBoard(channels int) *FakeBoard {
	f := &FakeBoard{
		Piezo:   &FakePiezo{},
		Presses: make(chan Button, 8),
	}
	for i := 0; i < channels; i++ {
		f.Moisture = append(f.Moisture, &FakeMoisture{})
		f.Pumps = append(f.Pumps, &FakePump{})
	}
	return f
}

// Board returns a Board backed by the fakes.
func (f *FakeBoard) Board() *Board {
	b := &Board{
		Piezo:   f.Piezo,
		Buttons: f.Presses,
		close: func() error {
			f.Closed = true
			return nil
		},
	}
	for i := range f.Moisture {
		b.Sensors = append(b.Sensors, f.Moisture[i])
		b.Pumps = append(b.Pumps, f.Pumps[i])
	}
	return b
}
