package gpio

import (
	"math"
	"sync"
	"time"
)

const (
	// readingPeriod is the minimum time pulses are counted before a new frequency is computed.
	readingPeriod = time.Second

	// HistoryLength is the number of readings kept for display.
	HistoryLength = 200

	// maxActiveFrequency is the highest plausible probe frequency in Hz.
	maxActiveFrequency = 28

	defaultWetPoint = 0.7
	defaultDryPoint = 26.7
)

// MoistureMeter turns the pulse train of a capacitive probe into a frequency.
// The probe pulses faster in dry soil. Pulse is called from the edge handler
// goroutine, everything else from the tick loop, so all state is guarded.
type MoistureMeter struct {
	mu  sync.Mutex
	now func() time.Time

	count       int
	reading     float64
	lastReading time.Time
	lastPulse   time.Time
	history     []float64 // raw readings, newest first

	wet, dry float64
}

// NewMoistureMeter creates a meter calibrated with the factory wet/dry points.
// now defaults to time.Now.
func NewMoistureMeter(now func() time.Time) *MoistureMeter {
	if now == nil {
		now = time.Now
	}
	return &MoistureMeter{
		now:         now,
		lastReading: now(),
		wet:         defaultWetPoint,
		dry:         defaultDryPoint,
	}
}

// Pulse counts one falling edge seen at t.
func (m *MoistureMeter) Pulse(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.count++
	m.lastPulse = t

	elapsed := t.Sub(m.lastReading)
	if elapsed < readingPeriod {
		return
	}

	m.reading = float64(m.count) / elapsed.Seconds()
	m.history = append([]float64{m.reading}, m.history...)
	if len(m.history) > HistoryLength {
		m.history = m.history[:HistoryLength]
	}
	m.count = 0
	m.lastReading = t
}

// Moisture returns the last computed pulse frequency in Hz.
func (m *MoistureMeter) Moisture() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reading
}

// Saturation returns the calibrated moisture in [0,1].
func (m *MoistureMeter) Saturation() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saturation(m.reading)
}

// Active reports whether the probe pulsed within the last second at a plausible rate.
func (m *MoistureMeter) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastPulse.IsZero() {
		return false
	}
	return m.now().Sub(m.lastPulse) < readingPeriod &&
		m.reading > 0 && m.reading < maxActiveFrequency
}

// History returns recent readings as saturation, newest first.
func (m *MoistureMeter) History() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.history))
	for i, v := range m.history {
		out[i] = m.saturation(v)
	}
	return out
}

// SetWetPoint sets the frequency that reads as saturation 1.
func (m *MoistureMeter) SetWetPoint(hz float64) {
	m.mu.Lock()
	m.wet = hz
	m.mu.Unlock()
}

// SetDryPoint sets the frequency that reads as saturation 0.
func (m *MoistureMeter) SetDryPoint(hz float64) {
	m.mu.Lock()
	m.dry = hz
	m.mu.Unlock()
}

// saturation maps a frequency onto the wet/dry range. Either ordering of the
// calibration points works; a zero range reads as dry.
func (m *MoistureMeter) saturation(hz float64) float64 {
	span := m.wet - m.dry
	if span == 0 {
		return 0
	}
	s := math.Round((hz-m.dry)/span*1000) / 1000
	return math.Max(0, math.Min(1, s))
}
