package logic

import "math"

const (
	// WindowSize is the number of saturation samples needed before watering is considered.
	WindowSize = 5

	// LargeChange is the maximum distance of any sample from the window mean,
	// in saturation units (0.10 = 10 percentage points).
	LargeChange = 0.10
)

// ReadingFilter keeps the last WindowSize saturation samples and decides
// whether they describe a clean, steady decline.
type ReadingFilter struct {
	window [WindowSize]float64
	head   int // next write position
	count  int

	last    float64 // last accepted saturation
	hasLast bool
}

// IsFaultyZero reports whether a reading looks like a dead probe rather than dry soil.
// The raw pulse frequency is the signal: a probe that produces no pulses reads 0 Hz,
// which calibrates to full saturation and would otherwise mask a drying pot.
func IsFaultyZero(r Reading) bool {
	return r.Moisture == 0
}

// Add appends a reading to the window, evicting the oldest once full.
// A faulty zero is discarded when the last accepted saturation is already above
// waterLevel; Add then returns false.
func (f *ReadingFilter) Add(r Reading, waterLevel float64) bool {
	if IsFaultyZero(r) && f.hasLast && f.last > waterLevel {
		return false
	}

	sat := clamp01(r.Saturation)
	f.window[f.head] = sat
	f.head = (f.head + 1) % WindowSize
	if f.count < WindowSize {
		f.count++
	}
	f.last = sat
	f.hasLast = true
	return true
}

// Len returns the number of samples currently held.
func (f *ReadingFilter) Len() int {
	return f.count
}

// Full reports whether the window holds WindowSize samples.
func (f *ReadingFilter) Full() bool {
	return f.count == WindowSize
}

// Last returns the last accepted saturation.
func (f *ReadingFilter) Last() (float64, bool) {
	return f.last, f.hasLast
}

// Samples returns the window contents ordered oldest to newest.
func (f *ReadingFilter) Samples() []float64 {
	out := make([]float64, f.count)
	start := (f.head - f.count + WindowSize) % WindowSize
	for i := 0; i < f.count; i++ {
		out[i] = f.window[(start+i)%WindowSize]
	}
	return out
}

// MovingAverage returns the mean of the window.
func (f *ReadingFilter) MovingAverage() (float64, error) {
	samples := f.Samples()
	switch len(samples) {
	case 0:
		return 0, ErrEmptyWindow
	case 1:
		return samples[0], nil
	}

	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples)), nil
}

// ShouldWater reports whether the window is full, free of outliers and strictly
// decreasing from oldest to newest.
func (f *ReadingFilter) ShouldWater() bool {
	if !f.Full() {
		return false
	}

	avg, err := f.MovingAverage()
	if err != nil {
		return false
	}

	samples := f.Samples()
	for _, s := range samples {
		if math.Abs(s-avg) > LargeChange {
			return false
		}
	}

	for i := 0; i < len(samples)-1; i++ {
		if samples[i] <= samples[i+1] {
			return false
		}
	}
	return true
}

// Reset empties the window.
func (f *ReadingFilter) Reset() {
	*f = ReadingFilter{}
}
