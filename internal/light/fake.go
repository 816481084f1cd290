package light

import "sync"

// FakeSensor is a test double that returns a settable light level.
type FakeSensor struct {
	mu    sync.Mutex
	level float64
	err   error
}

// Set changes the level returned by Lux.
func (f *FakeSensor) Set(lux float64) {
	f.mu.Lock()
	f.level = lux
	f.mu.Unlock()
}

// SetError makes Lux fail with err until cleared with nil.
func (f *FakeSensor) SetError(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// Lux returns the level and error set on the fake.
func (f *FakeSensor) Lux() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level, f.err
}
