package logic

import "time"

type fakeSensor struct {
	moisture   float64
	saturation float64
	reads      int
	wet, dry   float64
}

func (s *fakeSensor) Moisture() float64 {
	s.reads++
	return s.moisture
}
func (s *fakeSensor) Saturation() float64   { return s.saturation }
func (s *fakeSensor) Active() bool          { return s.moisture > 0 }
func (s *fakeSensor) History() []float64    { return nil }
func (s *fakeSensor) SetWetPoint(v float64) { s.wet = v }
func (s *fakeSensor) SetDryPoint(v float64) { s.dry = v }

type dose struct {
	speed    float64
	duration time.Duration
}

type fakePump struct {
	doses  []dose
	refuse bool
}

func (p *fakePump) Dose(speed float64, d time.Duration) bool {
	p.doses = append(p.doses, dose{speed, d})
	return !p.refuse
}

type fakePiezo struct {
	beeps []float64
}

func (p *fakePiezo) Beep(frequency float64, d time.Duration) {
	p.beeps = append(p.beeps, frequency)
}

type recordSink struct {
	records []Record
}

func (s *recordSink) LogValues(rec Record) {
	s.records = append(s.records, rec)
}

// scheduler records delayed calls instead of starting timers.
type scheduler struct {
	delays []time.Duration
	funcs  []func()
}

func (s *scheduler) after(d time.Duration, f func()) {
	s.delays = append(s.delays, d)
	s.funcs = append(s.funcs, f)
}

func (s *scheduler) runAll() {
	for _, f := range s.funcs {
		f()
	}
	s.funcs = nil
}
