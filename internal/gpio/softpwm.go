package gpio

import (
	"fmt"
	"time"
)

// OutputLine is the part of a requested output line that PWM needs.
// *gpiocdev.Line satisfies it.
type OutputLine interface {
	SetValue(value int) error
}

// PWM drives an output line with a software square wave.
type PWM struct {
	line  OutputLine
	sleep func(time.Duration)
}

// NewPWM wraps line. sleep defaults to time.Sleep.
func NewPWM(line OutputLine, sleep func(time.Duration)) *PWM {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &PWM{line: line, sleep: sleep}
}

// Run holds the wave at frequency Hz and duty (0..1) for d, then drives the
// line low. It blocks for d.
func (p *PWM) Run(frequency, duty float64, d time.Duration) (err error) {
	defer func() {
		if lowErr := p.line.SetValue(0); lowErr != nil && err == nil {
			err = fmt.Errorf("set line low: %w", lowErr)
		}
	}()

	switch {
	case duty <= 0 || frequency <= 0:
		p.sleep(d)
		return nil
	case duty >= 1:
		if err := p.line.SetValue(1); err != nil {
			return fmt.Errorf("set line high: %w", err)
		}
		p.sleep(d)
		return nil
	}

	period := time.Duration(float64(time.Second) / frequency)
	high := time.Duration(float64(period) * duty)
	cycles := int(d / period)
	if cycles < 1 {
		cycles = 1
	}
	for i := 0; i < cycles; i++ {
		if err := p.line.SetValue(1); err != nil {
			return fmt.Errorf("set line high: %w", err)
		}
		p.sleep(high)
		if err := p.line.SetValue(0); err != nil {
			return fmt.Errorf("set line low: %w", err)
		}
		p.sleep(period - high)
	}
	return nil
}
