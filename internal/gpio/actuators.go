package gpio

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	pumpFrequency  = 100 // Hz
	piezoDutyCycle = 0.5
)

// Pump runs a pump motor in the background. Pumps built with the same lock
// never run at the same time, which keeps the HAT within its supply budget.
type Pump struct {
	id   int
	pwm  *PWM
	lock *sync.Mutex
	log  *zap.Logger
	wg   sync.WaitGroup
}

// NewPump creates pump id driven by pwm. lock is shared by all pumps on the board.
func NewPump(id int, pwm *PWM, lock *sync.Mutex, log *zap.Logger) *Pump {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pump{id: id, pwm: pwm, lock: lock, log: log}
}

// Dose starts the pump at speed (0..1) for d and returns immediately.
// It returns false without running if another pump holds the lock.
func (p *Pump) Dose(speed float64, d time.Duration) bool {
	if !p.lock.TryLock() {
		return false
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.lock.Unlock()
		if err := p.pwm.Run(pumpFrequency, speed, d); err != nil {
			p.log.Error("pump dose failed", zap.Int("pump", p.id), zap.Error(err))
		}
	}()
	return true
}

// Wait blocks until the running dose, if any, has finished.
func (p *Pump) Wait() {
	p.wg.Wait()
}

// Piezo plays tones on the buzzer in the background. Overlapping beeps
// are played one after another.
type Piezo struct {
	pwm *PWM
	mu  sync.Mutex
	log *zap.Logger
	wg  sync.WaitGroup
}

// NewPiezo creates a buzzer driven by pwm.
func NewPiezo(pwm *PWM, log *zap.Logger) *Piezo {
	if log == nil {
		log = zap.NewNop()
	}
	return &Piezo{pwm: pwm, log: log}
}

// Beep plays frequency Hz for d without blocking.
func (p *Piezo) Beep(frequency float64, d time.Duration) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.mu.Lock()
		defer p.mu.Unlock()
		if err := p.pwm.Run(frequency, piezoDutyCycle, d); err != nil {
			p.log.Error("beep failed", zap.Error(err))
		}
	}()
}

// Wait blocks until queued beeps have played.
func (p *Piezo) Wait() {
	p.wg.Wait()
}
