package logic

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Settings keys shared by Alarm.ToMap and Alarm.UpdateFromMap.
const (
	KeyAlarmEnabled  = "enabled"
	KeyInterval      = "interval"
	KeyBeepFrequency = "beep_frequency"
)

const (
	// DefaultSnooze is how long Sleep silences the alarm when no duration is chosen.
	DefaultSnooze = 500 * time.Second

	beepLength = 100 * time.Millisecond
)

// burstOffsets are the start times of the three beeps in one burst.
var burstOffsets = []time.Duration{0, 300 * time.Millisecond, 600 * time.Millisecond}

// AlarmState is the externally visible state of the alarm.
type AlarmState string

const (
	AlarmIdle      AlarmState = "IDLE"
	AlarmTriggered AlarmState = "TRIGGERED"
	AlarmSleeping  AlarmState = "SLEEPING"
)

// AlarmConfig is the persisted alarm configuration.
type AlarmConfig struct {
	Enabled       bool
	Interval      float64 // seconds between beep bursts
	BeepFrequency float64 // Hz
}

// DefaultAlarmConfig returns the factory alarm settings.
func DefaultAlarmConfig() AlarmConfig {
	return AlarmConfig{
		Enabled:       true,
		Interval:      10,
		BeepFrequency: 440,
	}
}

// AfterFunc schedules f to run after d without blocking. time.AfterFunc fits.
type AfterFunc func(d time.Duration, f func())

// AlarmOption configures optional Alarm collaborators.
type AlarmOption func(*Alarm)

// WithAlarmLogger sets the alarm's logger.
func WithAlarmLogger(l *zap.Logger) AlarmOption {
	return func(a *Alarm) {
		if l != nil {
			a.log = l
		}
	}
}

// WithAfterFunc replaces the timer used for the delayed beeps of a burst.
func WithAfterFunc(f AfterFunc) AlarmOption {
	return func(a *Alarm) { a.after = f }
}

// Alarm decouples "some channel is dry" (a level, set with Trigger) from the
// rate-limited beep burst that announces it.
type Alarm struct {
	cfg   AlarmConfig
	piezo Piezo
	after AfterFunc
	log   *zap.Logger

	triggered    bool
	lastBeep     time.Time
	sleepUntil   time.Time
	sleepPending bool
}

// NewAlarm creates an alarm whose interval timer starts at now.
func NewAlarm(piezo Piezo, cfg AlarmConfig, now time.Time, opts ...AlarmOption) *Alarm {
	a := &Alarm{
		cfg:   cfg,
		piezo: piezo,
		after: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		log:   zap.NewNop(),

		lastBeep: now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Trigger marks the alarm condition. It never beeps by itself.
func (a *Alarm) Trigger() {
	a.triggered = true
}

// Update beeps if the alarm is triggered, enabled, not silenced by darkness or
// snooze, and at least one interval has passed since the last burst.
// It returns true when a burst was started.
func (a *Alarm) Update(now time.Time, lightsOut bool) bool {
	if a.sleepPending {
		if a.sleepUntil.After(now) {
			return false
		}
		a.sleepPending = false
		a.log.Info("alarm snooze expired")
	}

	if !a.cfg.Enabled || lightsOut || !a.triggered {
		return false
	}
	if now.Sub(a.lastBeep) < seconds(a.cfg.Interval) {
		return false
	}

	freq := a.cfg.BeepFrequency
	for _, offset := range burstOffsets {
		if offset == 0 {
			a.piezo.Beep(freq, beepLength)
			continue
		}
		a.after(offset, func() { a.piezo.Beep(freq, beepLength) })
	}
	a.lastBeep = now
	a.triggered = false
	return true
}

// Sleep silences the alarm until now+d. A non-positive d uses DefaultSnooze.
func (a *Alarm) Sleep(now time.Time, d time.Duration) {
	if d <= 0 {
		d = DefaultSnooze
	}
	a.sleepUntil = now.Add(d)
	a.sleepPending = true
	a.log.Info("alarm snoozed", zap.Duration("duration", d))
}

// CancelSleep ends a snooze immediately.
func (a *Alarm) CancelSleep() {
	a.sleepPending = false
	a.log.Info("alarm snooze cancelled")
}

// Sleeping reports whether a snooze is set. Expiry is only noticed by Update,
// so this can still be true shortly after the snooze ran out.
func (a *Alarm) Sleeping() bool {
	return a.sleepPending
}

// SleepUntil returns the end of the current snooze, if any.
func (a *Alarm) SleepUntil() (time.Time, bool) {
	return a.sleepUntil, a.sleepPending
}

// Triggered reports whether a burst is owed.
func (a *Alarm) Triggered() bool {
	return a.triggered
}

// LastBeep returns the time of the last burst (or creation time).
func (a *Alarm) LastBeep() time.Time {
	return a.lastBeep
}

// State derives the state machine position at now.
func (a *Alarm) State(now time.Time) AlarmState {
	if a.sleepPending && a.sleepUntil.After(now) {
		return AlarmSleeping
	}
	if a.triggered {
		return AlarmTriggered
	}
	return AlarmIdle
}

// Config returns a copy of the alarm configuration.
func (a *Alarm) Config() AlarmConfig { return a.cfg }

// Enable turns beeping on.
func (a *Alarm) Enable() { a.cfg.Enabled = true }

// Disable turns beeping off. Trigger still records the condition.
func (a *Alarm) Disable() { a.cfg.Enabled = false }

// SetEnabled turns beeping on or off.
func (a *Alarm) SetEnabled(v bool) { a.cfg.Enabled = v }

// SetInterval sets the minimum seconds between bursts.
func (a *Alarm) SetInterval(sec float64) { a.cfg.Interval = sec }

// ToMap returns the configuration keyed as in the settings file.
func (a *Alarm) ToMap() map[string]any {
	return map[string]any{
		KeyAlarmEnabled:  a.cfg.Enabled,
		KeyInterval:      a.cfg.Interval,
		KeyBeepFrequency: a.cfg.BeepFrequency,
	}
}

// UpdateFromMap applies persisted settings. Missing keys keep their current value.
func (a *Alarm) UpdateFromMap(m map[string]any) error {
	if m == nil {
		return nil
	}

	next := a.cfg
	var err error
	if next.Enabled, err = boolValue(m, KeyAlarmEnabled, next.Enabled); err != nil {
		return fmt.Errorf("alarm: %w", err)
	}
	if next.Interval, err = floatValue(m, KeyInterval, next.Interval); err != nil {
		return fmt.Errorf("alarm: %w", err)
	}
	if err := checkRange(KeyInterval, next.Interval, 0, 3600); err != nil {
		return fmt.Errorf("alarm: %w", err)
	}
	if next.BeepFrequency, err = floatValue(m, KeyBeepFrequency, next.BeepFrequency); err != nil {
		return fmt.Errorf("alarm: %w", err)
	}
	if err := checkRange(KeyBeepFrequency, next.BeepFrequency, 20, 20000); err != nil {
		return fmt.Errorf("alarm: %w", err)
	}

	a.cfg = next
	return nil
}
