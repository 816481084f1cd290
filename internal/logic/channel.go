package logic

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Settings keys shared by Channel.ToMap and Channel.UpdateFromMap.
const (
	KeyEnabled       = "enabled"
	KeyWarnLevel     = "warn_level"
	KeyWaterLevel    = "water_level"
	KeyPumpSpeed     = "pump_speed"
	KeyPumpTime      = "pump_time"
	KeyWateringDelay = "watering_delay"
	KeyAutoWater     = "auto_water"
	KeyWetPoint      = "wet_point"
	KeyDryPoint      = "dry_point"
)

// ChannelConfig is the persisted configuration of one sensor/pump pair.
// Durations are in seconds to match the settings file.
type ChannelConfig struct {
	Enabled       bool
	WarnLevel     float64 // saturation that raises the alarm, 0..1
	WaterLevel    float64 // saturation below which watering is allowed, 0..1
	PumpSpeed     float64 // 0..1
	PumpTime      float64 // seconds per dose
	WateringDelay float64 // minimum seconds between doses
	AutoWater     bool
	WetPoint      float64 // Hz for fully saturated soil
	DryPoint      float64 // Hz for fully dry soil
}

// DefaultChannelConfig returns the factory settings of a channel.
func DefaultChannelConfig() ChannelConfig {
	return ChannelConfig{
		Enabled:       false,
		WarnLevel:     0.5,
		WaterLevel:    0.5,
		PumpSpeed:     0.5,
		PumpTime:      0.2,
		WateringDelay: 60,
		AutoWater:     false,
		WetPoint:      0.7,
		DryPoint:      26.7,
	}
}

// ChannelOption configures optional Channel collaborators.
type ChannelOption func(*Channel)

// WithLogger sets the logger used for watering and alarm transitions.
func WithLogger(l *zap.Logger) ChannelOption {
	return func(c *Channel) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRecordSink sets where per-tick reading records are sent.
func WithRecordSink(s RecordSink) ChannelOption {
	return func(c *Channel) { c.sink = s }
}

// Channel is one sensor+pump pair and its watering policy.
// It is not safe for concurrent use; the tick loop owns it.
type Channel struct {
	id     int
	cfg    ChannelConfig
	sensor Sensor
	pump   Pump
	sink   RecordSink
	log    *zap.Logger

	filter      ReadingFilter
	lastDose    time.Time
	alarm       bool
	lastReading Reading
}

// NewChannel creates channel id (1..N). The sensor is calibrated from cfg and
// the watering cooldown starts at now.
func NewChannel(id int, sensor Sensor, pump Pump, cfg ChannelConfig, now time.Time, opts ...ChannelOption) *Channel {
	c := &Channel{
		id:       id,
		cfg:      cfg,
		sensor:   sensor,
		pump:     pump,
		log:      zap.NewNop(),
		lastDose: now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sensor.SetWetPoint(cfg.WetPoint)
	c.sensor.SetDryPoint(cfg.DryPoint)
	return c
}

// Update runs one control step: sample, filter, maybe water, evaluate the alarm
// flag and emit a reading record. Disabled channels do nothing.
func (c *Channel) Update(now time.Time, light float64) []Event {
	if !c.cfg.Enabled {
		return nil
	}

	r := Reading{
		Moisture:   c.sensor.Moisture(),
		Saturation: clamp01(c.sensor.Saturation()),
	}
	c.lastReading = r

	if IsFaultyZero(r) && r.Saturation > c.cfg.WaterLevel {
		c.log.Warn("skipping tick on faulty zero reading",
			zap.Int("channel", c.id),
			zap.Float64("saturation", r.Saturation),
			zap.Float64("water_level", c.cfg.WaterLevel))
		return []Event{c.event(now, EventSensorFault, r)}
	}

	var events []Event
	if !c.filter.Add(r, c.cfg.WaterLevel) {
		last, _ := c.filter.Last()
		c.log.Warn("discarding faulty zero reading",
			zap.Int("channel", c.id),
			zap.Float64("last_saturation", last))
		events = append(events, c.event(now, EventSensorFault, r))
	}

	watered := false
	if c.filter.ShouldWater() && r.Saturation < c.cfg.WaterLevel {
		watered = c.Water(now)
		if watered {
			c.log.Info("watering",
				zap.Int("channel", c.id),
				zap.Float64("pump_speed", c.cfg.PumpSpeed),
				zap.Float64("pump_time", c.cfg.PumpTime))
			events = append(events, c.event(now, EventWatered, r))
		}
	}

	if r.Saturation < c.cfg.WarnLevel {
		if !c.alarm {
			c.log.Warn("alarm raised",
				zap.Int("channel", c.id),
				zap.Float64("saturation_pct", r.Saturation*100),
				zap.Float64("warn_level_pct", c.cfg.WarnLevel*100))
			events = append(events, c.event(now, EventAlarmOn, r))
		}
		c.alarm = true
	} else {
		if c.alarm {
			events = append(events, c.event(now, EventAlarmOff, r))
		}
		c.alarm = false
	}

	if c.sink != nil {
		c.sink.LogValues(Record{
			Time:       now,
			Channel:    c.id,
			Moisture:   r.Moisture,
			Saturation: r.Saturation,
			Watered:    watered,
			Light:      light,
			WetPoint:   c.cfg.WetPoint,
			DryPoint:   c.cfg.DryPoint,
			AutoWater:  c.cfg.AutoWater,
		})
	}

	return events
}

// Water doses the pump if auto watering is on and the cooldown has passed.
// It returns true when a dose was started.
func (c *Channel) Water(now time.Time) bool {
	if !c.cfg.AutoWater {
		return false
	}
	if now.Sub(c.lastDose) <= seconds(c.cfg.WateringDelay) {
		return false
	}
	if !c.pump.Dose(c.cfg.PumpSpeed, seconds(c.cfg.PumpTime)) {
		c.log.Debug("pump busy, dose refused", zap.Int("channel", c.id))
	}
	c.lastDose = now
	return true
}

func (c *Channel) event(now time.Time, t EventType, r Reading) Event {
	return Event{
		Timestamp:  now,
		Type:       t,
		Channel:    c.id,
		Moisture:   r.Moisture,
		Saturation: r.Saturation,
	}
}

// ID returns the channel number.
func (c *Channel) ID() int { return c.id }

// Config returns a copy of the current configuration.
func (c *Channel) Config() ChannelConfig { return c.cfg }

// Alarm reports whether saturation was below the warn level on the last tick.
func (c *Channel) Alarm() bool { return c.alarm }

// LastDose returns when the pump was last started.
func (c *Channel) LastDose() time.Time { return c.lastDose }

// LastReading returns the sample taken on the last enabled tick.
func (c *Channel) LastReading() Reading { return c.lastReading }

// Window returns the filter samples, oldest first.
func (c *Channel) Window() []float64 { return c.filter.Samples() }

// ShouldWater reports the filter's current trend decision.
func (c *Channel) ShouldWater() bool { return c.filter.ShouldWater() }

// Sensor returns the channel's probe.
func (c *Channel) Sensor() Sensor { return c.sensor }

// SetEnabled switches the channel on or off.
func (c *Channel) SetEnabled(v bool) { c.cfg.Enabled = v }

// SetAutoWater allows or forbids automatic doses.
func (c *Channel) SetAutoWater(v bool) { c.cfg.AutoWater = v }

// SetWarnLevel sets the alarm saturation, clamped to [0,1].
func (c *Channel) SetWarnLevel(v float64) { c.cfg.WarnLevel = clamp01(v) }

// SetWaterLevel sets the watering saturation, clamped to [0,1].
func (c *Channel) SetWaterLevel(v float64) { c.cfg.WaterLevel = clamp01(v) }

// SetPumpSpeed sets the pump duty, clamped to [0,1].
func (c *Channel) SetPumpSpeed(v float64) { c.cfg.PumpSpeed = clamp01(v) }

// SetPumpTime sets the dose length in seconds.
func (c *Channel) SetPumpTime(v float64) { c.cfg.PumpTime = v }

// SetWateringDelay sets the minimum seconds between doses.
func (c *Channel) SetWateringDelay(v float64) { c.cfg.WateringDelay = v }

// SetWetPoint stores the wet calibration point and recalibrates the sensor.
func (c *Channel) SetWetPoint(hz float64) {
	c.cfg.WetPoint = hz
	c.sensor.SetWetPoint(hz)
}

// SetDryPoint stores the dry calibration point and recalibrates the sensor.
func (c *Channel) SetDryPoint(hz float64) {
	c.cfg.DryPoint = hz
	c.sensor.SetDryPoint(hz)
}

// ToMap returns the configuration keyed as in the settings file.
func (c *Channel) ToMap() map[string]any {
	return map[string]any{
		KeyEnabled:       c.cfg.Enabled,
		KeyWarnLevel:     c.cfg.WarnLevel,
		KeyWetPoint:      c.cfg.WetPoint,
		KeyDryPoint:      c.cfg.DryPoint,
		KeyWateringDelay: c.cfg.WateringDelay,
		KeyAutoWater:     c.cfg.AutoWater,
		KeyPumpTime:      c.cfg.PumpTime,
		KeyPumpSpeed:     c.cfg.PumpSpeed,
		KeyWaterLevel:    c.cfg.WaterLevel,
	}
}

// UpdateFromMap applies persisted settings. Missing keys keep their current
// value; a nil map is a no-op. Nothing is applied if any value is invalid.
func (c *Channel) UpdateFromMap(m map[string]any) error {
	if m == nil {
		return nil
	}

	next := c.cfg
	var err error
	if next.Enabled, err = boolValue(m, KeyEnabled, next.Enabled); err != nil {
		return fmt.Errorf("channel %d: %w", c.id, err)
	}
	if next.AutoWater, err = boolValue(m, KeyAutoWater, next.AutoWater); err != nil {
		return fmt.Errorf("channel %d: %w", c.id, err)
	}
	floats := []struct {
		key    string
		dst    *float64
		lo, hi float64
	}{
		{KeyWarnLevel, &next.WarnLevel, 0, 1},
		{KeyWaterLevel, &next.WaterLevel, 0, 1},
		{KeyPumpSpeed, &next.PumpSpeed, 0, 1},
		{KeyPumpTime, &next.PumpTime, 0, 60},
		{KeyWateringDelay, &next.WateringDelay, 0, 86400},
		{KeyWetPoint, &next.WetPoint, 0, 1000},
		{KeyDryPoint, &next.DryPoint, 0, 1000},
	}
	for _, f := range floats {
		v, err := floatValue(m, f.key, *f.dst)
		if err != nil {
			return fmt.Errorf("channel %d: %w", c.id, err)
		}
		if err := checkRange(f.key, v, f.lo, f.hi); err != nil {
			return fmt.Errorf("channel %d: %w", c.id, err)
		}
		*f.dst = v
	}
	if next.PumpSpeed == 0 {
		return fmt.Errorf("channel %d: %s must be greater than 0", c.id, KeyPumpSpeed)
	}
	if next.PumpTime == 0 {
		return fmt.Errorf("channel %d: %s must be greater than 0", c.id, KeyPumpTime)
	}

	c.cfg.Enabled = next.Enabled
	c.cfg.AutoWater = next.AutoWater
	c.cfg.WarnLevel = next.WarnLevel
	c.cfg.WaterLevel = next.WaterLevel
	c.cfg.PumpSpeed = next.PumpSpeed
	c.cfg.PumpTime = next.PumpTime
	c.cfg.WateringDelay = next.WateringDelay
	c.SetWetPoint(next.WetPoint)
	c.SetDryPoint(next.DryPoint)
	return nil
}
