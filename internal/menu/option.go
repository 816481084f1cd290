// Package menu is the button-driven settings menu of the HAT: a closed table
// of editable properties, the edit view logic and view navigation.
package menu

import (
	"fmt"
	"math"

	"github.com/sweeney/plantwatch/internal/logic"
)

// Property names an editable setting.
type Property int

const (
	PropWarnLevel Property = iota
	PropEnabled
	PropWaterLevel
	PropAutoWater
	PropWetPoint
	PropDryPoint
	PropPumpTime
	PropPumpSpeed
	PropWateringDelay
	PropAlarmInterval
	PropAlarmEnabled
)

var propertyNames = map[Property]string{
	PropWarnLevel:     "warn_level",
	PropEnabled:       "enabled",
	PropWaterLevel:    "water_level",
	PropAutoWater:     "auto_water",
	PropWetPoint:      "wet_point",
	PropDryPoint:      "dry_point",
	PropPumpTime:      "pump_time",
	PropPumpSpeed:     "pump_speed",
	PropWateringDelay: "watering_delay",
	PropAlarmInterval: "interval",
	PropAlarmEnabled:  "enabled",
}

// String returns the property name.
func (p Property) String() string {
	if s, ok := propertyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Property(%d)", int(p))
}

// Mode is how a value is edited.
type Mode int

const (
	ModeInt Mode = iota
	ModeFloat
	ModeBool
)

// Context selects the live reading shown next to a channel option.
type Context string

const (
	ContextNone       Context = ""
	ContextSaturation Context = "sat"
	ContextFrequency  Context = "hz"
)

// Option is one editable setting bound to its owner. Booleans are carried as 0 or 1.
type Option struct {
	Property Property
	Title    string
	Help     string
	Mode     Mode
	Inc      float64
	Min, Max float64
	Round    int // decimal places kept after a float step
	Context  Context

	get    func() float64
	set    func(float64)
	format func(float64) string
}

// Value returns the current value.
func (o Option) Value() float64 { return o.get() }

// Text returns the current value formatted for display.
func (o Option) Text() string { return o.format(o.get()) }

// Increment steps the value up, or switches a bool on. It clamps at Max.
func (o Option) Increment() {
	if o.Mode == ModeBool {
		o.set(1)
		return
	}
	o.set(math.Min(o.step(o.get()+o.Inc), o.Max))
}

// Decrement steps the value down, or switches a bool off. It clamps at Min.
func (o Option) Decrement() {
	if o.Mode == ModeBool {
		o.set(0)
		return
	}
	o.set(math.Max(o.step(o.get()-o.Inc), o.Min))
}

func (o Option) step(v float64) float64 {
	if o.Mode != ModeFloat {
		return v
	}
	p := math.Pow(10, float64(o.Round))
	return math.Round(v*p) / p
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func yesNo(v float64) string {
	if v != 0 {
		return "Yes"
	}
	return "No"
}

func percent(v float64) string { return fmt.Sprintf("%0.2f%%", v*100) }

// ChannelOptions returns the edit menu of channel c.
func ChannelOptions(c *logic.Channel) []Option {
	cfg := c.Config
	return []Option{
		{
			Property: PropWarnLevel, Title: "Alarm Level", Mode: ModeFloat,
			Inc: 0.05, Min: 0, Max: 1, Round: 2, Context: ContextSaturation,
			Help:   "Saturation at which alarm is triggered",
			get:    func() float64 { return cfg().WarnLevel },
			set:    c.SetWarnLevel,
			format: percent,
		},
		{
			Property: PropEnabled, Title: "Enabled", Mode: ModeBool,
			Help:   "Enable/disable this channel",
			get:    func() float64 { return boolValue(cfg().Enabled) },
			set:    func(v float64) { c.SetEnabled(v != 0) },
			format: yesNo,
		},
		{
			Property: PropWaterLevel, Title: "Watering Level", Mode: ModeFloat,
			Inc: 0.05, Min: 0, Max: 1, Round: 2, Context: ContextSaturation,
			Help:   "Saturation at which watering occurs",
			get:    func() float64 { return cfg().WaterLevel },
			set:    c.SetWaterLevel,
			format: percent,
		},
		{
			Property: PropAutoWater, Title: "Auto Water", Mode: ModeBool,
			Help:   "Enable/disable watering",
			get:    func() float64 { return boolValue(cfg().AutoWater) },
			set:    func(v float64) { c.SetAutoWater(v != 0) },
			format: yesNo,
		},
		{
			Property: PropWetPoint, Title: "Wet Point", Mode: ModeFloat,
			Inc: 0.5, Min: 1, Max: 27, Round: 2, Context: ContextFrequency,
			Help:   "Frequency for fully saturated soil",
			get:    func() float64 { return cfg().WetPoint },
			set:    c.SetWetPoint,
			format: func(v float64) string { return fmt.Sprintf("%0.2fHz", v) },
		},
		{
			Property: PropDryPoint, Title: "Dry Point", Mode: ModeFloat,
			Inc: 0.5, Min: 1, Max: 27, Round: 2, Context: ContextFrequency,
			Help:   "Frequency for fully dried soil",
			get:    func() float64 { return cfg().DryPoint },
			set:    c.SetDryPoint,
			format: func(v float64) string { return fmt.Sprintf("%0.2fHz", v) },
		},
		{
			Property: PropPumpTime, Title: "Pump Time", Mode: ModeFloat,
			Inc: 0.05, Min: 0.05, Max: 2.0, Round: 2,
			Help:   "Time to run pump",
			get:    func() float64 { return cfg().PumpTime },
			set:    c.SetPumpTime,
			format: func(v float64) string { return fmt.Sprintf("%0.2fsec", v) },
		},
		{
			Property: PropPumpSpeed, Title: "Pump Speed", Mode: ModeFloat,
			Inc: 0.05, Min: 0.05, Max: 1.0, Round: 2,
			Help:   "Speed of pump",
			get:    func() float64 { return cfg().PumpSpeed },
			set:    c.SetPumpSpeed,
			format: func(v float64) string { return fmt.Sprintf("%0.0f%%", v*100) },
		},
		{
			Property: PropWateringDelay, Title: "Watering Delay", Mode: ModeInt,
			Inc: 10, Min: 30, Max: 500,
			Help:   "Delay between waterings",
			get:    func() float64 { return cfg().WateringDelay },
			set:    c.SetWateringDelay,
			format: func(v float64) string { return fmt.Sprintf("%0.0fsec", v) },
		},
	}
}

// AlarmOptions returns the general settings menu.
func AlarmOptions(a *logic.Alarm) []Option {
	return []Option{
		{
			Property: PropAlarmInterval, Title: "Alarm Interval", Mode: ModeInt,
			Inc: 1, Min: 1, Max: 60,
			Help:   "Time between alarm beeps.",
			get:    func() float64 { return a.Config().Interval },
			set:    a.SetInterval,
			format: func(v float64) string { return fmt.Sprintf("%02.0fsec", v) },
		},
		{
			Property: PropAlarmEnabled, Title: "Alarm Enable", Mode: ModeBool,
			Help:   "Enable the piezo alarm beep.",
			get:    func() float64 { return boolValue(a.Config().Enabled) },
			set:    func(v float64) { a.SetEnabled(v != 0) },
			format: yesNo,
		},
	}
}
