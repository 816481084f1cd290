// Package gpio drives the Grow HAT: pulse-output moisture probes, pumps,
// the piezo buzzer and the four front buttons.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"fmt"

	"github.com/sweeney/plantwatch/internal/logic"
)

// Pin definitions (BCM numbering)
const (
	PinMoisture1 = 23
	PinMoisture2 = 8
	PinMoisture3 = 25

	PinPump1 = 17
	PinPump2 = 27
	PinPump3 = 19

	PinPiezo = 13

	PinButtonA = 5
	PinButtonB = 6
	PinButtonX = 16
	PinButtonY = 24
)

// Pins maps HAT functions to BCM line offsets. Moisture[i] and Pumps[i]
// belong to channel i+1.
type Pins struct {
	Moisture []int
	Pumps    []int
	Piezo    int
	Buttons  [4]int // A, B, X, Y
}

// DefaultPins returns the Grow HAT wiring.
func DefaultPins() Pins {
	return Pins{
		Moisture: []int{PinMoisture1, PinMoisture2, PinMoisture3},
		Pumps:    []int{PinPump1, PinPump2, PinPump3},
		Piezo:    PinPiezo,
		Buttons:  [4]int{PinButtonA, PinButtonB, PinButtonX, PinButtonY},
	}
}

// Validate checks that every channel has a probe and a pump.
func (p Pins) Validate() error {
	if len(p.Moisture) == 0 {
		return fmt.Errorf("no moisture pins configured")
	}
	if len(p.Moisture) != len(p.Pumps) {
		return fmt.Errorf("%d moisture pins but %d pump pins", len(p.Moisture), len(p.Pumps))
	}
	return nil
}

// Button is one of the four front buttons.
type Button string

const (
	ButtonA Button = "A"
	ButtonB Button = "B"
	ButtonX Button = "X"
	ButtonY Button = "Y"
)

// buttonOrder matches Pins.Buttons.
var buttonOrder = [4]Button{ButtonA, ButtonB, ButtonX, ButtonY}

// Board is the set of devices the daemon drives. Sensors[i] and Pumps[i]
// belong to channel i+1.
type Board struct {
	Sensors []logic.Sensor
	Pumps   []logic.Pump
	Piezo   logic.Piezo
	Buttons <-chan Button

	close func() error
}

// Channels returns the number of sensor/pump pairs.
func (b *Board) Channels() int {
	return len(b.Sensors)
}

// Close waits for running doses and beeps, then releases the lines.
func (b *Board) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

var (
	_ logic.Sensor = (*MoistureMeter)(nil)
	_ logic.Pump   = (*Pump)(nil)
	_ logic.Piezo  = (*Piezo)(nil)
)
