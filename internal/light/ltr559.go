// Package light reads ambient light from the LTR-559 on the Grow HAT.
package light

import (
	"errors"
	"fmt"
	"io"
)

// DefaultAddress is the LTR-559's fixed I2C address.
const DefaultAddress = 0x23

// LTR-559 registers.
const (
	regALSControl  = 0x80
	regALSMeasRate = 0x85
	regPartID      = 0x86
	regALSData     = 0x88 // CH1 low, CH1 high, CH0 low, CH0 high

	partID = 0x09

	alsActive    = 0x01 // gain 1x, active mode
	alsRate100ms = 0x01 // 100ms integration, 100ms repeat
)

// ErrWrongPart is returned when the device at the address is not an LTR-559.
var ErrWrongPart = errors.New("light: device is not an LTR-559")

// Bus is the subset of an I2C bus the driver uses.
// github.com/reef-pi/rpi/i2c.Bus satisfies it.
type Bus interface {
	ReadBytes(addr byte, num int) ([]byte, error)
	WriteBytes(addr byte, value []byte) error
}

// Sensor reports ambient light in lux.
type Sensor interface {
	Lux() (float64, error)
}

// LTR559 is an ambient light sensor on an I2C bus.
type LTR559 struct {
	bus  Bus
	addr byte
}

// NewLTR559 checks the part ID and starts continuous ALS measurement.
func NewLTR559(bus Bus, addr byte) (*LTR559, error) {
	s := &LTR559{bus: bus, addr: addr}

	id, err := s.read(regPartID, 1)
	if err != nil {
		return nil, fmt.Errorf("read part id: %w", err)
	}
	if id[0]>>4 != partID {
		return nil, fmt.Errorf("%w (part id 0x%02x)", ErrWrongPart, id[0])
	}

	if err := s.write(regALSMeasRate, alsRate100ms); err != nil {
		return nil, fmt.Errorf("set measurement rate: %w", err)
	}
	if err := s.write(regALSControl, alsActive); err != nil {
		return nil, fmt.Errorf("enable als: %w", err)
	}
	return s, nil
}

// Lux returns the current ambient light level.
func (s *LTR559) Lux() (float64, error) {
	data, err := s.read(regALSData, 4)
	if err != nil {
		return 0, fmt.Errorf("read als data: %w", err)
	}
	ch1 := uint16(data[1])<<8 | uint16(data[0])
	ch0 := uint16(data[3])<<8 | uint16(data[2])
	return Lux(ch0, ch1), nil
}

// Close releases the bus if it can be closed.
func (s *LTR559) Close() error {
	if c, ok := s.bus.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *LTR559) read(reg byte, n int) ([]byte, error) {
	if err := s.bus.WriteBytes(s.addr, []byte{reg}); err != nil {
		return nil, err
	}
	data, err := s.bus.ReadBytes(s.addr, n)
	if err != nil {
		return nil, err
	}
	if len(data) < n {
		return nil, fmt.Errorf("short read: %d of %d bytes", len(data), n)
	}
	return data, nil
}

func (s *LTR559) write(reg, value byte) error {
	return s.bus.WriteBytes(s.addr, []byte{reg, value})
}

// Channel-ratio coefficients from the LTR-559 application note, for gain 1x
// and 100ms integration. The ratio is CH1/(CH0+CH1) scaled by 1000.
var (
	ch0Coeff    = [4]float64{17743, 42785, 5926, 0}
	ch1Coeff    = [4]float64{-11059, 19548, -1185, 0}
	ratioBreaks = [3]int{450, 640, 850}
)

// Lux converts raw visible+IR (ch0) and IR (ch1) counts to lux.
func Lux(ch0, ch1 uint16) float64 {
	ratio := 1000
	if total := int(ch0) + int(ch1); total > 0 {
		ratio = int(ch1) * 1000 / total
	}

	idx := len(ratioBreaks)
	for i, b := range ratioBreaks {
		if ratio < b {
			idx = i
			break
		}
	}

	lux := (float64(ch0)*ch0Coeff[idx] - float64(ch1)*ch1Coeff[idx]) / 10000
	if lux < 0 {
		return 0
	}
	return lux
}
