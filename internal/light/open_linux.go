//go:build linux

package light

import (
	"fmt"

	"github.com/reef-pi/rpi/i2c"
)

// Open opens the default I2C bus and the LTR-559 at addr.
func Open(addr byte) (*LTR559, error) {
	bus, err := i2c.New()
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	s, err := NewLTR559(bus, addr)
	if err != nil {
		bus.Close()
		return nil, err
	}
	return s, nil
}
