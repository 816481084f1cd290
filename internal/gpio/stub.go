//go:build !linux

package gpio

import (
	"errors"

	"go.uber.org/zap"
)

// OpenBoard returns an error on non-Linux platforms.
func OpenBoard(chipName string, pins Pins, log *zap.Logger) (*Board, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}
