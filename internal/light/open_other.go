//go:build !linux

package light

import "errors"

// Open returns an error on non-Linux platforms.
func Open(addr byte) (*LTR559, error) {
	return nil, errors.New("light: not supported on this platform (requires Linux)")
}
