//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealPins is not available on non-Linux platforms.
type RealPins struct{}

// NewRealPins returns an error on non-Linux platforms.
func NewRealPins(Config) (*RealPins, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealPins) Read(Line) (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Write is not implemented on non-Linux platforms.
func (r *RealPins) Write(Line, bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealPins) Close() error {
	return nil
}

// PeriphPins is not available on non-Linux platforms.
type PeriphPins = RealPins

// NewPeriphPins returns an error on non-Linux platforms.
func NewPeriphPins(Config) (*PeriphPins, error) {
	return nil, errUnsupported
}
