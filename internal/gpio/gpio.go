// Package gpio provides pin-level access to the door's limit switches and
// operate relay with hardware abstraction.
// The real implementations use the Linux GPIO character device or periph.io.
// The fake implementation allows testing without hardware.
package gpio

import "fmt"

// Line identifies one of the three lines the controller uses.
type Line int

const (
	LineOpenLimit  Line = iota // input, high when the door is fully open
	LineCloseLimit             // input, high when the door is fully closed
	LineOperate                // output, drives the operate relay
)

func (l Line) String() string {
	switch l {
	case LineOpenLimit:
		return "open-limit"
	case LineCloseLimit:
		return "close-limit"
	case LineOperate:
		return "operate"
	}
	return fmt.Sprintf("line(%d)", int(l))
}

// Pins reads and drives the controller's GPIO lines.
type Pins interface {
	// Read returns the instantaneous level of an input line (true = high).
	Read(line Line) (bool, error)

	// Write drives an output line high or low.
	Write(line Line, high bool) error

	// Close releases GPIO resources. The operate line is left low.
	Close() error
}

// Default pin definitions (BCM numbering)
const (
	DefaultPinOpen    = 17
	DefaultPinClose   = 27
	DefaultPinOperate = 22
)

// Config selects pin offsets and input polarity for a hardware backend.
type Config struct {
	Chip       string // gpiochip name for the cdev backend
	PinOpen    int
	PinClose   int
	PinOperate int
	ActiveLow  bool // limit switches pull the line low when engaged
}

// Backend names accepted by Open.
const (
	BackendCdev   = "cdev"
	BackendPeriph = "periph"
	BackendNone   = "none"
)

// Open returns Pins for the named backend.
func Open(backend string, cfg Config) (Pins, error) {
	switch backend {
	case BackendCdev, "":
		p, err := NewRealPins(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	case BackendPeriph:
		p, err := NewPeriphPins(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	case BackendNone:
		return NewNoopPins(), nil
	}
	return nil, fmt.Errorf("gpio: unknown backend %q", backend)
}
