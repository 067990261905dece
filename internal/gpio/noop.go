package gpio

import "log"

// NoopPins reads every input low and only logs writes.
// Used when running the daemon on a machine without door hardware.
type NoopPins struct{}

// NewNoopPins creates a NoopPins.
func NewNoopPins() *NoopPins {
	return &NoopPins{}
}

// Read implements Pins.Read.
func (n *NoopPins) Read(Line) (bool, error) {
	return false, nil
}

// Write implements Pins.Write.
func (n *NoopPins) Write(line Line, high bool) error {
	log.Printf("gpio: noop write %s=%v", line, high)
	return nil
}

// Close implements Pins.Close.
func (n *NoopPins) Close() error {
	return nil
}
