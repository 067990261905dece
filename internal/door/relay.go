package door

import (
	"fmt"
	"time"

	"github.com/sweeney/garage-door/internal/gpio"
)

// DefaultPulseHold is how long the operate button is held.
const DefaultPulseHold = 300 * time.Millisecond

// Relay presses the operate button. It is the only writer of the operate line.
type Relay struct {
	pins  gpio.Pins
	clock Clock
	hold  time.Duration
}

// NewRelay creates a Relay holding the line high for hold on each pulse.
func NewRelay(pins gpio.Pins, clock Clock, hold time.Duration) *Relay {
	return &Relay{pins: pins, clock: clock, hold: hold}
}

// Pulse drives the operate line high, waits, then drives it low.
// The low write is attempted even when the high write failed.
func (r *Relay) Pulse() error {
	if err := r.pins.Write(gpio.LineOperate, true); err != nil {
		if lowErr := r.pins.Write(gpio.LineOperate, false); lowErr != nil {
			return fmt.Errorf("relay press: %w (release: %v)", err, lowErr)
		}
		return fmt.Errorf("relay press: %w", err)
	}
	r.clock.Sleep(r.hold)
	if err := r.pins.Write(gpio.LineOperate, false); err != nil {
		return fmt.Errorf("relay release: %w", err)
	}
	return nil
}
