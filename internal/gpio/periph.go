//go:build linux

package gpio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphPins drives GPIO through periph.io. Useful on boards whose kernel
// does not expose a usable gpiochip.
type PeriphPins struct {
	openPin   gpio.PinIO
	closePin  gpio.PinIO
	operate   gpio.PinIO
	activeLow bool
}

// NewPeriphPins initialises the periph host drivers and looks pins up by
// their BCM names.
func NewPeriphPins(cfg Config) (*PeriphPins, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	p := &PeriphPins{activeLow: cfg.ActiveLow}
	var err error
	if p.openPin, err = lookupPin(cfg.PinOpen); err != nil {
		return nil, err
	}
	if p.closePin, err = lookupPin(cfg.PinClose); err != nil {
		return nil, err
	}
	if p.operate, err = lookupPin(cfg.PinOperate); err != nil {
		return nil, err
	}

	pull := gpio.PullDown
	if cfg.ActiveLow {
		pull = gpio.PullUp
	}
	if err := p.openPin.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure open-limit pin %d: %w", cfg.PinOpen, err)
	}
	if err := p.closePin.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure close-limit pin %d: %w", cfg.PinClose, err)
	}
	if err := p.operate.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("configure operate pin %d: %w", cfg.PinOperate, err)
	}
	return p, nil
}

func lookupPin(bcm int) (gpio.PinIO, error) {
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", bcm))
	if p == nil {
		return nil, fmt.Errorf("gpio pin GPIO%d not found", bcm)
	}
	return p, nil
}

// Read returns the logical level of a limit input.
func (p *PeriphPins) Read(line Line) (bool, error) {
	var pin gpio.PinIO
	switch line {
	case LineOpenLimit:
		pin = p.openPin
	case LineCloseLimit:
		pin = p.closePin
	default:
		return false, fmt.Errorf("read %s: not an input", line)
	}
	high := pin.Read() == gpio.High
	if p.activeLow {
		high = !high
	}
	return high, nil
}

// Write drives the operate line.
func (p *PeriphPins) Write(line Line, high bool) error {
	if line != LineOperate {
		return fmt.Errorf("write %s: not an output", line)
	}
	if err := p.operate.Out(gpio.Level(high)); err != nil {
		return fmt.Errorf("write %s pin: %w", line, err)
	}
	return nil
}

// Close drives the operate line low and halts all pins.
func (p *PeriphPins) Close() error {
	var errs []error
	if err := p.operate.Out(gpio.Low); err != nil {
		errs = append(errs, fmt.Errorf("release operate pin: %w", err))
	}
	for _, pin := range []gpio.PinIO{p.operate, p.openPin, p.closePin} {
		if err := pin.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt %s: %w", pin.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
