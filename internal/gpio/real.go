//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealPins drives GPIO on actual hardware using the Linux GPIO character device.
type RealPins struct {
	chip     *gpiocdev.Chip
	openPin  *gpiocdev.Line
	closePin *gpiocdev.Line
	operate  *gpiocdev.Line
}

// NewRealPins requests the two limit inputs and the operate output.
func NewRealPins(cfg Config) (*RealPins, error) {
	name := cfg.Chip
	if name == "" {
		name = "gpiochip0"
	}
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	inputOpts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullDown}
	if cfg.ActiveLow {
		inputOpts = []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.AsActiveLow}
	}

	openLine, err := chip.RequestLine(cfg.PinOpen, inputOpts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request open-limit pin %d: %w", cfg.PinOpen, err)
	}

	closeLine, err := chip.RequestLine(cfg.PinClose, inputOpts...)
	if err != nil {
		openLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request close-limit pin %d: %w", cfg.PinClose, err)
	}

	// Operate starts low so a restart never presses the button.
	operateLine, err := chip.RequestLine(cfg.PinOperate, gpiocdev.AsOutput(0))
	if err != nil {
		closeLine.Close()
		openLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request operate pin %d: %w", cfg.PinOperate, err)
	}

	return &RealPins{
		chip:     chip,
		openPin:  openLine,
		closePin: closeLine,
		operate:  operateLine,
	}, nil
}

// Read returns the logical level of a limit input.
func (r *RealPins) Read(line Line) (bool, error) {
	var l *gpiocdev.Line
	switch line {
	case LineOpenLimit:
		l = r.openPin
	case LineCloseLimit:
		l = r.closePin
	default:
		return false, fmt.Errorf("read %s: not an input", line)
	}
	v, err := l.Value()
	if err != nil {
		return false, fmt.Errorf("read %s pin: %w", line, err)
	}
	return v != 0, nil
}

// Write drives the operate line.
func (r *RealPins) Write(line Line, high bool) error {
	if line != LineOperate {
		return fmt.Errorf("write %s: not an output", line)
	}
	v := 0
	if high {
		v = 1
	}
	if err := r.operate.SetValue(v); err != nil {
		return fmt.Errorf("write %s pin: %w", line, err)
	}
	return nil
}

// Close releases GPIO resources.
// The operate line is driven low and every line is reconfigured to input with
// pull-down (matching Pi boot defaults) before closing, so the relay cannot be
// left energised across a reboot.
func (r *RealPins) Close() error {
	var errs []error

	if r.operate != nil {
		if err := r.operate.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("release operate pin: %w", err))
		}
	}
	for _, l := range []struct {
		name string
		line *gpiocdev.Line
	}{
		{"operate", r.operate},
		{"open-limit", r.openPin},
		{"close-limit", r.closePin},
	} {
		if l.line == nil {
			continue
		}
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", l.name, err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", l.name, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
