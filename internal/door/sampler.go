package door

import (
	"fmt"
	"time"

	"github.com/sweeney/garage-door/internal/gpio"
)

// Reference debounce parameters.
const (
	DefaultSamples        = 100
	DefaultSampleInterval = time.Millisecond
)

// Sampler turns a noisy input into a stable reading by majority vote over a
// fixed window of samples.
type Sampler struct {
	pins     gpio.Pins
	clock    Clock
	samples  int
	interval time.Duration
}

// NewSampler creates a Sampler taking samples reads spaced interval apart.
func NewSampler(pins gpio.Pins, clock Clock, samples int, interval time.Duration) *Sampler {
	return &Sampler{
		pins:     pins,
		clock:    clock,
		samples:  samples,
		interval: interval,
	}
}

// Sample blocks for samples*interval and returns the majority level.
// A tie reads as Low.
func (s *Sampler) Sample(pin SensorPin) (Level, error) {
	highs, lows := 0, 0
	for i := 0; i < s.samples; i++ {
		high, err := s.pins.Read(pin)
		if err != nil {
			return Low, fmt.Errorf("sample %s: %w", pin, err)
		}
		if high {
			highs++
		} else {
			lows++
		}
		s.clock.Sleep(s.interval)
	}

	if highs > lows {
		return High, nil
	}
	return Low, nil
}

// Raw returns a single non-debounced read.
func (s *Sampler) Raw(pin SensorPin) (Level, error) {
	high, err := s.pins.Read(pin)
	if err != nil {
		return Low, fmt.Errorf("read %s: %w", pin, err)
	}
	return levelOf(high), nil
}

// Pair debounces both limit pins back to back.
func (s *Sampler) Pair() (open, closed Level, err error) {
	open, err = s.Sample(OpenLimit)
	if err != nil {
		return Low, Low, err
	}
	closed, err = s.Sample(CloseLimit)
	if err != nil {
		return Low, Low, err
	}
	return open, closed, nil
}
