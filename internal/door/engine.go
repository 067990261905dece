package door

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sweeney/garage-door/internal/gpio"
)

// ErrBusy is returned under BusyReject when another hardware sequence is in
// flight.
var ErrBusy = errors.New("door controller busy")

// BusyPolicy decides what happens to a request that arrives while another
// one is using the hardware.
type BusyPolicy string

const (
	BusyQueue  BusyPolicy = "queue"
	BusyReject BusyPolicy = "reject"
)

// Config holds the engine's timing parameters.
type Config struct {
	Samples        int
	SampleInterval time.Duration
	FlashWindow    time.Duration
	FlashPoll      time.Duration
	PulseHold      time.Duration
	Busy           BusyPolicy
}

// DefaultConfig returns the reference timing.
func DefaultConfig() Config {
	return Config{
		Samples:        DefaultSamples,
		SampleInterval: DefaultSampleInterval,
		FlashWindow:    DefaultFlashWindow,
		FlashPoll:      DefaultFlashPoll,
		PulseHold:      DefaultPulseHold,
		Busy:           BusyQueue,
	}
}

// Engine owns the pins and relay. At most one classification or command
// sequence runs at a time; once started a sequence always runs to completion.
type Engine struct {
	sem        *semaphore.Weighted
	busy       BusyPolicy
	classifier *Classifier
	relay      *Relay
}

// NewEngine wires a Sampler, Classifier and Relay around pins.
func NewEngine(pins gpio.Pins, clock Clock, cfg Config) *Engine {
	sampler := NewSampler(pins, clock, cfg.Samples, cfg.SampleInterval)
	return &Engine{
		sem:        semaphore.NewWeighted(1),
		busy:       cfg.Busy,
		classifier: NewClassifier(sampler, clock, cfg.FlashWindow, cfg.FlashPoll),
		relay:      NewRelay(pins, clock, cfg.PulseHold),
	}
}

func (e *Engine) acquire(ctx context.Context) error {
	if e.busy == BusyReject {
		if !e.sem.TryAcquire(1) {
			return ErrBusy
		}
		return nil
	}
	return e.sem.Acquire(ctx, 1)
}

// Status runs a full classification including the motion check.
func (e *Engine) Status(ctx context.Context) (Classification, error) {
	if err := e.acquire(ctx); err != nil {
		return Classification{}, err
	}
	defer e.sem.Release(1)

	cl, err := e.classifier.Classify()
	if err != nil {
		return Classification{}, fmt.Errorf("classify: %w", err)
	}
	return cl, nil
}

// Execute dispatches cmd, issuing at most one relay pulse.
func (e *Engine) Execute(ctx context.Context, cmd Command) (Outcome, error) {
	if err := e.acquire(ctx); err != nil {
		return Outcome{Command: cmd}, err
	}
	defer e.sem.Release(1)

	out := Outcome{Command: cmd}
	if cmd != CommandOperate {
		cl, err := e.classifier.Resting()
		if err != nil {
			return out, fmt.Errorf("classify: %w", err)
		}
		out.State = cl.State
	}

	pulse, msg := Decide(cmd, out.State)
	if msg == "" {
		return out, fmt.Errorf("unknown command %q", cmd)
	}
	if pulse {
		if err := e.relay.Pulse(); err != nil {
			return out, err
		}
		out.Pulsed = true
	}
	out.Message = msg
	return out, nil
}
