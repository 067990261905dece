// Package config holds the daemon configuration: built-in defaults, an
// optional YAML file, and validation. Command-line flags are applied on top
// by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/sweeney/garage-door/internal/door"
	"github.com/sweeney/garage-door/internal/gpio"
)

// Unauthorized request policies.
const (
	UnauthorizedReject = "reject" // answer 401
	UnauthorizedDrop   = "drop"   // close the connection without a response
)

// Config is the complete daemon configuration.
type Config struct {
	// Keys is the access key allow-list.
	Keys []string `yaml:"keys"`

	HTTPAddr     string `yaml:"http"`
	Unauthorized string `yaml:"unauthorized"`
	Metrics      bool   `yaml:"metrics"`

	GPIO     GPIOConfig     `yaml:"gpio"`
	Sampling SamplingConfig `yaml:"sampling"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
}

// GPIOConfig selects the pin backend and line assignments (BCM numbering).
type GPIOConfig struct {
	Backend    string `yaml:"backend"` // "cdev", "periph", "none"
	Chip       string `yaml:"chip"`
	PinOpen    int    `yaml:"pin_open"`
	PinClose   int    `yaml:"pin_close"`
	PinOperate int    `yaml:"pin_operate"`
	ActiveLow  bool   `yaml:"active_low"`
}

// SamplingConfig holds the engine timing.
type SamplingConfig struct {
	Samples        int           `yaml:"samples"`
	SampleInterval time.Duration `yaml:"sample_interval"`
	FlashWindow    time.Duration `yaml:"flash_window"`
	FlashPoll      time.Duration `yaml:"flash_poll"`
	PulseHold      time.Duration `yaml:"pulse_hold"`
	BusyPolicy     string        `yaml:"busy_policy"` // "queue", "reject"
}

// MQTTConfig holds event publishing settings. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker    string        `yaml:"broker"`
	ClientID  string        `yaml:"client_id"`
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// Default returns the built-in configuration. It has no keys and so does
// not validate until at least one is supplied.
func Default() Config {
	dc := door.DefaultConfig()
	return Config{
		HTTPAddr:     ":80",
		Unauthorized: UnauthorizedReject,
		Metrics:      true,
		GPIO: GPIOConfig{
			Backend:    gpio.BackendCdev,
			Chip:       "gpiochip0",
			PinOpen:    gpio.DefaultPinOpen,
			PinClose:   gpio.DefaultPinClose,
			PinOperate: gpio.DefaultPinOperate,
		},
		Sampling: SamplingConfig{
			Samples:        dc.Samples,
			SampleInterval: dc.SampleInterval,
			FlashWindow:    dc.FlashWindow,
			FlashPoll:      dc.FlashPoll,
			PulseHold:      dc.PulseHold,
			BusyPolicy:     string(dc.Busy),
		},
		MQTT: MQTTConfig{
			ClientID:  "garage-door",
			Heartbeat: 15 * time.Minute,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path.
// An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.SetStrict(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs []error

	if len(c.Keys) == 0 {
		errs = append(errs, errors.New("no access keys configured"))
	}
	for i, k := range c.Keys {
		if k == "" {
			errs = append(errs, fmt.Errorf("access key %d is empty", i))
		}
	}

	switch c.Unauthorized {
	case UnauthorizedReject, UnauthorizedDrop:
	default:
		errs = append(errs, fmt.Errorf("unknown unauthorized policy %q", c.Unauthorized))
	}

	switch c.GPIO.Backend {
	case gpio.BackendCdev, gpio.BackendPeriph, gpio.BackendNone:
	default:
		errs = append(errs, fmt.Errorf("unknown gpio backend %q", c.GPIO.Backend))
	}
	pins := map[int]string{}
	for _, p := range []struct {
		name string
		pin  int
	}{
		{"pin_open", c.GPIO.PinOpen},
		{"pin_close", c.GPIO.PinClose},
		{"pin_operate", c.GPIO.PinOperate},
	} {
		if p.pin < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", p.name))
		}
		if other, dup := pins[p.pin]; dup {
			errs = append(errs, fmt.Errorf("%s and %s share pin %d", other, p.name, p.pin))
		}
		pins[p.pin] = p.name
	}

	s := c.Sampling
	if s.Samples <= 0 {
		errs = append(errs, errors.New("samples must be positive"))
	}
	for _, d := range []struct {
		name string
		d    time.Duration
	}{
		{"sample_interval", s.SampleInterval},
		{"flash_window", s.FlashWindow},
		{"flash_poll", s.FlashPoll},
		{"pulse_hold", s.PulseHold},
	} {
		if d.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", d.name))
		}
	}
	switch door.BusyPolicy(s.BusyPolicy) {
	case door.BusyQueue, door.BusyReject:
	default:
		errs = append(errs, fmt.Errorf("unknown busy policy %q", s.BusyPolicy))
	}

	if c.MQTT.Heartbeat < 0 {
		errs = append(errs, errors.New("heartbeat must not be negative"))
	}

	return errors.Join(errs...)
}

// Door returns the engine configuration.
func (c Config) Door() door.Config {
	return door.Config{
		Samples:        c.Sampling.Samples,
		SampleInterval: c.Sampling.SampleInterval,
		FlashWindow:    c.Sampling.FlashWindow,
		FlashPoll:      c.Sampling.FlashPoll,
		PulseHold:      c.Sampling.PulseHold,
		Busy:           door.BusyPolicy(c.Sampling.BusyPolicy),
	}
}

// Pins returns the gpio backend configuration.
func (c Config) Pins() gpio.Config {
	return gpio.Config{
		Chip:       c.GPIO.Chip,
		PinOpen:    c.GPIO.PinOpen,
		PinClose:   c.GPIO.PinClose,
		PinOperate: c.GPIO.PinOperate,
		ActiveLow:  c.GPIO.ActiveLow,
	}
}
