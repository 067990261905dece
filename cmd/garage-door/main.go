// Command garage-door serves key-protected HTTP endpoints that read a garage
// door's limit switches and pulse its opener relay.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sweeney/garage-door/internal/access"
	"github.com/sweeney/garage-door/internal/config"
	"github.com/sweeney/garage-door/internal/door"
	"github.com/sweeney/garage-door/internal/gpio"
	"github.com/sweeney/garage-door/internal/metrics"
	"github.com/sweeney/garage-door/internal/mqtt"
	"github.com/sweeney/garage-door/internal/status"
	"github.com/sweeney/garage-door/internal/web"
)

const (
	connectTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	cfg, printState, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(cfg, printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// parseFlags builds the configuration: defaults, then the -config file, then
// any flags given explicitly on the command line.
func parseFlags(fs *flag.FlagSet, args []string) (config.Config, bool, error) {
	def := config.Default()

	path := fs.String("config", "", "YAML configuration file")
	keys := fs.String("keys", "", "Comma-separated access keys")
	httpAddr := fs.String("http", def.HTTPAddr, "HTTP listen address")
	unauthorized := fs.String("unauthorized", def.Unauthorized, `Unauthorized request handling ("reject" answers 401, "drop" closes the connection)`)
	metricsOn := fs.Bool("metrics", def.Metrics, "Serve Prometheus metrics on /metrics")
	backend := fs.String("gpio", def.GPIO.Backend, `GPIO backend ("cdev", "periph", "none")`)
	chip := fs.String("chip", def.GPIO.Chip, "GPIO chip for the cdev backend")
	pinOpen := fs.Int("pin-open", def.GPIO.PinOpen, "BCM pin number for the open limit switch")
	pinClose := fs.Int("pin-close", def.GPIO.PinClose, "BCM pin number for the close limit switch")
	pinOperate := fs.Int("pin-operate", def.GPIO.PinOperate, "BCM pin number for the operate relay")
	activeLow := fs.Bool("active-low", def.GPIO.ActiveLow, "Limit switches pull the line low when engaged")
	samples := fs.Int("samples", def.Sampling.Samples, "Samples per debounced read")
	sampleInterval := fs.Duration("sample-interval", def.Sampling.SampleInterval, "Delay between debounce samples")
	flashWindow := fs.Duration("flash-window", def.Sampling.FlashWindow, "Motion detection window")
	flashPoll := fs.Duration("flash-poll", def.Sampling.FlashPoll, "Delay between motion detection polls")
	pulse := fs.Duration("pulse", def.Sampling.PulseHold, "Relay pulse hold time")
	busy := fs.String("busy", def.Sampling.BusyPolicy, `Concurrent request handling ("queue", "reject")`)
	broker := fs.String("broker", def.MQTT.Broker, "MQTT broker address (empty to disable)")
	heartbeat := fs.Duration("heartbeat", def.MQTT.Heartbeat, "Heartbeat interval (0 to disable)")
	printState := fs.Bool("print-state", false, "Print current door state and exit")

	if err := fs.Parse(args); err != nil {
		return config.Config{}, false, err
	}

	cfg, err := config.Load(*path)
	if err != nil {
		return config.Config{}, false, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "keys":
			cfg.Keys = splitKeys(*keys)
		case "http":
			cfg.HTTPAddr = *httpAddr
		case "unauthorized":
			cfg.Unauthorized = *unauthorized
		case "metrics":
			cfg.Metrics = *metricsOn
		case "gpio":
			cfg.GPIO.Backend = *backend
		case "chip":
			cfg.GPIO.Chip = *chip
		case "pin-open":
			cfg.GPIO.PinOpen = *pinOpen
		case "pin-close":
			cfg.GPIO.PinClose = *pinClose
		case "pin-operate":
			cfg.GPIO.PinOperate = *pinOperate
		case "active-low":
			cfg.GPIO.ActiveLow = *activeLow
		case "samples":
			cfg.Sampling.Samples = *samples
		case "sample-interval":
			cfg.Sampling.SampleInterval = *sampleInterval
		case "flash-window":
			cfg.Sampling.FlashWindow = *flashWindow
		case "flash-poll":
			cfg.Sampling.FlashPoll = *flashPoll
		case "pulse":
			cfg.Sampling.PulseHold = *pulse
		case "busy":
			cfg.Sampling.BusyPolicy = *busy
		case "broker":
			cfg.MQTT.Broker = *broker
		case "heartbeat":
			cfg.MQTT.Heartbeat = *heartbeat
		}
	})

	if err := cfg.Validate(); err != nil {
		return config.Config{}, false, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, *printState, nil
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// eventSink is a publisher that can report its connection state.
type eventSink interface {
	mqtt.Publisher
	mqtt.ConnectionStatus
}

func run(cfg config.Config, printState bool) error {
	pins, err := gpio.Open(cfg.GPIO.Backend, cfg.Pins())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer func() {
		if err := pins.Close(); err != nil {
			log.Printf("gpio: close: %v", err)
		}
	}()
	// Never start with the relay held.
	if err := pins.Write(gpio.LineOperate, false); err != nil {
		return fmt.Errorf("release relay: %w", err)
	}

	engine := door.NewEngine(pins, door.RealClock{}, cfg.Door())

	if printState {
		return printDoorState(os.Stdout, engine)
	}

	gate, err := access.NewGate(cfg.Keys)
	if err != nil {
		return err
	}

	var publisher eventSink = mqtt.NoopPublisher{}
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:         cfg.MQTT.Broker,
			ClientID:       cfg.MQTT.ClientID,
			ConnectTimeout: connectTimeout,
		})
		if err != nil {
			log.Printf("mqtt: %v; event publishing disabled", err)
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		HTTPAddr:     cfg.HTTPAddr,
		Broker:       cfg.MQTT.Broker,
		HeartbeatMs:  cfg.MQTT.Heartbeat.Milliseconds(),
		GPIOBackend:  cfg.GPIO.Backend,
		BusyPolicy:   cfg.Sampling.BusyPolicy,
		Unauthorized: cfg.Unauthorized,
		Keys:         gate.Len(),
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.SetMQTTConnected(publisher.IsConnected())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	opts := web.Options{
		Addr:             cfg.HTTPAddr,
		Gate:             gate,
		Controller:       engine,
		Tracker:          tracker,
		Publisher:        publisher,
		Metrics:          metrics.New(reg),
		DropUnauthorized: cfg.Unauthorized == config.UnauthorizedDrop,
	}
	if cfg.Metrics {
		opts.MetricsHandler = metrics.Handler(reg)
	}
	srv := web.New(opts)

	srvErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
	}()

	log.Printf("started: http=%s gpio=%s keys=%d busy=%s unauthorized=%s broker=%q heartbeat=%v",
		cfg.HTTPAddr, cfg.GPIO.Backend, gate.Len(), cfg.Sampling.BusyPolicy, cfg.Unauthorized, cfg.MQTT.Broker, cfg.MQTT.Heartbeat)

	var tick <-chan time.Time
	if cfg.MQTT.Heartbeat > 0 {
		ticker := time.NewTicker(cfg.MQTT.Heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(publisher, publisher, tracker, time.Now, tick, sigCh, srvErr)
}

// printDoorState classifies once and writes the result.
func printDoorState(w io.Writer, c web.Controller) error {
	cl, err := c.Status(context.Background())
	if err != nil {
		return fmt.Errorf("read door: %w", err)
	}
	fmt.Fprintf(w, "open=%d closed=%d state=%s\n", cl.OpenLimit, cl.CloseLimit, cl.State)
	return nil
}

// runLoop publishes heartbeats until a signal arrives or the HTTP server
// fails. It never touches the hardware.
func runLoop(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, srvErr <-chan error) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			snap := tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case err := <-srvErr:
			return fmt.Errorf("http server: %w", err)

		case <-tick:
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			// Refresh network info for heartbeat
			if net := readNetworkInfo(); net != nil {
				tracker.SetNetwork(net)
			}
			snap := tracker.Snapshot()
			c := snap.Counts
			log.Printf("heartbeat: uptime=%v open=%d close=%d operate=%d status=%d pulses=%d auth_failures=%d",
				snap.Uptime().Truncate(time.Second), c.Open, c.Close, c.Operate, c.Status, c.Pulses, c.AuthFailures)

			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "HEARTBEAT",
				RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
		}
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
