// Package status provides a thread-safe status tracker for the garage-door
// daemon. It holds uptime, command counters and connectivity; door state is
// never cached here because it is always re-read from the hardware.
package status

import (
	"fmt"
	"sync"
	"time"

	"github.com/sweeney/garage-door/internal/door"
)

// NetworkInfo contains network state as written by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	HTTPAddr     string
	Broker       string
	HeartbeatMs  int64
	GPIOBackend  string
	BusyPolicy   string
	Unauthorized string
	Keys         int // number of configured keys, never the keys themselves
}

// Counts tracks request outcomes since startup.
type Counts struct {
	Open           int
	Close          int
	Operate        int
	Status         int
	Pulses         int
	AuthFailures   int
	Busy           int
	HardwareErrors int
}

// LastCommand describes the most recent dispatched command.
type LastCommand struct {
	Command door.Command
	Pulsed  bool
	Message string
	Time    time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	StartTime     time.Time
	Now           time.Time
	Counts        Counts
	Last          *LastCommand
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// FormatUptime renders d as "<d> days, <h> hours, <m> minutes, <s> seconds".
func FormatUptime(d time.Duration) string {
	secs := int64(d.Truncate(time.Second).Seconds())
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%d days, %d hours, %d minutes, %d seconds",
		secs/86400, (secs/3600)%24, (secs/60)%60, secs%60)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// SetClock replaces the time source used for snapshots and timestamps.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// RecordOutcome counts a dispatched command and remembers it as the last one.
func (t *Tracker) RecordOutcome(out door.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch out.Command {
	case door.CommandOpen:
		t.snap.Counts.Open++
	case door.CommandClose:
		t.snap.Counts.Close++
	case door.CommandOperate:
		t.snap.Counts.Operate++
	}
	if out.Pulsed {
		t.snap.Counts.Pulses++
	}
	t.snap.Last = &LastCommand{
		Command: out.Command,
		Pulsed:  out.Pulsed,
		Message: out.Message,
		Time:    t.now(),
	}
}

// RecordStatus counts a status query.
func (t *Tracker) RecordStatus() {
	t.mu.Lock()
	t.snap.Counts.Status++
	t.mu.Unlock()
}

// RecordAuthFailure counts a request with a missing or invalid key.
func (t *Tracker) RecordAuthFailure() {
	t.mu.Lock()
	t.snap.Counts.AuthFailures++
	t.mu.Unlock()
}

// RecordBusy counts a request rejected because the hardware was in use.
func (t *Tracker) RecordBusy() {
	t.mu.Lock()
	t.snap.Counts.Busy++
	t.mu.Unlock()
}

// RecordHardwareError counts a failed hardware sequence.
func (t *Tracker) RecordHardwareError() {
	t.mu.Lock()
	t.snap.Counts.HardwareErrors++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.Last != nil {
		last := *s.Last
		s.Last = &last
	}
	now := t.now
	t.mu.RUnlock()
	s.Now = now()
	return s
}
