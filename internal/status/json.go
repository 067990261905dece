package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Uptime        string       `json:"uptime"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Last          *LastJSON    `json:"last_command,omitempty"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of request counts.
type CountsJSON struct {
	Open           int `json:"open"`
	Close          int `json:"close"`
	Operate        int `json:"operate"`
	Status         int `json:"status"`
	Pulses         int `json:"pulses"`
	AuthFailures   int `json:"auth_failures"`
	Busy           int `json:"busy"`
	HardwareErrors int `json:"hardware_errors"`
}

// LastJSON is the JSON representation of the last dispatched command.
type LastJSON struct {
	Command   string `json:"command"`
	Pulsed    bool   `json:"pulsed"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	HTTPAddr     string `json:"http_addr"`
	Broker       string `json:"broker"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	GPIOBackend  string `json:"gpio_backend"`
	BusyPolicy   string `json:"busy_policy"`
	Unauthorized string `json:"unauthorized"`
	Keys         int    `json:"keys"`
}

func buildInner(snap Snapshot) StatusInner {
	c := snap.Counts
	inner := StatusInner{
		Uptime:        FormatUptime(snap.Uptime()),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Open:           c.Open,
			Close:          c.Close,
			Operate:        c.Operate,
			Status:         c.Status,
			Pulses:         c.Pulses,
			AuthFailures:   c.AuthFailures,
			Busy:           c.Busy,
			HardwareErrors: c.HardwareErrors,
		},
		Config: ConfigJSON{
			HTTPAddr:     snap.Config.HTTPAddr,
			Broker:       snap.Config.Broker,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			GPIOBackend:  snap.Config.GPIOBackend,
			BusyPolicy:   snap.Config.BusyPolicy,
			Unauthorized: snap.Config.Unauthorized,
			Keys:         snap.Config.Keys,
		},
	}
	if snap.Last != nil {
		inner.Last = &LastJSON{
			Command:   string(snap.Last.Command),
			Pulsed:    snap.Last.Pulsed,
			Message:   snap.Last.Message,
			Timestamp: snap.Last.Time.UTC().Format(time.RFC3339),
		}
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
