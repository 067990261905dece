package mqtt

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sony/gobreaker"
)

const (
	bufferCapacity = 100
	publishTimeout = 5 * time.Second
)

var errPublishTimeout = errors.New("publish timeout")

// Options configures a RealPublisher.
type Options struct {
	Broker   string
	ClientID string
	// ConnectTimeout bounds the initial connection attempts.
	ConnectTimeout time.Duration
}

// RealPublisher publishes to an actual MQTT broker.
// Messages published while the connection is down are buffered and replayed
// on reconnect.
type RealPublisher struct {
	client paho.Client
	cb     *gobreaker.CircuitBreaker

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool // at least one successful connection
	now       func() time.Time
}

// NewRealPublisher connects to the broker, retrying with exponential backoff
// until opts.ConnectTimeout elapses.
func NewRealPublisher(opts Options) (*RealPublisher, error) {
	p := newPublisher(nil)

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	clientOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})
	p.client = paho.NewClient(clientOpts)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = opts.ConnectTimeout
	err := backoff.Retry(func() error {
		token := p.client.Connect()
		if !token.WaitTimeout(10 * time.Second) {
			return fmt.Errorf("connection timeout")
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: connect to %s failed: %v", opts.Broker, err)
			return err
		}
		return nil
	}, bo)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

func newPublisher(client paho.Client) *RealPublisher {
	return &RealPublisher{
		client: client,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "mqtt-publish",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("mqtt: breaker %s %s -> %s", name, from, to)
			},
		}),
		buf: newRingBuffer(bufferCapacity),
		now: time.Now,
	}
}

// onConnect replays buffered messages. Reconnections are announced first.
func (p *RealPublisher) onConnect(_ paho.Client) {
	p.mu.Lock()
	reconnect := p.connected
	p.connected = true
	pending := p.buf.drainAll()
	p.mu.Unlock()

	if reconnect {
		log.Printf("mqtt: reconnected, replaying %d buffered messages", len(pending))
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"})
		if err := p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1}); err != nil {
			log.Printf("mqtt: publish reconnected event: %v", err)
		}
	}
	for i, msg := range pending {
		if err := p.send(msg); err != nil {
			log.Printf("mqtt: replay failed after %d of %d messages: %v", i, len(pending), err)
			p.mu.Lock()
			for _, m := range pending[i:] {
				p.buf.push(m)
			}
			p.mu.Unlock()
			return
		}
	}
}

// Publish sends a door command event to the MQTT broker.
func (p *RealPublisher) Publish(event CommandEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(bufferedMsg{topic: Topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) - lifecycle events should be delivered
	return p.publish(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) publish(msg bufferedMsg) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.buf.push(msg)
		p.mu.Unlock()
		return nil
	}

	err := p.send(msg)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		p.mu.Lock()
		p.buf.push(msg)
		p.mu.Unlock()
	}
	return err
}

func (p *RealPublisher) send(msg bufferedMsg) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		if !token.WaitTimeout(publishTimeout) {
			return nil, errPublishTimeout
		}
		return nil, token.Error()
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
