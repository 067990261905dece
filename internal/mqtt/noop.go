package mqtt

// NoopPublisher discards every event. Used when no broker is configured.
type NoopPublisher struct{}

// Publish implements Publisher.Publish.
func (NoopPublisher) Publish(CommandEvent) error { return nil }

// PublishSystem implements Publisher.PublishSystem.
func (NoopPublisher) PublishSystem(SystemEvent) error { return nil }

// Close implements Publisher.Close.
func (NoopPublisher) Close() error { return nil }

// IsConnected always reports false.
func (NoopPublisher) IsConnected() bool { return false }
