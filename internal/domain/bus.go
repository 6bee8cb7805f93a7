package domain

import "context"

// EventBus carries dataset and filter lifecycle events between components in
// the same process. There is deliberately no cross-process backend: the
// derived views are session-local and nothing is pushed to clients.
type EventBus interface {
	// Publish sends a message to a topic.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers a handler for a topic. The returned subscription
	// can be used to stop receiving messages.
	Subscribe(ctx context.Context, topic string, handler MessageHandler) (Subscription, error)

	// Ping verifies the bus is usable.
	Ping(ctx context.Context) error

	// Close shuts the bus down and cancels all subscriptions.
	Close() error
}

// MessageHandler processes incoming messages.
type MessageHandler func(ctx context.Context, msg *Message) error

// Message is an event on the bus.
type Message struct {
	ID        string `json:"id"`
	Topic     string `json:"topic"`
	Payload   []byte `json:"payload"`
	Timestamp int64  `json:"timestamp"`
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe stops receiving messages.
	Unsubscribe() error

	// Topic returns the subscribed topic.
	Topic() string
}

// EventBusConfig holds configuration for event bus initialization.
type EventBusConfig struct {
	// Type is the bus type; only "channel" is supported.
	Type string `json:"type"`

	// ChannelBufferSize bounds each subscriber's queue.
	ChannelBufferSize int `json:"channelBufferSize"`
}

// Lifecycle topics.
const (
	// TopicResourceLoaded fires after a resource has been fetched,
	// normalized and swapped into the view state.
	TopicResourceLoaded = "influence.resource.loaded"

	// TopicFiltersChanged fires on any filter, activation or segment
	// mutation.
	TopicFiltersChanged = "influence.filters.changed"

	// TopicSortChanged fires when the sort specification changes.
	TopicSortChanged = "influence.sort.changed"
)
