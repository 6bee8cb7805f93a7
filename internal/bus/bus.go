// Package bus provides the in-process event bus carrying dataset and filter
// lifecycle events.
package bus

import (
	"fmt"

	"github.com/gauge-analytics/influence/internal/domain"
)

// New creates an event bus based on configuration. Only the channel backend
// exists: nothing leaves the process, and nothing is pushed to clients.
func New(cfg domain.EventBusConfig) (domain.EventBus, error) {
	switch cfg.Type {
	case "", "channel":
		return NewChannelBus(cfg.ChannelBufferSize), nil

	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}
}
