// Package loader fetches the three raw resources, normalizes them and swaps
// the collections into the view state.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gauge-analytics/influence/internal/domain"
	"github.com/gauge-analytics/influence/internal/normalize"
	"github.com/gauge-analytics/influence/internal/view"
)

// Loader runs the fetch → normalize → swap pipeline.
type Loader struct {
	source domain.DataSource
	state  *view.State
	bus    domain.EventBus
}

// New creates a loader.
func New(source domain.DataSource, state *view.State, bus domain.EventBus) *Loader {
	return &Loader{source: source, state: state, bus: bus}
}

// loadedEvent is the payload published on TopicResourceLoaded.
type loadedEvent struct {
	Resource string `json:"resource"`
	Count    int    `json:"count"`
}

// Load fetches all resources concurrently. The fetches are independent and
// complete in any order; each swaps only its own collection, so a second
// Load overwrites resource by resource rather than atomically. A failed
// resource is logged and left as it was — empty on first load — and reported
// in the joined error.
func (l *Loader) Load(ctx context.Context) error {
	// One "now" per pass: user ages reflect the load instant, not later
	// reads.
	norm := normalize.New(time.Now().UTC())

	var wg sync.WaitGroup
	errs := make([]error, len(domain.Resources))
	for i, resource := range domain.Resources {
		wg.Add(1)
		go func(i int, resource string) {
			defer wg.Done()
			errs[i] = l.loadResource(ctx, norm, resource)
		}(i, resource)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (l *Loader) loadResource(ctx context.Context, norm *normalize.Normalizer, resource string) error {
	start := time.Now()

	payload, err := l.source.Fetch(ctx, resource)
	if err != nil {
		slog.Warn("fetch failed, resource left unchanged",
			"resource", resource,
			"error", err,
		)
		return fmt.Errorf("fetch %s: %w", resource, err)
	}

	var count int
	switch resource {
	case domain.ResourceBrands:
		brands, err := norm.Brands(payload)
		if err != nil {
			slog.Warn("normalize failed, resource left unchanged",
				"resource", resource,
				"error", err,
			)
			return fmt.Errorf("normalize %s: %w", resource, err)
		}
		l.state.SetBrands(brands)
		count = len(brands)

	case domain.ResourceUsers:
		users, err := norm.Users(payload)
		if err != nil {
			slog.Warn("normalize failed, resource left unchanged",
				"resource", resource,
				"error", err,
			)
			return fmt.Errorf("normalize %s: %w", resource, err)
		}
		l.state.SetUsers(users)
		count = len(users)

	case domain.ResourceInteractions:
		interactions, types, err := norm.Interactions(payload)
		if err != nil {
			slog.Warn("normalize failed, resource left unchanged",
				"resource", resource,
				"error", err,
			)
			return fmt.Errorf("normalize %s: %w", resource, err)
		}
		l.state.SetInteractions(interactions, types)
		count = len(interactions)

	default:
		return fmt.Errorf("unknown resource: %s", resource)
	}

	slog.Info("resource loaded",
		"resource", resource,
		"count", count,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if l.bus != nil {
		payload, _ := json.Marshal(loadedEvent{Resource: resource, Count: count})
		if err := l.bus.Publish(ctx, domain.TopicResourceLoaded, payload); err != nil {
			slog.Warn("publish resource.loaded failed", "error", err)
		}
	}
	return nil
}
