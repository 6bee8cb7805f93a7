package bus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gauge-analytics/influence/internal/domain"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestChannelBusDelivery(t *testing.T) {
	ctx := context.Background()
	b := NewChannelBus(16)
	defer b.Close()

	var received atomic.Int64
	var lastPayload atomic.Value

	sub, err := b.Subscribe(ctx, "events.test", func(ctx context.Context, msg *domain.Message) error {
		received.Add(1)
		lastPayload.Store(string(msg.Payload))
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if sub.Topic() != "events.test" {
		t.Errorf("unexpected topic: %q", sub.Topic())
	}

	if err := b.Publish(ctx, "events.test", []byte("hello")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	waitFor(t, func() bool { return received.Load() == 1 })
	if got := lastPayload.Load(); got != "hello" {
		t.Errorf("expected payload \"hello\", got %v", got)
	}
}

func TestChannelBusTopicIsolation(t *testing.T) {
	ctx := context.Background()
	b := NewChannelBus(16)
	defer b.Close()

	var received atomic.Int64
	_, err := b.Subscribe(ctx, "events.a", func(ctx context.Context, msg *domain.Message) error {
		received.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	_ = b.Publish(ctx, "events.b", []byte("other topic"))
	_ = b.Publish(ctx, "events.a", []byte("mine"))

	waitFor(t, func() bool { return received.Load() == 1 })
	time.Sleep(20 * time.Millisecond)
	if got := received.Load(); got != 1 {
		t.Errorf("expected exactly 1 delivery, got %d", got)
	}
}

func TestChannelBusMultipleSubscribers(t *testing.T) {
	ctx := context.Background()
	b := NewChannelBus(16)
	defer b.Close()

	var a, c atomic.Int64
	_, _ = b.Subscribe(ctx, "events.test", func(ctx context.Context, msg *domain.Message) error {
		a.Add(1)
		return nil
	})
	_, _ = b.Subscribe(ctx, "events.test", func(ctx context.Context, msg *domain.Message) error {
		c.Add(1)
		return nil
	})

	_ = b.Publish(ctx, "events.test", []byte("fan out"))

	waitFor(t, func() bool { return a.Load() == 1 && c.Load() == 1 })
}

func TestChannelBusUnsubscribe(t *testing.T) {
	ctx := context.Background()
	b := NewChannelBus(16)
	defer b.Close()

	var received atomic.Int64
	sub, err := b.Subscribe(ctx, "events.test", func(ctx context.Context, msg *domain.Message) error {
		received.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	_ = b.Publish(ctx, "events.test", []byte("one"))
	waitFor(t, func() bool { return received.Load() == 1 })

	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	_ = b.Publish(ctx, "events.test", []byte("two"))

	time.Sleep(20 * time.Millisecond)
	if got := received.Load(); got != 1 {
		t.Errorf("expected no deliveries after unsubscribe, got %d", got)
	}
}

func TestChannelBusClose(t *testing.T) {
	ctx := context.Background()
	b := NewChannelBus(16)

	if err := b.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := b.Ping(ctx); err == nil {
		t.Error("expected Ping to fail after close")
	}
	if err := b.Publish(ctx, "events.test", nil); err == nil {
		t.Error("expected Publish to fail after close")
	}
	if _, err := b.Subscribe(ctx, "events.test", nil); err == nil {
		t.Error("expected Subscribe to fail after close")
	}
	// Close is idempotent.
	if err := b.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestNewSelectsChannelBus(t *testing.T) {
	b, err := New(domain.EventBusConfig{Type: "channel", ChannelBufferSize: 8})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer b.Close()

	if _, err := New(domain.EventBusConfig{Type: "kafka"}); err == nil {
		t.Error("expected unsupported bus type to be rejected")
	}
}
