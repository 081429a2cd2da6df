package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// MemoryBus is an in-process event bus used when EventStoreDB is not
// configured, and in tests. Delivery is synchronous: Publish invokes every
// matching handler before returning, but handler errors are logged, not
// propagated, so notification failures cannot fail the publishing mutation.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   []memorySub
	logger *zap.Logger
}

type memorySub struct {
	pattern  string
	consumer string
	handler  Handler
}

// NewMemoryBus creates an in-process event bus
func NewMemoryBus(logger *zap.Logger) *MemoryBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryBus{logger: logger}
}

// Publish delivers the event to every subscriber whose pattern matches.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	subs := make([]memorySub, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if !matchesPattern(event.Type, s.pattern) {
			continue
		}
		if err := s.handler(ctx, event); err != nil {
			b.logger.Warn("event handler failed",
				zap.String("consumer", s.consumer),
				zap.String("event_type", event.Type),
				zap.Error(err))
		}
	}
	return nil
}

// Subscribe registers a handler for events matching the pattern.
func (b *MemoryBus) Subscribe(ctx context.Context, pattern string, consumerName string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, memorySub{pattern: pattern, consumer: consumerName, handler: handler})
	return nil
}

// Close is a no-op for the in-process bus.
func (b *MemoryBus) Close() {}

// Health always reports healthy.
func (b *MemoryBus) Health() error { return nil }

var _ EventBus = (*MemoryBus)(nil)
