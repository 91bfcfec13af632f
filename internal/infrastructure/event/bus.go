// Package event provides in-process domain event dispatch.
package event

import (
	"sync"

	"go.uber.org/zap"

	"github.com/crossbay/backend/internal/domain/shared"
)

// Handler consumes domain events of the types it subscribed to
type Handler func(event shared.DomainEvent)

// InMemoryBus is a synchronous in-process event publisher. Handlers run on
// the publishing goroutine; a handler panic is contained and logged so one
// bad subscriber cannot fail the financial operation that emitted the event.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

// NewInMemoryBus creates an empty bus
func NewInMemoryBus(logger *zap.Logger) *InMemoryBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for the given event types
func (b *InMemoryBus) Subscribe(handler Handler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range eventTypes {
		b.handlers[t] = append(b.handlers[t], handler)
	}
}

// Publish dispatches the event to all handlers subscribed to its type
func (b *InMemoryBus) Publish(event shared.DomainEvent) error {
	b.mu.RLock()
	handlers := b.handlers[event.EventType()]
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(h, event)
	}
	return nil
}

func (b *InMemoryBus) dispatch(h Handler, event shared.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Any("panic", r))
		}
	}()
	h(event)
}

var _ shared.EventPublisher = (*InMemoryBus)(nil)
