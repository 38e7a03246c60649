package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/logging"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/metrics"
)

type subscription struct {
	subscriber ports.EventSubscriber
	queue      chan domain.DomainEvent
}

// EventBus delivers each published event to every subscriber through a
// per-subscriber bounded queue. A slow or failing subscriber never delays
// the others or the publisher.
type EventBus struct {
	buffer  int
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu      sync.RWMutex
	subs    []*subscription
	started bool
	closed  bool
	wg      sync.WaitGroup
}

var _ ports.EventPublisher = (*EventBus)(nil)

// NewEventBus creates a bus whose subscriber queues hold buffer events.
func NewEventBus(buffer int, m *metrics.Metrics, logger *slog.Logger) *EventBus {
	if buffer <= 0 {
		buffer = 256
	}
	return &EventBus{
		buffer:  buffer,
		metrics: m,
		logger:  logger.With("component", "event_bus"),
	}
}

// Subscribe registers a subscriber. It must be called before Start.
func (b *EventBus) Subscribe(sub ports.EventSubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		panic("event bus: Subscribe after Start")
	}
	b.subs = append(b.subs, &subscription{
		subscriber: sub,
		queue:      make(chan domain.DomainEvent, b.buffer),
	})
}

// Start launches one consumer goroutine per subscriber.
func (b *EventBus) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return
	}
	b.started = true

	for _, s := range b.subs {
		b.wg.Add(1)
		go b.consume(ctx, s)
	}
	b.logger.Info("event bus started", "subscribers", len(b.subs))
}

// Publish enqueues event for every subscriber without blocking. Events
// that do not fit a full queue are dropped for that subscriber only.
func (b *EventBus) Publish(event domain.DomainEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("publish on closed event bus", "event_type", event.Type())
		return
	}

	b.metrics.BusPublished.WithLabelValues(string(event.Type())).Inc()
	for _, s := range b.subs {
		select {
		case s.queue <- event:
		default:
			b.metrics.BusDropped.WithLabelValues(s.subscriber.Name()).Inc()
			b.logger.Warn("subscriber queue full, event dropped",
				"subscriber", s.subscriber.Name(),
				"event_type", event.Type(),
			)
		}
	}
}

// Close stops accepting events, drains queued ones and waits for the
// consumers to finish.
func (b *EventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.queue)
	}
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("event bus stopped")
}

func (b *EventBus) consume(ctx context.Context, s *subscription) {
	defer b.wg.Done()

	// Handlers still run for events queued before Close even if ctx has
	// been cancelled by shutdown.
	handleCtx := context.WithoutCancel(ctx)
	for event := range s.queue {
		b.handle(handleCtx, s.subscriber, event)
	}
}

func (b *EventBus) handle(ctx context.Context, sub ports.EventSubscriber, event domain.DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			logging.LogPanic(b.logger.With("subscriber", sub.Name(), "event_type", event.Type()), r)
		}
	}()

	sub.Handle(logging.WithEventType(ctx, string(event.Type())), event)
}
