package services

import (
	"context"
	"log/slog"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
)

// NotificationService is the entry point for business logic. It publishes
// the event and returns; delivery happens asynchronously on the bus.
type NotificationService struct {
	registry  ports.EventRegistry
	publisher ports.EventPublisher
	logger    *slog.Logger
}

var _ ports.NotificationService = (*NotificationService)(nil)

// NewNotificationService creates a new notification service
func NewNotificationService(registry ports.EventRegistry, publisher ports.EventPublisher, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		registry:  registry,
		publisher: publisher,
		logger:    logger.With("component", "notification_service"),
	}
}

// SendNotification rejects unknown event types and publishes the rest.
func (s *NotificationService) SendNotification(ctx context.Context, eventType domain.EventType, payload map[string]any) error {
	if _, err := s.registry.Lookup(eventType); err != nil {
		return err
	}

	s.publisher.Publish(domain.NewDomainEvent(eventType, payload))
	s.logger.DebugContext(ctx, "domain event published", "event_type", eventType)
	return nil
}
