package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
)

// RecipientUserKey is the reserved payload key naming the user that should
// receive the realtime notification. Without it the message is broadcast.
const RecipientUserKey = "recipientUserId"

// EmailSubscriber hands every event to the dispatcher. Failures are
// logged; they never reach the code that published the event.
type EmailSubscriber struct {
	dispatcher ports.Dispatcher
	logger     *slog.Logger
}

var _ ports.EventSubscriber = (*EmailSubscriber)(nil)

// NewEmailSubscriber creates the email path of the event bus
func NewEmailSubscriber(dispatcher ports.Dispatcher, logger *slog.Logger) *EmailSubscriber {
	return &EmailSubscriber{
		dispatcher: dispatcher,
		logger:     logger.With("component", "email_subscriber"),
	}
}

func (s *EmailSubscriber) Name() string { return "email" }

func (s *EmailSubscriber) Handle(ctx context.Context, event domain.DomainEvent) {
	_, err := s.dispatcher.Dispatch(ctx, event.Type(), event.Payload())
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrRateLimited):
		s.logger.WarnContext(ctx, "email notification rate limited", "event_type", event.Type())
	case errors.Is(err, apperrors.ErrMissingVariable), errors.Is(err, apperrors.ErrRenderFailed):
		s.logger.ErrorContext(ctx, "email notification could not be rendered", "event_type", event.Type(), "error", err)
	default:
		s.logger.ErrorContext(ctx, "email notification failed", "event_type", event.Type(), "error", err)
	}
}

var realtimeText = map[domain.EventType]string{
	domain.EventLeaveRequestCreated:   "A new leave request has been submitted",
	domain.EventLeaveRequestApproved:  "Your leave request has been approved",
	domain.EventLeaveRequestDenied:    "Your leave request has been denied",
	domain.EventLeaveRequestCancelled: "A leave request has been cancelled",
	domain.EventTimeEntryReminder:     "Please log your time entries",
	domain.EventTimeEntryApproved:     "Your time entry has been approved",
	domain.EventMonthlyReport:         "Your monthly report is ready",
}

// RealtimeSubscriber converts events into realtime messages for the hub.
type RealtimeSubscriber struct {
	registry    ports.EventRegistry
	broadcaster ports.EventBroadcaster
	logger      *slog.Logger
}

var _ ports.EventSubscriber = (*RealtimeSubscriber)(nil)

// NewRealtimeSubscriber creates the realtime path of the event bus
func NewRealtimeSubscriber(registry ports.EventRegistry, broadcaster ports.EventBroadcaster, logger *slog.Logger) *RealtimeSubscriber {
	return &RealtimeSubscriber{
		registry:    registry,
		broadcaster: broadcaster,
		logger:      logger.With("component", "realtime_subscriber"),
	}
}

func (s *RealtimeSubscriber) Name() string { return "realtime" }

func (s *RealtimeSubscriber) Handle(ctx context.Context, event domain.DomainEvent) {
	def, err := s.registry.Lookup(event.Type())
	if err != nil {
		s.logger.WarnContext(ctx, "realtime notification skipped", "event_type", event.Type(), "error", err)
		return
	}
	if def.Realtime == "" {
		return
	}

	payload := event.Payload()
	fields := map[string]any{"eventType": string(event.Type())}
	if lr, ok := payload["leaveRequest"].(map[string]any); ok {
		if id, ok := lr["id"]; ok {
			fields["leaveRequestId"] = id
		}
	}

	text, ok := realtimeText[event.Type()]
	if !ok {
		text = string(event.Type())
	}
	msg := domain.NewNotificationMessage(def.Realtime, text, fields)

	raw, ok := payload[RecipientUserKey].(string)
	if !ok || raw == "" {
		s.broadcaster.Broadcast(msg)
		return
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "invalid realtime recipient, notification skipped", "recipient", raw)
		return
	}
	s.broadcaster.SendToUser(userID, msg)
}
