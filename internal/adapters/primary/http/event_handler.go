package http

import (
	"log/slog"
	"net/http"

	"github.com/prajwalc1/employee-timeline/internal/adapters/primary/validation"
	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/logging"
)

// EventHandler lets business services publish domain events over HTTP.
type EventHandler struct {
	notifications ports.NotificationService
	errorHandler  *ErrorHandler
	logger        *slog.Logger
}

func NewEventHandler(notifications ports.NotificationService, errorHandler *ErrorHandler, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		notifications: notifications,
		errorHandler:  errorHandler,
		logger:        logger.With("handler", "events"),
	}
}

// HandlePublish handles POST /events. Delivery is asynchronous, so a
// registered event is acknowledged with 202 regardless of its outcome.
func (h *EventHandler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[PublishEventRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	ctx := logging.WithEventType(r.Context(), req.Type)
	if err := h.notifications.SendNotification(ctx, domain.EventType(req.Type), req.Payload); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteAccepted(w, "event accepted")
}
