package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prajwalc1/employee-timeline/internal/adapters/primary/validation"
	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
)

const (
	defaultPreviewLimit = 20
	maxPreviewLimit     = 100
)

// NotificationHandler serves test notifications, preview captures, the
// event registry and the provider configuration.
type NotificationHandler struct {
	dispatcher   ports.Dispatcher
	registry     ports.EventRegistry
	previews     ports.PreviewHistory
	providerCfg  ports.ProviderConfigService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

func NewNotificationHandler(
	dispatcher ports.Dispatcher,
	registry ports.EventRegistry,
	previews ports.PreviewHistory,
	providerCfg ports.ProviderConfigService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		dispatcher:   dispatcher,
		registry:     registry,
		previews:     previews,
		providerCfg:  providerCfg,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "notifications"),
	}
}

func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Post("/test", h.HandleTest)
	r.Get("/previews", h.HandleListPreviews)
	r.Get("/events", h.HandleListEvents)
	r.Get("/provider", h.HandleGetProvider)
	r.Put("/provider", h.HandleUpdateProvider)
}

// HandleTest handles POST /admin/notifications/test. The dispatch always
// goes to the preview provider.
func (h *NotificationHandler) HandleTest(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[TestNotificationRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	eventType := domain.EventType(req.EventType)
	rc := domain.RenderContext(req.Context)
	if rc == nil {
		def, err := h.registry.Lookup(eventType)
		if HandleError(w, r, err, h.errorHandler) {
			return
		}
		rc = domain.RenderContext(domain.CopyPayload(def.Sample))
	}

	result, err := h.dispatcher.Preview(r.Context(), eventType, rc)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(r.Context(), "test notification captured", "event_type", eventType)
	WriteJSON(w, http.StatusOK, toDeliveryResultDTO(*result))
}

// HandleListPreviews handles GET /admin/notifications/previews?limit=
func (h *NotificationHandler) HandleListPreviews(w http.ResponseWriter, r *http.Request) {
	limit := validation.ParseIntQueryParam(r, "limit", defaultPreviewLimit)
	if limit == 0 || limit > maxPreviewLimit {
		limit = maxPreviewLimit
	}

	recent := h.previews.Recent(limit)
	response := make([]DeliveryResultDTO, 0, len(recent))
	for _, res := range recent {
		response = append(response, toDeliveryResultDTO(res))
	}
	WriteList(w, response)
}

// HandleListEvents handles GET /admin/notifications/events
func (h *NotificationHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	defs := h.registry.Definitions()
	response := make([]EventDefinitionDTO, 0, len(defs))
	for _, def := range defs {
		response = append(response, toEventDefinitionDTO(def))
	}
	WriteList(w, response)
}

// HandleGetProvider handles GET /admin/notifications/provider
func (h *NotificationHandler) HandleGetProvider(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.providerCfg.View(r.Context()))
}

// HandleUpdateProvider handles PUT /admin/notifications/provider
func (h *NotificationHandler) HandleUpdateProvider(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[UpdateProviderRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	view, err := h.providerCfg.Update(r.Context(), ports.UpdateProviderConfigParams{
		Kind:           domain.ProviderKind(req.Kind),
		Host:           req.Host,
		Port:           req.Port,
		Username:       req.Username,
		Password:       req.Password,
		FromAddress:    req.FromAddress,
		FromName:       req.FromName,
		SendmailPath:   req.SendmailPath,
		TLSPolicy:      domain.TLSPolicy(req.TLSPolicy),
		TimeoutSeconds: req.TimeoutSeconds,
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteJSON(w, http.StatusOK, view)
}
