package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prajwalc1/employee-timeline/internal/adapters/primary/validation"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
)

// TemplateHandler serves the template admin surface.
type TemplateHandler struct {
	templates    ports.TemplateService
	registry     ports.EventRegistry
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

func NewTemplateHandler(
	templates ports.TemplateService,
	registry ports.EventRegistry,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *TemplateHandler {
	return &TemplateHandler{
		templates:    templates,
		registry:     registry,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "templates"),
	}
}

func (h *TemplateHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Get("/{name}", h.HandleGet)
	r.Put("/{name}", h.HandleSave)
	r.Post("/{name}/reset", h.HandleReset)
}

// HandleList handles GET /admin/templates
func (h *TemplateHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templates.List(r.Context())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	response := make([]TemplateDTO, 0, len(templates))
	for _, t := range templates {
		def, bound := h.registry.DefinitionForTemplate(t.Name)
		response = append(response, toTemplateDTO(t, def, bound))
	}
	WriteList(w, response)
}

// HandleGet handles GET /admin/templates/{name}
func (h *TemplateHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	tmpl, err := h.templates.Get(r.Context(), name)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	def, bound := h.registry.DefinitionForTemplate(name)
	WriteJSON(w, http.StatusOK, toTemplateDTO(tmpl, def, bound))
}

// HandleSave handles PUT /admin/templates/{name}
func (h *TemplateHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	req, err := validation.DecodeAndValidate[SaveTemplateRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	saved, err := h.templates.Save(r.Context(), ports.SaveTemplateParams{
		Name:    name,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	def, bound := h.registry.DefinitionForTemplate(name)
	WriteJSON(w, http.StatusOK, toTemplateDTO(saved, def, bound))
}

// HandleReset handles POST /admin/templates/{name}/reset and returns the
// now effective default.
func (h *TemplateHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.templates.ResetToDefault(r.Context(), name); HandleError(w, r, err, h.errorHandler) {
		return
	}

	tmpl, err := h.templates.Default(name)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	def, bound := h.registry.DefinitionForTemplate(name)
	WriteJSON(w, http.StatusOK, toTemplateDTO(tmpl, def, bound))
}
