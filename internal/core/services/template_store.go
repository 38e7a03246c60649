package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
)

const maxTemplateBodySize = 64 * 1024

// TemplateStore resolves templates in two tiers: a custom override when one
// is stored, otherwise the shipped default. Defaults are never modified.
type TemplateStore struct {
	repo     ports.TemplateRepository
	defaults map[string]domain.Template
	registry ports.EventRegistry
	renderer ports.Renderer
	logger   *slog.Logger
}

var _ ports.TemplateService = (*TemplateStore)(nil)

// NewTemplateStore creates a new template store
func NewTemplateStore(
	repo ports.TemplateRepository,
	defaults map[string]domain.Template,
	registry ports.EventRegistry,
	renderer ports.Renderer,
	logger *slog.Logger,
) *TemplateStore {
	return &TemplateStore{
		repo:     repo,
		defaults: defaults,
		registry: registry,
		renderer: renderer,
		logger:   logger.With("component", "template_store"),
	}
}

// Get returns the effective template: the custom override if present,
// otherwise the default.
func (s *TemplateStore) Get(ctx context.Context, name string) (*domain.Template, error) {
	def, err := s.Default(name)
	if err != nil {
		return nil, err
	}

	custom, err := s.repo.GetCustom(ctx, name)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return def, nil
		}
		return nil, fmt.Errorf("load custom template %q: %w", name, err)
	}

	custom.Name = name
	custom.IsCustom = true
	return custom, nil
}

// Save validates and stores a custom override for a registered template.
func (s *TemplateStore) Save(ctx context.Context, params ports.SaveTemplateParams) (*domain.Template, error) {
	def, err := s.Default(params.Name)
	if err != nil {
		return nil, err
	}

	eventDef, ok := s.registry.DefinitionForTemplate(params.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not bound to an event", apperrors.ErrUnknownTemplate, params.Name)
	}

	verrs := apperrors.NewValidationErrors()
	if strings.TrimSpace(params.Body) == "" {
		verrs.Add("body", "body is required")
	}
	if len(params.Body) > maxTemplateBodySize {
		verrs.Add("body", fmt.Sprintf("body must be at most %d bytes", maxTemplateBodySize))
	}
	if verrs.HasErrors() {
		return nil, verrs
	}

	subject := strings.TrimSpace(params.Subject)
	if subject == "" {
		subject = def.Subject
	}

	if err := s.renderer.Check(params.Name, subject, params.Body, eventDef); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	saved, err := s.repo.UpsertCustom(ctx, &domain.Template{
		Name:      params.Name,
		Subject:   subject,
		Body:      params.Body,
		IsCustom:  true,
		UpdatedAt: &now,
	})
	if err != nil {
		return nil, fmt.Errorf("save custom template %q: %w", params.Name, err)
	}

	s.logger.InfoContext(ctx, "custom template saved", "template", params.Name)
	saved.IsCustom = true
	return saved, nil
}

// ResetToDefault drops any custom override. It is a no-op when none exists.
func (s *TemplateStore) ResetToDefault(ctx context.Context, name string) error {
	if _, err := s.Default(name); err != nil {
		return err
	}

	removed, err := s.repo.DeleteCustom(ctx, name)
	if err != nil {
		return fmt.Errorf("reset template %q: %w", name, err)
	}
	if removed {
		s.logger.InfoContext(ctx, "template reset to default", "template", name)
	}
	return nil
}

// List returns every registered template in name order with its effective
// content.
func (s *TemplateStore) List(ctx context.Context) ([]*domain.Template, error) {
	customs, err := s.repo.ListCustom(ctx)
	if err != nil {
		return nil, fmt.Errorf("list custom templates: %w", err)
	}

	byName := make(map[string]*domain.Template, len(customs))
	for _, c := range customs {
		byName[c.Name] = c
	}

	names := make([]string, 0, len(s.defaults))
	for name := range s.defaults {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*domain.Template, 0, len(names))
	for _, name := range names {
		if c, ok := byName[name]; ok {
			c.IsCustom = true
			out = append(out, c)
			continue
		}
		def := s.defaults[name]
		out = append(out, &def)
	}
	return out, nil
}

// Default returns a copy of the shipped template.
func (s *TemplateStore) Default(name string) (*domain.Template, error) {
	def, ok := s.defaults[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownTemplate, name)
	}
	def.IsCustom = false
	def.UpdatedAt = nil
	return &def, nil
}
