// Package memory provides process-local repositories used when no
// database is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
)

// TemplateRepository keeps custom templates in a map.
type TemplateRepository struct {
	mu        sync.RWMutex
	templates map[string]domain.Template
}

var _ ports.TemplateRepository = (*TemplateRepository)(nil)

func NewTemplateRepository() *TemplateRepository {
	return &TemplateRepository{templates: make(map[string]domain.Template)}
}

func (r *TemplateRepository) GetCustom(_ context.Context, name string) (*domain.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[name]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &t, nil
}

func (r *TemplateRepository) ListCustom(_ context.Context) ([]*domain.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Template, 0, len(r.templates))
	for _, t := range r.templates {
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *TemplateRepository) UpsertCustom(_ context.Context, tmpl *domain.Template) (*domain.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *tmpl
	stored.IsCustom = true
	r.templates[tmpl.Name] = stored
	return &stored, nil
}

func (r *TemplateRepository) DeleteCustom(_ context.Context, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.templates[name]
	delete(r.templates, name)
	return ok, nil
}
