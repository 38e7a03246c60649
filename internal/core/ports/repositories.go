package ports

import (
	"context"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
)

// TemplateRepository persists custom template overrides. Defaults are never
// stored here; a missing row means the default is in effect.
type TemplateRepository interface {
	// GetCustom returns apperrors.ErrNotFound when no override exists.
	GetCustom(ctx context.Context, name string) (*domain.Template, error)
	ListCustom(ctx context.Context) ([]*domain.Template, error)
	UpsertCustom(ctx context.Context, tmpl *domain.Template) (*domain.Template, error)
	// DeleteCustom reports whether a row was removed.
	DeleteCustom(ctx context.Context, name string) (bool, error)
}

// ProviderConfigRepository persists the single process-wide provider config.
type ProviderConfigRepository interface {
	// Get returns apperrors.ErrNotFound when nothing has been saved yet.
	Get(ctx context.Context) (*domain.ProviderConfig, error)
	Save(ctx context.Context, cfg domain.ProviderConfig) error
}
