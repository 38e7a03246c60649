package memory

import (
	"context"
	"sync"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
)

// ProviderConfigRepository holds the provider configuration in memory.
type ProviderConfigRepository struct {
	mu  sync.RWMutex
	cfg *domain.ProviderConfig
}

var _ ports.ProviderConfigRepository = (*ProviderConfigRepository)(nil)

func NewProviderConfigRepository() *ProviderConfigRepository {
	return &ProviderConfigRepository{}
}

func (r *ProviderConfigRepository) Get(_ context.Context) (*domain.ProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.cfg == nil {
		return nil, apperrors.ErrNotFound
	}
	cfg := *r.cfg
	return &cfg, nil
}

func (r *ProviderConfigRepository) Save(_ context.Context, cfg domain.ProviderConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cfg = &cfg
	return nil
}
