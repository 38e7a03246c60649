package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
)

// ProviderConfigService holds the active delivery configuration. Updates
// are persisted first and then swapped in, so the next send observes them.
type ProviderConfigService struct {
	repo   ports.ProviderConfigRepository
	logger *slog.Logger

	mu      sync.RWMutex
	current domain.ProviderConfig
}

var _ ports.ProviderConfigService = (*ProviderConfigService)(nil)

// NewProviderConfigService loads the persisted configuration, falling back
// to initial (from the environment) when nothing has been stored.
func NewProviderConfigService(
	ctx context.Context,
	repo ports.ProviderConfigRepository,
	initial domain.ProviderConfig,
	logger *slog.Logger,
) (*ProviderConfigService, error) {
	s := &ProviderConfigService{
		repo:   repo,
		logger: logger.With("component", "provider_config"),
	}

	stored, err := repo.Get(ctx)
	switch {
	case err == nil:
		s.current = stored.WithDefaults()
		s.logger.Info("loaded persisted provider configuration", "provider", s.current.Kind)
	case errors.Is(err, apperrors.ErrNotFound):
		cfg := initial.WithDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("initial provider configuration: %w", err)
		}
		s.current = cfg
		s.logger.Info("using provider configuration from environment", "provider", cfg.Kind)
	default:
		return nil, fmt.Errorf("load provider configuration: %w", err)
	}

	return s, nil
}

// Current returns a copy of the active configuration, credentials included.
// It is for delivery providers only and must never be serialized.
func (s *ProviderConfigService) Current(_ context.Context) domain.ProviderConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// View returns the active configuration without credentials.
func (s *ProviderConfigService) View(ctx context.Context) domain.ProviderConfigView {
	return s.Current(ctx).View()
}

// Update validates and persists a new configuration.
func (s *ProviderConfigService) Update(ctx context.Context, params ports.UpdateProviderConfigParams) (domain.ProviderConfigView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	password := s.current.Password
	if params.Password != nil {
		password = *params.Password
	}

	next := domain.ProviderConfig{
		Kind:         params.Kind,
		Host:         params.Host,
		Port:         params.Port,
		Username:     params.Username,
		Password:     password,
		FromAddress:  params.FromAddress,
		FromName:     params.FromName,
		SendmailPath: params.SendmailPath,
		TLSPolicy:    params.TLSPolicy,
		Timeout:      time.Duration(params.TimeoutSeconds) * time.Second,
		UpdatedAt:    time.Now().UTC(),
	}.WithDefaults()

	if err := next.Validate(); err != nil {
		return domain.ProviderConfigView{}, err
	}

	if err := s.repo.Save(ctx, next); err != nil {
		return domain.ProviderConfigView{}, fmt.Errorf("persist provider configuration: %w", err)
	}

	s.current = next
	s.logger.InfoContext(ctx, "provider configuration updated",
		"provider", next.Kind,
		"host", next.Host,
	)
	return next.View(), nil
}
