package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/secrets"
)

func TestProviderConfigRepository_SaveGet(t *testing.T) {
	pool := requirePool(t)
	truncate(t, "provider_config")
	ctx := context.Background()

	box, err := secrets.NewBox("test-credentials-key")
	require.NoError(t, err)
	repo := NewProviderConfigRepository(pool, box)

	_, err = repo.Get(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	cfg := domain.ProviderConfig{
		Kind:        domain.ProviderSMTP,
		Host:        "smtp.example.com",
		Port:        587,
		Username:    "mailer",
		Password:    "s3cret",
		FromAddress: "noreply@example.com",
		FromName:    "Employee Timeline",
		TLSPolicy:   domain.TLSMandatory,
		Timeout:     10 * time.Second,
	}
	require.NoError(t, repo.Save(ctx, cfg))

	var sealed string
	require.NoError(t, pool.QueryRow(ctx, `SELECT password_sealed FROM provider_config WHERE id = 1`).Scan(&sealed))
	assert.NotEqual(t, "s3cret", sealed)
	assert.NotEmpty(t, sealed)

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg.Kind, got.Kind)
	assert.Equal(t, cfg.Host, got.Host)
	assert.Equal(t, "s3cret", got.Password)
	assert.Equal(t, cfg.TLSPolicy, got.TLSPolicy)
	assert.Equal(t, 10*time.Second, got.Timeout)

	cfg.Kind = domain.ProviderPreview
	cfg.Password = ""
	require.NoError(t, repo.Save(ctx, cfg))

	got, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderPreview, got.Kind)
	assert.Empty(t, got.Password)

	var rows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM provider_config`).Scan(&rows))
	assert.Equal(t, 1, rows)
}
