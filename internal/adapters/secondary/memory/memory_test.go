package memory_test

import (
	"context"
	"testing"

	"github.com/prajwalc1/employee-timeline/internal/adapters/secondary/memory"
	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTemplateRepository()

	_, err := repo.GetCustom(ctx, "monthly-report")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = repo.UpsertCustom(ctx, &domain.Template{Name: "monthly-report", Subject: "s", Body: "b"})
	require.NoError(t, err)
	_, err = repo.UpsertCustom(ctx, &domain.Template{Name: "account-created", Subject: "s", Body: "b"})
	require.NoError(t, err)

	got, err := repo.GetCustom(ctx, "monthly-report")
	require.NoError(t, err)
	assert.True(t, got.IsCustom)

	list, err := repo.ListCustom(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "account-created", list[0].Name)

	removed, err := repo.DeleteCustom(ctx, "monthly-report")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.DeleteCustom(ctx, "monthly-report")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestProviderConfigRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProviderConfigRepository()

	_, err := repo.Get(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, repo.Save(ctx, domain.ProviderConfig{Kind: domain.ProviderPreview, FromAddress: "hr@example.com"}))

	cfg, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderPreview, cfg.Kind)
}
