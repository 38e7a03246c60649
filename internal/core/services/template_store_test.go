package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prajwalc1/employee-timeline/internal/adapters/secondary/memory"
	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/mocks"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
	"github.com/prajwalc1/employee-timeline/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTemplateStore(t *testing.T, repo ports.TemplateRepository) *services.TemplateStore {
	t.Helper()
	return services.NewTemplateStore(repo, services.DefaultTemplates(), newTestRegistry(t), services.NewRenderEngine(), newTestLogger())
}

func TestTemplateStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("default when no override", func(t *testing.T) {
		repo := mocks.NewMockTemplateRepository()
		repo.On("GetCustom", ctx, services.TemplateMonthlyReport).Return(nil, apperrors.ErrNotFound)

		tmpl, err := newTemplateStore(t, repo).Get(ctx, services.TemplateMonthlyReport)

		require.NoError(t, err)
		assert.False(t, tmpl.IsCustom)
		assert.Equal(t, services.DefaultTemplates()[services.TemplateMonthlyReport].Body, tmpl.Body)
		repo.AssertExpectations(t)
	})

	t.Run("custom override wins", func(t *testing.T) {
		repo := mocks.NewMockTemplateRepository()
		repo.On("GetCustom", ctx, services.TemplateMonthlyReport).
			Return(&domain.Template{Name: services.TemplateMonthlyReport, Subject: "Custom", Body: "<p>{{.month}}</p>"}, nil)

		tmpl, err := newTemplateStore(t, repo).Get(ctx, services.TemplateMonthlyReport)

		require.NoError(t, err)
		assert.True(t, tmpl.IsCustom)
		assert.Equal(t, "Custom", tmpl.Subject)
	})

	t.Run("unknown template", func(t *testing.T) {
		repo := mocks.NewMockTemplateRepository()

		_, err := newTemplateStore(t, repo).Get(ctx, "payslip")

		assert.ErrorIs(t, err, apperrors.ErrUnknownTemplate)
		repo.AssertNotCalled(t, "GetCustom", mock.Anything, mock.Anything)
	})

	t.Run("repository failure is propagated", func(t *testing.T) {
		repo := mocks.NewMockTemplateRepository()
		repo.On("GetCustom", ctx, services.TemplateMonthlyReport).Return(nil, errors.New("db down"))

		_, err := newTemplateStore(t, repo).Get(ctx, services.TemplateMonthlyReport)

		assert.Error(t, err)
		assert.NotErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestTemplateStore_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("stores override and keeps default subject when empty", func(t *testing.T) {
		repo := mocks.NewMockTemplateRepository()
		repo.On("UpsertCustom", ctx, mock.MatchedBy(func(tmpl *domain.Template) bool {
			return tmpl.IsCustom &&
				tmpl.Subject == services.DefaultTemplates()[services.TemplateLeaveRequestApproved].Subject &&
				tmpl.UpdatedAt != nil
		})).Return(&domain.Template{Name: services.TemplateLeaveRequestApproved, IsCustom: true}, nil)

		saved, err := newTemplateStore(t, repo).Save(ctx, ports.SaveTemplateParams{
			Name: services.TemplateLeaveRequestApproved,
			Body: "<p>Approved, {{.employee}}!</p>",
		})

		require.NoError(t, err)
		assert.True(t, saved.IsCustom)
		repo.AssertExpectations(t)
	})

	t.Run("rejects non-declarative markup", func(t *testing.T) {
		repo := mocks.NewMockTemplateRepository()

		_, err := newTemplateStore(t, repo).Save(ctx, ports.SaveTemplateParams{
			Name: services.TemplateLeaveRequestApproved,
			Body: "{{range .employee}}{{end}}",
		})

		assert.ErrorIs(t, err, apperrors.ErrRenderFailed)
		repo.AssertNotCalled(t, "UpsertCustom", mock.Anything, mock.Anything)
	})

	t.Run("rejects undeclared variables", func(t *testing.T) {
		repo := mocks.NewMockTemplateRepository()

		_, err := newTemplateStore(t, repo).Save(ctx, ports.SaveTemplateParams{
			Name: services.TemplateLeaveRequestApproved,
			Body: "<p>{{.salary}}</p>",
		})

		assert.ErrorIs(t, err, apperrors.ErrRenderFailed)
	})

	t.Run("rejects empty body", func(t *testing.T) {
		repo := mocks.NewMockTemplateRepository()

		_, err := newTemplateStore(t, repo).Save(ctx, ports.SaveTemplateParams{
			Name: services.TemplateLeaveRequestApproved,
			Body: "   ",
		})

		var verrs *apperrors.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Contains(t, verrs.Errors, "body")
	})

	t.Run("unknown template", func(t *testing.T) {
		repo := mocks.NewMockTemplateRepository()

		_, err := newTemplateStore(t, repo).Save(ctx, ports.SaveTemplateParams{Name: "payslip", Body: "x"})

		assert.ErrorIs(t, err, apperrors.ErrUnknownTemplate)
	})
}

func TestTemplateStore_ResetToDefault(t *testing.T) {
	ctx := context.Background()

	t.Run("no-op without override", func(t *testing.T) {
		repo := mocks.NewMockTemplateRepository()
		repo.On("DeleteCustom", ctx, services.TemplateAccountCreated).Return(false, nil)

		err := newTemplateStore(t, repo).ResetToDefault(ctx, services.TemplateAccountCreated)

		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("unknown template", func(t *testing.T) {
		repo := mocks.NewMockTemplateRepository()

		err := newTemplateStore(t, repo).ResetToDefault(ctx, "payslip")

		assert.ErrorIs(t, err, apperrors.ErrUnknownTemplate)
	})
}

func TestTemplateStore_SaveThenResetRestoresDefault(t *testing.T) {
	ctx := context.Background()
	store := newTemplateStore(t, memory.NewTemplateRepository())
	name := services.TemplatePasswordReset

	original, err := store.Get(ctx, name)
	require.NoError(t, err)

	_, err = store.Save(ctx, ports.SaveTemplateParams{
		Name:    name,
		Subject: "Password help",
		Body:    `<p><a href="{{.resetLink}}">Reset</a></p>`,
	})
	require.NoError(t, err)

	custom, err := store.Get(ctx, name)
	require.NoError(t, err)
	assert.True(t, custom.IsCustom)
	assert.Equal(t, "Password help", custom.Subject)

	require.NoError(t, store.ResetToDefault(ctx, name))

	restored, err := store.Get(ctx, name)
	require.NoError(t, err)
	assert.False(t, restored.IsCustom)
	assert.Equal(t, original.Subject, restored.Subject)
	assert.Equal(t, original.Body, restored.Body)

	def, err := store.Default(name)
	require.NoError(t, err)
	assert.Equal(t, original.Body, def.Body)
}

func TestTemplateStore_List(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewTemplateRepository()
	store := newTemplateStore(t, repo)

	_, err := store.Save(ctx, ports.SaveTemplateParams{
		Name: services.TemplateMonthlyReport,
		Body: "<p>{{.month}}: {{.totalHours}}</p>",
	})
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, len(services.DefaultTemplates()))

	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].Name, list[i].Name)
	}
	for _, tmpl := range list {
		assert.Equal(t, tmpl.Name == services.TemplateMonthlyReport, tmpl.IsCustom, tmpl.Name)
	}
}
