package services_test

import (
	"log/slog"
	"testing"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	"github.com/prajwalc1/employee-timeline/internal/core/services"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestRegistry(t *testing.T) *services.Registry {
	t.Helper()
	reg, err := services.NewRegistry(services.DefaultEventDefinitions(), services.DefaultTemplates(), services.NewRenderEngine())
	require.NoError(t, err)
	return reg
}

func definition(t *testing.T, eventType domain.EventType) domain.EventDefinition {
	t.Helper()
	def, err := newTestRegistry(t).Lookup(eventType)
	require.NoError(t, err)
	return def
}

func approvedContext() domain.RenderContext {
	return domain.RenderContext{
		"employee":       "Jane Doe",
		"manager":        "John Smith",
		"leaveRequest":   map[string]any{"startDate": "2024-07-01", "endDate": "2024-07-05"},
		"recipientEmail": "jane.doe@example.com",
	}
}
