package services_test

import (
	"errors"
	"testing"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_Defaults(t *testing.T) {
	reg := newTestRegistry(t)

	defs := reg.Definitions()
	require.Len(t, defs, 9)
	for i := 1; i < len(defs); i++ {
		assert.Less(t, defs[i-1].Type, defs[i].Type)
	}

	def, err := reg.Lookup(domain.EventLeaveRequestDenied)
	require.NoError(t, err)
	assert.Equal(t, services.TemplateLeaveRequestDenied, def.Template)
	assert.Equal(t, domain.MessageLeaveRequestUpdate, def.Realtime)

	byTemplate, ok := reg.DefinitionForTemplate(services.TemplateMonthlyReport)
	require.True(t, ok)
	assert.Equal(t, domain.EventMonthlyReport, byTemplate.Type)
}

func TestRegistry_LookupUnknown(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.Lookup("payroll_run")
	assert.ErrorIs(t, err, apperrors.ErrUnregisteredEventType)
}

func TestNewRegistry_FailsFast(t *testing.T) {
	engine := services.NewRenderEngine()

	t.Run("missing template", func(t *testing.T) {
		defs := []domain.EventDefinition{{Type: "custom_event", Template: "does-not-exist"}}

		_, err := services.NewRegistry(defs, services.DefaultTemplates(), engine)
		assert.ErrorIs(t, err, apperrors.ErrUnknownTemplate)
	})

	t.Run("template references undeclared variable", func(t *testing.T) {
		defaults := map[string]domain.Template{
			"t": {Name: "t", Subject: "Hi", Body: "{{.salary}}"},
		}
		defs := []domain.EventDefinition{{Type: "custom_event", Template: "t", Required: []string{"employee"}}}

		_, err := services.NewRegistry(defs, defaults, engine)
		assert.ErrorIs(t, err, apperrors.ErrRenderFailed)
	})

	t.Run("duplicate event type", func(t *testing.T) {
		defs := services.DefaultEventDefinitions()
		defs = append(defs, defs[0])

		_, err := services.NewRegistry(defs, services.DefaultTemplates(), engine)
		assert.Error(t, err)
	})

	t.Run("incomplete sample", func(t *testing.T) {
		defs := services.DefaultEventDefinitions()[:1]
		defs[0].Sample = map[string]any{"employee": "x"}

		_, err := services.NewRegistry(defs, services.DefaultTemplates(), engine)
		assert.ErrorIs(t, err, apperrors.ErrMissingVariable)
	})
}

func TestRequireVariables(t *testing.T) {
	def := definition(t, domain.EventLeaveRequestApproved)

	rc := approvedContext()
	delete(rc, "leaveRequest")

	err := services.RequireVariables(def, rc)

	var missing *apperrors.MissingVariableError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "leaveRequest", missing.Name)
	assert.ErrorIs(t, err, apperrors.ErrMissingVariable)

	assert.NoError(t, services.RequireVariables(def, approvedContext()))
}
