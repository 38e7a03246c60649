package services

import (
	"fmt"
	"sort"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
)

// Registry is the static mapping from event type to template and
// variable schema. It is built once at startup and never mutated.
type Registry struct {
	byType     map[domain.EventType]domain.EventDefinition
	byTemplate map[string]domain.EventDefinition
	ordered    []domain.EventDefinition
}

var _ ports.EventRegistry = (*Registry)(nil)

// NewRegistry validates every definition against the default templates:
// each event must name an existing template, and that template may only
// reference declared variables. Any violation fails startup.
func NewRegistry(defs []domain.EventDefinition, defaults map[string]domain.Template, renderer ports.Renderer) (*Registry, error) {
	r := &Registry{
		byType:     make(map[domain.EventType]domain.EventDefinition, len(defs)),
		byTemplate: make(map[string]domain.EventDefinition, len(defs)),
	}

	for _, def := range defs {
		if _, dup := r.byType[def.Type]; dup {
			return nil, fmt.Errorf("registry: duplicate event type %q", def.Type)
		}
		if _, dup := r.byTemplate[def.Template]; dup {
			return nil, fmt.Errorf("registry: template %q bound to more than one event", def.Template)
		}

		tmpl, ok := defaults[def.Template]
		if !ok {
			return nil, fmt.Errorf("registry: event %q: %w: %s", def.Type, apperrors.ErrUnknownTemplate, def.Template)
		}
		if err := renderer.Check(tmpl.Name, tmpl.Subject, tmpl.Body, def); err != nil {
			return nil, fmt.Errorf("registry: event %q: %w", def.Type, err)
		}
		if err := RequireVariables(def, def.Sample); err != nil {
			return nil, fmt.Errorf("registry: event %q sample: %w", def.Type, err)
		}

		r.byType[def.Type] = def
		r.byTemplate[def.Template] = def
		r.ordered = append(r.ordered, def)
	}

	sort.Slice(r.ordered, func(i, j int) bool {
		return r.ordered[i].Type < r.ordered[j].Type
	})
	return r, nil
}

// Lookup returns the definition for eventType.
func (r *Registry) Lookup(eventType domain.EventType) (domain.EventDefinition, error) {
	def, ok := r.byType[eventType]
	if !ok {
		return domain.EventDefinition{}, fmt.Errorf("%w: %s", apperrors.ErrUnregisteredEventType, eventType)
	}
	return def, nil
}

func (r *Registry) DefinitionForTemplate(name string) (domain.EventDefinition, bool) {
	def, ok := r.byTemplate[name]
	return def, ok
}

// Definitions lists all definitions ordered by event type.
func (r *Registry) Definitions() []domain.EventDefinition {
	out := make([]domain.EventDefinition, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// RequireVariables fails with the first required variable (in declaration
// order) absent from rc.
func RequireVariables(def domain.EventDefinition, rc domain.RenderContext) error {
	for _, name := range def.Required {
		if !rc.Has(name) {
			return &apperrors.MissingVariableError{EventType: string(def.Type), Name: name}
		}
	}
	return nil
}

// DefaultEventDefinitions returns the built-in event schema.
func DefaultEventDefinitions() []domain.EventDefinition {
	employee := "Jane Doe"
	manager := "John Smith"
	leave := map[string]any{"id": "LR-1024", "startDate": "2024-07-01", "endDate": "2024-07-05"}

	return []domain.EventDefinition{
		{
			Type:     domain.EventLeaveRequestCreated,
			Template: TemplateLeaveRequestCreated,
			Required: []string{"employee", "manager", "leaveRequest"},
			Realtime: domain.MessageLeaveRequestUpdate,
			Sample:   map[string]any{"employee": employee, "manager": manager, "leaveRequest": leave},
		},
		{
			Type:     domain.EventLeaveRequestApproved,
			Template: TemplateLeaveRequestApproved,
			Required: []string{"employee", "manager", "leaveRequest"},
			Optional: []string{"comment"},
			Realtime: domain.MessageLeaveRequestUpdate,
			Sample: map[string]any{
				"employee": employee, "manager": manager, "leaveRequest": leave,
				"comment": "Enjoy your time off!",
			},
		},
		{
			Type:     domain.EventLeaveRequestDenied,
			Template: TemplateLeaveRequestDenied,
			Required: []string{"employee", "manager", "leaveRequest"},
			Optional: []string{"reason"},
			Realtime: domain.MessageLeaveRequestUpdate,
			Sample: map[string]any{
				"employee": employee, "manager": manager, "leaveRequest": leave,
				"reason": "Team capacity is already reduced that week.",
			},
		},
		{
			Type:     domain.EventLeaveRequestCancelled,
			Template: TemplateLeaveRequestCancelled,
			Required: []string{"employee", "leaveRequest"},
			Optional: []string{"manager"},
			Realtime: domain.MessageLeaveRequestUpdate,
			Sample:   map[string]any{"employee": employee, "manager": manager, "leaveRequest": leave},
		},
		{
			Type:     domain.EventTimeEntryReminder,
			Template: TemplateTimeEntryReminder,
			Required: []string{"employee", "date"},
			Realtime: domain.MessageTimeEntryUpdate,
			Sample:   map[string]any{"employee": employee, "date": "2024-06-28"},
		},
		{
			Type:     domain.EventTimeEntryApproved,
			Template: TemplateTimeEntryApproved,
			Required: []string{"employee", "manager", "timeEntry"},
			Realtime: domain.MessageTimeEntryUpdate,
			Sample: map[string]any{
				"employee": employee, "manager": manager,
				"timeEntry": map[string]any{"date": "2024-06-27", "hours": 8},
			},
		},
		{
			Type:     domain.EventMonthlyReport,
			Template: TemplateMonthlyReport,
			Required: []string{"employee", "month", "totalHours"},
			Optional: []string{"overtimeHours", "reportUrl"},
			Realtime: domain.MessageReportReady,
			Sample: map[string]any{
				"employee": employee, "month": "June 2024", "totalHours": 168,
				"overtimeHours": 6, "reportUrl": "https://timeline.example.com/reports/2024-06",
			},
		},
		{
			Type:     domain.EventPasswordReset,
			Template: TemplatePasswordReset,
			Required: []string{"employee", "resetLink"},
			Optional: []string{"expiresIn"},
			Sample: map[string]any{
				"employee": employee, "resetLink": "https://timeline.example.com/reset?token=sample",
				"expiresIn": "1 hour",
			},
		},
		{
			Type:     domain.EventAccountCreated,
			Template: TemplateAccountCreated,
			Required: []string{"employee", "loginUrl"},
			Sample:   map[string]any{"employee": employee, "loginUrl": "https://timeline.example.com/login"},
		},
	}
}
