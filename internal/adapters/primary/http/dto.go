package http

import (
	"time"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
)

// TemplateDTO is the admin representation of an effective template.
type TemplateDTO struct {
	Name      string     `json:"name"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	IsCustom  bool       `json:"isCustom"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	EventType string     `json:"eventType,omitempty"`
	Required  []string   `json:"requiredVariables,omitempty"`
	Optional  []string   `json:"optionalVariables,omitempty"`
}

func toTemplateDTO(t *domain.Template, def domain.EventDefinition, bound bool) TemplateDTO {
	dto := TemplateDTO{
		Name:      t.Name,
		Subject:   t.Subject,
		Body:      t.Body,
		IsCustom:  t.IsCustom,
		UpdatedAt: t.UpdatedAt,
	}
	if bound {
		dto.EventType = string(def.Type)
		dto.Required = def.Required
		dto.Optional = def.Optional
	}
	return dto
}

// EventDefinitionDTO lists one registry entry.
type EventDefinitionDTO struct {
	Type     string         `json:"type"`
	Template string         `json:"template"`
	Required []string       `json:"requiredVariables"`
	Optional []string       `json:"optionalVariables"`
	Realtime string         `json:"realtimeType,omitempty"`
	Sample   map[string]any `json:"sampleContext,omitempty"`
}

func toEventDefinitionDTO(def domain.EventDefinition) EventDefinitionDTO {
	required := def.Required
	if required == nil {
		required = []string{}
	}
	optional := def.Optional
	if optional == nil {
		optional = []string{}
	}
	return EventDefinitionDTO{
		Type:     string(def.Type),
		Template: def.Template,
		Required: required,
		Optional: optional,
		Realtime: string(def.Realtime),
		Sample:   def.Sample,
	}
}

// DeliveryResultDTO adds the raw MIME text of preview captures.
type DeliveryResultDTO struct {
	domain.DeliveryResult
	MIME string `json:"mime,omitempty"`
}

func toDeliveryResultDTO(r domain.DeliveryResult) DeliveryResultDTO {
	return DeliveryResultDTO{DeliveryResult: r, MIME: string(r.MIME)}
}

// SaveTemplateRequest is the body of PUT /admin/templates/{name}.
type SaveTemplateRequest struct {
	Subject string `json:"subject" validate:"max=998"`
	Body    string `json:"body" validate:"required,max=65536"`
}

// TestNotificationRequest is the body of POST /admin/notifications/test.
// A nil Context uses the registry's sample context.
type TestNotificationRequest struct {
	EventType string         `json:"eventType" validate:"required,max=128"`
	Context   map[string]any `json:"context"`
}

// PublishEventRequest is the body of POST /events.
type PublishEventRequest struct {
	Type    string         `json:"type" validate:"required,max=128"`
	Payload map[string]any `json:"payload"`
}

// UpdateProviderRequest is the body of PUT /admin/notifications/provider.
// Omitting password keeps the stored credential.
type UpdateProviderRequest struct {
	Kind           string  `json:"kind" validate:"required,oneof=smtp sendmail preview"`
	Host           string  `json:"host" validate:"max=255"`
	Port           int     `json:"port" validate:"min=0,max=65535"`
	Username       string  `json:"username" validate:"max=255"`
	Password       *string `json:"password,omitempty" validate:"omitempty,max=1024"`
	FromAddress    string  `json:"fromAddress" validate:"required,email"`
	FromName       string  `json:"fromName" validate:"max=255"`
	SendmailPath   string  `json:"sendmailPath" validate:"max=1024"`
	TLSPolicy      string  `json:"tlsPolicy" validate:"omitempty,oneof=mandatory opportunistic none"`
	TimeoutSeconds int     `json:"timeoutSeconds" validate:"min=0,max=300"`
}
