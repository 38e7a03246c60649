package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/prajwalc1/employee-timeline/internal/core/domain"
)

// SaveTemplateParams defines the input for storing a custom template.
type SaveTemplateParams struct {
	Name    string
	Subject string
	Body    string
}

// UpdateProviderConfigParams defines the input for changing the delivery
// provider. A nil Password keeps the stored one.
type UpdateProviderConfigParams struct {
	Kind           domain.ProviderKind
	Host           string
	Port           int
	Username       string
	Password       *string
	FromAddress    string
	FromName       string
	SendmailPath   string
	TLSPolicy      domain.TLSPolicy
	TimeoutSeconds int
}

// EventRegistry maps event types to templates and variable schemas.
type EventRegistry interface {
	Lookup(eventType domain.EventType) (domain.EventDefinition, error)
	DefinitionForTemplate(name string) (domain.EventDefinition, bool)
	Definitions() []domain.EventDefinition
}

// TemplateService defines the port for the two-tier template store.
type TemplateService interface {
	Get(ctx context.Context, name string) (*domain.Template, error)
	Save(ctx context.Context, params SaveTemplateParams) (*domain.Template, error)
	ResetToDefault(ctx context.Context, name string) error
	List(ctx context.Context) ([]*domain.Template, error)
	Default(name string) (*domain.Template, error)
}

// Renderer turns a template plus context into a final message.
type Renderer interface {
	Render(tmpl *domain.Template, def domain.EventDefinition, rc domain.RenderContext) (*domain.RenderedMessage, error)
	Check(name, subject, body string, def domain.EventDefinition) error
}

// Dispatcher defines the port for turning an event into a delivered email.
type Dispatcher interface {
	Dispatch(ctx context.Context, eventType domain.EventType, rc domain.RenderContext) (*domain.DeliveryResult, error)
	Preview(ctx context.Context, eventType domain.EventType, rc domain.RenderContext) (*domain.DeliveryResult, error)
}

// ProviderConfigService defines the port for reading and changing the
// active delivery provider configuration.
type ProviderConfigService interface {
	Current(ctx context.Context) domain.ProviderConfig
	View(ctx context.Context) domain.ProviderConfigView
	Update(ctx context.Context, params UpdateProviderConfigParams) (domain.ProviderConfigView, error)
}

// DeliveryProvider sends a rendered email through one transport.
type DeliveryProvider interface {
	Kind() domain.ProviderKind
	Send(ctx context.Context, email domain.OutboundEmail) (*domain.DeliveryResult, error)
}

// ProviderFactory builds delivery providers from configuration.
type ProviderFactory interface {
	Build(cfg domain.ProviderConfig) (DeliveryProvider, error)
	Preview() DeliveryProvider
}

// PreviewHistory exposes recently captured preview sends.
type PreviewHistory interface {
	Recent(limit int) []domain.DeliveryResult
}

// EventPublisher fans a domain event out to subscribers without blocking.
type EventPublisher interface {
	Publish(event domain.DomainEvent)
}

// EventSubscriber consumes domain events from the bus.
type EventSubscriber interface {
	Name() string
	Handle(ctx context.Context, event domain.DomainEvent)
}

// NotificationService is the call surface used by business logic.
type NotificationService interface {
	SendNotification(ctx context.Context, eventType domain.EventType, payload map[string]any) error
}

// EventBroadcaster defines the port for pushing realtime messages to
// connected clients.
type EventBroadcaster interface {
	SendToUser(userID uuid.UUID, msg domain.NotificationMessage)
	Broadcast(msg domain.NotificationMessage)
}
