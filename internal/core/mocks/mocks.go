package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockTemplateRepository is a mock implementation of ports.TemplateRepository
type MockTemplateRepository struct {
	mock.Mock
}

func NewMockTemplateRepository() *MockTemplateRepository {
	return &MockTemplateRepository{}
}

func (m *MockTemplateRepository) GetCustom(ctx context.Context, name string) (*domain.Template, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Template), args.Error(1)
}

func (m *MockTemplateRepository) ListCustom(ctx context.Context) ([]*domain.Template, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Template), args.Error(1)
}

func (m *MockTemplateRepository) UpsertCustom(ctx context.Context, tmpl *domain.Template) (*domain.Template, error) {
	args := m.Called(ctx, tmpl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Template), args.Error(1)
}

func (m *MockTemplateRepository) DeleteCustom(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

// MockProviderConfigRepository is a mock implementation of ports.ProviderConfigRepository
type MockProviderConfigRepository struct {
	mock.Mock
}

func NewMockProviderConfigRepository() *MockProviderConfigRepository {
	return &MockProviderConfigRepository{}
}

func (m *MockProviderConfigRepository) Get(ctx context.Context) (*domain.ProviderConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderConfig), args.Error(1)
}

func (m *MockProviderConfigRepository) Save(ctx context.Context, cfg domain.ProviderConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// MockDeliveryProvider is a mock implementation of ports.DeliveryProvider
type MockDeliveryProvider struct {
	mock.Mock
	kind domain.ProviderKind
}

func NewMockDeliveryProvider(kind domain.ProviderKind) *MockDeliveryProvider {
	return &MockDeliveryProvider{kind: kind}
}

func (m *MockDeliveryProvider) Kind() domain.ProviderKind {
	return m.kind
}

func (m *MockDeliveryProvider) Send(ctx context.Context, email domain.OutboundEmail) (*domain.DeliveryResult, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeliveryResult), args.Error(1)
}

// MockProviderFactory is a mock implementation of ports.ProviderFactory
type MockProviderFactory struct {
	mock.Mock
}

func NewMockProviderFactory() *MockProviderFactory {
	return &MockProviderFactory{}
}

func (m *MockProviderFactory) Build(cfg domain.ProviderConfig) (ports.DeliveryProvider, error) {
	args := m.Called(cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.DeliveryProvider), args.Error(1)
}

func (m *MockProviderFactory) Preview() ports.DeliveryProvider {
	args := m.Called()
	return args.Get(0).(ports.DeliveryProvider)
}

// MockProviderConfigService is a mock implementation of ports.ProviderConfigService
type MockProviderConfigService struct {
	mock.Mock
}

func NewMockProviderConfigService() *MockProviderConfigService {
	return &MockProviderConfigService{}
}

func (m *MockProviderConfigService) Current(ctx context.Context) domain.ProviderConfig {
	args := m.Called(ctx)
	return args.Get(0).(domain.ProviderConfig)
}

func (m *MockProviderConfigService) View(ctx context.Context) domain.ProviderConfigView {
	args := m.Called(ctx)
	return args.Get(0).(domain.ProviderConfigView)
}

func (m *MockProviderConfigService) Update(ctx context.Context, params ports.UpdateProviderConfigParams) (domain.ProviderConfigView, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(domain.ProviderConfigView), args.Error(1)
}

// MockDispatcher is a mock implementation of ports.Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

func (m *MockDispatcher) Dispatch(ctx context.Context, eventType domain.EventType, rc domain.RenderContext) (*domain.DeliveryResult, error) {
	args := m.Called(ctx, eventType, rc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeliveryResult), args.Error(1)
}

func (m *MockDispatcher) Preview(ctx context.Context, eventType domain.EventType, rc domain.RenderContext) (*domain.DeliveryResult, error) {
	args := m.Called(ctx, eventType, rc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeliveryResult), args.Error(1)
}

// MockTemplateService is a mock implementation of ports.TemplateService
type MockTemplateService struct {
	mock.Mock
}

func NewMockTemplateService() *MockTemplateService {
	return &MockTemplateService{}
}

func (m *MockTemplateService) Get(ctx context.Context, name string) (*domain.Template, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Template), args.Error(1)
}

func (m *MockTemplateService) Save(ctx context.Context, params ports.SaveTemplateParams) (*domain.Template, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Template), args.Error(1)
}

func (m *MockTemplateService) ResetToDefault(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockTemplateService) List(ctx context.Context) ([]*domain.Template, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Template), args.Error(1)
}

func (m *MockTemplateService) Default(name string) (*domain.Template, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Template), args.Error(1)
}

// MockNotificationService is a mock implementation of ports.NotificationService
type MockNotificationService struct {
	mock.Mock
}

func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

func (m *MockNotificationService) SendNotification(ctx context.Context, eventType domain.EventType, payload map[string]any) error {
	args := m.Called(ctx, eventType, payload)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(event domain.DomainEvent) {
	m.Called(event)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) SendToUser(userID uuid.UUID, msg domain.NotificationMessage) {
	m.Called(userID, msg)
}

func (m *MockEventBroadcaster) Broadcast(msg domain.NotificationMessage) {
	m.Called(msg)
}

// MockPreviewHistory is a mock implementation of ports.PreviewHistory
type MockPreviewHistory struct {
	mock.Mock
}

func NewMockPreviewHistory() *MockPreviewHistory {
	return &MockPreviewHistory{}
}

func (m *MockPreviewHistory) Recent(limit int) []domain.DeliveryResult {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.DeliveryResult)
}
