package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/metrics"
)

// DispatcherConfig tunes the dispatcher.
type DispatcherConfig struct {
	// MaxPerWindow dispatches are allowed within any Window-long span.
	MaxPerWindow int
	Window       time.Duration
	SendTimeout  time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// NotificationDispatcher turns a domain event into a delivered email:
// rate limit, resolve, validate, render, deliver. Delivery failures are
// reported to the caller and never retried here.
type NotificationDispatcher struct {
	registry    ports.EventRegistry
	templates   ports.TemplateService
	renderer    ports.Renderer
	providerCfg ports.ProviderConfigService
	factory     ports.ProviderFactory
	limiter     *sendWindow
	sendTimeout time.Duration
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	logger      *slog.Logger
}

var _ ports.Dispatcher = (*NotificationDispatcher)(nil)

// NewDispatcher creates a new notification dispatcher
func NewDispatcher(
	cfg DispatcherConfig,
	registry ports.EventRegistry,
	templates ports.TemplateService,
	renderer ports.Renderer,
	providerCfg ports.ProviderConfigService,
	factory ports.ProviderFactory,
	m *metrics.Metrics,
	logger *slog.Logger,
) *NotificationDispatcher {
	if cfg.MaxPerWindow <= 0 {
		cfg.MaxPerWindow = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 20 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &NotificationDispatcher{
		registry:    registry,
		templates:   templates,
		renderer:    renderer,
		providerCfg: providerCfg,
		factory:     factory,
		limiter:     newSendWindow(cfg.MaxPerWindow, cfg.Window, cfg.Now),
		sendTimeout: cfg.SendTimeout,
		metrics:     m,
		tracer:      otel.Tracer("notification-dispatcher"),
		logger:      logger.With("component", "dispatcher"),
	}
}

// Dispatch renders and sends the email bound to eventType through the
// configured provider.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, eventType domain.EventType, rc domain.RenderContext) (*domain.DeliveryResult, error) {
	return d.dispatch(ctx, eventType, rc, false)
}

// Preview runs the same pipeline but always delivers to the preview
// provider. Previews do not consume the rate limit budget.
func (d *NotificationDispatcher) Preview(ctx context.Context, eventType domain.EventType, rc domain.RenderContext) (*domain.DeliveryResult, error) {
	return d.dispatch(ctx, eventType, rc, true)
}

func (d *NotificationDispatcher) dispatch(ctx context.Context, eventType domain.EventType, rc domain.RenderContext, preview bool) (result *domain.DeliveryResult, err error) {
	ctx, span := d.tracer.Start(ctx, "notification.dispatch", trace.WithAttributes(
		attribute.String("event.type", string(eventType)),
		attribute.Bool("preview", preview),
	))
	defer span.End()

	eventLabel := "unregistered"
	providerLabel := "none"
	defer func() {
		d.metrics.Dispatches.WithLabelValues(eventLabel, providerLabel, outcomeFor(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if !preview && !d.limiter.allow() {
		if _, lookupErr := d.registry.Lookup(eventType); lookupErr == nil {
			eventLabel = string(eventType)
		}
		d.logger.WarnContext(ctx, "notification rejected by rate limit", "event_type", eventType)
		return nil, apperrors.ErrRateLimited
	}

	def, err := d.registry.Lookup(eventType)
	if err != nil {
		return nil, err
	}
	eventLabel = string(def.Type)

	if err := RequireVariables(def, rc); err != nil {
		return nil, err
	}

	tmpl, err := d.templates.Get(ctx, def.Template)
	if err != nil {
		return nil, err
	}

	rendered, err := d.renderer.Render(tmpl, def, rc)
	if err != nil {
		d.logger.WarnContext(ctx, "template render failed", "event_type", eventType, "template", def.Template, "error", err)
		return nil, err
	}

	recipients, err := recipientsFrom(rc)
	if err != nil {
		return nil, err
	}

	cfg := d.providerCfg.Current(ctx)
	var provider ports.DeliveryProvider
	if preview {
		provider = d.factory.Preview()
	} else {
		provider, err = d.factory.Build(cfg)
		if err != nil {
			providerLabel = string(cfg.Kind)
			return nil, &apperrors.DeliveryError{Provider: string(cfg.Kind), Err: err}
		}
	}
	providerLabel = string(provider.Kind())
	span.SetAttributes(attribute.String("provider", providerLabel))

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	start := time.Now()
	result, err = provider.Send(sendCtx, domain.OutboundEmail{
		EventType:   def.Type,
		Template:    tmpl.Name,
		FromAddress: cfg.FromAddress,
		FromName:    cfg.FromName,
		Recipients:  recipients,
		Message:     *rendered,
	})
	d.metrics.DispatchDuration.WithLabelValues(providerLabel).Observe(time.Since(start).Seconds())

	if err != nil {
		var deliveryErr *apperrors.DeliveryError
		if !errors.As(err, &deliveryErr) {
			err = &apperrors.DeliveryError{Provider: providerLabel, Err: err}
		}
		d.logger.WarnContext(ctx, "notification delivery failed",
			"event_type", eventType,
			"provider", providerLabel,
			"error", err,
		)
		return nil, err
	}

	d.logger.InfoContext(ctx, "notification dispatched",
		"event_type", eventType,
		"template", tmpl.Name,
		"provider", providerLabel,
		"recipients", len(recipients),
		"custom_template", tmpl.IsCustom,
	)
	return result, nil
}

// recipientsFrom reads the reserved recipient key. Absent means none.
func recipientsFrom(rc domain.RenderContext) ([]string, error) {
	raw, ok := rc[RecipientKey]
	if !ok || raw == nil {
		return nil, nil
	}

	var out []string
	switch v := raw.(type) {
	case string:
		out = append(out, v)
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must contain only strings", apperrors.ErrBadRequest, RecipientKey)
			}
			out = append(out, s)
		}
	default:
		return nil, fmt.Errorf("%w: %s must be a string or a list of strings", apperrors.ErrBadRequest, RecipientKey)
	}

	cleaned := out[:0]
	for _, addr := range out {
		if addr = strings.TrimSpace(addr); addr != "" {
			cleaned = append(cleaned, addr)
		}
	}
	return cleaned, nil
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSent
	case errors.Is(err, apperrors.ErrRateLimited):
		return metrics.OutcomeRateLimited
	case errors.Is(err, apperrors.ErrUnregisteredEventType):
		return metrics.OutcomeUnregistered
	case errors.Is(err, apperrors.ErrMissingVariable):
		return metrics.OutcomeMissingVar
	case errors.Is(err, apperrors.ErrRenderFailed):
		return metrics.OutcomeRenderFailed
	case errors.Is(err, apperrors.ErrDeliveryFailed):
		return metrics.OutcomeDeliveryFailed
	default:
		return metrics.OutcomeError
	}
}
