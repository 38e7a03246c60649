package email

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
)

const defaultPreviewFrom = "preview@employee-timeline.local"

// PreviewProvider captures messages instead of sending them. It keeps the
// most recent captures in a bounded history for the admin UI.
type PreviewProvider struct {
	capacity int
	logger   *slog.Logger

	mu      sync.Mutex
	history []domain.DeliveryResult
}

var (
	_ ports.DeliveryProvider = (*PreviewProvider)(nil)
	_ ports.PreviewHistory   = (*PreviewProvider)(nil)
)

func NewPreviewProvider(capacity int, logger *slog.Logger) *PreviewProvider {
	if capacity <= 0 {
		capacity = 50
	}
	return &PreviewProvider{
		capacity: capacity,
		logger:   logger.With("component", "preview_provider"),
	}
}

func (p *PreviewProvider) Kind() domain.ProviderKind {
	return domain.ProviderPreview
}

// Send renders the full MIME message and records it. Recipients are optional.
func (p *PreviewProvider) Send(ctx context.Context, out domain.OutboundEmail) (*domain.DeliveryResult, error) {
	if out.FromAddress == "" {
		out.FromAddress = defaultPreviewFrom
	}

	m, err := buildMessage(out)
	if err != nil {
		return nil, &apperrors.DeliveryError{Provider: string(domain.ProviderPreview), Err: err}
	}

	raw, err := renderMIME(m)
	if err != nil {
		return nil, &apperrors.DeliveryError{Provider: string(domain.ProviderPreview), Err: err}
	}

	rendered := out.Message
	result := domain.DeliveryResult{
		EventType:  out.EventType,
		Template:   out.Template,
		Provider:   domain.ProviderPreview,
		MessageID:  messageID(m),
		Recipients: out.Recipients,
		Preview:    &rendered,
		MIME:       raw,
		SentAt:     time.Now().UTC(),
	}

	p.mu.Lock()
	p.history = append(p.history, result)
	if over := len(p.history) - p.capacity; over > 0 {
		p.history = append([]domain.DeliveryResult(nil), p.history[over:]...)
	}
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "email captured for preview",
		"event_type", out.EventType,
		"template", out.Template,
		"subject", out.Message.Subject,
	)
	return &result, nil
}

// Recent returns up to limit captures, newest first. A limit <= 0 returns all.
func (p *PreviewProvider) Recent(limit int) []domain.DeliveryResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.history)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]domain.DeliveryResult, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, p.history[i])
	}
	return out
}
