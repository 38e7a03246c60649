package email

import (
	"context"
	"log/slog"
	"time"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
)

// SendmailProvider pipes messages to a local sendmail-compatible binary.
type SendmailProvider struct {
	path    string
	timeout time.Duration
	logger  *slog.Logger
}

var _ ports.DeliveryProvider = (*SendmailProvider)(nil)

func NewSendmailProvider(cfg domain.ProviderConfig, logger *slog.Logger) *SendmailProvider {
	return &SendmailProvider{
		path:    cfg.SendmailPath,
		timeout: cfg.Timeout,
		logger:  logger.With("component", "sendmail_provider"),
	}
}

func (p *SendmailProvider) Kind() domain.ProviderKind {
	return domain.ProviderSendmail
}

func (p *SendmailProvider) Send(ctx context.Context, out domain.OutboundEmail) (*domain.DeliveryResult, error) {
	if err := requireRecipients(domain.ProviderSendmail, out); err != nil {
		return nil, err
	}

	m, err := buildMessage(out)
	if err != nil {
		return nil, &apperrors.DeliveryError{Provider: string(domain.ProviderSendmail), Err: err}
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	// -oi: a lone dot does not end the message; -t: read recipients from headers.
	if err := m.WriteToSendmailWithContext(ctx, p.path, "-oi", "-t"); err != nil {
		return nil, &apperrors.DeliveryError{Provider: string(domain.ProviderSendmail), Err: err}
	}

	p.logger.DebugContext(ctx, "email piped to sendmail", "path", p.path, "recipients", len(out.Recipients))
	return &domain.DeliveryResult{
		EventType:  out.EventType,
		Template:   out.Template,
		Provider:   domain.ProviderSendmail,
		MessageID:  messageID(m),
		Recipients: out.Recipients,
		SentAt:     time.Now().UTC(),
	}, nil
}
