package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/ports"
)

// SMTPProvider delivers through an SMTP relay.
type SMTPProvider struct {
	client *mail.Client
	host   string
	logger *slog.Logger
}

var _ ports.DeliveryProvider = (*SMTPProvider)(nil)

// NewSMTPProvider builds a client for cfg. Nothing is dialed until Send.
func NewSMTPProvider(cfg domain.ProviderConfig, logger *slog.Logger) (*SMTPProvider, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
		mail.WithTLSPolicy(tlsPolicy(cfg.TLSPolicy)),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPProvider{
		client: client,
		host:   cfg.Host,
		logger: logger.With("component", "smtp_provider"),
	}, nil
}

func (p *SMTPProvider) Kind() domain.ProviderKind {
	return domain.ProviderSMTP
}

// Send dials the relay and submits one message. The context bounds the
// whole exchange.
func (p *SMTPProvider) Send(ctx context.Context, out domain.OutboundEmail) (*domain.DeliveryResult, error) {
	if err := requireRecipients(domain.ProviderSMTP, out); err != nil {
		return nil, err
	}

	m, err := buildMessage(out)
	if err != nil {
		return nil, &apperrors.DeliveryError{Provider: string(domain.ProviderSMTP), Err: err}
	}

	if err := p.client.DialAndSendWithContext(ctx, m); err != nil {
		return nil, &apperrors.DeliveryError{Provider: string(domain.ProviderSMTP), Err: err}
	}

	p.logger.DebugContext(ctx, "email submitted", "host", p.host, "recipients", len(out.Recipients))
	return &domain.DeliveryResult{
		EventType:  out.EventType,
		Template:   out.Template,
		Provider:   domain.ProviderSMTP,
		MessageID:  messageID(m),
		Recipients: out.Recipients,
		SentAt:     time.Now().UTC(),
	}, nil
}

func tlsPolicy(p domain.TLSPolicy) mail.TLSPolicy {
	switch p {
	case domain.TLSMandatory:
		return mail.TLSMandatory
	case domain.TLSNone:
		return mail.NoTLS
	default:
		return mail.TLSOpportunistic
	}
}
