package email

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
)

// buildMessage assembles a multipart/alternative message: the HTML body
// plus a plain-text alternative.
func buildMessage(out domain.OutboundEmail) (*mail.Msg, error) {
	m := mail.NewMsg()

	if out.FromName != "" {
		if err := m.FromFormat(out.FromName, out.FromAddress); err != nil {
			return nil, fmt.Errorf("invalid from address: %w", err)
		}
	} else if err := m.From(out.FromAddress); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}

	if len(out.Recipients) > 0 {
		if err := m.To(out.Recipients...); err != nil {
			return nil, fmt.Errorf("invalid recipient: %w", err)
		}
	}

	m.Subject(out.Message.Subject)
	m.SetMessageID()
	m.SetDate()
	m.SetGenHeader("X-Notification-Event", string(out.EventType))
	m.SetBodyString(mail.TypeTextHTML, out.Message.HTMLBody)
	if out.Message.TextBody != "" {
		m.AddAlternativeString(mail.TypeTextPlain, out.Message.TextBody)
	}
	return m, nil
}

func messageID(m *mail.Msg) string {
	ids := m.GetGenHeader(mail.HeaderMessageID)
	if len(ids) == 0 {
		return ""
	}
	return strings.Trim(ids[0], "<>")
}

func renderMIME(m *mail.Msg) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func requireRecipients(provider domain.ProviderKind, out domain.OutboundEmail) error {
	if len(out.Recipients) == 0 {
		return &apperrors.DeliveryError{Provider: string(provider), Err: apperrors.ErrNoRecipients}
	}
	return nil
}
