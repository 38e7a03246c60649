package domain

import "time"

// OutboundEmail is a rendered message addressed for delivery.
type OutboundEmail struct {
	EventType   EventType
	Template    string
	FromAddress string
	FromName    string
	Recipients  []string
	Message     RenderedMessage
}

// DeliveryResult describes a completed send.
type DeliveryResult struct {
	EventType  EventType        `json:"eventType"`
	Template   string           `json:"template"`
	Provider   ProviderKind     `json:"provider"`
	MessageID  string           `json:"messageId,omitempty"`
	Recipients []string         `json:"recipients"`
	Preview    *RenderedMessage `json:"preview,omitempty"`
	MIME       []byte           `json:"-"`
	SentAt     time.Time        `json:"sentAt"`
}
