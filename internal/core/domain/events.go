package domain

import (
	"encoding/json"
	"time"
)

// EventType names a business occurrence that may trigger notifications.
type EventType string

const (
	EventLeaveRequestCreated   EventType = "leave_request_created"
	EventLeaveRequestApproved  EventType = "leave_request_approved"
	EventLeaveRequestDenied    EventType = "leave_request_denied"
	EventLeaveRequestCancelled EventType = "leave_request_cancelled"
	EventTimeEntryReminder     EventType = "time_entry_reminder"
	EventTimeEntryApproved     EventType = "time_entry_approved"
	EventMonthlyReport         EventType = "monthly_report"
	EventPasswordReset         EventType = "password_reset"
	EventAccountCreated        EventType = "account_created"
)

// String returns the string representation of the event type
func (t EventType) String() string {
	return string(t)
}

// DomainEvent is an immutable business occurrence. The payload is copied on
// construction and on every read, so subscribers cannot affect each other.
type DomainEvent struct {
	eventType  EventType
	payload    map[string]any
	occurredAt time.Time
}

// NewDomainEvent creates an event stamped with the current time.
func NewDomainEvent(eventType EventType, payload map[string]any) DomainEvent {
	return DomainEvent{
		eventType:  eventType,
		payload:    CopyPayload(payload),
		occurredAt: time.Now().UTC(),
	}
}

func (e DomainEvent) Type() EventType {
	return e.eventType
}

// Payload returns a copy of the named variables carried by the event.
func (e DomainEvent) Payload() map[string]any {
	return CopyPayload(e.payload)
}

func (e DomainEvent) OccurredAt() time.Time {
	return e.occurredAt
}

type domainEventJSON struct {
	Type       EventType      `json:"type"`
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// MarshalJSON encodes the event for transport (HTTP, Kafka).
func (e DomainEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(domainEventJSON{
		Type:       e.eventType,
		Payload:    e.payload,
		OccurredAt: e.occurredAt,
	})
}

// UnmarshalJSON decodes an event; a missing timestamp is set to now.
func (e *DomainEvent) UnmarshalJSON(data []byte) error {
	var raw domainEventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.eventType = raw.Type
	e.payload = CopyPayload(raw.Payload)
	e.occurredAt = raw.OccurredAt
	if e.occurredAt.IsZero() {
		e.occurredAt = time.Now().UTC()
	}
	return nil
}

// CopyPayload deep-copies nested maps and slices of a payload.
func CopyPayload(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = copyValue(v)
	}
	return dst
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CopyPayload(val)
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, s := range val {
			out[k] = s
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}
