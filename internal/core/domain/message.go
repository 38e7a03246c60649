package domain

import (
	"encoding/json"
	"time"
)

// MessageType defines the type of real-time message.
type MessageType string

const (
	MessageLeaveRequestUpdate MessageType = "LEAVE_REQUEST_UPDATE"
	MessageTimeEntryUpdate    MessageType = "TIME_ENTRY_UPDATE"
	MessageReportReady        MessageType = "REPORT_READY"
)

// NotificationMessage is the envelope sent over the realtime channel.
// Data always carries a human readable "message" plus contextual fields.
type NotificationMessage struct {
	Type MessageType    `json:"type"`
	Data map[string]any `json:"data"`
}

// NewNotificationMessage builds an envelope with the given text and extra fields.
func NewNotificationMessage(msgType MessageType, text string, fields map[string]any) NotificationMessage {
	data := CopyPayload(fields)
	data["message"] = text
	return NotificationMessage{Type: msgType, Data: data}
}

// Text returns the human readable message, or "" if absent or not a string.
func (m NotificationMessage) Text() string {
	s, _ := m.Data["message"].(string)
	return s
}

// Encode serializes the message as a text frame payload.
func (m NotificationMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// ClientNotification is a notification held by a realtime client session.
// It lives in memory only and is mutated solely by mark-read operations.
type ClientNotification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}
