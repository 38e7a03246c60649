package domain

import "time"

// Template is parameterized markup used to render a notification email.
type Template struct {
	Name      string
	Subject   string
	Body      string
	IsCustom  bool
	UpdatedAt *time.Time
}

// RenderContext maps variable names to values used during rendering.
type RenderContext map[string]any

// Has reports whether the named variable is present and non-nil.
func (c RenderContext) Has(name string) bool {
	v, ok := c[name]
	return ok && v != nil
}

// RenderedMessage is the final subject/body produced by the render engine.
type RenderedMessage struct {
	Subject  string `json:"subject"`
	HTMLBody string `json:"htmlBody"`
	TextBody string `json:"textBody"`
}

// EventDefinition binds an event type to its template and variable schema.
type EventDefinition struct {
	Type     EventType
	Template string
	Required []string
	Optional []string

	// Realtime is the wire message type pushed for this event; empty means
	// the event is email-only.
	Realtime MessageType

	// Sample is a fully-populated context used for preview dispatches.
	Sample map[string]any
}

// Declares reports whether name is a required or optional variable.
func (d EventDefinition) Declares(name string) bool {
	for _, v := range d.Required {
		if v == name {
			return true
		}
	}
	for _, v := range d.Optional {
		if v == name {
			return true
		}
	}
	return false
}
