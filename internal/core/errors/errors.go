package errors

import (
	"errors"
	"fmt"
)

// Domain errors - these represent notification pipeline failures
var (
	// Authentication & Authorization
	ErrForbidden    = errors.New("action forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// Dispatch
	ErrUnregisteredEventType = errors.New("unregistered event type")
	ErrMissingVariable       = errors.New("missing template variable")
	ErrUnknownTemplate       = errors.New("unknown template")
	ErrRenderFailed          = errors.New("template render failed")
	ErrDeliveryFailed        = errors.New("notification delivery failed")

	// Provider configuration
	ErrInvalidProviderConfig = errors.New("invalid provider configuration")
	ErrNoRecipients          = errors.New("no recipients")

	// Realtime channel
	ErrConnection       = errors.New("realtime connection failed")
	ErrMalformedMessage = errors.New("malformed realtime message")
	ErrClientClosed     = errors.New("realtime client closed")

	// Generic
	ErrNotFound    = errors.New("resource not found")
	ErrInternal    = errors.New("internal server error")
	ErrBadRequest  = errors.New("bad request")
	ErrConflict    = errors.New("resource conflict")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// MissingVariableError names the required render-context variable that was absent.
type MissingVariableError struct {
	EventType string
	Name      string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("%s: %q required by %s", ErrMissingVariable, e.Name, e.EventType)
}

func (e *MissingVariableError) Unwrap() error {
	return ErrMissingVariable
}

// RenderError wraps a template parse or execution failure.
type RenderError struct {
	Template string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: template %q: %v", ErrRenderFailed, e.Template, e.Err)
}

func (e *RenderError) Unwrap() []error {
	return []error{ErrRenderFailed, e.Err}
}

// DeliveryError wraps a provider-level failure (connection refused, auth, timeout).
type DeliveryError struct {
	Provider string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s: provider %s: %v", ErrDeliveryFailed, e.Provider, e.Err)
}

func (e *DeliveryError) Unwrap() []error {
	return []error{ErrDeliveryFailed, e.Err}
}

// AppError wraps errors with additional context for HTTP responses
type AppError struct {
	Err        error  // The underlying error
	Message    string // User-friendly message
	Code       string // Machine-readable error code
	StatusCode int    // HTTP status code
	Details    map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors for common cases
func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: 400,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    message,
		Code:       "UNAUTHORIZED",
		StatusCode: 401,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Err:        ErrForbidden,
		Message:    message,
		Code:       "FORBIDDEN",
		StatusCode: 403,
	}
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "NOT_FOUND",
		StatusCode: 404,
	}
}

func NewValidationError(err error, message string, details map[string]interface{}) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "VALIDATION_ERROR",
		StatusCode: 422,
		Details:    details,
	}
}

func NewRateLimitError() *AppError {
	return &AppError{
		Err:        ErrRateLimited,
		Message:    "Too many requests. Please try again later.",
		Code:       "RATE_LIMITED",
		StatusCode: 429,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "An unexpected error occurred",
		Code:       "INTERNAL_ERROR",
		StatusCode: 500,
	}
}

// ValidationErrors holds multiple field validation errors
type ValidationErrors struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make(map[string][]string),
	}
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	return fmt.Sprintf("validation failed: %d field(s) have errors", len(v.Errors))
}
