package domain

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
)

// ProviderKind selects the outbound email transport.
type ProviderKind string

const (
	ProviderSMTP     ProviderKind = "smtp"
	ProviderSendmail ProviderKind = "sendmail"
	ProviderPreview  ProviderKind = "preview"
)

// IsValid checks if the provider kind is a known value
func (k ProviderKind) IsValid() bool {
	switch k {
	case ProviderSMTP, ProviderSendmail, ProviderPreview:
		return true
	}
	return false
}

// TLSPolicy controls STARTTLS behaviour for SMTP.
type TLSPolicy string

const (
	TLSMandatory     TLSPolicy = "mandatory"
	TLSOpportunistic TLSPolicy = "opportunistic"
	TLSNone          TLSPolicy = "none"
)

const DefaultProviderTimeout = 15 * time.Second

// ProviderConfig is the process-wide delivery configuration.
// Password is write-only: it is never exposed through ProviderConfigView.
type ProviderConfig struct {
	Kind         ProviderKind  `validate:"required,oneof=smtp sendmail preview"`
	Host         string        `validate:"required_if=Kind smtp,omitempty,hostname_rfc1123|ip"`
	Port         int           `validate:"required_if=Kind smtp,omitempty,min=1,max=65535"`
	Username     string        `validate:"max=255"`
	Password     string        `validate:"max=1024"`
	FromAddress  string        `validate:"required,email"`
	FromName     string        `validate:"max=255"`
	SendmailPath string        `validate:"required_if=Kind sendmail"`
	TLSPolicy    TLSPolicy     `validate:"omitempty,oneof=mandatory opportunistic none"`
	Timeout      time.Duration `validate:"min=0"`
	UpdatedAt    time.Time     `validate:"-"`
}

// WithDefaults fills unset optional fields.
func (c ProviderConfig) WithDefaults() ProviderConfig {
	if c.TLSPolicy == "" {
		c.TLSPolicy = TLSOpportunistic
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultProviderTimeout
	}
	if c.Kind == ProviderSMTP && c.Port == 0 {
		c.Port = 587
	}
	return c
}

// Validate checks the configuration; the returned error wraps
// ErrInvalidProviderConfig and carries per-field details.
func (c ProviderConfig) Validate() error {
	if err := validateStruct(c); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidProviderConfig, err)
	}
	if c.Username != "" && c.Password == "" && c.Kind == ProviderSMTP {
		verrs := apperrors.NewValidationErrors()
		verrs.Add("password", "password is required when username is set")
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidProviderConfig, verrs)
	}
	return nil
}

// View returns the credential-free read model.
func (c ProviderConfig) View() ProviderConfigView {
	return ProviderConfigView{
		Kind:           c.Kind,
		Host:           c.Host,
		Port:           c.Port,
		Username:       c.Username,
		HasPassword:    c.Password != "",
		FromAddress:    c.FromAddress,
		FromName:       c.FromName,
		SendmailPath:   c.SendmailPath,
		TLSPolicy:      c.TLSPolicy,
		TimeoutSeconds: int(c.Timeout / time.Second),
		UpdatedAt:      c.UpdatedAt,
	}
}

// ProviderConfigView is what admins see. It never carries the password.
type ProviderConfigView struct {
	Kind           ProviderKind `json:"kind"`
	Host           string       `json:"host,omitempty"`
	Port           int          `json:"port,omitempty"`
	Username       string       `json:"username,omitempty"`
	HasPassword    bool         `json:"hasPassword"`
	FromAddress    string       `json:"fromAddress"`
	FromName       string       `json:"fromName,omitempty"`
	SendmailPath   string       `json:"sendmailPath,omitempty"`
	TLSPolicy      TLSPolicy    `json:"tlsPolicy,omitempty"`
	TimeoutSeconds int          `json:"timeoutSeconds"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

var (
	validateOnce    sync.Once
	structValidator *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	return structValidator
}

// validateStruct runs tag validation and converts failures into
// apperrors.ValidationErrors keyed by lower-camel field name.
func validateStruct(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verrs := apperrors.NewValidationErrors()
	for _, fe := range fieldErrs {
		field := lowerFirst(fe.Field())
		verrs.Add(field, describeTag(fe))
	}
	return verrs
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", lowerFirst(fe.Field()))
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "hostname_rfc1123|ip":
		return "must be a hostname or IP address"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
