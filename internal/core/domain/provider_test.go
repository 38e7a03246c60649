package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       domain.ProviderConfig
		wantErr   bool
		wantField string
	}{
		{
			name: "valid smtp",
			cfg: domain.ProviderConfig{
				Kind: domain.ProviderSMTP, Host: "smtp.example.com", Port: 587,
				Username: "mailer", Password: "secret", FromAddress: "hr@example.com",
			},
		},
		{
			name: "valid preview",
			cfg:  domain.ProviderConfig{Kind: domain.ProviderPreview, FromAddress: "hr@example.com"},
		},
		{
			name: "valid sendmail",
			cfg: domain.ProviderConfig{
				Kind: domain.ProviderSendmail, SendmailPath: "/usr/sbin/sendmail", FromAddress: "hr@example.com",
			},
		},
		{
			name:      "smtp without host",
			cfg:       domain.ProviderConfig{Kind: domain.ProviderSMTP, Port: 25, FromAddress: "hr@example.com"},
			wantErr:   true,
			wantField: "host",
		},
		{
			name:      "sendmail without path",
			cfg:       domain.ProviderConfig{Kind: domain.ProviderSendmail, FromAddress: "hr@example.com"},
			wantErr:   true,
			wantField: "sendmailPath",
		},
		{
			name:      "bad from address",
			cfg:       domain.ProviderConfig{Kind: domain.ProviderPreview, FromAddress: "not-an-email"},
			wantErr:   true,
			wantField: "fromAddress",
		},
		{
			name:      "unknown kind",
			cfg:       domain.ProviderConfig{Kind: "pigeon", FromAddress: "hr@example.com"},
			wantErr:   true,
			wantField: "kind",
		},
		{
			name: "username without password",
			cfg: domain.ProviderConfig{
				Kind: domain.ProviderSMTP, Host: "smtp.example.com", Port: 587,
				Username: "mailer", FromAddress: "hr@example.com",
			},
			wantErr:   true,
			wantField: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidProviderConfig))

			var verrs *apperrors.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Contains(t, verrs.Errors, tt.wantField)
		})
	}
}

func TestProviderConfig_ViewHidesPassword(t *testing.T) {
	cfg := domain.ProviderConfig{
		Kind: domain.ProviderSMTP, Host: "smtp.example.com", Port: 587,
		Username: "mailer", Password: "hunter2", FromAddress: "hr@example.com",
		Timeout: 10 * time.Second,
	}

	view := cfg.View()

	assert.True(t, view.HasPassword)
	assert.Equal(t, 10, view.TimeoutSeconds)
	assert.Equal(t, "mailer", view.Username)
}

func TestProviderConfig_WithDefaults(t *testing.T) {
	cfg := domain.ProviderConfig{Kind: domain.ProviderSMTP}.WithDefaults()

	assert.Equal(t, domain.TLSOpportunistic, cfg.TLSPolicy)
	assert.Equal(t, domain.DefaultProviderTimeout, cfg.Timeout)
	assert.Equal(t, 587, cfg.Port)
}
