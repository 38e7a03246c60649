package config

import (
	"strings"
	"testing"
	"time"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{MaxOpenConns: 10, MaxIdleConns: 5},
		JWT:      JWTConfig{Secret: "test-secret"},
		App:      AppConfig{Environment: "development"},
		Mail:     MailConfig{Provider: "preview", FromAddress: "hr@example.com"},
		Notification: NotificationConfig{
			RateLimitMax:    10,
			RateLimitWindow: time.Minute,
			BusBuffer:       16,
		},
	}
}

func TestValidate_DevelopmentWithoutDatabase(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.App.Environment = "production"
	cfg.JWT.Secret = "short"
	cfg.Mail.Provider = "carrier-pigeon"
	cfg.Notification.RateLimitMax = 0

	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		"DATABASE_URL is required in production",
		"JWT_SECRET must be at least 32 characters",
		"WS_ALLOWED_ORIGINS must be set",
		"CREDENTIALS_KEY must be set",
		"MAIL_PROVIDER",
		"NOTIFY_RATE_LIMIT_MAX",
	} {
		assert.True(t, strings.Contains(msg, want), "missing %q in %s", want, msg)
	}
}

func TestValidate_SMTPRequiresHost(t *testing.T) {
	cfg := validConfig()
	cfg.Mail.Provider = "smtp"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP_HOST")
}

func TestMailConfig_ProviderConfig(t *testing.T) {
	mail := MailConfig{
		Provider:    "smtp",
		Host:        "smtp.example.com",
		Username:    "mailer",
		Password:    "secret",
		FromAddress: "hr@example.com",
	}

	pc := mail.ProviderConfig()

	assert.Equal(t, domain.ProviderSMTP, pc.Kind)
	assert.Equal(t, 587, pc.Port)
	assert.Equal(t, domain.TLSOpportunistic, pc.TLSPolicy)
	assert.Equal(t, domain.DefaultProviderTimeout, pc.Timeout)
	assert.NoError(t, pc.Validate())
}

func TestString_RedactsSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Database.URL = "postgres://user:pass@db:5432/app"
	cfg.JWT.Secret = "super-secret-value"

	out := cfg.String()

	assert.NotContains(t, out, "pass@")
	assert.NotContains(t, out, "super-secret-value")
	assert.Contains(t, out, "@db:5432/app")
}

func TestGetStringSliceOrDefault(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " broker-1:9092, ,broker-2:9092 ")

	got := getStringSliceOrDefault("KAFKA_BROKERS", nil)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, got)
}

func TestLoadClient_ReadsRealtimeSettings(t *testing.T) {
	t.Setenv("REALTIME_URL", "ws://timeline.example.com/api/v1/ws")
	t.Setenv("REALTIME_TOKEN", "tok")
	t.Setenv("REALTIME_RECONNECT_DELAY", "500ms")
	t.Setenv("REALTIME_MAX_ATTEMPTS", "2")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "ws://timeline.example.com/api/v1/ws", cfg.Realtime.URL)
	assert.Equal(t, "tok", cfg.Realtime.Token)
	assert.Equal(t, 500*time.Millisecond, cfg.Realtime.ReconnectDelay)
	assert.Equal(t, 2, cfg.Realtime.MaxAttempts)
}

func TestLoadClient_RejectsNegativeAttempts(t *testing.T) {
	t.Setenv("REALTIME_MAX_ATTEMPTS", "-1")

	_, err := LoadClient()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REALTIME_MAX_ATTEMPTS")
}
