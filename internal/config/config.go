package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// WebSocket configuration
	WebSocket WebSocketConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig

	// Initial delivery provider settings
	Mail MailConfig

	// Dispatcher and event bus tuning
	Notification NotificationConfig

	// Kafka domain-event ingress
	Kafka KafkaConfig

	// Tracing
	Telemetry TelemetryConfig

	// Credential encryption
	Secrets SecretsConfig

	// Realtime client (cmd/notify-client)
	Realtime RealtimeClientConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL             string
	MigrationsPath  string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	EventsRPS         float64 // Per-caller limit for POST /events
	EventsBurst       int
	IdleTTL           time.Duration
}

// WebSocketConfig holds WebSocket configuration
type WebSocketConfig struct {
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string // debug, info, warn, error
	Format    string // json, text
	AddSource bool
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// MailConfig seeds the provider configuration when none is persisted.
type MailConfig struct {
	Provider     string // smtp, sendmail, preview
	Host         string
	Port         int
	Username     string
	Password     string
	FromAddress  string
	FromName     string
	SendmailPath string
	TLSPolicy    string
	Timeout      time.Duration
}

// ProviderConfig converts the environment settings into the domain form.
func (m MailConfig) ProviderConfig() domain.ProviderConfig {
	return domain.ProviderConfig{
		Kind:         domain.ProviderKind(m.Provider),
		Host:         m.Host,
		Port:         m.Port,
		Username:     m.Username,
		Password:     m.Password,
		FromAddress:  m.FromAddress,
		FromName:     m.FromName,
		SendmailPath: m.SendmailPath,
		TLSPolicy:    domain.TLSPolicy(m.TLSPolicy),
		Timeout:      m.Timeout,
	}.WithDefaults()
}

// NotificationConfig holds dispatcher and bus settings
type NotificationConfig struct {
	RateLimitMax    int
	RateLimitWindow time.Duration
	SendTimeout     time.Duration
	PreviewHistory  int
	BusBuffer       int
	HubBuffer       int
}

// KafkaConfig holds the optional domain-event consumer settings
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Enabled reports whether the Kafka consumer should run.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// TelemetryConfig holds tracing configuration
type TelemetryConfig struct {
	OTLPEndpoint string
}

// SecretsConfig holds the key used to encrypt stored credentials
type SecretsConfig struct {
	CredentialsKey string
}

// RealtimeClientConfig holds settings for the terminal realtime client
type RealtimeClientConfig struct {
	URL            string
	Token          string
	ReconnectDelay time.Duration
	MaxAttempts    int
	ShowAlerts     bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", ":8080"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getDurationOrDefault("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MigrationsPath:  getEnvOrDefault("MIGRATIONS_PATH", "file://migrations"),
			MaxOpenConns:    getIntOrDefault("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntOrDefault("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationOrDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getDurationOrDefault("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			AccessTokenTTL: getDurationOrDefault("JWT_ACCESS_TOKEN_TTL", 1*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolOrDefault("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getFloatOrDefault("RATE_LIMIT_RPS", 10),
			BurstSize:         getIntOrDefault("RATE_LIMIT_BURST", 20),
			EventsRPS:         getFloatOrDefault("RATE_LIMIT_EVENTS_RPS", 20),
			EventsBurst:       getIntOrDefault("RATE_LIMIT_EVENTS_BURST", 50),
			IdleTTL:           getDurationOrDefault("RATE_LIMIT_IDLE_TTL", 3*time.Minute),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins:  getStringSliceOrDefault("WS_ALLOWED_ORIGINS", []string{}),
			ReadBufferSize:  getIntOrDefault("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getIntOrDefault("WS_WRITE_BUFFER_SIZE", 1024),
		},
		Logging: LoggingConfig{
			Level:     getEnvOrDefault("LOG_LEVEL", "info"),
			Format:    getEnvOrDefault("LOG_FORMAT", "json"),
			AddSource: getBoolOrDefault("LOG_ADD_SOURCE", false),
		},
		App: AppConfig{
			Name:        getEnvOrDefault("APP_NAME", "employee-timeline"),
			Version:     getEnvOrDefault("APP_VERSION", "dev"),
			Environment: getEnvOrDefault("APP_ENV", "development"),
		},
		Mail: MailConfig{
			Provider:     getEnvOrDefault("MAIL_PROVIDER", "preview"),
			Host:         os.Getenv("SMTP_HOST"),
			Port:         getIntOrDefault("SMTP_PORT", 587),
			Username:     os.Getenv("SMTP_USERNAME"),
			Password:     os.Getenv("SMTP_PASSWORD"),
			FromAddress:  getEnvOrDefault("MAIL_FROM_ADDRESS", "no-reply@employee-timeline.local"),
			FromName:     getEnvOrDefault("MAIL_FROM_NAME", "Employee Timeline"),
			SendmailPath: getEnvOrDefault("SENDMAIL_PATH", "/usr/sbin/sendmail"),
			TLSPolicy:    getEnvOrDefault("SMTP_TLS_POLICY", "opportunistic"),
			Timeout:      getDurationOrDefault("MAIL_TIMEOUT", 15*time.Second),
		},
		Notification: NotificationConfig{
			RateLimitMax:    getIntOrDefault("NOTIFY_RATE_LIMIT_MAX", 60),
			RateLimitWindow: getDurationOrDefault("NOTIFY_RATE_LIMIT_WINDOW", time.Minute),
			SendTimeout:     getDurationOrDefault("NOTIFY_SEND_TIMEOUT", 20*time.Second),
			PreviewHistory:  getIntOrDefault("NOTIFY_PREVIEW_HISTORY", 50),
			BusBuffer:       getIntOrDefault("NOTIFY_BUS_BUFFER", 256),
			HubBuffer:       getIntOrDefault("WS_HUB_BUFFER", 256),
		},
		Kafka: KafkaConfig{
			Brokers: getStringSliceOrDefault("KAFKA_BROKERS", []string{}),
			Topic:   getEnvOrDefault("KAFKA_TOPIC", "hr.domain-events"),
			GroupID: getEnvOrDefault("KAFKA_GROUP_ID", "employee-timeline-notifications"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
		Secrets: SecretsConfig{
			CredentialsKey: os.Getenv("CREDENTIALS_KEY"),
		},
		Realtime: RealtimeClientConfig{
			URL:            getEnvOrDefault("REALTIME_URL", "ws://localhost:8080/api/v1/ws"),
			Token:          os.Getenv("REALTIME_TOKEN"),
			ReconnectDelay: getDurationOrDefault("REALTIME_RECONNECT_DELAY", 3*time.Second),
			MaxAttempts:    getIntOrDefault("REALTIME_MAX_ATTEMPTS", 5),
			ShowAlerts:     getBoolOrDefault("REALTIME_SHOW_ALERTS", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ClientConfig is the subset of settings used by cmd/notify-client.
type ClientConfig struct {
	Realtime RealtimeClientConfig
	Logging  LoggingConfig
	App      AppConfig
}

// LoadClient loads the realtime client settings only; server secrets are
// not required.
func LoadClient() (*ClientConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &ClientConfig{
		Realtime: RealtimeClientConfig{
			URL:            getEnvOrDefault("REALTIME_URL", "ws://localhost:8080/api/v1/ws"),
			Token:          os.Getenv("REALTIME_TOKEN"),
			ReconnectDelay: getDurationOrDefault("REALTIME_RECONNECT_DELAY", 3*time.Second),
			MaxAttempts:    getIntOrDefault("REALTIME_MAX_ATTEMPTS", 5),
			ShowAlerts:     getBoolOrDefault("REALTIME_SHOW_ALERTS", true),
		},
		Logging: LoggingConfig{
			Level:     getEnvOrDefault("LOG_LEVEL", "info"),
			Format:    getEnvOrDefault("LOG_FORMAT", "text"),
			AddSource: getBoolOrDefault("LOG_ADD_SOURCE", false),
		},
		App: AppConfig{
			Name:        getEnvOrDefault("APP_NAME", "notify-client"),
			Version:     getEnvOrDefault("APP_VERSION", "dev"),
			Environment: getEnvOrDefault("APP_ENV", "development"),
		},
	}

	var errs []string
	if cfg.Realtime.URL == "" {
		errs = append(errs, "REALTIME_URL is required")
	}
	if cfg.Realtime.ReconnectDelay <= 0 {
		errs = append(errs, "REALTIME_RECONNECT_DELAY must be positive")
	}
	if cfg.Realtime.MaxAttempts < 0 {
		errs = append(errs, "REALTIME_MAX_ATTEMPTS cannot be negative")
	}
	if len(errs) > 0 {
		return nil, errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []string

	// Required fields
	if c.Database.URL == "" && c.IsProduction() {
		errs = append(errs, "DATABASE_URL is required in production")
	}

	if c.JWT.Secret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}

	// Security validations
	if c.App.Environment == "production" {
		if len(c.JWT.Secret) < 32 {
			errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
		}

		if len(c.WebSocket.AllowedOrigins) == 0 {
			errs = append(errs, "WS_ALLOWED_ORIGINS must be set in production")
		}

		if c.Secrets.CredentialsKey == "" {
			errs = append(errs, "CREDENTIALS_KEY must be set in production")
		}
	}

	switch c.Mail.Provider {
	case "smtp":
		if c.Mail.Host == "" {
			errs = append(errs, "SMTP_HOST is required when MAIL_PROVIDER=smtp")
		}
	case "sendmail", "preview":
	default:
		errs = append(errs, fmt.Sprintf("MAIL_PROVIDER %q is not one of smtp, sendmail, preview", c.Mail.Provider))
	}

	if c.Notification.RateLimitMax <= 0 {
		errs = append(errs, "NOTIFY_RATE_LIMIT_MAX must be positive")
	}
	if c.Notification.RateLimitWindow <= 0 {
		errs = append(errs, "NOTIFY_RATE_LIMIT_WINDOW must be positive")
	}
	if c.Notification.BusBuffer <= 0 {
		errs = append(errs, "NOTIFY_BUS_BUFFER must be positive")
	}

	// Logical validations
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, "DB_MAX_IDLE_CONNS cannot be greater than DB_MAX_OPEN_CONNS")
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// String returns a redacted string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, DB: %s, JWT: [REDACTED], RateLimit: %v, Mail: %s, Kafka: %v, Environment: %s}",
		c.Server.Port,
		redactURL(c.Database.URL),
		c.RateLimit.Enabled,
		c.Mail.Provider,
		c.Kafka.Enabled(),
		c.App.Environment,
	)
}

// redactURL redacts sensitive parts of a database URL
func redactURL(url string) string {
	if url == "" {
		return ""
	}
	// Very basic redaction - in production you'd want something more robust
	if idx := strings.Index(url, "@"); idx > 0 {
		return "[REDACTED]" + url[idx:]
	}
	return "[REDACTED]"
}
