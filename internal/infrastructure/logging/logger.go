package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	// EventTypeKey tags log lines with the domain event being handled.
	EventTypeKey contextKey = "event_type"
)

// contextKeys are copied onto every record, in this order, when present.
var contextKeys = []contextKey{RequestIDKey, UserIDKey, EventTypeKey}

// Config holds logger configuration
type Config struct {
	Level       string // debug, info, warn, error
	Format      string // json, text
	Output      io.Writer
	AddSource   bool
	ServiceName string
	Version     string
	Environment string
}

// NewLogger creates a structured logger that stamps every record with
// service metadata, request-scoped context values and the active trace.
func NewLogger(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(a.Key, a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}

	meta := []slog.Attr{slog.String("service", cfg.ServiceName)}
	if cfg.Version != "" {
		meta = append(meta, slog.String("version", cfg.Version))
	}
	if cfg.Environment != "" {
		meta = append(meta, slog.String("environment", cfg.Environment))
	}

	return slog.New(&contextHandler{handler: handler.WithAttrs(meta)})
}

// ParseLevel maps a configured level name to a slog level. Unknown names
// fall back to info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// contextHandler adds context values and trace identifiers at handle time.
type contextHandler struct {
	handler slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(contextAttrs(ctx)...)
	return h.handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{handler: h.handler.WithGroup(name)}
}

func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var attrs []slog.Attr
	for _, key := range contextKeys {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return attrs
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WithEventType tags the context with the domain event being processed
func WithEventType(ctx context.Context, eventType string) context.Context {
	return context.WithValue(ctx, EventTypeKey, eventType)
}

func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(RequestIDKey).(string)
	return requestID
}

// LoggerFromContext binds the context values to logger, for code paths
// that log without passing ctx.
func LoggerFromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	attrs := contextAttrs(ctx)
	if len(attrs) == 0 {
		return logger
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return logger.With(args...)
}

// LogPanic logs a recovered panic value with the current goroutine's stack.
func LogPanic(logger *slog.Logger, panicValue any) {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)

	logger.Error("panic recovered",
		"panic", panicValue,
		"stack_trace", string(buf[:n]),
	)
}

// RequestRecord describes one completed HTTP request.
type RequestRecord struct {
	Method   string
	Path     string
	Status   int
	Duration time.Duration
	Bytes    int64
	ClientIP string
	Agent    string
}

// HTTPRequestLogger logs completed requests at a level derived from the
// status code. Health and metrics scrapes are logged at debug.
type HTTPRequestLogger struct {
	Logger     *slog.Logger
	QuietPaths []string
}

func (l *HTTPRequestLogger) LogRequest(ctx context.Context, rec RequestRecord) {
	level := slog.LevelInfo
	switch {
	case rec.Status >= 500:
		level = slog.LevelError
	case rec.Status >= 400:
		level = slog.LevelWarn
	case l.quiet(rec.Path):
		level = slog.LevelDebug
	}

	l.Logger.Log(ctx, level, "http request",
		"method", rec.Method,
		"path", rec.Path,
		"status_code", rec.Status,
		"duration_ms", rec.Duration.Milliseconds(),
		"bytes_written", rec.Bytes,
		"client_ip", rec.ClientIP,
		"user_agent", rec.Agent,
	)
}

func (l *HTTPRequestLogger) quiet(path string) bool {
	for _, p := range l.QuietPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
