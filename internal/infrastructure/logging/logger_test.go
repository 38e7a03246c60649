package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		out = append(out, line)
	}
	return out
}

func TestNewLogger_StampsMetadataAndContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{
		Level:       "debug",
		Output:      &buf,
		ServiceName: "employee-timeline",
		Version:     "1.2.3",
		Environment: "test",
	})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithEventType(ctx, "leave_request_approved")

	logger.InfoContext(ctx, "dispatched", "provider", "smtp")
	logger.Debug("no context")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)

	first := lines[0]
	assert.Equal(t, "employee-timeline", first["service"])
	assert.Equal(t, "1.2.3", first["version"])
	assert.Equal(t, "test", first["environment"])
	assert.Equal(t, "req-1", first["request_id"])
	assert.Equal(t, "leave_request_approved", first["event_type"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", first["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", first["span_id"])
	assert.Equal(t, "smtp", first["provider"])

	assert.NotContains(t, lines[1], "request_id")
	assert.NotContains(t, lines[1], "trace_id")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for name, want := range tests {
		assert.Equal(t, want, ParseLevel(name), name)
	}
}

func TestHTTPRequestLogger_LevelByStatus(t *testing.T) {
	var buf bytes.Buffer
	l := &HTTPRequestLogger{
		Logger:     NewLogger(Config{Level: "info", Output: &buf, ServiceName: "svc"}),
		QuietPaths: []string{"/health"},
	}
	ctx := context.Background()

	l.LogRequest(ctx, RequestRecord{Method: "GET", Path: "/health/live", Status: 200})
	l.LogRequest(ctx, RequestRecord{Method: "POST", Path: "/api/v1/events", Status: 202})
	l.LogRequest(ctx, RequestRecord{Method: "POST", Path: "/api/v1/events", Status: 422})
	l.LogRequest(ctx, RequestRecord{Method: "GET", Path: "/health/ready", Status: 503})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3, "quiet successful health checks fall below info")
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "WARN", lines[1]["level"])
	assert.Equal(t, "ERROR", lines[2]["level"])
	assert.EqualValues(t, 503, lines[2]["status_code"])
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(Config{Output: &buf, ServiceName: "svc"})

	assert.Same(t, base, LoggerFromContext(context.Background(), base))

	LoggerFromContext(WithUserID(context.Background(), "u-1"), base).Info("bound")
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "u-1", lines[0]["user_id"])
}
