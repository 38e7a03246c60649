package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
)

const maxFrameSize = 64 * 1024

// Conn is an open realtime socket. ReadMessage blocks until a frame arrives
// or the socket fails; Close unblocks it.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	Close() error
}

// Dialer opens realtime sockets.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebSocketDialer dials with gorilla/websocket.
type WebSocketDialer struct {
	Dialer *websocket.Dialer
	Header http.Header
}

func (d WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, url, d.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: handshake status %d: %v", apperrors.ErrConnection, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrConnection, err)
	}

	conn.SetReadLimit(maxFrameSize)
	return conn, nil
}

// Timer is a one-shot timer.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// Clock creates timers and reads the current time.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) NewTimer(d time.Duration) Timer {
	return systemTimer{time.NewTimer(d)}
}

type systemTimer struct {
	t *time.Timer
}

func (s systemTimer) C() <-chan time.Time { return s.t.C }
func (s systemTimer) Stop() bool          { return s.t.Stop() }

// AlertKind classifies user-visible alerts.
type AlertKind string

const (
	AlertReconnecting   AlertKind = "reconnecting"
	AlertConnectionLost AlertKind = "connection_lost"
	AlertNotification   AlertKind = "notification"
)

// Alert is a transient user-visible message (a toast in a UI).
type Alert struct {
	Kind    AlertKind
	Message string
}

// Alerter surfaces alerts to the user.
type Alerter interface {
	Alert(ctx context.Context, alert Alert)
}

// LogAlerter writes alerts to a logger.
type LogAlerter struct {
	Logger *slog.Logger
}

func (a LogAlerter) Alert(ctx context.Context, alert Alert) {
	level := slog.LevelInfo
	if alert.Kind != AlertNotification {
		level = slog.LevelWarn
	}
	a.Logger.Log(ctx, level, alert.Message, "alert", alert.Kind)
}
