package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	wsAdapter "github.com/prajwalc1/employee-timeline/internal/adapters/primary/websocket"
	"github.com/prajwalc1/employee-timeline/internal/auth"
	"github.com/prajwalc1/employee-timeline/internal/config"
)

// WebSocketHandler handles WebSocket connection upgrades
type WebSocketHandler struct {
	hub      *wsAdapter.Hub
	tm       *auth.TokenManager
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *wsAdapter.Hub,
	tm *auth.TokenManager,
	cfg *config.Config,
	logger *slog.Logger,
) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:    hub,
		tm:     tm,
		logger: logger.With("handler", "websocket"),
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     handler.makeOriginChecker(cfg),
	}

	return handler
}

// makeOriginChecker creates an origin checking function based on configuration
func (h *WebSocketHandler) makeOriginChecker(cfg *config.Config) func(r *http.Request) bool {
	allowedOrigins := cfg.WebSocket.AllowedOrigins

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// In development mode, allow all origins (but log a warning)
		if cfg.IsDevelopment() {
			if origin != "" {
				h.logger.Warn("allowing websocket connection in development mode",
					"origin", origin,
					"remote_addr", r.RemoteAddr,
				)
			}
			return true
		}

		// No origin header (same-origin request or non-browser client)
		if origin == "" {
			return true
		}

		parsedOrigin, err := url.Parse(origin)
		if err != nil {
			h.logger.Warn("failed to parse websocket origin",
				"origin", origin,
				"error", err,
			)
			return false
		}

		if originAllowed(parsedOrigin.Host, allowedOrigins) {
			return true
		}

		h.logger.Warn("websocket connection rejected due to origin",
			"origin", origin,
			"remote_addr", r.RemoteAddr,
			"allowed_origins", allowedOrigins,
		)
		return false
	}
}

// originAllowed supports exact hosts and wildcard subdomains like "*.example.com".
func originAllowed(host string, allowed []string) bool {
	for _, a := range allowed {
		if strings.HasPrefix(a, "*.") {
			suffix := a[1:]
			if strings.HasSuffix(host, suffix) || host == a[2:] {
				return true
			}
		} else if host == a {
			return true
		}
	}
	return false
}

// ServeHTTP handles WebSocket connection requests
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Browsers cannot set headers on the upgrade request, so the token
	// travels as a query parameter.
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		h.logger.WarnContext(ctx, "websocket connection rejected: missing token",
			"remote_addr", r.RemoteAddr,
		)
		http.Error(w, "Missing authentication token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tm.ValidateToken(tokenString)
	if err != nil {
		h.logger.WarnContext(ctx, "websocket connection rejected: invalid token",
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to upgrade websocket connection",
			"user_id", claims.UserID,
			"error", err,
		)
		return
	}

	if err := wsAdapter.Serve(h.hub, conn, claims.UserID, h.logger); err != nil {
		h.logger.WarnContext(ctx, "websocket connection dropped", "user_id", claims.UserID, "error", err)
		return
	}

	h.logger.InfoContext(ctx, "websocket connection established",
		"user_id", claims.UserID,
		"remote_addr", r.RemoteAddr,
	)
}
