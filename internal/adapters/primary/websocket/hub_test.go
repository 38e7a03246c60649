package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/metrics"
)

func newRunningHub(t *testing.T, m *metrics.Metrics) *Hub {
	t.Helper()
	hub := NewHub(16, m, slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	return hub
}

func receive(t *testing.T, ch <-chan domain.NotificationMessage) (domain.NotificationMessage, bool) {
	t.Helper()
	select {
	case msg, ok := <-ch:
		return msg, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return domain.NotificationMessage{}, false
	}
}

func TestHub_SlowClientIsDisconnectedWithoutBlockingOthers(t *testing.T) {
	hub := newRunningHub(t, metrics.NewNop())

	slow := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan domain.NotificationMessage, 1)}
	fast := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan domain.NotificationMessage, 1)}
	hub.Register <- slow
	hub.Register <- fast
	require.Eventually(t, func() bool { return hub.GetClientCount() == 2 }, time.Second, 10*time.Millisecond)

	first := domain.NewNotificationMessage(domain.MessageLeaveRequestUpdate, "first", nil)
	second := domain.NewNotificationMessage(domain.MessageLeaveRequestUpdate, "second", nil)

	hub.Broadcast(first)
	msg, ok := receive(t, fast.Send)
	require.True(t, ok)
	assert.Equal(t, "first", msg.Text())

	hub.Broadcast(second)
	msg, ok = receive(t, fast.Send)
	require.True(t, ok)
	assert.Equal(t, "second", msg.Text())

	msg, ok = receive(t, slow.Send)
	require.True(t, ok)
	assert.Equal(t, "first", msg.Text())
	_, ok = receive(t, slow.Send)
	assert.False(t, ok, "slow client's queue should be closed")

	assert.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.False(t, hub.IsUserConnected(slow.UserID))
	assert.True(t, hub.IsUserConnected(fast.UserID))
}

func TestHub_QueueOverflowDrops(t *testing.T) {
	m := metrics.NewNop()
	hub := NewHub(1, m, slog.New(slog.DiscardHandler))

	msg := domain.NewNotificationMessage(domain.MessageReportReady, "ready", nil)
	hub.Broadcast(msg)
	hub.Broadcast(msg)
	hub.SendToUser(uuid.New(), msg)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.HubDropped))
}

func TestHub_UnregisterTwiceIsSafe(t *testing.T) {
	hub := newRunningHub(t, metrics.NewNop())

	c := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan domain.NotificationMessage, 1)}
	hub.Register <- c
	hub.Unregister <- c
	hub.Unregister <- c

	assert.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_ServeOverWebsocket(t *testing.T) {
	hub := newRunningHub(t, metrics.NewNop())
	logger := slog.New(slog.DiscardHandler)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.URL.Query().Get("user"))
		if err != nil {
			http.Error(w, "bad user", http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = Serve(hub, conn, userID, logger)
	}))
	defer srv.Close()

	dial := func(userID uuid.UUID) *websocket.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + userID.String()
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	}

	alice, bob := uuid.New(), uuid.New()
	aliceConn := dial(alice)
	bobConn := dial(bob)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	read := func(conn *websocket.Conn) map[string]any {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var frame map[string]any
		require.NoError(t, json.Unmarshal(data, &frame))
		return frame
	}

	hub.SendToUser(alice, domain.NewNotificationMessage(domain.MessageLeaveRequestUpdate, "Your leave was approved", nil))
	frame := read(aliceConn)
	assert.Equal(t, "LEAVE_REQUEST_UPDATE", frame["type"])
	assert.Equal(t, map[string]any{"message": "Your leave was approved"}, frame["data"])

	hub.Broadcast(domain.NewNotificationMessage(domain.MessageReportReady, "Reports are ready", nil))
	assert.Equal(t, "REPORT_READY", read(bobConn)["type"], "bob only sees the broadcast")
	assert.Equal(t, "REPORT_READY", read(aliceConn)["type"])

	require.NoError(t, bobConn.WriteMessage(websocket.TextMessage, []byte(`{"type":"PING"}`)))
	assert.Equal(t, "PONG", read(bobConn)["type"])

	_ = bobConn.Close()
	assert.Eventually(t, func() bool { return !hub.IsUserConnected(bob) }, 2*time.Second, 10*time.Millisecond)
}
