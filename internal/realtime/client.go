package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
)

const (
	DefaultReconnectDelay = 3 * time.Second
	DefaultMaxAttempts    = 5
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	URL            string
	Token          string
	ReconnectDelay time.Duration
	MaxAttempts    int
	// ShowAlerts raises an AlertNotification for every received notification.
	ShowAlerts bool
	InboxLimit int

	Dialer  Dialer
	Clock   Clock
	Alerter Alerter
	Logger  *slog.Logger
}

// Snapshot is the observable state of a client.
type Snapshot struct {
	State         State
	Notifications []domain.ClientNotification
	Unread        int
}

// readEvent is posted by a socket reader. gen identifies the socket so
// events from a replaced socket can be ignored.
type readEvent struct {
	gen  uint64
	data []byte
	err  error
}

// Client maintains one logical realtime connection with bounded
// reconnection. Run owns the socket and the reconnection timer; everything
// else is safe for concurrent use.
type Client struct {
	url        string
	delay      time.Duration
	maxRetries int
	showAlerts bool

	dialer  Dialer
	clock   Clock
	alerter Alerter
	logger  *slog.Logger
	inbox   *Inbox

	mu        sync.Mutex
	state     State
	listeners map[uint64]func(Snapshot)
	nextID    uint64
	cancel    context.CancelFunc
	running   bool
	closed    bool
}

// NewClient validates opts and creates a disconnected client.
func NewClient(opts Options) (*Client, error) {
	target, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("realtime: invalid url: %w", err)
	}
	if target.Scheme != "ws" && target.Scheme != "wss" {
		return nil, fmt.Errorf("realtime: url scheme must be ws or wss, got %q", target.Scheme)
	}
	if opts.Token != "" {
		q := target.Query()
		q.Set("token", opts.Token)
		target.RawQuery = q.Encode()
	}

	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Dialer == nil {
		opts.Dialer = WebSocketDialer{}
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Alerter == nil {
		opts.Alerter = LogAlerter{Logger: opts.Logger}
	}

	return &Client{
		url:        target.String(),
		delay:      opts.ReconnectDelay,
		maxRetries: opts.MaxAttempts,
		showAlerts: opts.ShowAlerts,
		dialer:     opts.Dialer,
		clock:      opts.Clock,
		alerter:    opts.Alerter,
		logger:     opts.Logger.With("component", "realtime_client"),
		inbox:      NewInbox(opts.InboxLimit),
		state:      StateDisconnected,
		listeners:  make(map[uint64]func(Snapshot)),
	}, nil
}

// Run connects and keeps the connection alive until ctx is cancelled, Close
// is called, or reconnection attempts are exhausted. The last case returns
// an error wrapping ErrConnection. The socket is closed and any pending
// timer stopped before Run returns.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apperrors.ErrClientClosed
	}
	if c.running {
		c.mu.Unlock()
		return errors.New("realtime: client is already running")
	}
	c.running = true
	c.cancel = cancel
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.cancel = nil
		c.mu.Unlock()
	}()

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(c.delay), uint64(c.maxRetries))
	events := make(chan readEvent)
	var (
		gen      uint64
		attempts int
		alerted  bool
		lastErr  error
	)

	for {
		c.setState(StateConnecting)
		conn, err := c.dialer.Dial(ctx, c.url)
		if err == nil {
			gen++
			attempts = 0
			alerted = false
			policy.Reset()
			c.setState(StateOpen)
			c.logger.InfoContext(ctx, "realtime connection open")

			go c.read(ctx, gen, conn, events)
			err = c.serve(ctx, gen, events)
			_ = conn.Close()
		}

		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return nil
		}
		lastErr = err

		if attempts == 0 && !alerted {
			alerted = true
			c.alerter.Alert(ctx, Alert{Kind: AlertReconnecting, Message: "Connection lost. Reconnecting..."})
		}

		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			c.setState(StateClosedFinal)
			c.logger.ErrorContext(ctx, "realtime reconnection attempts exhausted", "attempts", attempts, "error", lastErr)
			c.alerter.Alert(ctx, Alert{Kind: AlertConnectionLost, Message: "Unable to reach the notification service."})
			return fmt.Errorf("%w after %d attempts: %w", apperrors.ErrConnection, attempts, lastErr)
		}

		attempts++
		c.setState(StateClosedRetrying)
		c.logger.WarnContext(ctx, "realtime connection closed, retrying",
			"attempt", attempts,
			"delay", wait,
			"error", err,
		)

		timer := c.clock.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.setState(StateDisconnected)
			return nil
		case <-timer.C():
		}
	}
}

// serve processes reader events for the socket tagged gen until it fails.
func (c *Client) serve(ctx context.Context, gen uint64, events <-chan readEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if ev.gen != gen {
				continue
			}
			if ev.err != nil {
				return ev.err
			}
			c.handleFrame(ctx, ev.data)
		}
	}
}

func (c *Client) read(ctx context.Context, gen uint64, conn Conn, events chan<- readEvent) {
	for {
		_, data, err := conn.ReadMessage()
		select {
		case events <- readEvent{gen: gen, data: data, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

func (c *Client) handleFrame(ctx context.Context, data []byte) {
	msg, err := ParseMessage(data)
	if err != nil {
		c.logger.WarnContext(ctx, "dropping realtime frame", "error", err, "size", len(data))
		return
	}

	if msg.Type != domain.MessageLeaveRequestUpdate {
		c.logger.DebugContext(ctx, "ignoring realtime message", "type", msg.Type)
		return
	}

	n := c.inbox.Prepend(msg.Text(), c.clock.Now())
	c.notify()

	if c.showAlerts {
		c.alerter.Alert(ctx, Alert{Kind: AlertNotification, Message: n.Message})
	}
}

// ParseMessage decodes a realtime text frame. Frames that are not JSON or
// carry no type fail with ErrMalformedMessage.
func ParseMessage(data []byte) (domain.NotificationMessage, error) {
	var msg domain.NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.NotificationMessage{}, fmt.Errorf("%w: %v", apperrors.ErrMalformedMessage, err)
	}
	if msg.Type == "" {
		return domain.NotificationMessage{}, fmt.Errorf("%w: missing type", apperrors.ErrMalformedMessage)
	}
	return msg, nil
}

// Close stops Run and prevents further runs.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Subscribe registers fn for state and inbox changes and calls it once with
// the current snapshot. The returned func removes the subscription.
func (c *Client) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	fn(c.Snapshot())

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Client) Snapshot() Snapshot {
	items, unread := c.inbox.Items()
	return Snapshot{State: c.State(), Notifications: items, Unread: unread}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) UnreadCount() int {
	return c.inbox.UnreadCount()
}

// MarkAllAsRead is local only and idempotent.
func (c *Client) MarkAllAsRead() {
	c.inbox.MarkAllAsRead()
	c.notify()
}

func (c *Client) MarkAsRead(id string) bool {
	ok := c.inbox.MarkAsRead(id)
	if ok {
		c.notify()
	}
	return ok
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()

	if changed {
		c.notify()
	}
}

func (c *Client) notify() {
	c.mu.Lock()
	fns := make([]func(Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	if len(fns) == 0 {
		return
	}
	snap := c.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}
