package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prajwalc1/employee-timeline/internal/core/domain"
	apperrors "github.com/prajwalc1/employee-timeline/internal/core/errors"
	"github.com/prajwalc1/employee-timeline/internal/core/mocks"
	"github.com/prajwalc1/employee-timeline/internal/infrastructure/metrics"
)

type fetchResult struct {
	msg kafkago.Message
	err error
}

// fakeReader replays a fixed script, then blocks until the context ends.
type fakeReader struct {
	mu        sync.Mutex
	script    []fetchResult
	committed []int64
	closed    bool
	drained   chan struct{}
	once      sync.Once
}

func newFakeReader(script ...fetchResult) *fakeReader {
	return &fakeReader{script: script, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	if len(r.script) > 0 {
		next := r.script[0]
		r.script = r.script[1:]
		r.mu.Unlock()
		return next.msg, next.err
	}
	r.mu.Unlock()

	r.once.Do(func() { close(r.drained) })
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func message(offset int64, value string) fetchResult {
	return fetchResult{msg: kafkago.Message{Topic: "hr.domain-events", Offset: offset, Value: []byte(value)}}
}

func runConsumer(t *testing.T, reader *fakeReader, notifications *mocks.MockNotificationService) *metrics.Metrics {
	t.Helper()

	m := metrics.New(prometheus.NewRegistry())
	c := NewConsumer(reader, notifications, m, slog.New(slog.DiscardHandler))
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case <-reader.drained:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not drain the script")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
	return m
}

func TestConsumer_Run(t *testing.T) {
	notifications := mocks.NewMockNotificationService()
	notifications.On("SendNotification", mock.Anything, domain.EventMonthlyReport, map[string]any{"month": "June 2024"}).
		Return(nil).Once()
	notifications.On("SendNotification", mock.Anything, domain.EventType("coffee_break"), mock.Anything).
		Return(fmt.Errorf("%w: coffee_break", apperrors.ErrUnregisteredEventType)).Once()
	notifications.On("SendNotification", mock.Anything, domain.EventAccountCreated, mock.Anything).
		Return(errors.New("bus closed")).Once()

	reader := newFakeReader(
		message(1, `{"type":"monthly_report","payload":{"month":"June 2024"}}`),
		message(2, `not json`),
		message(3, `{"payload":{}}`),
		message(4, `{"type":"coffee_break","payload":{}}`),
		message(5, `{"type":"account_created","payload":{}}`),
	)

	m := runConsumer(t, reader, notifications)

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, reader.committed)
	assert.True(t, reader.closed)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KafkaEvents.WithLabelValues(OutcomeAccepted)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.KafkaEvents.WithLabelValues(OutcomeMalformed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KafkaEvents.WithLabelValues(OutcomeUnregistered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KafkaEvents.WithLabelValues(OutcomeFailed)))
	notifications.AssertExpectations(t)
}

func TestConsumer_RetriesFetchErrors(t *testing.T) {
	notifications := mocks.NewMockNotificationService()
	notifications.On("SendNotification", mock.Anything, domain.EventPasswordReset, mock.Anything).Return(nil).Once()

	reader := newFakeReader(
		fetchResult{err: errors.New("broker not available")},
		fetchResult{err: errors.New("broker not available")},
		message(7, `{"type":"password_reset","payload":{"resetLink":"https://x"}}`),
	)

	runConsumer(t, reader, notifications)

	assert.Equal(t, []int64{7}, reader.committed)
	notifications.AssertExpectations(t)
}

func TestDecode(t *testing.T) {
	event, err := Decode([]byte(`{"type":"leave_request_created","payload":{"employee":{"name":"A"}},"occurredAt":"2024-06-01T10:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.EventLeaveRequestCreated, event.Type())
	assert.Equal(t, 2024, event.OccurredAt().Year())
	assert.Contains(t, event.Payload(), "employee")

	_, err = Decode([]byte(`{"type":`))
	assert.ErrorIs(t, err, apperrors.ErrMalformedMessage)
}
