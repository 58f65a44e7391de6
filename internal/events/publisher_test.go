package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizdash/internal/shared/testutil"
)

type fakeChannel struct {
	published []amqp091.Publishing
	keys      []string
	err       error
	closed    bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp091.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func newTestPublisher(t *testing.T, channels ...*fakeChannel) (*AMQPPublisher, *int, *testutil.BufferedSlogHandler) {
	t.Helper()
	dials := 0
	dial := func() (channel, func() error, error) {
		if dials >= len(channels) {
			return nil, nil, errors.New("dial AMQP: connection refused")
		}
		ch := channels[dials]
		dials++
		return ch, func() error { return nil }, nil
	}
	logger, handler := testutil.NewTestLogger(t)
	p, err := newPublisher("bizdash.events", "run.completed", dial, logger)
	require.NoError(t, err)
	p.sleep = func(time.Duration) {}
	return p, &dials, handler
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p, _, handler := newTestPublisher(t, ch)

	err := p.PublishRunCompleted(context.Background(), RunCompleted{RunID: "r1", Domain: "Sales", Status: "succeeded", RowsIn: 3, RowsOut: 2})
	require.NoError(t, err)

	require.Len(t, ch.published, 1)
	assert.Equal(t, []string{"run.completed"}, ch.keys)
	assert.Equal(t, "application/json", ch.published[0].ContentType)
	assert.Equal(t, amqp091.Persistent, ch.published[0].DeliveryMode)

	msg, err := RunCompletedFromJSON(ch.published[0].Body)
	require.NoError(t, err)
	assert.Equal(t, "r1", msg.RunID)
	assert.Equal(t, 2, msg.RowsOut)
	assert.False(t, msg.Timestamp.IsZero())
	assert.True(t, handler.ContainsMessage("Published run completed message"))
}

func TestAMQPPublisher_ReconnectsAfterConnectionError(t *testing.T) {
	broken := &fakeChannel{err: amqp091.ErrClosed}
	healthy := &fakeChannel{}
	p, dials, handler := newTestPublisher(t, broken, healthy)

	require.NoError(t, p.PublishRunCompleted(context.Background(), RunCompleted{RunID: "r1"}))
	assert.Equal(t, 2, *dials)
	assert.True(t, broken.closed)
	assert.Len(t, healthy.published, 1)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "AMQP publish failed, reconnecting")
}

func TestAMQPPublisher_GivesUp(t *testing.T) {
	p, _, _ := newTestPublisher(t, &fakeChannel{err: amqp091.ErrClosed})

	err := p.PublishRunCompleted(context.Background(), RunCompleted{RunID: "r1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish message")
}

func TestAMQPPublisher_NonConnectionErrorNotRetried(t *testing.T) {
	ch := &fakeChannel{err: errors.New("precondition failed")}
	p, dials, _ := newTestPublisher(t, ch)

	require.Error(t, p.PublishRunCompleted(context.Background(), RunCompleted{RunID: "r1"}))
	assert.Equal(t, 1, *dials)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"closed", amqp091.ErrClosed, true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"other", errors.New("access refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isConnectionError(tt.err))
		})
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.PublishRunCompleted(context.Background(), RunCompleted{}))
	assert.NoError(t, p.Close())
}

type recordingPublisher struct {
	got []RunCompleted
	err error
}

func (p *recordingPublisher) PublishRunCompleted(_ context.Context, msg RunCompleted) error {
	p.got = append(p.got, msg)
	return p.err
}

func (p *recordingPublisher) Close() error { return p.err }

func TestMulti(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("broker down")}
	m := Multi{failing, ok}

	err := m.PublishRunCompleted(context.Background(), RunCompleted{RunID: "r1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	require.Len(t, ok.got, 1, "later publishers still receive the message")
	assert.Equal(t, "r1", ok.got[0].RunID)
	assert.Error(t, m.Close())
	assert.NoError(t, Multi{ok}.Close())
}
