package websocket

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "bizdash.websocket"

// Metrics records session message traffic. A nil *Metrics records nothing.
type Metrics struct {
	messagesTotal   metric.Int64Counter
	messageBytes    metric.Int64Counter
	messageDuration metric.Float64Histogram
	droppedMessages metric.Int64Counter
	sessionDuration metric.Float64Histogram
}

// NewMetrics creates the session instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	messagesTotal, err := meter.Int64Counter(
		"websocket_messages_total",
		metric.WithDescription("Total number of session messages handled"),
	)
	if err != nil {
		return nil, err
	}

	messageBytes, err := meter.Int64Counter(
		"websocket_message_bytes_total",
		metric.WithDescription("Total bytes of session messages"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	messageDuration, err := meter.Float64Histogram(
		"websocket_message_duration_seconds",
		metric.WithDescription("Time spent handling a session message"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	droppedMessages, err := meter.Int64Counter(
		"websocket_dropped_messages_total",
		metric.WithDescription("Responses dropped because the send buffer was full"),
	)
	if err != nil {
		return nil, err
	}

	sessionDuration, err := meter.Float64Histogram(
		"websocket_session_duration_seconds",
		metric.WithDescription("Lifetime of websocket sessions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		messagesTotal:   messagesTotal,
		messageBytes:    messageBytes,
		messageDuration: messageDuration,
		droppedMessages: droppedMessages,
		sessionDuration: sessionDuration,
	}, nil
}

// RecordMessage records one handled request message.
func (m *Metrics) RecordMessage(ctx context.Context, messageType string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("type", messageType),
		attribute.String("status", status),
	)
	m.messagesTotal.Add(ctx, 1, attrs)
	m.messageDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordBytes counts payload bytes by direction ("in" or "out").
func (m *Metrics) RecordBytes(ctx context.Context, direction string, n int) {
	if m == nil {
		return
	}
	m.messageBytes.Add(ctx, int64(n), metric.WithAttributes(attribute.String("direction", direction)))
}

// RecordDropped counts a response that could not be queued.
func (m *Metrics) RecordDropped(ctx context.Context, messageType string) {
	if m == nil {
		return
	}
	m.droppedMessages.Add(ctx, 1, metric.WithAttributes(attribute.String("type", messageType)))
}

// RecordSessionClosed records how long a session stayed open.
func (m *Metrics) RecordSessionClosed(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.sessionDuration.Record(ctx, d.Seconds())
}
