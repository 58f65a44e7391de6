// Package events publishes run notifications to RabbitMQ.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Publisher sends run notifications.
type Publisher interface {
	PublishRunCompleted(ctx context.Context, msg RunCompleted) error
	Close() error
}

// Nop discards every message. It is used when events are disabled.
type Nop struct{}

func (Nop) PublishRunCompleted(context.Context, RunCompleted) error { return nil }
func (Nop) Close() error { return nil }

// Multi delivers every message to each publisher in order. Errors are joined.
type Multi []Publisher

func (m Multi) PublishRunCompleted(ctx context.Context, msg RunCompleted) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishRunCompleted(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const (
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
	maxAttempts    = 3
)

// channel is the subset of *amqp091.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// dialFunc opens a connection and a channel with the exchange declared.
type dialFunc func() (channel, func() error, error)

// AMQPPublisher publishes JSON messages to a topic exchange and redials
// after connection failures.
type AMQPPublisher struct {
	exchange   string
	routingKey string
	dial       dialFunc
	logger     *slog.Logger
	sleep      func(time.Duration)

	mu        sync.Mutex
	ch        channel
	closeConn func() error
}

// NewAMQPPublisher connects to url and declares exchange.
func NewAMQPPublisher(url, exchange, routingKey string, logger *slog.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dial := func() (channel, func() error, error) {
		conn, err := amqp091.Dial(url)
		if err != nil {
			return nil, nil, fmt.Errorf("dial AMQP: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("open channel: %w", err)
		}
		err = ch.ExchangeDeclare(
			exchange, // name
			"topic",  // type
			true,     // durable
			false,    // auto-deleted
			false,    // internal
			false,    // no-wait
			nil,      // arguments
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, nil, fmt.Errorf("declare exchange: %w", err)
		}
		return ch, conn.Close, nil
	}
	return newPublisher(exchange, routingKey, dial, logger)
}

func newPublisher(exchange, routingKey string, dial dialFunc, logger *slog.Logger) (*AMQPPublisher, error) {
	p := &AMQPPublisher{
		exchange:   exchange,
		routingKey: routingKey,
		dial:       dial,
		logger:     logger.With(slog.String("component", "events")),
		sleep:      time.Sleep,
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) connect() error {
	ch, closeConn, err := p.dial()
	if err != nil {
		return err
	}
	p.ch, p.closeConn = ch, closeConn
	return nil
}

// PublishRunCompleted publishes msg as a persistent JSON message. Connection
// errors trigger a redial with exponential backoff.
func (p *AMQPPublisher) PublishRunCompleted(ctx context.Context, msg RunCompleted) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for attempt := 0; ; attempt++ {
		err = p.publish(ctx, body)
		if err == nil {
			break
		}
		if !isConnectionError(err) || attempt+1 >= maxAttempts {
			return fmt.Errorf("publish message: %w", err)
		}

		wait := exponentialBackoff(attempt)
		p.logger.WarnContext(ctx, "AMQP publish failed, reconnecting",
			slog.String("error", err.Error()),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", wait))
		p.sleep(wait)
		p.closeLocked()
		if err := p.connect(); err != nil {
			p.logger.WarnContext(ctx, "AMQP reconnect failed", slog.String("error", err.Error()))
		}
	}

	p.logger.InfoContext(ctx, "Published run completed message",
		slog.String("run_id", msg.RunID),
		slog.String("domain", msg.Domain),
		slog.String("status", msg.Status),
		slog.String("exchange", p.exchange))
	return nil
}

func (p *AMQPPublisher) publish(ctx context.Context, body []byte) error {
	if p.ch == nil {
		return amqp091.ErrClosed
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		p.exchange,   // exchange
		p.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *AMQPPublisher) closeLocked() error {
	var err error
	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
	if p.closeConn != nil {
		err = p.closeConn()
		p.closeConn = nil
	}
	return err
}

// exponentialBackoff returns 1s, 2s, 4s, ... capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	return min(time.Duration(1<<attempt)*time.Second, maxBackoff)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "closed", "eof", "broken pipe", "reset by peer"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
