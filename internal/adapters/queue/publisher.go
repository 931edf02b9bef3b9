// Package queue moves booking notifications through RabbitMQ: the Publisher
// is the domain.Notifier used by the commit, the Consumer turns queued
// notifications into emails.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"delegatebooking/internal/domain"
)

// NotificationQueue is the durable queue carrying booking notifications.
const NotificationQueue = "booking.notifications"

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher implements domain.Notifier by publishing JSON messages to NotificationQueue.
// A closed channel is reopened, redialing the broker when the connection is gone too.
type Publisher struct {
	mu       sync.Mutex
	url      string
	logger   *slog.Logger
	conn     *amqp.Connection
	open     func() (channel, error)
	ch       channel
	declared bool
}

// NewPublisher dials url and opens a channel for publishing notifications.
func NewPublisher(url string, logger *slog.Logger) (*Publisher, error) {
	p := &Publisher{url: url, logger: logger}
	p.open = p.dialChannel
	ch, err := p.open()
	if err != nil {
		if p.conn != nil {
			_ = p.conn.Close()
		}
		return nil, err
	}
	p.ch = ch
	return p, nil
}

func (p *Publisher) dialChannel() (channel, error) {
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return nil, fmt.Errorf("dial: %w", err)
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("channel open: %w", err)
	}
	return ch, nil
}

func (p *Publisher) Notify(ctx context.Context, n domain.BookingNotification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         n.Key,
		Body:         body,
	}

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.publish(ctx, pub)
	if errors.Is(err, amqp.ErrClosed) {
		p.logger.Warn("notification publisher: channel closed, reopening", "key", n.Key, "booking_id", n.BookingID)
		if err = p.reopen(); err == nil {
			err = p.publish(ctx, pub)
		}
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", n.Key, err)
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, pub amqp.Publishing) error {
	if p.ch == nil {
		return amqp.ErrClosed
	}
	if !p.declared {
		if _, err := p.ch.QueueDeclare(NotificationQueue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare: %w", err)
		}
		p.declared = true
	}
	return p.ch.PublishWithContext(ctx, "", NotificationQueue, false, false, pub)
}

func (p *Publisher) reopen() error {
	if p.ch != nil {
		if c, ok := p.ch.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
	p.ch = nil
	p.declared = false
	if p.open == nil {
		return amqp.ErrClosed
	}
	ch, err := p.open()
	if err != nil {
		return err
	}
	p.ch = ch
	return nil
}

// Close closes the channel and the connection the publisher dialed.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if c, ok := p.ch.(interface{ Close() error }); ok {
		err = c.Close()
	}
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
