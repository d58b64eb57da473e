package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends domain events to RabbitMQ. Each publish opens its own
// connection, so a broker outage never leaves a broken connection behind.
type Publisher struct {
	url         string
	dialTimeout time.Duration
	log         *zap.Logger
}

func NewPublisher(url string, log *zap.Logger) (*Publisher, error) {
	if url == "" {
		return nil, errors.New("rabbitmq url is empty")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, dialTimeout: 3 * time.Second, log: log}, nil
}

// EnquirySubmitted publishes ev to the enquiry.submitted queue. Failures are
// returned for the caller to log.
func (p *Publisher) EnquirySubmitted(ctx context.Context, ev EnquirySubmittedEvent) error {
	if err := p.publish(ctx, EnquirySubmittedQueue, ev); err != nil {
		return err
	}
	p.log.Debug("event published", zap.String("queue", EnquirySubmittedQueue), zap.Uint64("enquiry_id", ev.EnquiryID))
	return nil
}

func (p *Publisher) publish(ctx context.Context, queue string, v any) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.dialTimeout)})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// durable, not auto-deleted, not exclusive
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", queue, err)
	}

	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}
