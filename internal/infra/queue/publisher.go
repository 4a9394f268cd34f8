package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"membership-app/internal/infra/logging"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventPublisher is what request handlers depend on.
type EventPublisher interface {
	Publish(ctx context.Context, queueName string, event any) error
}

type Publisher struct {
	url string
}

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// Publish declares the durable queue pair and sends event as a persistent JSON
// message on the default exchange.
func (p *Publisher) Publish(ctx context.Context, queueName string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", queueName, err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		logging.Log.Error().Err(err).Str("queue", queueName).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch, queueName); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		logging.Log.Error().Err(err).Str("queue", queueName).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}
