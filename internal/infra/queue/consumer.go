package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"membership-app/internal/infra/logging"

	amqp "github.com/rabbitmq/amqp091-go"
)

// HandlerFunc processes one message body. Errors wrapped with Permanent
// dead-letter the message; any other error requeues it.
type HandlerFunc func(ctx context.Context, body []byte) error

// Consumer is the single owner of the queues it handles.
type Consumer struct {
	url      string
	handlers map[string]HandlerFunc
}

func NewConsumer(url string) *Consumer {
	return &Consumer{url: url, handlers: make(map[string]HandlerFunc)}
}

func (c *Consumer) Handle(queueName string, fn HandlerFunc) {
	c.handlers[queueName] = fn
}

// Run keeps a broker connection alive, reconnecting with backoff, until ctx
// is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, err := amqp.Dial(c.url)
		if err != nil {
			logging.Log.Warn().Err(err).Dur("retry_in", backoff).Msg("consumer: failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Log.Warn().Err(err).Msg("consumer: loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logging.Log.Warn().Err(err).Msg("consumer: set QoS failed")
	}

	type delivery struct {
		queue string
		msg   amqp.Delivery
	}
	merged := make(chan delivery)
	done := make(chan struct{})
	defer close(done)

	for name := range c.handlers {
		if err := declare(ch, name); err != nil {
			return err
		}
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		go func(name string, msgs <-chan amqp.Delivery) {
			for m := range msgs {
				select {
				case merged <- delivery{queue: name, msg: m}:
				case <-done:
					return
				}
			}
		}(name, msgs)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr != nil {
				return amqpErr
			}
			return errors.New("connection closed")
		case d := <-merged:
			err := c.Dispatch(ctx, d.queue, d.msg.Body)
			switch settle(err) {
			case outcomeAck:
				_ = d.msg.Ack(false)
			case outcomeDeadLetter:
				logging.Log.Error().Err(err).Str("queue", d.queue).Msg("consumer: message dead-lettered")
				_ = d.msg.Nack(false, false)
			case outcomeRetry:
				logging.Log.Warn().Err(err).Str("queue", d.queue).Bool("redelivered", d.msg.Redelivered).Msg("consumer: handle message failed, requeueing")
				sleep(ctx, retryDelay)
				_ = d.msg.Nack(false, true)
			}
		}
	}
}

// Dispatch runs the handler registered for queueName.
func (c *Consumer) Dispatch(ctx context.Context, queueName string, body []byte) error {
	fn, ok := c.handlers[queueName]
	if !ok {
		return fmt.Errorf("no handler for queue %s", queueName)
	}
	return fn(ctx, body)
}

const retryDelay = time.Second

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
