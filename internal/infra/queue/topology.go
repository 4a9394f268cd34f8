package queue

import (
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MaxDeliveries bounds redelivery of a failing message before the broker
// moves it to the dead-letter queue.
const MaxDeliveries = 5

// DeadLetterQueue keeps messages that could not be handled.
func DeadLetterQueue(name string) string { return name + ".dlq" }

// queueArgs makes name a quorum queue so the broker counts deliveries and
// dead-letters after MaxDeliveries.
func queueArgs(name string) amqp.Table {
	return amqp.Table{
		"x-queue-type":              "quorum",
		"x-delivery-limit":          int32(MaxDeliveries),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": DeadLetterQueue(name),
	}
}

// declare creates the dead-letter queue and the work queue. Publisher and
// consumer must both use it, the broker rejects mismatched arguments.
func declare(ch *amqp.Channel, name string) error {
	if _, err := ch.QueueDeclare(DeadLetterQueue(name), true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare %s: %w", DeadLetterQueue(name), err)
	}
	if _, err := ch.QueueDeclare(name, true, false, false, false, queueArgs(name)); err != nil {
		return fmt.Errorf("queue declare %s: %w", name, err)
	}
	return nil
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying, e.g. a malformed body.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRetry
	outcomeDeadLetter
)

// settle decides what happens to a delivery after its handler returned err.
// Transient errors are requeued; the broker's delivery limit stops loops.
func settle(err error) outcome {
	switch {
	case err == nil:
		return outcomeAck
	case IsPermanent(err):
		return outcomeDeadLetter
	default:
		return outcomeRetry
	}
}
