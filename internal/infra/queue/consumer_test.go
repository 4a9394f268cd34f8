package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDispatchRoutesByQueue(t *testing.T) {
	c := NewConsumer("amqp://unused")

	var got AffiliateSaleEvent
	c.Handle(AffiliateSalesQueue, func(_ context.Context, body []byte) error {
		return json.Unmarshal(body, &got)
	})

	body, _ := json.Marshal(AffiliateSaleEvent{IdempotencyKey: "cs_123", AffiliateCode: "abc", AmountEUR: 49})
	if err := c.Dispatch(context.Background(), AffiliateSalesQueue, body); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if got.IdempotencyKey != "cs_123" || got.AmountEUR != 49 {
		t.Errorf("handler saw %+v", got)
	}

	if err := c.Dispatch(context.Background(), "unknown.queue", body); err == nil {
		t.Error("expected error for unregistered queue")
	}
}

func TestDispatchPropagatesHandlerError(t *testing.T) {
	c := NewConsumer("amqp://unused")
	boom := errors.New("boom")
	c.Handle(SessionsBookedQueue, func(context.Context, []byte) error { return boom })

	if err := c.Dispatch(context.Background(), SessionsBookedQueue, []byte(`{}`)); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestSleepHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if sleep(ctx, time.Minute) {
		t.Error("sleep returned true after cancel")
	}
	if !sleep(context.Background(), time.Millisecond) {
		t.Error("sleep returned false without cancel")
	}
}

func TestSettleKeepsTransientFailures(t *testing.T) {
	dbDown := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want outcome
	}{
		{"handled", nil, outcomeAck},
		{"transient", dbDown, outcomeRetry},
		{"wrapped transient", fmt.Errorf("record sale: %w", dbDown), outcomeRetry},
		{"malformed body", Permanent(errors.New("bad json")), outcomeDeadLetter},
		{"wrapped permanent", fmt.Errorf("decode: %w", Permanent(dbDown)), outcomeDeadLetter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := settle(tt.err); got != tt.want {
				t.Errorf("settle(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestPermanentKeepsCause(t *testing.T) {
	cause := errors.New("bad json")
	err := Permanent(cause)
	if !errors.Is(err, cause) || err.Error() != "bad json" {
		t.Errorf("Permanent lost its cause: %v", err)
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestQueueArgsDeadLetterAfterLimit(t *testing.T) {
	args := queueArgs(AffiliateSalesQueue)
	if args["x-dead-letter-routing-key"] != "affiliate.sales.dlq" {
		t.Errorf("dead-letter key = %v", args["x-dead-letter-routing-key"])
	}
	if args["x-dead-letter-exchange"] != "" {
		t.Errorf("dead-letter exchange = %v", args["x-dead-letter-exchange"])
	}
	if args["x-queue-type"] != "quorum" || args["x-delivery-limit"] != int32(MaxDeliveries) {
		t.Errorf("args = %v", args)
	}
}
