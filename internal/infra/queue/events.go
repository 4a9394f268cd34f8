// Package queue defines message payloads exchanged over RabbitMQ and the
// publisher/consumer that carry them.
package queue

const (
	AffiliateSalesQueue = "affiliate.sales"
	SessionsBookedQueue = "sessions.booked"
)

// AffiliateSaleEvent is published for every paid checkout that carries an
// affiliate code. IdempotencyKey is the Stripe checkout session id, so
// redelivery never creates a second sale.
type AffiliateSaleEvent struct {
	IdempotencyKey string  `json:"idempotency_key"`
	AffiliateCode  string  `json:"affiliate_code"`
	BuyerUserID    uint    `json:"buyer_user_id"`
	BuyerEmail     string  `json:"buyer_email"`
	PlanRole       string  `json:"plan_role"`
	AmountEUR      float64 `json:"amount_eur"`
	OccurredAt     string  `json:"occurred_at"`
}

// SessionBookedEvent is published when an expert slot is booked.
type SessionBookedEvent struct {
	SlotID      uint   `json:"slot_id"`
	UserID      uint   `json:"user_id"`
	ExpertName  string `json:"expert_name"`
	Topic       string `json:"topic"`
	StartsAt    string `json:"starts_at"`
	DurationMin int    `json:"duration_min"`
	BookedAt    string `json:"booked_at"`
}
