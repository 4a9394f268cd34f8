package billing

import (
	"membership-app/internal/domain/plans"
	"membership-app/internal/domain/users"
	"time"
)

const (
	PaymentPaid     = "paid"
	PaymentPending  = "pending"
	PaymentRefunded = "refunded"
)

type Payment struct {
	ID                   uint `gorm:"primaryKey"`
	UserID               uint `gorm:"index"`
	User                 users.User
	PlanID               *uint
	Plan                 *plans.Plan
	StripeSessionID      string `gorm:"uniqueIndex"`
	StripeSubscriptionID *string
	AmountEUR            float64
	Status               string
	AffiliateCode        *string
	InvoiceID            *string
	ReceiptURL           *string
	CreatedAt            time.Time
}
