package users

import (
	"membership-app/internal/domain/plans"
	"time"
)

// Account roles stored on the user row. Membership roles are derived from
// billing state, see access.ComputeEffectiveRole.
const (
	AccountMember = "member"
	AccountAdmin  = "admin"
)

type User struct {
	ID           uint `gorm:"primaryKey"`
	Name         string
	Lastname     string
	Email        string  `gorm:"not null;uniqueIndex:idx_users_email"`
	Password     *string `gorm:""`
	AuthProvider string  `gorm:"type:varchar(20);not null;default:'local'"`
	GoogleSub    *string `gorm:"uniqueIndex:idx_users_google_sub"`
	Role         string  `gorm:"type:varchar(20);not null;default:'member'"`

	AffiliateCode string  `gorm:"column:affiliate_code;uniqueIndex:idx_users_affiliate_code"`
	ReferredBy    *string `gorm:"column:referred_by"`

	PlanID *uint
	Plan   *plans.Plan

	SubscriptionStart        *time.Time
	SubscriptionEnd          *time.Time
	SubscriptionId           *string    `gorm:"column:subscription_id;uniqueIndex:idx_users_subscription_id"`
	StripeCustomerID         *string    `gorm:"column:stripe_customer_id;uniqueIndex:idx_users_stripe_customer_id"`
	StripeSubscriptionStatus *string    `gorm:"column:stripe_subscription_status"`
	CurrentPeriodEnd         *time.Time `gorm:"column:current_period_end"`

	TrialStartAt *time.Time `gorm:"column:trial_start_at"`
	TrialEndAt   *time.Time `gorm:"column:trial_end_at"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) IsAdmin() bool { return u.Role == AccountAdmin }

// Subject is the key used for per-user state outside Postgres.
func (u User) Subject() string { return SubjectFor(u.ID) }
