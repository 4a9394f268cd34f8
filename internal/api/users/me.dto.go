package usersapi

import (
	"time"

	"membership-app/internal/domain/roles"
)

type MeResponse struct {
	User       UserDTO    `json:"user"`
	Billing    BillingDTO `json:"billing"`
	Membership Membership `json:"membership"`
}

/* ---------- USER ---------- */

type UserDTO struct {
	ID            uint    `json:"id"`
	Email         string  `json:"email"`
	Name          string  `json:"name"`
	Lastname      string  `json:"lastname"`
	AccountRole   string  `json:"account_role"`
	AuthProvider  string  `json:"auth_provider"`
	AffiliateCode string  `json:"affiliate_code"`
	ReferredBy    *string `json:"referred_by"`
}

/* ---------- BILLING ---------- */

type BillingDTO struct {
	Plan         *PlanDTO         `json:"plan"`
	Subscription *SubscriptionDTO `json:"subscription"`
	Trial        *TrialDTO        `json:"trial"`
}

type PlanDTO struct {
	ID            uint           `json:"id"`
	Name          string         `json:"name"`
	Role          roles.UserRole `json:"role"`
	Interval      string         `json:"interval"`
	PriceEUR      float64        `json:"price_eur"`
	StripePriceID string         `json:"stripe_price_id"`
}

type SubscriptionDTO struct {
	Status               string     `json:"status"`
	StartsAt             *time.Time `json:"starts_at"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	StripeSubscriptionID *string    `json:"stripe_subscription_id"`
}

type TrialDTO struct {
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	DaysLeft int        `json:"days_left"`
}

/* ---------- MEMBERSHIP ---------- */

// Membership is the role in effect for this session next to the one billing
// grants. They differ while a developer role override is active.
type Membership struct {
	Role          roles.UserRole        `json:"role"`
	EffectiveRole roles.UserRole        `json:"effective_role"`
	Permissions   roles.UserPermissions `json:"permissions"`
	Details       roles.RoleDetails     `json:"details"`
}
