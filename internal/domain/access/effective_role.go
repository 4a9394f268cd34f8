package access

import (
	"time"

	"membership-app/internal/domain/plans"
	"membership-app/internal/domain/roles"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/stripe"
)

// ComputeEffectiveRole derives the membership role from account and billing
// state. Anonymous callers never reach this; they are roles.Guest.
func ComputeEffectiveRole(now time.Time, u users.User) roles.UserRole {
	if u.IsAdmin() {
		return roles.Admin
	}

	// Active trial
	if u.TrialEndAt != nil && now.Before(*u.TrialEndAt) {
		return roles.Trial
	}

	// No subscription at all
	if u.SubscriptionId == nil || *u.SubscriptionId == "" {
		return roles.Free
	}

	switch stripe.NormalizeStripeStatus(u.StripeSubscriptionStatus) {
	case stripe.StatusActive, stripe.StatusTrialing:
		return plans.PlanRole(u.Plan)

	case stripe.StatusCanceled:
		// paid-through access until the period ends
		if u.CurrentPeriodEnd != nil && now.Before(*u.CurrentPeriodEnd) {
			return plans.PlanRole(u.Plan)
		}
		return roles.Free

	default:
		return roles.Free
	}
}

// RoleValidUntil reports when the role from ComputeEffectiveRole stops being
// correct without any billing event, so caches can drop it. Zero means it
// holds until the next billing change.
func RoleValidUntil(now time.Time, u users.User) time.Time {
	if u.IsAdmin() {
		return time.Time{}
	}
	if u.TrialEndAt != nil && now.Before(*u.TrialEndAt) {
		return *u.TrialEndAt
	}
	if u.SubscriptionId == nil || *u.SubscriptionId == "" {
		return time.Time{}
	}

	switch stripe.NormalizeStripeStatus(u.StripeSubscriptionStatus) {
	case stripe.StatusActive, stripe.StatusTrialing, stripe.StatusCanceled:
		if u.CurrentPeriodEnd != nil && now.Before(*u.CurrentPeriodEnd) {
			return *u.CurrentPeriodEnd
		}
	}
	return time.Time{}
}
