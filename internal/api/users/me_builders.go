package usersapi

import (
	"time"

	"membership-app/internal/domain/access"
	"membership-app/internal/domain/plans"
	"membership-app/internal/domain/roles"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/stripe"
)

func BuildPlanDTO(p *plans.Plan) *PlanDTO {
	if p == nil {
		return nil
	}
	return &PlanDTO{
		ID:            p.ID,
		Name:          p.Name,
		Role:          plans.PlanRole(p),
		Interval:      p.Interval,
		PriceEUR:      p.PriceEUR,
		StripePriceID: p.StripePriceID,
	}
}

func BuildSubscriptionDTO(u users.User) *SubscriptionDTO {
	if u.SubscriptionId == nil || *u.SubscriptionId == "" {
		return nil
	}
	return &SubscriptionDTO{
		Status:               stripe.NormalizeStripeStatus(u.StripeSubscriptionStatus),
		StartsAt:             u.SubscriptionStart,
		CurrentPeriodEnd:     u.CurrentPeriodEnd,
		StripeSubscriptionID: u.SubscriptionId,
	}
}

func BuildTrialDTO(now time.Time, start, end *time.Time) *TrialDTO {
	if start == nil || end == nil {
		return nil
	}

	daysLeft := 0
	if now.Before(*end) {
		daysLeft = int(end.Sub(now).Hours() / 24)
	}

	return &TrialDTO{
		StartsAt: start,
		EndsAt:   end,
		DaysLeft: daysLeft,
	}
}

func BuildMembership(now time.Time, u users.User, current roles.UserRole) Membership {
	policy := access.PolicyFor(current)
	return Membership{
		Role:          current,
		EffectiveRole: access.ComputeEffectiveRole(now, u),
		Permissions:   policy.Permissions,
		Details:       policy.Details,
	}
}

func BuildMe(now time.Time, u users.User, current roles.UserRole) MeResponse {
	return MeResponse{
		User: UserDTO{
			ID:            u.ID,
			Email:         u.Email,
			Name:          u.Name,
			Lastname:      u.Lastname,
			AccountRole:   u.Role,
			AuthProvider:  u.AuthProvider,
			AffiliateCode: u.AffiliateCode,
			ReferredBy:    u.ReferredBy,
		},
		Billing: BillingDTO{
			Plan:         BuildPlanDTO(u.Plan),
			Subscription: BuildSubscriptionDTO(u),
			Trial:        BuildTrialDTO(now, u.TrialStartAt, u.TrialEndAt),
		},
		Membership: BuildMembership(now, u, current),
	}
}
