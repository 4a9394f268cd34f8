package plans

import (
	"strings"

	"membership-app/internal/domain/roles"
)

// PlanRole returns the membership role a plan grants.
// Priority:
// 1. Explicit Role stored in DB (paid roles only)
// 2. Inference from interval and price for plans synced without metadata
func PlanRole(p *Plan) roles.UserRole {
	if p == nil {
		return roles.Free
	}

	if r, ok := roles.Parse(p.Role); ok && r.IsPaid() {
		return r
	}

	return inferRoleFromPlan(p)
}

func inferRoleFromPlan(p *Plan) roles.UserRole {
	if strings.EqualFold(strings.TrimSpace(p.Interval), "year") {
		return roles.Annual
	}
	if p.PriceEUR > 0 && p.PriceEUR < roles.DetailsFor(roles.Monthly).Price {
		return roles.Downsell
	}
	return roles.Monthly
}
