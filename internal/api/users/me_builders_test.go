package usersapi

import (
	"testing"
	"time"

	"membership-app/internal/domain/plans"
	"membership-app/internal/domain/roles"
	"membership-app/internal/domain/users"
)

func TestBuildTrialDTO(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	start := now.AddDate(0, 0, -4)
	end := now.AddDate(0, 0, 10)

	if got := BuildTrialDTO(now, nil, &end); got != nil {
		t.Errorf("expected nil trial, got %+v", got)
	}
	if got := BuildTrialDTO(now, &start, &end); got.DaysLeft != 10 {
		t.Errorf("DaysLeft = %d, want 10", got.DaysLeft)
	}
	past := now.Add(-time.Hour)
	if got := BuildTrialDTO(now, &start, &past); got.DaysLeft != 0 {
		t.Errorf("DaysLeft = %d, want 0", got.DaysLeft)
	}
}

func TestBuildMeShowsSwitchedRole(t *testing.T) {
	now := time.Now()
	u := users.User{ID: 3, Email: "m@example.com", Role: users.AccountMember, AffiliateCode: "abc"}

	me := BuildMe(now, u, roles.Annual)
	if me.Membership.Role != roles.Annual || me.Membership.EffectiveRole != roles.Free {
		t.Errorf("membership = %+v", me.Membership)
	}
	if !me.Membership.Permissions.CanAccessAllCourses {
		t.Error("annual role should carry full course access")
	}
	if me.Billing.Subscription != nil || me.Billing.Plan != nil {
		t.Errorf("unexpected billing %+v", me.Billing)
	}
}

func TestBuildPlanDTO(t *testing.T) {
	if BuildPlanDTO(nil) != nil {
		t.Error("expected nil plan")
	}
	dto := BuildPlanDTO(&plans.Plan{ID: 1, Name: "Essentials", PriceEUR: 19, Interval: "month"})
	if dto.Role != roles.Downsell {
		t.Errorf("Role = %s, want downsell", dto.Role)
	}
}
