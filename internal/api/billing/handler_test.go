package billing

import (
	"testing"
	"time"

	"membership-app/internal/domain/billing"
	"membership-app/internal/domain/plans"
	"membership-app/internal/domain/users"
)

func TestCheckoutAffiliateCode(t *testing.T) {
	ref := "friend0001"
	tests := []struct {
		name      string
		user      users.User
		requested string
		want      string
	}{
		{"explicit code", users.User{AffiliateCode: "mine000001"}, " Partner01 ", "partner01"},
		{"falls back to referrer", users.User{AffiliateCode: "mine000001", ReferredBy: &ref}, "", "friend0001"},
		{"own code ignored", users.User{AffiliateCode: "mine000001"}, "MINE000001", ""},
		{"no code", users.User{AffiliateCode: "mine000001"}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkoutAffiliateCode(tt.user, tt.requested); got != tt.want {
				t.Errorf("checkoutAffiliateCode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPaymentHistory(t *testing.T) {
	paidAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	code := "partner01"
	empty := ""
	receipt := "https://pay.stripe.com/receipts/r_1"
	annual := &plans.Plan{Name: "Annual", Role: "annual"}

	got := paymentHistory([]billing.Payment{
		{ID: 3, Plan: annual, AmountEUR: 470, Status: billing.PaymentPaid, AffiliateCode: &code, ReceiptURL: &receipt, CreatedAt: paidAt},
		{ID: 2, AmountEUR: 49.99, Status: billing.PaymentPaid, AffiliateCode: &empty, CreatedAt: paidAt},
		{ID: 1, AmountEUR: 49, Status: billing.PaymentRefunded, CreatedAt: paidAt},
	})

	if len(got.Payments) != 3 {
		t.Fatalf("payments = %d, want 3", len(got.Payments))
	}
	first := got.Payments[0]
	if first.PlanName != "Annual" || first.PlanRole != "annual" || first.AffiliateCode != "partner01" || first.ReceiptURL != receipt {
		t.Errorf("unexpected first payment %+v", first)
	}
	if !first.PaidAt.Equal(paidAt) {
		t.Errorf("paid at = %v", first.PaidAt)
	}
	if got.Payments[1].AffiliateCode != "" || got.Payments[1].PlanName != "" {
		t.Errorf("unexpected second payment %+v", got.Payments[1])
	}
	if got.TotalPaidEUR != 519.99 {
		t.Errorf("total paid = %v, want 519.99 without the refund", got.TotalPaidEUR)
	}
	if got.Referred != 1 {
		t.Errorf("referred = %d, want 1", got.Referred)
	}
}

func TestPaymentHistoryEmptyIsNotNull(t *testing.T) {
	got := paymentHistory(nil)
	if got.Payments == nil || len(got.Payments) != 0 || got.TotalPaidEUR != 0 {
		t.Errorf("paymentHistory(nil) = %+v", got)
	}
}
