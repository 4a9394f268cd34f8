package stripewebhooks

import (
	"testing"
	"time"

	"membership-app/internal/domain/billing"
	"membership-app/internal/domain/plans"
	"membership-app/internal/domain/users"

	"github.com/stripe/stripe-go/v75"
)

func TestAffiliateSaleFor(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	buyer := users.User{ID: 4, Email: "buyer@example.com", AffiliateCode: "buyer00001"}
	plan := plans.Plan{PriceEUR: 470, Interval: "year"}

	ev, ok := affiliateSaleFor("cs_123", map[string]string{"affiliate_code": " Partner01 "}, buyer, plan, 470, now)
	if !ok {
		t.Fatal("expected an event")
	}
	if ev.IdempotencyKey != "cs_123" || ev.AffiliateCode != "partner01" || ev.PlanRole != "annual" || ev.AmountEUR != 470 {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.OccurredAt != "2026-10-15T12:00:00Z" {
		t.Errorf("OccurredAt = %q", ev.OccurredAt)
	}

	for name, md := range map[string]map[string]string{
		"no metadata": nil,
		"empty code":  {"affiliate_code": " "},
		"own code":    {"affiliate_code": "BUYER00001"},
	} {
		if _, ok := affiliateSaleFor("cs_123", md, buyer, plan, 470, now); ok {
			t.Errorf("%s: unexpected event", name)
		}
	}
}

func TestPaymentFor(t *testing.T) {
	plan := plans.Plan{ID: 2, PriceEUR: 49}
	s := &stripe.CheckoutSession{
		ID:            "cs_1",
		AmountTotal:   4900,
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Subscription:  &stripe.Subscription{ID: "sub_1"},
		Metadata:      map[string]string{"affiliate_code": "ABC"},
	}

	p := paymentFor(s, 9, plan)
	if p.UserID != 9 || p.StripeSessionID != "cs_1" || p.AmountEUR != 49 || p.Status != billing.PaymentPaid {
		t.Errorf("unexpected payment %+v", p)
	}
	if p.StripeSubscriptionID == nil || *p.StripeSubscriptionID != "sub_1" {
		t.Errorf("subscription id = %v", p.StripeSubscriptionID)
	}
	if p.AffiliateCode == nil || *p.AffiliateCode != "abc" {
		t.Errorf("affiliate code = %v", p.AffiliateCode)
	}

	unpaid := paymentFor(&stripe.CheckoutSession{ID: "cs_2"}, 9, plan)
	if unpaid.Status != billing.PaymentPending || unpaid.AmountEUR != 49 || unpaid.AffiliateCode != nil {
		t.Errorf("unexpected payment %+v", unpaid)
	}
}

func TestUserIDResolution(t *testing.T) {
	if id := userIDFromMetadata(map[string]string{"user_id": "12"}); id != 12 {
		t.Errorf("userIDFromMetadata = %d", id)
	}
	if id := userIDFromMetadata(map[string]string{"user_id": "x"}); id != 0 {
		t.Errorf("userIDFromMetadata(bad) = %d", id)
	}

	id, err := userIDFromSubscriptionOrRef(&stripe.Subscription{}, "33")
	if err != nil || id != 33 {
		t.Errorf("client ref fallback = %d, %v", id, err)
	}
	if _, err := userIDFromSubscriptionOrRef(&stripe.Subscription{}, ""); err == nil {
		t.Error("expected error without any user id")
	}
}
