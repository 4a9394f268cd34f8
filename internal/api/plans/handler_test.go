package plansapi

import (
	"testing"

	"membership-app/internal/domain/plans"
	"membership-app/internal/domain/roles"

	"github.com/stripe/stripe-go/v75"
)

func activePrice() *stripe.Price {
	return &stripe.Price{
		ID:         "price_1",
		Active:     true,
		Currency:   "eur",
		UnitAmount: 4900,
		Recurring:  &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalMonth},
		Product:    &stripe.Product{ID: "prod_1", Name: "Academy", Active: true},
		Metadata:   map[string]string{},
	}
}

func TestPlanFromPrice(t *testing.T) {
	p := activePrice()
	p.Metadata["plan"] = "Monthly Membership"
	p.Metadata["role"] = "Monthly"

	plan, ok := planFromPrice(p, "prod_1")
	if !ok {
		t.Fatal("expected price to map to a plan")
	}
	want := plans.Plan{
		Name:            "Monthly Membership",
		PriceEUR:        49,
		StripePriceID:   "price_1",
		StripeProductID: "prod_1",
		Interval:        "month",
		Role:            "monthly",
	}
	if plan != want {
		t.Errorf("planFromPrice = %+v, want %+v", plan, want)
	}
}

func TestPlanFromPriceIgnoresUnpaidRoles(t *testing.T) {
	p := activePrice()
	p.Metadata["role"] = "admin"

	plan, ok := planFromPrice(p, "")
	if !ok || plan.Role != "" {
		t.Errorf("planFromPrice role = %q, ok=%v", plan.Role, ok)
	}
}

func TestPlanFromPriceSkips(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*stripe.Price)
		product string
	}{
		{"inactive", func(p *stripe.Price) { p.Active = false }, ""},
		{"one-off", func(p *stripe.Price) { p.Recurring = nil }, ""},
		{"other product", func(p *stripe.Price) {}, "prod_2"},
		{"usd", func(p *stripe.Price) { p.Currency = "usd" }, ""},
		{"hidden", func(p *stripe.Price) { p.Metadata["visible"] = "false" }, ""},
		{"archived product", func(p *stripe.Price) { p.Product.Active = false }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := activePrice()
			tt.mutate(p)
			if _, ok := planFromPrice(p, tt.product); ok {
				t.Error("expected price to be skipped")
			}
		})
	}
}

func TestPlanDTOInfersRole(t *testing.T) {
	dto := planDTO(&plans.Plan{ID: 3, Name: "Yearly", PriceEUR: 470, Interval: "year"})
	if dto.Role != roles.Annual || dto.Details.Name != "Annual Membership" {
		t.Errorf("planDTO = %+v", dto)
	}
}
