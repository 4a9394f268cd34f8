package affiliate

import (
	"testing"
	"time"
)

func TestCommissionFor(t *testing.T) {
	tests := []struct {
		amount, rate, want float64
	}{
		{49, 0.30, 14.70},
		{470, 0.30, 141},
		{19, 0.25, 4.75},
		{1.005, 1, 1.01},
		{0.015, 1, 0.02},
		{10.05, 0.5, 5.03},
		{33.33, 0.3, 10},
		{0, 0.3, 0},
		{49, 0, 0},
	}
	for _, tt := range tests {
		if got := CommissionFor(tt.amount, tt.rate); got != tt.want {
			t.Errorf("CommissionFor(%v, %v) = %v, want %v", tt.amount, tt.rate, got, tt.want)
		}
	}
}

func TestValidateRate(t *testing.T) {
	for _, r := range []float64{0, -0.1, 1.5} {
		if ValidateRate(r) == nil {
			t.Errorf("ValidateRate(%v) accepted", r)
		}
	}
	if err := ValidateRate(1); err != nil {
		t.Errorf("ValidateRate(1) = %v", err)
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(0, -2, 0)
	recent := now.AddDate(0, 0, -3)

	list := []Commission{
		{AmountEUR: 14.70, Status: CommissionPending, CreatedAt: recent, Sale: &Sale{AmountEUR: 49}},
		{AmountEUR: 141, Status: CommissionApproved, CreatedAt: old, Sale: &Sale{AmountEUR: 470}},
		{AmountEUR: 5.70, Status: CommissionPaid, CreatedAt: recent, Sale: &Sale{AmountEUR: 19}},
		{AmountEUR: 1, Status: "", CreatedAt: old},
	}

	got := Summarize(list, now)
	want := Stats{
		TotalSales:      4,
		TotalRevenueEUR: 538,
		PendingEUR:      15.70,
		ApprovedEUR:     141,
		PaidEUR:         5.70,
		Last30DaysEUR:   20.40,
	}
	if got != want {
		t.Errorf("Summarize() = %+v\nwant %+v", got, want)
	}
}

func TestNewCode(t *testing.T) {
	a, b := NewCode(), NewCode()
	if len(a) != 10 || a == b {
		t.Errorf("NewCode() = %q, %q", a, b)
	}
	if NormalizeCode("  AbC ") != "abc" {
		t.Error("NormalizeCode did not normalise")
	}
}
