package affiliate

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"time"
)

const DefaultRate = 0.30

var ErrInvalidRate = errors.New("commission rate must be within (0, 1]")

// CommissionFor returns amount*rate rounded half-up to cents. Both inputs
// are taken at their shortest decimal form, so 1.005 rounds to 1.01.
func CommissionFor(amountEUR, rate float64) float64 {
	if amountEUR <= 0 || rate <= 0 {
		return 0
	}
	cents := new(big.Rat).Mul(decimalRat(amountEUR), decimalRat(rate))
	cents.Mul(cents, big.NewRat(100, 1))
	cents.Add(cents, big.NewRat(1, 2))

	// floor of a positive rational
	whole := new(big.Int).Quo(cents.Num(), cents.Denom())
	return float64(whole.Int64()) / 100
}

func decimalRat(v float64) *big.Rat {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(v, 'f', -1, 64))
	if !ok {
		return new(big.Rat).SetFloat64(v)
	}
	return r
}

func ValidateRate(rate float64) error {
	if rate <= 0 || rate > 1 {
		return ErrInvalidRate
	}
	return nil
}

type Stats struct {
	TotalSales      int     `json:"total_sales"`
	TotalRevenueEUR float64 `json:"total_revenue_eur"`
	PendingEUR      float64 `json:"pending_eur"`
	ApprovedEUR     float64 `json:"approved_eur"`
	PaidEUR         float64 `json:"paid_eur"`
	Last30DaysEUR   float64 `json:"last_30_days_eur"`
}

// Summarize aggregates commissions. Sale must be loaded for revenue totals.
func Summarize(commissions []Commission, now time.Time) Stats {
	var s Stats
	since := now.AddDate(0, 0, -30)
	for _, c := range commissions {
		s.TotalSales++
		if c.Sale != nil {
			s.TotalRevenueEUR += c.Sale.AmountEUR
		}
		switch c.Status {
		case CommissionApproved:
			s.ApprovedEUR += c.AmountEUR
		case CommissionPaid:
			s.PaidEUR += c.AmountEUR
		default:
			s.PendingEUR += c.AmountEUR
		}
		if !c.CreatedAt.Before(since) {
			s.Last30DaysEUR += c.AmountEUR
		}
	}
	s.TotalRevenueEUR = roundCents(s.TotalRevenueEUR)
	s.PendingEUR = roundCents(s.PendingEUR)
	s.ApprovedEUR = roundCents(s.ApprovedEUR)
	s.PaidEUR = roundCents(s.PaidEUR)
	s.Last30DaysEUR = roundCents(s.Last30DaysEUR)
	return s
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
