package roles

type RoleDetails struct {
	Role          UserRole `json:"role"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	Currency      string   `json:"currency"`
	BillingPeriod string   `json:"billingPeriod"` // none | trial | month | year
	Features      []string `json:"features"`
}

var roleDetails = map[UserRole]RoleDetails{
	Guest: {
		Role:          Guest,
		Name:          "Guest",
		Currency:      "EUR",
		BillingPeriod: "none",
		Features:      []string{"Browse the course library", "Watch free intro lessons"},
	},
	Free: {
		Role:          Free,
		Name:          "Free Member",
		Currency:      "EUR",
		BillingPeriod: "none",
		Features: []string{
			"Intro videos",
			"Start Here course",
			"Progress tracking",
		},
	},
	Trial: {
		Role:          Trial,
		Name:          "Free Trial",
		Currency:      "EUR",
		BillingPeriod: "trial",
		Features: []string{
			"Everything in Free",
			"Community access",
			"Expert session library",
			"Replays",
		},
	},
	Monthly: {
		Role:          Monthly,
		Name:          "Monthly Membership",
		Price:         49,
		Currency:      "EUR",
		BillingPeriod: "month",
		Features: []string{
			"All courses",
			"Affiliate program",
			"Community and live events",
			"Templates and downloads",
			"Certificates",
		},
	},
	Annual: {
		Role:          Annual,
		Name:          "Annual Membership",
		Price:         470,
		Currency:      "EUR",
		BillingPeriod: "year",
		Features: []string{
			"Everything in Monthly",
			"Book 1:1 expert sessions",
			"Priority support",
			"Two months free",
		},
	},
	Downsell: {
		Role:          Downsell,
		Name:          "Essentials",
		Price:         19,
		Currency:      "EUR",
		BillingPeriod: "month",
		Features: []string{
			"All courses",
			"Replays",
			"Progress tracking",
		},
	},
	Admin: {
		Role:          Admin,
		Name:          "Administrator",
		Currency:      "EUR",
		BillingPeriod: "none",
		Features:      []string{"Full access", "Course access overrides", "Admin panel"},
	},
}

// DetailsFor returns the display/billing record for r, falling back to
// FallbackRole like PermissionsFor.
func DetailsFor(r UserRole) RoleDetails {
	d, ok := roleDetails[r]
	if !ok {
		d = roleDetails[FallbackRole]
	}
	d.Features = append([]string(nil), d.Features...)
	return d
}
