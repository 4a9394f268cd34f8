package plans

type Plan struct {
	ID              uint `gorm:"primaryKey"`
	Name            string
	PriceEUR        float64
	StripePriceID   string `gorm:"column:stripe_price_id;not null;uniqueIndex:idx_plans_stripe_price_id"`
	StripeProductID string `gorm:"column:stripe_product_id;index"`
	Interval        string // "month" | "year"
	Role            string `gorm:"column:role"` // "monthly" | "annual" | "downsell"
}
