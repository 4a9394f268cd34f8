package affiliate

import "time"

const (
	CommissionPending  = "pending"
	CommissionApproved = "approved"
	CommissionPaid     = "paid"
)

type Sale struct {
	ID             string  `gorm:"type:uuid;primaryKey" json:"id"`
	IdempotencyKey string  `gorm:"not null;uniqueIndex:idx_affiliate_sales_idem" json:"-"`
	AffiliateCode  string  `gorm:"not null;index" json:"affiliate_code"`
	BuyerUserID    *uint   `json:"-"`
	BuyerEmail     string  `json:"buyer_email"`
	PlanRole       string  `json:"plan_role"`
	AmountEUR      float64 `json:"amount_eur"`

	CreatedAt time.Time `json:"created_at"`
}

func (Sale) TableName() string { return "affiliate_sales" }

type Commission struct {
	ID              string  `gorm:"type:uuid;primaryKey" json:"id"`
	SaleID          string  `gorm:"type:uuid;not null;uniqueIndex" json:"sale_id"`
	Sale            *Sale   `gorm:"constraint:OnDelete:CASCADE" json:"sale,omitempty"`
	AffiliateUserID uint    `gorm:"not null;index" json:"-"`
	Rate            float64 `json:"rate"`
	AmountEUR       float64 `json:"amount_eur"`
	Status          string  `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Commission) TableName() string { return "affiliate_commissions" }
