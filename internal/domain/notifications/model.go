package notifications

import "time"

const (
	KindRoleChanged   = "role_changed"
	KindSessionBooked = "session_booked"
	KindCommission    = "commission"
	KindPayment       = "payment"
)

type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"-"`
	Kind      string    `gorm:"type:varchar(40);not null" json:"kind"`
	Title     string    `gorm:"not null" json:"title"`
	Body      string    `gorm:"not null;default:''" json:"body"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
