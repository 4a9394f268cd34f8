package booking

import (
	"errors"
	"time"
)

type ExpertSlot struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ExpertName  string    `gorm:"not null;uniqueIndex:idx_expert_slot_start" json:"expert_name"`
	Topic       string    `gorm:"not null;default:''" json:"topic"`
	StartsAt    time.Time `gorm:"not null;uniqueIndex:idx_expert_slot_start;index" json:"starts_at"`
	DurationMin int       `gorm:"not null;default:30" json:"duration_min"`

	BookedByUserID *uint      `gorm:"index" json:"-"`
	BookedAt       *time.Time `json:"booked_at,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (s ExpertSlot) Available() bool { return s.BookedByUserID == nil }

var (
	ErrSlotNotFound = errors.New("slot not found")
	ErrSlotTaken    = errors.New("slot already booked")
	ErrSlotPast     = errors.New("slot already started")
	ErrNotBooker    = errors.New("slot is not booked by this user")
)
