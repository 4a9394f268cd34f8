package courses

import (
	"errors"
	"time"
)

type CourseCategory string

const (
	CategoryStartHere   CourseCategory = "start-here"
	CategoryAllAccess   CourseCategory = "all-access"
	CategoryMasterclass CourseCategory = "masterclass"
	CategoryFreeIntro   CourseCategory = "free-intro"
)

func (c CourseCategory) Valid() bool {
	switch c {
	case CategoryStartHere, CategoryAllAccess, CategoryMasterclass, CategoryFreeIntro:
		return true
	default:
		return false
	}
}

// AdminOverride is a per-course allow-list that bypasses category rules
// while IsOverridden is set.
type AdminOverride struct {
	AllowedRoles []string `json:"allowedRoles"`
	IsOverridden bool     `json:"isOverridden"`
}

type CourseAccessConfig struct {
	CourseID string         `gorm:"primaryKey;type:varchar(120)" json:"courseId"`
	Title    string         `gorm:"not null;default:''" json:"title"`
	Category CourseCategory `gorm:"type:varchar(20);not null;index" json:"category"`

	AdminOverride     *AdminOverride `gorm:"type:jsonb;serializer:json" json:"adminOverride,omitempty"`
	OverrideUpdatedBy *uint          `json:"overrideUpdatedBy,omitempty"`
	OverrideUpdatedAt *time.Time     `json:"overrideUpdatedAt,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

var (
	ErrUnknownCourse = errors.New("unknown course")
	ErrInvalidRole   = errors.New("invalid role in override")
)
