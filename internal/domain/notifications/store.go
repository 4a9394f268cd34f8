package notifications

import (
	"context"

	"gorm.io/gorm"
)

const defaultLimit = 50

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, n *Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

// List returns the newest notifications, in insertion order.
func (s *Store) List(ctx context.Context, userID uint, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultLimit
	}
	var out []Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *Store) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND read = false", userID).
		Count(&n).Error
	return n, err
}

// MarkRead reports whether a notification of userID was updated.
func (s *Store) MarkRead(ctx context.Context, userID, id uint) (bool, error) {
	res := s.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	return res.RowsAffected > 0, res.Error
}

func (s *Store) MarkAllRead(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND read = false", userID).
		Update("read", true).Error
}

func (s *Store) Clear(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Notification{}).Error
}
