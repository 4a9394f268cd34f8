package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Seed inserts slots that do not exist yet (expert + start time).
func (s *Service) Seed(ctx context.Context, slots []ExpertSlot) error {
	if len(slots) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&slots, 100).Error; err != nil {
		return fmt.Errorf("seed expert slots: %w", err)
	}
	return nil
}

func (s *Service) ListUpcoming(ctx context.Context, now time.Time, onlyOpen bool) ([]ExpertSlot, error) {
	q := s.db.WithContext(ctx).Where("starts_at > ?", now)
	if onlyOpen {
		q = q.Where("booked_by_user_id IS NULL")
	}
	var slots []ExpertSlot
	if err := q.Order("starts_at ASC, expert_name ASC").Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uint) ([]ExpertSlot, error) {
	var slots []ExpertSlot
	err := s.db.WithContext(ctx).
		Where("booked_by_user_id = ?", userID).
		Order("starts_at ASC").
		Find(&slots).Error
	return slots, err
}

// Book claims the slot with a conditional update so two callers can never
// both win the same slot.
func (s *Service) Book(ctx context.Context, slotID, userID uint, now time.Time) (ExpertSlot, error) {
	var slot ExpertSlot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&slot, slotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return err
		}
		if !slot.StartsAt.After(now) {
			return ErrSlotPast
		}

		res := tx.Model(&ExpertSlot{}).
			Where("id = ? AND booked_by_user_id IS NULL", slotID).
			Updates(map[string]interface{}{
				"booked_by_user_id": userID,
				"booked_at":         now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSlotTaken
		}

		uid := userID
		slot.BookedByUserID = &uid
		slot.BookedAt = &now
		return nil
	})
	return slot, err
}

// Cancel releases a booking held by userID.
func (s *Service) Cancel(ctx context.Context, slotID, userID uint, now time.Time) error {
	var slot ExpertSlot
	if err := s.db.WithContext(ctx).First(&slot, slotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSlotNotFound
		}
		return err
	}
	if !slot.StartsAt.After(now) {
		return ErrSlotPast
	}

	res := s.db.WithContext(ctx).Model(&ExpertSlot{}).
		Where("id = ? AND booked_by_user_id = ?", slotID, userID).
		Updates(map[string]interface{}{
			"booked_by_user_id": nil,
			"booked_at":         nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotBooker
	}
	return nil
}
