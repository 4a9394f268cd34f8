package affiliate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"membership-app/internal/domain/users"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUnknownAffiliate = errors.New("unknown affiliate code")
	ErrSelfReferral     = errors.New("affiliate cannot earn on own purchase")
)

type SaleInput struct {
	IdempotencyKey string
	AffiliateCode  string
	BuyerUserID    uint
	BuyerEmail     string
	PlanRole       string
	AmountEUR      float64
}

// Recorder writes sales and commissions. It is only called by the queue
// consumer so there is a single writer per deployment.
type Recorder struct {
	db   *gorm.DB
	rate float64
}

func NewRecorder(db *gorm.DB, rate float64) *Recorder {
	if ValidateRate(rate) != nil {
		rate = DefaultRate
	}
	return &Recorder{db: db, rate: rate}
}

// RecordSale stores the sale and its commission. created is false when the
// idempotency key was already recorded.
func (r *Recorder) RecordSale(ctx context.Context, in SaleInput) (c Commission, created bool, err error) {
	if strings.TrimSpace(in.IdempotencyKey) == "" {
		return Commission{}, false, errors.New("missing idempotency key")
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var affiliate users.User
		if err := tx.Where("affiliate_code = ?", in.AffiliateCode).First(&affiliate).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownAffiliate
			}
			return err
		}
		if affiliate.ID == in.BuyerUserID || strings.EqualFold(affiliate.Email, in.BuyerEmail) {
			return ErrSelfReferral
		}

		sale := Sale{
			ID:             uuid.NewString(),
			IdempotencyKey: in.IdempotencyKey,
			AffiliateCode:  in.AffiliateCode,
			BuyerEmail:     in.BuyerEmail,
			PlanRole:       in.PlanRole,
			AmountEUR:      in.AmountEUR,
		}
		if in.BuyerUserID != 0 {
			buyer := in.BuyerUserID
			sale.BuyerUserID = &buyer
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoNothing: true,
		}).Create(&sale)
		if res.Error != nil {
			return fmt.Errorf("insert sale: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return tx.Joins("JOIN affiliate_sales ON affiliate_sales.id = affiliate_commissions.sale_id").
				Where("affiliate_sales.idempotency_key = ?", in.IdempotencyKey).
				First(&c).Error
		}

		c = Commission{
			ID:              uuid.NewString(),
			SaleID:          sale.ID,
			AffiliateUserID: affiliate.ID,
			Rate:            r.rate,
			AmountEUR:       CommissionFor(in.AmountEUR, r.rate),
			Status:          CommissionPending,
		}
		if err := tx.Create(&c).Error; err != nil {
			return fmt.Errorf("insert commission: %w", err)
		}
		created = true
		return nil
	})
	return c, created, err
}

// StatsFor loads every commission of an affiliate and summarizes them.
func StatsFor(ctx context.Context, db *gorm.DB, affiliateUserID uint, now time.Time) (Stats, error) {
	var list []Commission
	if err := db.WithContext(ctx).
		Preload("Sale").
		Where("affiliate_user_id = ?", affiliateUserID).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return Stats{}, err
	}
	return Summarize(list, now), nil
}

// Reporter serves read-only affiliate data to the HTTP layer.
type Reporter struct {
	db *gorm.DB
}

func NewReporter(db *gorm.DB) *Reporter {
	return &Reporter{db: db}
}

// CodeFor returns the user's affiliate code, generating one for accounts
// created before codes existed.
func (r *Reporter) CodeFor(ctx context.Context, userID uint) (string, error) {
	var u users.User
	if err := r.db.WithContext(ctx).Select("id", "affiliate_code").First(&u, userID).Error; err != nil {
		return "", err
	}
	if u.AffiliateCode != "" {
		return u.AffiliateCode, nil
	}
	code := NewCode()
	res := r.db.WithContext(ctx).Model(&users.User{}).
		Where("id = ? AND (affiliate_code IS NULL OR affiliate_code = '')", userID).
		Update("affiliate_code", code)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		// set concurrently
		return r.CodeFor(ctx, userID)
	}
	return code, nil
}

func (r *Reporter) Stats(ctx context.Context, userID uint, now time.Time) (Stats, error) {
	return StatsFor(ctx, r.db, userID, now)
}

func (r *Reporter) Recent(ctx context.Context, userID uint, limit int) ([]Commission, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var list []Commission
	err := r.db.WithContext(ctx).
		Preload("Sale").
		Where("affiliate_user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
