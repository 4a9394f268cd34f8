package stripewebhooks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"membership-app/database"
	"membership-app/internal/domain/plans"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/logging"

	"github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
)

func (h *Handler) handleSubscriptionUpdated(ctx context.Context, sub *stripe.Subscription) error {
	if sub.ID == "" || sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return fmt.Errorf("subscription missing id/items/price")
	}

	user, err := findSubscriber(ctx, sub)
	if err != nil {
		// the user may have been deleted
		return ignoreMissing(err)
	}

	priceID := sub.Items.Data[0].Price.ID
	var plan plans.Plan
	if err := database.DB.WithContext(ctx).Where("stripe_price_id = ?", priceID).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logging.Log.Warn().Str("price_id", priceID).Str("subscription_id", sub.ID).Msg("subscription price has no plan, skipping")
		}
		return ignoreMissing(err)
	}

	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0)
	if err := database.DB.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"plan_id":                    plan.ID,
			"subscription_end":           periodEnd,
			"current_period_end":         periodEnd,
			"stripe_subscription_status": string(sub.Status),
			"subscription_id":            sub.ID,
		}).Error; err != nil {
		return err
	}

	_, err = h.syncRole(ctx, user.ID)
	return err
}

// ignoreMissing acknowledges events that point at rows we no longer have.
// Any other error is returned so Stripe redelivers the event.
func ignoreMissing(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// findSubscriber looks the user up by metadata first, then by subscription
// id. gorm.ErrRecordNotFound means neither matched.
func findSubscriber(ctx context.Context, sub *stripe.Subscription) (users.User, error) {
	var user users.User
	if userID := userIDFromMetadata(sub.Metadata); userID != 0 {
		err := database.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return users.User{}, err
		}
	}
	if err := database.DB.WithContext(ctx).Where("subscription_id = ?", sub.ID).First(&user).Error; err != nil {
		return users.User{}, err
	}
	return user, nil
}
