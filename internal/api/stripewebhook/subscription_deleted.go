package stripewebhooks

import (
	"context"
	"time"

	"membership-app/database"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/logging"

	"github.com/stripe/stripe-go/v75"
)

func (h *Handler) handleSubscriptionDeleted(ctx context.Context, sub *stripe.Subscription) error {
	if sub.ID == "" {
		return nil
	}

	user, err := findSubscriber(ctx, sub)
	if err != nil {
		return ignoreMissing(err)
	}

	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0)
	if err := database.DB.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"stripe_subscription_status": string(sub.Status),
			"subscription_end":           periodEnd,
			"current_period_end":         periodEnd,
		}).Error; err != nil {
		return err
	}

	role, err := h.syncRole(ctx, user.ID)
	if err != nil {
		return err
	}
	logging.Log.Info().Uint("user_id", user.ID).Str("role", string(role)).Msg("subscription ended")
	return nil
}
