package stripewebhooks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"membership-app/database"
	"membership-app/internal/domain/affiliate"
	"membership-app/internal/domain/billing"
	"membership-app/internal/domain/plans"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/logging"
	"membership-app/internal/infra/queue"

	"github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"github.com/stripe/stripe-go/v75/subscription"
	"gorm.io/gorm/clause"
)

func (h *Handler) handleCheckoutSessionCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	fullSession, err := checkoutsession.Get(session.ID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Expand: []*string{
				stripe.String("subscription"),
				stripe.String("customer"),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to fetch expanded checkout session: %w", err)
	}

	if fullSession.Subscription == nil || fullSession.Subscription.ID == "" {
		return errors.New("checkout session missing subscription")
	}
	subscriptionID := fullSession.Subscription.ID

	subData, err := subscription.Get(subscriptionID, nil)
	if err != nil || subData == nil || subData.Items == nil || len(subData.Items.Data) == 0 || subData.Items.Data[0].Price == nil {
		return fmt.Errorf("failed to fetch subscription items: %w", err)
	}

	userID, err := userIDFromSubscriptionOrRef(subData, fullSession.ClientReferenceID)
	if err != nil {
		return err
	}

	var user users.User
	if err := database.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	priceID := subData.Items.Data[0].Price.ID
	var plan plans.Plan
	if err := database.DB.WithContext(ctx).Where("stripe_price_id = ?", priceID).First(&plan).Error; err != nil {
		return fmt.Errorf("plan not found for stripe price_id=%s: %w", priceID, err)
	}

	now := time.Now()
	periodEnd := time.Unix(subData.CurrentPeriodEnd, 0)

	updates := map[string]interface{}{
		"plan_id":                    plan.ID,
		"subscription_id":            subscriptionID,
		"subscription_start":         now,
		"subscription_end":           periodEnd,
		"current_period_end":         periodEnd,
		"stripe_subscription_status": string(subData.Status),
		// a paid plan ends the trial
		"trial_end_at": now,
	}
	if fullSession.Customer != nil && fullSession.Customer.ID != "" {
		updates["stripe_customer_id"] = fullSession.Customer.ID
	}

	if user.SubscriptionId != nil && *user.SubscriptionId != "" && *user.SubscriptionId != subscriptionID {
		if _, err := subscription.Cancel(*user.SubscriptionId, nil); err != nil {
			logging.Log.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to cancel previous subscription")
		}
	}

	if err := database.DB.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", user.ID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update user after checkout: %w", err)
	}

	payment := paymentFor(fullSession, user.ID, plan)
	if err := database.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "stripe_session_id"}}, DoNothing: true}).
		Create(&payment).Error; err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}

	role, err := h.syncRole(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to set role after checkout: %w", err)
	}
	logging.Log.Info().Uint("user_id", user.ID).Str("role", string(role)).Msg("membership activated")

	if ev, ok := affiliateSaleFor(fullSession.ID, fullSession.Metadata, user, plan, payment.AmountEUR, now); ok && h.Events != nil {
		if err := h.Events.Publish(ctx, queue.AffiliateSalesQueue, ev); err != nil {
			return fmt.Errorf("failed to publish affiliate sale: %w", err)
		}
	}
	return nil
}

func paymentFor(s *stripe.CheckoutSession, userID uint, plan plans.Plan) billing.Payment {
	amount := plan.PriceEUR
	if s.AmountTotal > 0 {
		amount = float64(s.AmountTotal) / 100.0
	}
	status := billing.PaymentPending
	if s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		status = billing.PaymentPaid
	}

	p := billing.Payment{
		UserID:          userID,
		PlanID:          &plan.ID,
		StripeSessionID: s.ID,
		AmountEUR:       amount,
		Status:          status,
	}
	if s.Subscription != nil && s.Subscription.ID != "" {
		p.StripeSubscriptionID = stripe.String(s.Subscription.ID)
	}
	if s.Invoice != nil && s.Invoice.ID != "" {
		p.InvoiceID = stripe.String(s.Invoice.ID)
	}
	if code := affiliate.NormalizeCode(s.Metadata["affiliate_code"]); code != "" {
		p.AffiliateCode = &code
	}
	return p
}

// affiliateSaleFor builds the sale event for a checkout that carried an
// affiliate code. The checkout session id is the idempotency key.
func affiliateSaleFor(sessionID string, md map[string]string, buyer users.User, plan plans.Plan, amount float64, now time.Time) (queue.AffiliateSaleEvent, bool) {
	code := affiliate.NormalizeCode(md["affiliate_code"])
	if code == "" || sessionID == "" || code == buyer.AffiliateCode {
		return queue.AffiliateSaleEvent{}, false
	}
	return queue.AffiliateSaleEvent{
		IdempotencyKey: sessionID,
		AffiliateCode:  code,
		BuyerUserID:    buyer.ID,
		BuyerEmail:     buyer.Email,
		PlanRole:       string(plans.PlanRole(&plan)),
		AmountEUR:      amount,
		OccurredAt:     now.UTC().Format(time.RFC3339),
	}, true
}

func userIDFromSubscriptionOrRef(sub *stripe.Subscription, clientRef string) (uint, error) {
	userIDStr := ""
	if sub.Metadata != nil {
		userIDStr = sub.Metadata["user_id"]
	}
	if userIDStr == "" {
		userIDStr = clientRef
	}
	if userIDStr == "" {
		return 0, errors.New("missing user_id (metadata.user_id or client_reference_id)")
	}

	uid64, err := strconv.ParseUint(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user_id %q: %w", userIDStr, err)
	}
	return uint(uid64), nil
}
