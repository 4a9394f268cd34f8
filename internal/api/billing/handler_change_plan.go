package billing

import (
	"net/http"
	"time"

	"membership-app/database"
	"membership-app/internal/domain/plans"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/logging"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	stripesub "github.com/stripe/stripe-go/v75/subscription"
)

// ChangePlan swaps the subscription price now. Stripe prorates the
// difference in both directions.
func (h *Handler) ChangePlan(c *gin.Context) {
	var body struct {
		PriceID string `json:"price_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.PriceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid price_id"})
		return
	}
	if !requireStripe(c) {
		return
	}

	user, ok := loadUser(c)
	if !ok {
		return
	}

	var targetPlan plans.Plan
	if err := database.DB.Where("stripe_price_id = ?", body.PriceID).First(&targetPlan).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Target plan not found (run /admin/sync-plans)"})
		return
	}

	if user.SubscriptionId == nil || *user.SubscriptionId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No active subscription to change. Use checkout first."})
		return
	}

	sub, err := stripesub.Get(*user.SubscriptionId, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch Stripe subscription"})
		return
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Subscription has no price item"})
		return
	}

	item := sub.Items.Data[0]
	if item.Price.ID == targetPlan.StripePriceID {
		c.JSON(http.StatusOK, gin.H{"message": "Already on this plan"})
		return
	}

	isUpgrade := true
	if user.Plan != nil {
		isUpgrade = targetPlan.PriceEUR > user.Plan.PriceEUR
	}

	updatedSub, err := stripesub.Update(*user.SubscriptionId, &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{ID: stripe.String(item.ID), Price: stripe.String(targetPlan.StripePriceID)},
		},
		ProrationBehavior: stripe.String("create_prorations"),
		Metadata: map[string]string{
			"plan_role": string(plans.PlanRole(&targetPlan)),
		},
	})
	if err != nil {
		logging.Log.Error().Err(err).Uint("user_id", user.ID).Msg("subscription update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change subscription"})
		return
	}

	periodEnd := time.Unix(updatedSub.CurrentPeriodEnd, 0)
	if err := database.DB.Model(&users.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"plan_id":                    targetPlan.ID,
			"subscription_end":           periodEnd,
			"current_period_end":         periodEnd,
			"stripe_subscription_status": string(updatedSub.Status),
		}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	h.refreshRole(c.Request.Context(), user.ID)

	c.JSON(http.StatusOK, gin.H{
		"message":            "Plan changed",
		"is_upgrade":         isUpgrade,
		"role":               plans.PlanRole(&targetPlan),
		"current_period_end": periodEnd,
	})
}
