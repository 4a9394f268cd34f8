package billing

import (
	"net/http"
	"time"

	"membership-app/database"
	"membership-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	stripesub "github.com/stripe/stripe-go/v75/subscription"
)

// CancelSubscription stops renewal. Paid access continues until the current
// period ends; the subscription.deleted webhook then drops the role to free.
func (h *Handler) CancelSubscription(c *gin.Context) {
	if !requireStripe(c) {
		return
	}
	user, ok := loadUser(c)
	if !ok {
		return
	}
	if user.SubscriptionId == nil || *user.SubscriptionId == "" {
		c.JSON(http.StatusOK, gin.H{"message": "No subscription to cancel"})
		return
	}

	sub, err := stripesub.Update(*user.SubscriptionId, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel subscription"})
		return
	}

	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0)
	if err := database.DB.Model(&users.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"subscription_end":   periodEnd,
			"current_period_end": periodEnd,
		}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Subscription will end at the close of the current period",
		"access_until": periodEnd,
	})
}

// ResumeSubscription undoes a pending cancellation.
func (h *Handler) ResumeSubscription(c *gin.Context) {
	if !requireStripe(c) {
		return
	}
	user, ok := loadUser(c)
	if !ok {
		return
	}
	if user.SubscriptionId == nil || *user.SubscriptionId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No subscription to resume"})
		return
	}

	if _, err := stripesub.Update(*user.SubscriptionId, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(false),
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resume subscription"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscription resumed"})
}
