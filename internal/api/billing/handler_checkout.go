package billing

import (
	"fmt"
	"net/http"

	"membership-app/config"
	"membership-app/database"
	"membership-app/internal/domain/affiliate"
	"membership-app/internal/domain/plans"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/logging"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	portalSession "github.com/stripe/stripe-go/v75/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	customer "github.com/stripe/stripe-go/v75/customer"
)

// checkoutAffiliateCode picks the code credited for a purchase: the one sent
// with the checkout, else the one the user signed up with. Own codes never
// count.
func checkoutAffiliateCode(user users.User, requested string) string {
	code := affiliate.NormalizeCode(requested)
	if code == "" && user.ReferredBy != nil {
		code = affiliate.NormalizeCode(*user.ReferredBy)
	}
	if code == "" || code == user.AffiliateCode {
		return ""
	}
	return code
}

func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var body struct {
		PriceID       string `json:"price_id"`
		AffiliateCode string `json:"affiliate_code"`
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

	// allow-list price id
	var plan plans.Plan
	if err := database.DB.Where("stripe_price_id = ?", body.PriceID).First(&plan).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan/price_id"})
		return
	}

	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		cus, err := customer.New(&stripe.CustomerParams{
			Email: stripe.String(user.Email),
			Metadata: map[string]string{
				"user_id": fmt.Sprint(user.ID),
				"app_env": config.APP_ENV,
			},
		})
		if err != nil {
			logging.Log.Error().Err(err).Uint("user_id", user.ID).Msg("stripe customer create failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Stripe customer"})
			return
		}

		if err := database.DB.Model(&users.User{}).
			Where("id = ?", user.ID).
			Update("stripe_customer_id", cus.ID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store Stripe customer"})
			return
		}
		user.StripeCustomerID = stripe.String(cus.ID)
	}

	metadata := map[string]string{
		"user_id":   fmt.Sprint(user.ID),
		"plan_id":   fmt.Sprint(plan.ID),
		"plan_role": string(plans.PlanRole(&plan)),
	}
	if code := checkoutAffiliateCode(user, body.AffiliateCode); code != "" {
		metadata["affiliate_code"] = code
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(appURL() + "/account?checkout=success"),
		CancelURL:  stripe.String(appURL() + "/account?canceled=1"),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(*user.StripeCustomerID),

		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(plan.StripePriceID), Quantity: stripe.Int64(1)},
		},

		ClientReferenceID: stripe.String(fmt.Sprint(user.ID)),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	params.Metadata = metadata

	s, err := checkoutsession.New(params)
	if err != nil {
		logging.Log.Error().Err(err).Uint("user_id", user.ID).Msg("checkout session create failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": s.URL})
}

func (h *Handler) CreateBillingPortal(c *gin.Context) {
	if !requireStripe(c) {
		return
	}
	user, ok := loadUser(c)
	if !ok {
		return
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "No Stripe customer yet (subscribe first)"})
		return
	}

	portal, err := portalSession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(*user.StripeCustomerID),
		ReturnURL: stripe.String(appURL() + "/account"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create billing portal session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": portal.URL})
}
