package stripewebhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"membership-app/config"
	"membership-app/database"
	"membership-app/internal/domain/access"
	"membership-app/internal/domain/roles"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/logging"
	"membership-app/internal/infra/queue"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
)

type RoleSetter interface {
	SetUntil(ctx context.Context, subject string, role roles.UserRole, until time.Time) error
}

type Handler struct {
	Roles  RoleSetter
	Events queue.EventPublisher
}

func (h *Handler) StripeWebhook(c *gin.Context) {
	if stripe.Key == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "STRIPE_SECRET_KEY not configured"})
		return
	}
	endpointSecret := config.STRIPE_WEBHOOK_SECRET
	if endpointSecret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "STRIPE_WEBHOOK_SECRET not configured"})
		return
	}

	payload, err := readStripeBody(c, 65536)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		endpointSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		logging.Log.Warn().Err(err).Msg("stripe signature verification failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	log := logging.Log.With().Str("event_id", event.ID).Str("type", string(event.Type)).Logger()
	ctx := c.Request.Context()

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse session"})
			return
		}
		err = h.handleCheckoutSessionCompleted(ctx, &session)

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse subscription"})
			return
		}
		err = h.handleSubscriptionUpdated(ctx, &sub)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse subscription"})
			return
		}
		err = h.handleSubscriptionDeleted(ctx, &sub)

	default:
		// acknowledge unknown events to avoid retries
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err != nil {
		// every handler is idempotent, so Stripe may retry
		log.Error().Err(err).Msg("stripe webhook failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook processing failed"})
		return
	}
	log.Info().Msg("stripe webhook processed")
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}

// syncRole stores the role the user's billing state grants right now.
func (h *Handler) syncRole(ctx context.Context, userID uint) (roles.UserRole, error) {
	var user users.User
	if err := database.DB.WithContext(ctx).Preload("Plan").First(&user, userID).Error; err != nil {
		return "", err
	}
	now := time.Now()
	role := access.ComputeEffectiveRole(now, user)
	if h.Roles == nil {
		return role, nil
	}
	return role, h.Roles.SetUntil(ctx, user.Subject(), role, access.RoleValidUntil(now, user))
}

func userIDFromMetadata(md map[string]string) uint {
	if md == nil {
		return 0
	}
	s := md["user_id"]
	if s == "" {
		return 0
	}
	uid, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(uid)
}
