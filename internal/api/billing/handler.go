package billing

import (
	"context"
	"net/http"
	"time"

	"membership-app/config"
	"membership-app/database"
	"membership-app/internal/domain/access"
	"membership-app/internal/domain/roles"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/logging"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

type RoleSetter interface {
	SetUntil(ctx context.Context, subject string, role roles.UserRole, until time.Time) error
}

type Handler struct {
	Roles RoleSetter
}

func requireStripe(c *gin.Context) bool {
	if stripe.Key == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe key not configured"})
		return false
	}
	return true
}

func loadUser(c *gin.Context) (users.User, bool) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return users.User{}, false
	}
	var user users.User
	if err := database.DB.Preload("Plan").Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return users.User{}, false
	}
	return user, true
}

func appURL() string {
	if config.FRONTEND_URL != "" {
		return config.FRONTEND_URL
	}
	return "http://localhost:5173"
}

// refreshRole reloads the user and stores the role its billing state grants.
func (h *Handler) refreshRole(ctx context.Context, userID uint) {
	if h.Roles == nil {
		return
	}
	var user users.User
	if err := database.DB.WithContext(ctx).Preload("Plan").First(&user, userID).Error; err != nil {
		logging.Log.Error().Err(err).Uint("user_id", userID).Msg("reload user for role refresh failed")
		return
	}
	now := time.Now()
	role := access.ComputeEffectiveRole(now, user)
	if err := h.Roles.SetUntil(ctx, user.Subject(), role, access.RoleValidUntil(now, user)); err != nil {
		logging.Log.Error().Err(err).Uint("user_id", userID).Msg("role refresh failed")
	}
}
