package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"membership-app/internal/domain/access"
	"membership-app/internal/domain/roles"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/logging"
	"membership-app/internal/infra/rolestore"

	"github.com/gin-gonic/gin"
)

const KeyMembershipRole = "membership_role"

type RoleStore interface {
	Get(ctx context.Context, subject string) (roles.UserRole, error)
	SetUntil(ctx context.Context, subject string, role roles.UserRole, until time.Time) error
}

type UserLoader func(ctx context.Context, id uint) (users.User, error)

// CurrentRole resolves the caller's membership role. Anonymous callers are
// guests. When the store has no entry, or the stored one has expired, the
// role is derived from billing state and written back until the next trial
// or billing period boundary.
func CurrentRole(store RoleStore, load UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(KeyUserID)
		if userID == 0 {
			c.Set(KeyMembershipRole, roles.Guest)
			c.Next()
			return
		}

		ctx := c.Request.Context()
		subject := users.SubjectFor(userID)

		role, err := store.Get(ctx, subject)
		if err == nil {
			c.Set(KeyMembershipRole, role)
			c.Next()
			return
		}
		if !errors.Is(err, rolestore.ErrNoRole) {
			logging.Log.Warn().Err(err).Str("subject", subject).Msg("role store read failed, deriving role")
		}

		user, err := load(ctx, userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}

		now := time.Now()
		role = access.ComputeEffectiveRole(now, user)
		if err := store.SetUntil(ctx, subject, role, access.RoleValidUntil(now, user)); err != nil {
			logging.Log.Error().Err(err).Str("subject", subject).Msg("failed to store derived role")
		}

		c.Set(KeyMembershipRole, role)
		c.Next()
	}
}

// RoleFrom returns the role set by CurrentRole, guest when absent.
func RoleFrom(c *gin.Context) roles.UserRole {
	if v, ok := c.Get(KeyMembershipRole); ok {
		if r, ok := v.(roles.UserRole); ok {
			return r
		}
	}
	return roles.Guest
}

func RequirePermission(perm roles.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := RoleFrom(c)
		if !roles.PermissionsFor(role).Has(perm) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "Your membership does not include this feature",
				"role":       role,
				"permission": perm,
			})
			return
		}
		c.Next()
	}
}
