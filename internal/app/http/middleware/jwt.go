package middleware

import (
	"net/http"
	"strings"
	"time"

	"membership-app/config"
	"membership-app/internal/infra/logging"
	"membership-app/internal/infra/tokens"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware.
const (
	KeyUserID     = "user_id"
	KeyEmail      = "email"
	KeyRole       = "role"
	KeyTokenID    = "jti"
	KeyTokenUntil = "token_expires_at"
)

// AuthMiddleware rejects requests without a valid, non-revoked bearer token.
func AuthMiddleware(rev tokens.Revocations) gin.HandlerFunc {
	return authenticate(rev, true)
}

// OptionalAuth authenticates when a token is present and lets anonymous
// requests through.
func OptionalAuth(rev tokens.Revocations) gin.HandlerFunc {
	return authenticate(rev, false)
}

func authenticate(rev tokens.Revocations, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		jwtKey := []byte(config.JWT_SECRET)
		if len(jwtKey) == 0 {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "JWT secret not configured"})
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
				return
			}
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Bearer token malformed"})
			return
		}

		claims, err := tokens.Parse(jwtKey, strings.TrimSpace(tokenString))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		if rev != nil {
			revoked, err := rev.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				logging.Log.Error().Err(err).Uint("user_id", claims.UserID).Msg("token revocation lookup failed")
			} else if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
				return
			}
		}

		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyEmail, claims.Email)
		c.Set(KeyRole, claims.Role)
		c.Set(KeyTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(KeyTokenUntil, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

// TokenExpiry returns the expiry of the authenticated token.
func TokenExpiry(c *gin.Context) (time.Time, bool) {
	v, ok := c.Get(KeyTokenUntil)
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// RequireRole checks the account role carried in the token.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(KeyRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Role not found in token"})
			return
		}

		if value != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}

		c.Next()
	}
}
