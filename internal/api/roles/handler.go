package rolesapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"membership-app/internal/app/http/middleware"
	"membership-app/internal/domain/roles"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/logging"
	"membership-app/internal/infra/rolestore"

	"github.com/gin-gonic/gin"
)

type Store interface {
	Get(ctx context.Context, subject string) (roles.UserRole, error)
	GetLegacy(ctx context.Context, subject string) (roles.UserRole, error)
	Set(ctx context.Context, subject string, role roles.UserRole) error
	Subscribe() (<-chan rolestore.RoleChanged, func())
}

type Handler struct {
	Store Store
	// DevSwitcher allows members to pick their own role. Development only.
	DevSwitcher bool
	// Heartbeat keeps idle event streams open through proxies.
	Heartbeat time.Duration
}

type RoleDTO struct {
	Role        roles.UserRole        `json:"role"`
	Details     roles.RoleDetails     `json:"details"`
	Permissions roles.UserPermissions `json:"permissions"`
}

func roleDTO(r roles.UserRole) RoleDTO {
	return RoleDTO{Role: r, Details: roles.DetailsFor(r), Permissions: roles.PermissionsFor(r)}
}

// GET /roles
func (h *Handler) ListRoles(c *gin.Context) {
	all := roles.All()
	out := make([]RoleDTO, 0, len(all))
	for _, r := range all {
		out = append(out, roleDTO(r))
	}
	c.JSON(http.StatusOK, out)
}

// GET /me/role
func (h *Handler) GetMyRole(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"current":      roleDTO(middleware.RoleFrom(c)),
		"dev_switcher": h.DevSwitcher,
	})
}

// GET /me/permissions
func (h *Handler) GetMyPermissions(c *gin.Context) {
	role := middleware.RoleFrom(c)
	c.JSON(http.StatusOK, gin.H{"role": role, "permissions": roles.PermissionsFor(role)})
}

// PUT /me/role
func (h *Handler) SetMyRole(c *gin.Context) {
	if !h.DevSwitcher {
		c.JSON(http.StatusForbidden, gin.H{"error": "Role switching is disabled"})
		return
	}

	var body struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, ok := roles.Parse(body.Role)
	if !ok || role == roles.Guest {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role: " + strings.TrimSpace(body.Role)})
		return
	}

	userID := c.GetUint(middleware.KeyUserID)
	subject := users.SubjectFor(userID)
	if err := h.Store.Set(c.Request.Context(), subject, role); err != nil {
		if errors.Is(err, rolestore.ErrInvalidRole) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logging.Log.Error().Err(err).Str("subject", subject).Msg("dev role switch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	logging.Log.Info().Str("subject", subject).Str("role", string(role)).Msg("dev role switched")
	c.JSON(http.StatusOK, gin.H{"current": roleDTO(role)})
}

// GET /me/role/events streams roleChanged events for the caller.
func (h *Handler) RoleEvents(c *gin.Context) {
	subject := users.SubjectFor(c.GetUint(middleware.KeyUserID))
	events, cancel := h.Store.Subscribe()
	defer cancel()

	heartbeat := h.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			if ev.Subject == subject {
				c.SSEvent(rolestore.EventRoleChanged, ev)
			}
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
}
