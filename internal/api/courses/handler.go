package coursesapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"membership-app/internal/app/http/middleware"
	"membership-app/internal/domain/courses"
	"membership-app/internal/domain/roles"
	"membership-app/internal/infra/logging"

	"github.com/gin-gonic/gin"
)

type Catalog interface {
	Resolver() *courses.Resolver
	List() []courses.CourseAccessConfig
	SetOverride(ctx context.Context, courseID string, allowed []string, active bool, by uint) (courses.CourseAccessConfig, error)
	ClearOverride(ctx context.Context, courseID string, by uint) (courses.CourseAccessConfig, error)
}

type Handler struct {
	Catalog Catalog
}

type CourseDTO struct {
	ID                string                 `json:"id"`
	Title             string                 `json:"title"`
	Category          courses.CourseCategory `json:"category"`
	Locked            bool                   `json:"locked"`
	RestrictedMessage string                 `json:"restricted_message,omitempty"`
	UpgradeMessage    string                 `json:"upgrade_message,omitempty"`
}

type AccessDTO struct {
	CourseID          string         `json:"course_id"`
	Role              roles.UserRole `json:"role"`
	courses.Decision
	RestrictedMessage string `json:"restricted_message,omitempty"`
	UpgradeMessage    string `json:"upgrade_message,omitempty"`
}

type OverrideDTO struct {
	CourseID      string                 `json:"course_id"`
	Category      courses.CourseCategory `json:"category"`
	AdminOverride *courses.AdminOverride `json:"admin_override"`
	UpdatedBy     *uint                  `json:"updated_by,omitempty"`
	UpdatedAt     *time.Time             `json:"updated_at,omitempty"`
}

// GET /courses
func (h *Handler) List(c *gin.Context) {
	role := middleware.RoleFrom(c)
	resolver := h.Catalog.Resolver()
	category := courses.CourseCategory(c.Query("category"))

	out := make([]CourseDTO, 0)
	for _, cfg := range h.Catalog.List() {
		if category != "" && cfg.Category != category {
			continue
		}
		dto := CourseDTO{
			ID:       cfg.CourseID,
			Title:    cfg.Title,
			Category: cfg.Category,
			Locked:   !resolver.CanAccessCourse(role, cfg.CourseID),
		}
		if dto.Locked {
			dto.RestrictedMessage = resolver.RestrictedMessage(role, cfg.CourseID)
			dto.UpgradeMessage = resolver.UpgradeMessage(role, cfg.CourseID)
		}
		out = append(out, dto)
	}

	c.JSON(http.StatusOK, gin.H{"role": role, "courses": out})
}

// GET /courses/:id/access
func (h *Handler) Access(c *gin.Context) {
	role := middleware.RoleFrom(c)
	id := c.Param("id")
	resolver := h.Catalog.Resolver()

	d := resolver.Decide(role, id)
	resp := AccessDTO{CourseID: id, Role: role, Decision: d}
	if !d.Allowed {
		resp.RestrictedMessage = resolver.RestrictedMessage(role, id)
		resp.UpgradeMessage = resolver.UpgradeMessage(role, id)
	}
	c.JSON(http.StatusOK, resp)
}

// GET /admin/courses
func (h *Handler) AdminList(c *gin.Context) {
	list := h.Catalog.List()
	out := make([]OverrideDTO, 0, len(list))
	for _, cfg := range list {
		out = append(out, toOverrideDTO(cfg))
	}
	c.JSON(http.StatusOK, gin.H{
		"missing_config_policy": h.Catalog.Resolver().MissingPolicy(),
		"courses":               out,
	})
}

// PUT /admin/courses/:id/override
func (h *Handler) SetOverride(c *gin.Context) {
	var body struct {
		AllowedRoles []string `json:"allowedRoles" binding:"required"`
		IsOverridden *bool    `json:"isOverridden"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	active := true
	if body.IsOverridden != nil {
		active = *body.IsOverridden
	}

	adminID := c.GetUint(middleware.KeyUserID)
	cfg, err := h.Catalog.SetOverride(c.Request.Context(), c.Param("id"), body.AllowedRoles, active, adminID)
	if err != nil {
		writeCatalogError(c, err)
		return
	}

	logging.Log.Info().
		Str("course_id", cfg.CourseID).
		Strs("allowed_roles", cfg.AdminOverride.AllowedRoles).
		Bool("active", active).
		Uint("admin_id", adminID).
		Msg("course override updated")

	c.JSON(http.StatusOK, toOverrideDTO(cfg))
}

// DELETE /admin/courses/:id/override
func (h *Handler) ClearOverride(c *gin.Context) {
	adminID := c.GetUint(middleware.KeyUserID)
	cfg, err := h.Catalog.ClearOverride(c.Request.Context(), c.Param("id"), adminID)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	logging.Log.Info().Str("course_id", cfg.CourseID).Uint("admin_id", adminID).Msg("course override cleared")
	c.JSON(http.StatusOK, toOverrideDTO(cfg))
}

func writeCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, courses.ErrUnknownCourse):
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
	case errors.Is(err, courses.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logging.Log.Error().Err(err).Msg("course catalog update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update course"})
	}
}

func toOverrideDTO(cfg courses.CourseAccessConfig) OverrideDTO {
	return OverrideDTO{
		CourseID:      cfg.CourseID,
		Category:      cfg.Category,
		AdminOverride: cfg.AdminOverride,
		UpdatedBy:     cfg.OverrideUpdatedBy,
		UpdatedAt:     cfg.OverrideUpdatedAt,
	}
}
