package courses

import (
	"strings"

	"membership-app/internal/domain/roles"
)

// MissingConfigPolicy decides access for course ids without a config row.
type MissingConfigPolicy string

const (
	// MissingConfigFallback grants access when the role can see all courses
	// or intro videos. This matches the historical behaviour and is open
	// for free and trial members.
	MissingConfigFallback MissingConfigPolicy = "fallback"
	MissingConfigDeny     MissingConfigPolicy = "deny"
)

func ParseMissingConfigPolicy(s string) MissingConfigPolicy {
	if MissingConfigPolicy(strings.ToLower(strings.TrimSpace(s))) == MissingConfigDeny {
		return MissingConfigDeny
	}
	return MissingConfigFallback
}

type Reason string

const (
	ReasonMissingConfig Reason = "missing_config"
	ReasonOverride      Reason = "override"
	ReasonAdmin         Reason = "admin"
	ReasonCategory      Reason = "category"
)

type Decision struct {
	Allowed  bool           `json:"allowed"`
	Reason   Reason         `json:"reason"`
	Category CourseCategory `json:"category,omitempty"`
}

// Resolver is an immutable snapshot of the course configs. Build a new one
// to pick up changes.
type Resolver struct {
	configs map[string]CourseAccessConfig
	missing MissingConfigPolicy
}

func NewResolver(configs []CourseAccessConfig, missing MissingConfigPolicy) *Resolver {
	m := make(map[string]CourseAccessConfig, len(configs))
	for _, c := range configs {
		m[c.CourseID] = c
	}
	if missing == "" {
		missing = MissingConfigFallback
	}
	return &Resolver{configs: m, missing: missing}
}

func (r *Resolver) Config(courseID string) (CourseAccessConfig, bool) {
	c, ok := r.configs[courseID]
	return c, ok
}

func (r *Resolver) MissingPolicy() MissingConfigPolicy { return r.missing }

// Decide evaluates access in the fixed order override > admin > category.
func (r *Resolver) Decide(role roles.UserRole, courseID string) Decision {
	perms := roles.PermissionsFor(role)

	cfg, ok := r.configs[courseID]
	if !ok {
		allowed := false
		if r.missing == MissingConfigFallback {
			allowed = perms.CanAccessAllCourses || perms.CanAccessIntroVideos
		}
		return Decision{Allowed: allowed, Reason: ReasonMissingConfig}
	}

	if overrideAllows(cfg.AdminOverride, role) {
		return Decision{Allowed: true, Reason: ReasonOverride, Category: cfg.Category}
	}

	if perms.IsAdmin {
		return Decision{Allowed: true, Reason: ReasonAdmin, Category: cfg.Category}
	}

	return Decision{
		Allowed:  categoryAllows(cfg.Category, perms),
		Reason:   ReasonCategory,
		Category: cfg.Category,
	}
}

func (r *Resolver) CanAccessCourse(role roles.UserRole, courseID string) bool {
	return r.Decide(role, courseID).Allowed
}

func overrideAllows(o *AdminOverride, role roles.UserRole) bool {
	if o == nil || !o.IsOverridden {
		return false
	}
	for _, allowed := range o.AllowedRoles {
		if allowed == string(role) {
			return true
		}
	}
	return false
}

func categoryAllows(c CourseCategory, p roles.UserPermissions) bool {
	switch c {
	case CategoryFreeIntro:
		return true
	case CategoryStartHere:
		return p.CanAccessStartHereOnly || p.CanAccessAllCourses
	case CategoryAllAccess:
		return p.CanAccessAllCourses
	case CategoryMasterclass:
		return p.CanAccessMasterclasses
	default:
		return false
	}
}
