package roles

type UserPermissions struct {
	CanAccessIntroVideos     bool `json:"canAccessIntroVideos"`
	CanAccessStartHereOnly   bool `json:"canAccessStartHereOnly"`
	CanAccessAllCourses      bool `json:"canAccessAllCourses"`
	CanAccessMasterclasses   bool `json:"canAccessMasterclasses"`
	CanAccessAffiliate       bool `json:"canAccessAffiliate"`
	CanAccessExpertSessions  bool `json:"canAccessExpertSessions"`
	CanBookExpertSessions    bool `json:"canBookExpertSessions"`
	CanAccessCommunity       bool `json:"canAccessCommunity"`
	CanDownloadResources     bool `json:"canDownloadResources"`
	CanAccessTemplates       bool `json:"canAccessTemplates"`
	CanAccessLiveEvents      bool `json:"canAccessLiveEvents"`
	CanAccessReplays         bool `json:"canAccessReplays"`
	CanTrackProgress         bool `json:"canTrackProgress"`
	CanEarnCertificates      bool `json:"canEarnCertificates"`
	CanAccessPrioritySupport bool `json:"canAccessPrioritySupport"`
	CanManageBilling         bool `json:"canManageBilling"`
	CanAccessAdminPanel      bool `json:"canAccessAdminPanel"`
	IsAdmin                  bool `json:"isAdmin"`
}

var rolePermissions = map[UserRole]UserPermissions{
	Guest: {},
	Free: {
		CanAccessIntroVideos:   true,
		CanAccessStartHereOnly: true,
		CanTrackProgress:       true,
		CanManageBilling:       true,
	},
	Trial: {
		CanAccessIntroVideos:    true,
		CanAccessStartHereOnly:  true,
		CanAccessCommunity:      true,
		CanAccessExpertSessions: true,
		CanAccessReplays:        true,
		CanTrackProgress:        true,
		CanManageBilling:        true,
	},
	Monthly: {
		CanAccessIntroVideos:    true,
		CanAccessAllCourses:     true,
		CanAccessAffiliate:      true,
		CanAccessExpertSessions: true,
		CanAccessCommunity:      true,
		CanDownloadResources:    true,
		CanAccessTemplates:      true,
		CanAccessLiveEvents:     true,
		CanAccessReplays:        true,
		CanTrackProgress:        true,
		CanEarnCertificates:     true,
		CanManageBilling:        true,
	},
	Annual: {
		CanAccessIntroVideos:     true,
		CanAccessAllCourses:      true,
		CanAccessAffiliate:       true,
		CanAccessExpertSessions:  true,
		CanBookExpertSessions:    true,
		CanAccessCommunity:       true,
		CanDownloadResources:     true,
		CanAccessTemplates:       true,
		CanAccessLiveEvents:      true,
		CanAccessReplays:         true,
		CanTrackProgress:         true,
		CanEarnCertificates:      true,
		CanAccessPrioritySupport: true,
		CanManageBilling:         true,
	},
	Downsell: {
		CanAccessIntroVideos:   true,
		CanAccessStartHereOnly: true,
		CanAccessAllCourses:    true,
		CanAccessReplays:       true,
		CanTrackProgress:       true,
		CanManageBilling:       true,
	},
	Admin: {
		CanAccessIntroVideos:     true,
		CanAccessStartHereOnly:   true,
		CanAccessAllCourses:      true,
		CanAccessMasterclasses:   true,
		CanAccessAffiliate:       true,
		CanAccessExpertSessions:  true,
		CanBookExpertSessions:    true,
		CanAccessCommunity:       true,
		CanDownloadResources:     true,
		CanAccessTemplates:       true,
		CanAccessLiveEvents:      true,
		CanAccessReplays:         true,
		CanTrackProgress:         true,
		CanEarnCertificates:      true,
		CanAccessPrioritySupport: true,
		CanManageBilling:         true,
		CanAccessAdminPanel:      true,
		IsAdmin:                  true,
	},
}

// PermissionsFor returns the static permission record for r.
// Unrecognised roles get FallbackRole's record.
func PermissionsFor(r UserRole) UserPermissions {
	if p, ok := rolePermissions[r]; ok {
		return p
	}
	return rolePermissions[FallbackRole]
}

// Permission names a single flag of UserPermissions, used by route guards.
type Permission string

const (
	PermIntroVideos     Permission = "intro_videos"
	PermStartHere       Permission = "start_here"
	PermAllCourses      Permission = "all_courses"
	PermMasterclasses   Permission = "masterclasses"
	PermAffiliate       Permission = "affiliate"
	PermExpertSessions  Permission = "expert_sessions"
	PermBookSessions    Permission = "book_sessions"
	PermCommunity       Permission = "community"
	PermDownloads       Permission = "downloads"
	PermTemplates       Permission = "templates"
	PermLiveEvents      Permission = "live_events"
	PermReplays         Permission = "replays"
	PermProgress        Permission = "progress"
	PermCertificates    Permission = "certificates"
	PermPrioritySupport Permission = "priority_support"
	PermBilling         Permission = "billing"
	PermAdminPanel      Permission = "admin_panel"
	PermAdmin           Permission = "admin"
)

// Has reports whether p grants perm. Unknown permission names are denied.
func (p UserPermissions) Has(perm Permission) bool {
	switch perm {
	case PermIntroVideos:
		return p.CanAccessIntroVideos
	case PermStartHere:
		return p.CanAccessStartHereOnly
	case PermAllCourses:
		return p.CanAccessAllCourses
	case PermMasterclasses:
		return p.CanAccessMasterclasses
	case PermAffiliate:
		return p.CanAccessAffiliate
	case PermExpertSessions:
		return p.CanAccessExpertSessions
	case PermBookSessions:
		return p.CanBookExpertSessions
	case PermCommunity:
		return p.CanAccessCommunity
	case PermDownloads:
		return p.CanDownloadResources
	case PermTemplates:
		return p.CanAccessTemplates
	case PermLiveEvents:
		return p.CanAccessLiveEvents
	case PermReplays:
		return p.CanAccessReplays
	case PermProgress:
		return p.CanTrackProgress
	case PermCertificates:
		return p.CanEarnCertificates
	case PermPrioritySupport:
		return p.CanAccessPrioritySupport
	case PermBilling:
		return p.CanManageBilling
	case PermAdminPanel:
		return p.CanAccessAdminPanel
	case PermAdmin:
		return p.IsAdmin
	default:
		return false
	}
}
