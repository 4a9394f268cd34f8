package access

import (
	"time"

	"membership-app/internal/domain/roles"
	"membership-app/internal/domain/users"
)

type Policy struct {
	Role        roles.UserRole
	Permissions roles.UserPermissions
	Details     roles.RoleDetails
}

func PolicyFor(role roles.UserRole) Policy {
	return Policy{
		Role:        role,
		Permissions: roles.PermissionsFor(role),
		Details:     roles.DetailsFor(role),
	}
}

func ComputePolicy(now time.Time, u users.User) Policy {
	return PolicyFor(ComputeEffectiveRole(now, u))
}
