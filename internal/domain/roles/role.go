package roles

import "strings"

type UserRole string

const (
	Guest    UserRole = "guest"
	Free     UserRole = "free"
	Trial    UserRole = "trial"
	Monthly  UserRole = "monthly"
	Annual   UserRole = "annual"
	Downsell UserRole = "downsell"
	Admin    UserRole = "admin"
)

// FallbackRole is used whenever a role key is not recognised.
const FallbackRole = Free

var allRoles = []UserRole{Guest, Free, Trial, Monthly, Annual, Downsell, Admin}

// All returns every role in tier order.
func All() []UserRole {
	out := make([]UserRole, len(allRoles))
	copy(out, allRoles)
	return out
}

func (r UserRole) Valid() bool {
	for _, v := range allRoles {
		if v == r {
			return true
		}
	}
	return false
}

func (r UserRole) String() string { return string(r) }

// Parse normalises s and reports whether it names a known role.
// Unknown input yields FallbackRole with ok=false.
func Parse(s string) (UserRole, bool) {
	r := UserRole(strings.ToLower(strings.TrimSpace(s)))
	if r.Valid() {
		return r, true
	}
	return FallbackRole, false
}

// IsPaid reports whether the role is backed by a paid subscription.
func (r UserRole) IsPaid() bool {
	switch r {
	case Monthly, Annual, Downsell:
		return true
	default:
		return false
	}
}
