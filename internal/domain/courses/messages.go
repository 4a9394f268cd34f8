package courses

import "membership-app/internal/domain/roles"

const defaultRestricted = "This course is not included in your current membership."

type messageKey struct {
	category CourseCategory
	role     roles.UserRole
}

var restrictedMessages = map[messageKey]string{
	{CategoryStartHere, roles.Guest}: "Create a free account to start the Start Here course.",

	{CategoryAllAccess, roles.Guest}: "Sign up for a Monthly or Annual membership to unlock the full course library.",
	{CategoryAllAccess, roles.Free}:  "This course is part of the full library. Upgrade to a Monthly or Annual membership to unlock it.",
	{CategoryAllAccess, roles.Trial}: "Your trial covers the Start Here path. Upgrade to a paid membership to unlock the full library.",

	{CategoryMasterclass, roles.Guest}:    "Masterclasses are available to members only. Sign up to learn more.",
	{CategoryMasterclass, roles.Free}:     "Masterclasses are premium content sold separately from memberships.",
	{CategoryMasterclass, roles.Trial}:    "Masterclasses are not part of the free trial.",
	{CategoryMasterclass, roles.Monthly}:  "Masterclasses are sold separately from the Monthly membership.",
	{CategoryMasterclass, roles.Annual}:   "Masterclasses are sold separately from the Annual membership.",
	{CategoryMasterclass, roles.Downsell}: "Masterclasses are not included in Essentials.",
}

// upgrade is a call to action. targets lists the roles it sells; each of
// them must be able to open the category.
type upgrade struct {
	label   string
	targets []roles.UserRole
}

var paidLibrary = []roles.UserRole{roles.Monthly, roles.Annual}

var upgradeMessages = map[messageKey]upgrade{
	{CategoryStartHere, roles.Guest}: {"Create your free account", []roles.UserRole{roles.Free}},

	{CategoryAllAccess, roles.Guest}: {"Choose Monthly or Annual", paidLibrary},
	{CategoryAllAccess, roles.Free}:  {"Upgrade to Monthly or Annual", paidLibrary},
	{CategoryAllAccess, roles.Trial}: {"Upgrade to Monthly or Annual", paidLibrary},

	// no membership includes masterclasses
	{CategoryMasterclass, roles.Guest}:    {"Join the academy", nil},
	{CategoryMasterclass, roles.Free}:     {"Get masterclass access", nil},
	{CategoryMasterclass, roles.Trial}:    {"Get masterclass access", nil},
	{CategoryMasterclass, roles.Monthly}:  {"Get masterclass access", nil},
	{CategoryMasterclass, roles.Annual}:   {"Get masterclass access", nil},
	{CategoryMasterclass, roles.Downsell}: {"Get masterclass access", nil},
}

// RestrictedMessage explains why role cannot open courseID. It returns an
// empty string when access is granted.
func (r *Resolver) RestrictedMessage(role roles.UserRole, courseID string) string {
	d := r.Decide(role, courseID)
	if d.Allowed {
		return ""
	}
	if d.Reason == ReasonMissingConfig {
		return "This course is not available for your membership."
	}
	if msg, ok := restrictedMessages[messageKey{d.Category, role}]; ok {
		return msg
	}
	return defaultRestricted
}

// UpgradeMessage is the call-to-action label for a locked course, empty
// when access is granted.
func (r *Resolver) UpgradeMessage(role roles.UserRole, courseID string) string {
	d := r.Decide(role, courseID)
	if d.Allowed {
		return ""
	}
	if u, ok := upgradeMessages[messageKey{d.Category, role}]; ok {
		return u.label
	}
	return "Upgrade your membership"
}
