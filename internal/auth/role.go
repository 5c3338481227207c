// Package auth resolves a caller's administrative role and answers
// permission checks against it. Roles form an ordered hierarchy: a super
// admin can do everything a moderator can, a moderator can do everything an
// ordinary user can.
package auth

// Role is the caller's administrative tier. The zero value is RoleNone, so
// an absent or unreadable role record naturally fails closed. Ranks are
// compared numerically; adding a tier later is a one-line change.
type Role int

const (
	RoleNone Role = iota
	RoleModerator
	RoleSuperAdmin
)

// Role names as stored in the admin_roles.role column.
const (
	roleNameModerator  = "moderator"
	roleNameSuperAdmin = "super_admin"
)

// ParseRole maps a stored role name to its rank. Unknown names resolve to
// RoleNone.
func ParseRole(name string) Role {
	switch name {
	case roleNameModerator:
		return RoleModerator
	case roleNameSuperAdmin:
		return RoleSuperAdmin
	default:
		return RoleNone
	}
}

// String returns the stored name of the role, or "none".
func (r Role) String() string {
	switch r {
	case RoleModerator:
		return roleNameModerator
	case RoleSuperAdmin:
		return roleNameSuperAdmin
	default:
		return "none"
	}
}

// Meets reports whether the role satisfies the required tier.
func (r Role) Meets(required Role) bool { return r >= required }

// ValidGrant reports whether a role name may be written to the role store.
// Only the two admin tiers are grantable; "none" is represented by the
// absence of a record.
func ValidGrant(name string) bool {
	return name == roleNameModerator || name == roleNameSuperAdmin
}
