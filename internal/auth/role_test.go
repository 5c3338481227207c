package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleModerator, ParseRole("moderator"))
	assert.Equal(t, RoleSuperAdmin, ParseRole("super_admin"))
	assert.Equal(t, RoleNone, ParseRole(""))
	assert.Equal(t, RoleNone, ParseRole("owner"))
	assert.Equal(t, RoleNone, ParseRole("Moderator")) // names are case sensitive
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "none", RoleNone.String())
	assert.Equal(t, "moderator", RoleModerator.String())
	assert.Equal(t, "super_admin", RoleSuperAdmin.String())
}

func TestMeetsIsOrdered(t *testing.T) {
	// Super admin satisfies every tier, moderator everything but super
	// admin, none only itself.
	assert.True(t, RoleSuperAdmin.Meets(RoleNone))
	assert.True(t, RoleSuperAdmin.Meets(RoleModerator))
	assert.True(t, RoleSuperAdmin.Meets(RoleSuperAdmin))

	assert.True(t, RoleModerator.Meets(RoleNone))
	assert.True(t, RoleModerator.Meets(RoleModerator))
	assert.False(t, RoleModerator.Meets(RoleSuperAdmin))

	assert.True(t, RoleNone.Meets(RoleNone))
	assert.False(t, RoleNone.Meets(RoleModerator))
	assert.False(t, RoleNone.Meets(RoleSuperAdmin))
}

func TestValidGrant(t *testing.T) {
	assert.True(t, ValidGrant("moderator"))
	assert.True(t, ValidGrant("super_admin"))
	assert.False(t, ValidGrant("none"))
	assert.False(t, ValidGrant(""))
	assert.False(t, ValidGrant("admin"))
}
