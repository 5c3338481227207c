package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/auth"
)

func assertDenied(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, IsPermissionDenied(err), "expected permission_denied, got %v", err)
}

func assertInvalidEdge(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "invalid_transition", te.Code)
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusApproved, StatusRejected, StatusSold} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("archived"))
}

func TestModeratorCanApproveAndRejectPending(t *testing.T) {
	assert.NoError(t, Authorize(StatusPending, StatusApproved, false, auth.RoleModerator))
	assert.NoError(t, Authorize(StatusPending, StatusRejected, false, auth.RoleModerator))
	assert.NoError(t, Authorize(StatusPending, StatusApproved, false, auth.RoleSuperAdmin))
}

func TestNonAdminCannotModerate(t *testing.T) {
	// Not even the seller of the listing.
	assertDenied(t, Authorize(StatusPending, StatusApproved, true, auth.RoleNone))
	assertDenied(t, Authorize(StatusPending, StatusRejected, true, auth.RoleNone))
	assertDenied(t, Authorize(StatusPending, StatusApproved, false, auth.RoleNone))
}

func TestModerationNeedsPendingStatus(t *testing.T) {
	assertInvalidEdge(t, Authorize(StatusApproved, StatusApproved, false, auth.RoleModerator))
	assertInvalidEdge(t, Authorize(StatusSold, StatusRejected, false, auth.RoleModerator))
	assertInvalidEdge(t, Authorize(StatusRejected, StatusApproved, false, auth.RoleModerator))
}

func TestOnlySellerMarksSold(t *testing.T) {
	assert.NoError(t, Authorize(StatusApproved, StatusSold, true, auth.RoleNone))

	// Admin roles do not substitute for ownership here.
	assertDenied(t, Authorize(StatusApproved, StatusSold, false, auth.RoleModerator))
	assertDenied(t, Authorize(StatusApproved, StatusSold, false, auth.RoleSuperAdmin))
	assertDenied(t, Authorize(StatusApproved, StatusSold, false, auth.RoleNone))
}

func TestPendingListingCannotBeSold(t *testing.T) {
	// A sale requires an approved listing, seller or not.
	assertInvalidEdge(t, Authorize(StatusPending, StatusSold, true, auth.RoleNone))
	assertInvalidEdge(t, Authorize(StatusRejected, StatusSold, true, auth.RoleNone))
	assertInvalidEdge(t, Authorize(StatusSold, StatusSold, true, auth.RoleNone))
}

func TestSoldIsTerminal(t *testing.T) {
	assertInvalidEdge(t, Authorize(StatusSold, StatusApproved, false, auth.RoleModerator))
	assertInvalidEdge(t, Authorize(StatusSold, StatusSold, true, auth.RoleNone))
	// Except for the admin escape hatch back to pending.
	assert.NoError(t, Authorize(StatusSold, StatusPending, false, auth.RoleModerator))
}

func TestSellerCanResubmitRejected(t *testing.T) {
	assert.NoError(t, Authorize(StatusRejected, StatusPending, true, auth.RoleNone))

	// Only from rejected, and only the seller.
	assertInvalidEdge(t, Authorize(StatusApproved, StatusPending, true, auth.RoleNone))
	assertInvalidEdge(t, Authorize(StatusSold, StatusPending, true, auth.RoleNone))
	assertDenied(t, Authorize(StatusRejected, StatusPending, false, auth.RoleNone))
}

func TestAdminCanForceAnyStatusToPending(t *testing.T) {
	for _, from := range []string{StatusPending, StatusApproved, StatusRejected, StatusSold} {
		assert.NoError(t, Authorize(from, StatusPending, false, auth.RoleModerator), from)
		assert.NoError(t, Authorize(from, StatusPending, false, auth.RoleSuperAdmin), from)
	}
}

func TestUnknownTargetStatus(t *testing.T) {
	err := Authorize(StatusPending, "archived", true, auth.RoleSuperAdmin)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCanFeature(t *testing.T) {
	assert.False(t, CanFeature(auth.RoleNone))
	assert.True(t, CanFeature(auth.RoleModerator))
	assert.True(t, CanFeature(auth.RoleSuperAdmin))
}
