package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/repository"
)

// fakeRoleStore serves role records from a map and can be told to fail.
type fakeRoleStore struct {
	records map[uint64]string
	err     error
}

func (f *fakeRoleStore) GetByUserID(_ context.Context, userID uint64) (*repository.AdminRole, error) {
	if f.err != nil {
		return nil, f.err
	}
	role, ok := f.records[userID]
	if !ok {
		return nil, repository.ErrRoleNotFound
	}
	return &repository.AdminRole{UserID: userID, Role: role}, nil
}

func TestResolveRoleWithoutRecordIsNone(t *testing.T) {
	r := NewResolver(&fakeRoleStore{records: map[uint64]string{}})
	role, err := r.ResolveRole(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, RoleNone, role)
}

func TestResolveRoleUnauthenticatedIsNone(t *testing.T) {
	// callerID 0 never reaches the store.
	r := NewResolver(&fakeRoleStore{err: errors.New("store must not be called")})
	role, err := r.ResolveRole(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, RoleNone, role)
}

func TestResolveRoleReadsStoredGrant(t *testing.T) {
	r := NewResolver(&fakeRoleStore{records: map[uint64]string{
		1: "moderator",
		2: "super_admin",
	}})
	role, err := r.ResolveRole(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, RoleModerator, role)

	role, err = r.ResolveRole(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, RoleSuperAdmin, role)
}

func TestResolveRoleFailsClosedOnStoreError(t *testing.T) {
	r := NewResolver(&fakeRoleStore{err: errors.New("db down")})
	role, err := r.ResolveRole(context.Background(), 7)
	assert.Error(t, err)
	assert.Equal(t, RoleNone, role)
}

func TestHasPermission(t *testing.T) {
	r := NewResolver(&fakeRoleStore{records: map[uint64]string{1: "moderator"}})

	ok, err := r.HasPermission(context.Background(), 1, RoleModerator)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.HasPermission(context.Background(), 1, RoleSuperAdmin)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.HasPermission(context.Background(), 99, RoleModerator)
	require.NoError(t, err)
	assert.False(t, ok)
}
