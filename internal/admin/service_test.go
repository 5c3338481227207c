package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/repository"
)

// memRoleStore is an in-memory RoleStore with the same semantics as the SQL
// repository: one grant per user, bootstrap succeeds exactly once.
type memRoleStore struct {
	grants map[uint64]*repository.AdminRole
	nextID uint64
}

func newMemRoleStore() *memRoleStore {
	return &memRoleStore{grants: map[uint64]*repository.AdminRole{}}
}

func (s *memRoleStore) GetByUserID(_ context.Context, userID uint64) (*repository.AdminRole, error) {
	g, ok := s.grants[userID]
	if !ok {
		return nil, repository.ErrRoleNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *memRoleStore) SuperAdminExists(_ context.Context) (bool, error) {
	for _, g := range s.grants {
		if g.Role == "super_admin" {
			return true, nil
		}
	}
	return false, nil
}

func (s *memRoleStore) Upsert(_ context.Context, userID uint64, role string, grantedBy uint64) error {
	s.nextID++
	s.grants[userID] = &repository.AdminRole{
		ID: s.nextID, UserID: userID, Role: role,
		GrantedBy: grantedBy, GrantedAt: time.Now(),
	}
	return nil
}

func (s *memRoleStore) InsertFirstSuperAdmin(ctx context.Context, userID uint64) error {
	if ok, _ := s.SuperAdminExists(ctx); ok {
		return repository.ErrAlreadyInitialized
	}
	return s.Upsert(ctx, userID, "super_admin", userID)
}

func (s *memRoleStore) DeleteByUserID(_ context.Context, userID uint64) error {
	delete(s.grants, userID)
	return nil
}

func (s *memRoleStore) ListAll(_ context.Context) ([]*repository.AdminRole, error) {
	out := make([]*repository.AdminRole, 0, len(s.grants))
	for _, g := range s.grants {
		cp := *g
		out = append(out, &cp)
	}
	return out, nil
}

// memUserStore resolves users by email and id.
type memUserStore struct{ users []repository.User }

func (s *memUserStore) GetByEmail(_ context.Context, email string) (repository.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return repository.User{}, repository.ErrUserNotFound
}

func (s *memUserStore) GetByID(_ context.Context, id uint64) (repository.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return repository.User{}, repository.ErrUserNotFound
}

func newTestService() (*Service, *memRoleStore, *memUserStore) {
	roles := newMemRoleStore()
	users := &memUserStore{users: []repository.User{
		{ID: 1, Name: "Root", Email: "root@example.com"},
		{ID: 2, Name: "Mod", Email: "mod@example.com"},
		{ID: 3, Name: "Plain", Email: "plain@example.com"},
	}}
	return NewService(roles, users), roles, users
}

func TestInitializeSuperAdminHappensOnce(t *testing.T) {
	svc, roles, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.InitializeSuperAdmin(ctx, "root@example.com"))

	g, err := roles.GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "super_admin", g.Role)
	assert.Equal(t, uint64(1), g.GrantedBy, "bootstrap is self-granted")

	// Second attempt fails for any email, including the same one.
	assert.ErrorIs(t, svc.InitializeSuperAdmin(ctx, "root@example.com"), repository.ErrAlreadyInitialized)
	assert.ErrorIs(t, svc.InitializeSuperAdmin(ctx, "mod@example.com"), repository.ErrAlreadyInitialized)
}

func TestInitializeSuperAdminUnknownEmail(t *testing.T) {
	svc, roles, _ := newTestService()
	ctx := context.Background()

	assert.ErrorIs(t, svc.InitializeSuperAdmin(ctx, "ghost@example.com"), repository.ErrUserNotFound)
	// The failed attempt must not consume the bootstrap.
	exists, err := roles.SuperAdminExists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, svc.InitializeSuperAdmin(ctx, "root@example.com"))
}

func TestGrantRequiresSuperAdmin(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.InitializeSuperAdmin(ctx, "root@example.com"))
	require.NoError(t, svc.Grant(ctx, 1, "mod@example.com", "moderator"))

	// A moderator is still not a super admin.
	assert.ErrorIs(t, svc.Grant(ctx, 2, "plain@example.com", "moderator"), repository.ErrForbidden)
	// Neither is an ordinary user or an unauthenticated caller.
	assert.ErrorIs(t, svc.Grant(ctx, 3, "plain@example.com", "moderator"), repository.ErrForbidden)
	assert.ErrorIs(t, svc.Grant(ctx, 0, "plain@example.com", "moderator"), repository.ErrForbidden)
}

func TestGrantValidatesRoleAndTarget(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.InitializeSuperAdmin(ctx, "root@example.com"))

	assert.ErrorIs(t, svc.Grant(ctx, 1, "mod@example.com", "owner"), ErrUnknownRole)
	assert.ErrorIs(t, svc.Grant(ctx, 1, "mod@example.com", "none"), ErrUnknownRole)
	assert.ErrorIs(t, svc.Grant(ctx, 1, "ghost@example.com", "moderator"), repository.ErrUserNotFound)
}

func TestGrantOverwritesInPlace(t *testing.T) {
	svc, roles, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.InitializeSuperAdmin(ctx, "root@example.com"))

	require.NoError(t, svc.Grant(ctx, 1, "mod@example.com", "moderator"))
	require.NoError(t, svc.Grant(ctx, 1, "mod@example.com", "super_admin"))

	g, err := roles.GetByUserID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "super_admin", g.Role)

	all, err := roles.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "regrant must not create a second record")
}

func TestRevoke(t *testing.T) {
	svc, roles, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.InitializeSuperAdmin(ctx, "root@example.com"))
	require.NoError(t, svc.Grant(ctx, 1, "mod@example.com", "moderator"))

	require.NoError(t, svc.Revoke(ctx, 1, "mod@example.com"))
	_, err := roles.GetByUserID(ctx, 2)
	assert.ErrorIs(t, err, repository.ErrRoleNotFound)

	// Revoking again is a no-op success; unknown emails are NotFound.
	assert.NoError(t, svc.Revoke(ctx, 1, "mod@example.com"))
	assert.ErrorIs(t, svc.Revoke(ctx, 1, "ghost@example.com"), repository.ErrUserNotFound)

	// The demoted moderator cannot revoke anyone.
	assert.ErrorIs(t, svc.Revoke(ctx, 2, "root@example.com"), repository.ErrForbidden)
}

func TestListJoinsUserIdentities(t *testing.T) {
	svc, roles, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.InitializeSuperAdmin(ctx, "root@example.com"))
	require.NoError(t, svc.Grant(ctx, 1, "mod@example.com", "moderator"))

	// A grant whose user record is gone still lists, with a null reference.
	require.NoError(t, roles.Upsert(ctx, 99, "moderator", 1))

	entries, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	byRole := map[uint64]Entry{}
	for _, e := range entries {
		if e.User != nil {
			byRole[e.User.ID] = e
		} else {
			byRole[0] = e
		}
	}
	assert.Equal(t, "Mod", byRole[2].User.Name)
	assert.Equal(t, "Root", byRole[2].GrantedBy.Name)
	assert.Nil(t, byRole[0].User)
	assert.Equal(t, "moderator", byRole[0].Role)

	// Non-super-admins cannot list.
	_, err = svc.List(ctx, 3)
	assert.ErrorIs(t, err, repository.ErrForbidden)
}
