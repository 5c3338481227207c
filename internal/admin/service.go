// Package admin implements role-grant management: the one-time super-admin
// bootstrap, granting and revoking roles, and the joined admin listing. The
// service talks to small store interfaces so its rules can be tested against
// in-memory fakes.
package admin

import (
	"context"
	"errors"
	"time"

	"github.com/tradepost/tradepost/internal/auth"
	"github.com/tradepost/tradepost/internal/repository"
)

// RoleStore is the slice of the admin-role repository the service needs.
type RoleStore interface {
	GetByUserID(ctx context.Context, userID uint64) (*repository.AdminRole, error)
	SuperAdminExists(ctx context.Context) (bool, error)
	Upsert(ctx context.Context, userID uint64, role string, grantedBy uint64) error
	InsertFirstSuperAdmin(ctx context.Context, userID uint64) error
	DeleteByUserID(ctx context.Context, userID uint64) error
	ListAll(ctx context.Context) ([]*repository.AdminRole, error)
}

// UserStore resolves user identities for grants and the admin listing.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (repository.User, error)
	GetByID(ctx context.Context, id uint64) (repository.User, error)
}

// Service enforces who may manage role grants. All privileged methods fail
// with repository.ErrForbidden when the caller is not a super admin; they
// never silently no-op.
type Service struct {
	roles    RoleStore
	users    UserStore
	resolver *auth.Resolver
}

func NewService(roles RoleStore, users UserStore) *Service {
	return &Service{roles: roles, users: users, resolver: auth.NewResolver(roles)}
}

// Resolver exposes the role resolver built on the same store, for reuse by
// middleware and handlers.
func (s *Service) Resolver() *auth.Resolver { return s.resolver }

// UserRef is a joined identity, or null in responses when the linked user no
// longer resolves.
type UserRef struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Entry is one row of the admin listing: the grant joined with the holder's
// and granter's identity.
type Entry struct {
	Role      string    `json:"role"`
	GrantedAt time.Time `json:"granted_at"`
	User      *UserRef  `json:"user"`
	GrantedBy *UserRef  `json:"granted_by"`
}

// InitializeSuperAdmin performs the one-time bootstrap. It succeeds only
// while zero super-admin records exist anywhere; afterwards it fails with
// repository.ErrAlreadyInitialized forever. The target user is resolved by
// email and self-granted.
func (s *Service) InitializeSuperAdmin(ctx context.Context, email string) error {
	// Cheap pre-check for a friendly error; the authoritative check-then-
	// insert happens inside the store's transaction.
	exists, err := s.roles.SuperAdminExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return repository.ErrAlreadyInitialized
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.roles.InsertFirstSuperAdmin(ctx, u.ID)
}

// Grant gives targetEmail the named role. An existing grant is overwritten
// in place, refreshing granted_by and granted_at even when the role is
// unchanged.
func (s *Service) Grant(ctx context.Context, callerID uint64, targetEmail, role string) error {
	if err := s.requireSuperAdmin(ctx, callerID); err != nil {
		return err
	}
	if !auth.ValidGrant(role) {
		return ErrUnknownRole
	}
	target, err := s.users.GetByEmail(ctx, targetEmail)
	if err != nil {
		return err
	}
	return s.roles.Upsert(ctx, target.ID, role, callerID)
}

// Revoke deletes targetEmail's grant. Revoking a user who holds no grant is
// a defined no-op success; revoking an unknown email is NotFound.
func (s *Service) Revoke(ctx context.Context, callerID uint64, targetEmail string) error {
	if err := s.requireSuperAdmin(ctx, callerID); err != nil {
		return err
	}
	target, err := s.users.GetByEmail(ctx, targetEmail)
	if err != nil {
		return err
	}
	return s.roles.DeleteByUserID(ctx, target.ID)
}

// List returns every grant joined with the holder's and granter's identity.
// A missing linked user yields a null reference, not an error.
func (s *Service) List(ctx context.Context, callerID uint64) ([]Entry, error) {
	if err := s.requireSuperAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	grants, err := s.roles.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(grants))
	for _, g := range grants {
		e := Entry{Role: g.Role, GrantedAt: g.GrantedAt}
		if u, err := s.users.GetByID(ctx, g.UserID); err == nil {
			e.User = &UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		if u, err := s.users.GetByID(ctx, g.GrantedBy); err == nil {
			e.GrantedBy = &UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// ErrUnknownRole is returned when a grant names a role outside the two
// admin tiers.
var ErrUnknownRole = errors.New("unknown role")

func (s *Service) requireSuperAdmin(ctx context.Context, callerID uint64) error {
	ok, err := s.resolver.HasPermission(ctx, callerID, auth.RoleSuperAdmin)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrForbidden
	}
	return nil
}
