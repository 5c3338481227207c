package auth

import (
	"context"
	"errors"

	"github.com/tradepost/tradepost/internal/repository"
)

// RoleStore is the slice of the role repository the resolver needs. It is an
// interface so the resolver and everything above it can be tested against an
// in-memory store.
type RoleStore interface {
	GetByUserID(ctx context.Context, userID uint64) (*repository.AdminRole, error)
}

// Resolver derives a caller's role from stored state. It holds no state of
// its own and performs no writes.
type Resolver struct{ roles RoleStore }

func NewResolver(roles RoleStore) *Resolver { return &Resolver{roles: roles} }

// ResolveRole returns the caller's role. callerID 0 (unauthenticated) and
// any lookup miss yield RoleNone; only infrastructure failures surface as
// errors, and even then the returned role is RoleNone.
func (r *Resolver) ResolveRole(ctx context.Context, callerID uint64) (Role, error) {
	if callerID == 0 {
		return RoleNone, nil
	}
	rec, err := r.roles.GetByUserID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return RoleNone, nil
		}
		return RoleNone, err
	}
	return ParseRole(rec.Role), nil
}

// HasPermission reports whether the caller's resolved role meets the
// required tier. It fails closed on any error.
func (r *Resolver) HasPermission(ctx context.Context, callerID uint64, required Role) (bool, error) {
	role, err := r.ResolveRole(ctx, callerID)
	if err != nil {
		return false, err
	}
	return role.Meets(required), nil
}
