package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// AdminRole mirrors the 'admin_roles' table. Each user holds at most one
// role record; granting a new role to an existing admin rewrites the row in
// place, including granted_by and granted_at.
type AdminRole struct {
	ID        uint64
	UserID    uint64
	Role      string // "moderator" or "super_admin"
	GrantedBy uint64
	GrantedAt time.Time
}

// ErrRoleNotFound is returned when a user has no admin role record.
var ErrRoleNotFound = errors.New("admin role not found")

type AdminRoleRepo struct{ DB *sql.DB }

func NewAdminRoleRepo(db *sql.DB) *AdminRoleRepo { return &AdminRoleRepo{DB: db} }

// GetByUserID fetches the role record for a user.
func (r *AdminRoleRepo) GetByUserID(ctx context.Context, userID uint64) (*AdminRole, error) {
	const q = "SELECT id, user_id, role, granted_by, granted_at FROM admin_roles WHERE user_id=? LIMIT 1"
	var a AdminRole
	err := r.DB.QueryRowContext(ctx, q, userID).
		Scan(&a.ID, &a.UserID, &a.Role, &a.GrantedBy, &a.GrantedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SuperAdminExists reports whether any super_admin record exists anywhere in
// the system. The bootstrap precondition queries live state rather than a
// cached counter.
func (r *AdminRoleRepo) SuperAdminExists(ctx context.Context) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM admin_roles WHERE role='super_admin' LIMIT 1").Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Upsert writes a role grant. An existing record for the user is overwritten
// (role, granted_by and granted_at); otherwise a new row is inserted.
func (r *AdminRoleRepo) Upsert(ctx context.Context, userID uint64, role string, grantedBy uint64) error {
	const q = `INSERT INTO admin_roles (user_id, role, granted_by, granted_at)
	           VALUES (?,?,?,NOW())
	           ON DUPLICATE KEY UPDATE role=VALUES(role), granted_by=VALUES(granted_by), granted_at=NOW()`
	_, err := r.DB.ExecContext(ctx, q, userID, role, grantedBy)
	return err
}

// InsertFirstSuperAdmin creates the bootstrap super_admin record. The
// existence check and the insert run in one transaction so concurrent
// bootstrap attempts cannot both succeed.
func (r *AdminRoleRepo) InsertFirstSuperAdmin(ctx context.Context, userID uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var one int
	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM admin_roles WHERE role='super_admin' LIMIT 1 FOR UPDATE").Scan(&one)
	if err == nil {
		return ErrAlreadyInitialized
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	// First super admin grants itself.
	if _, err = tx.ExecContext(ctx,
		"INSERT INTO admin_roles (user_id, role, granted_by, granted_at) VALUES (?,?,?,NOW())",
		userID, "super_admin", userID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// DeleteByUserID removes a user's role record. Deleting a nonexistent record
// is not an error; revocation is idempotent.
func (r *AdminRoleRepo) DeleteByUserID(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM admin_roles WHERE user_id=?", userID)
	return err
}

// ListAll returns every role grant ordered by grant time.
func (r *AdminRoleRepo) ListAll(ctx context.Context) ([]*AdminRole, error) {
	const q = "SELECT id, user_id, role, granted_by, granted_at FROM admin_roles ORDER BY granted_at"
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*AdminRole
	for rows.Next() {
		a := new(AdminRole)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Role, &a.GrantedBy, &a.GrantedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountAll returns the number of admin role records.
func (r *AdminRoleRepo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM admin_roles").Scan(&n)
	return n, err
}
