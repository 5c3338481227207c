package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Listing mirrors the 'listings' table. Listings are created in status
// "pending" and are never deleted; visibility is controlled entirely by the
// status column. Images live in the listing_images child table as an ordered
// sequence of opaque references.
type Listing struct {
	ID          uint64
	Title       string
	Description string
	Price       float64
	CategoryID  uint64
	Condition   string // "new" or "used"
	Location    string
	SellerID    uint64
	Status      string // "pending", "approved", "rejected", "sold"
	Featured    bool
	Views       uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var ErrListingNotFound = errors.New("listing not found")

type ListingRepo struct{ db *sql.DB }

func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{db: db} }

const listingCols = "id, title, description, price, category_id, cond, location, seller_id, status, featured, views, created_at, updated_at"

func scanListing(row interface{ Scan(...any) error }, l *Listing) error {
	return row.Scan(&l.ID, &l.Title, &l.Description, &l.Price, &l.CategoryID,
		&l.Condition, &l.Location, &l.SellerID, &l.Status, &l.Featured,
		&l.Views, &l.CreatedAt, &l.UpdatedAt)
}

// Create inserts a listing together with its ordered image references in a
// single transaction. Status is forced to "pending" and views to zero
// regardless of what the caller set on the struct.
func (r *ListingRepo) Create(ctx context.Context, l *Listing, imageRefs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO listings (title, description, price, category_id, cond, location, seller_id, status, featured, views)
		 VALUES (?,?,?,?,?,?,?,'pending',0,0)`,
		l.Title, l.Description, l.Price, l.CategoryID, l.Condition, l.Location, l.SellerID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	for i, ref := range imageRefs {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO listing_images (listing_id, image_ref, position) VALUES (?,?,?)",
			l.ID, ref, i); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	l.Status = "pending"
	l.Views = 0
	return nil
}

// GetByID fetches a listing by id, any status.
func (r *ListingRepo) GetByID(ctx context.Context, id uint64) (*Listing, error) {
	var l Listing
	err := scanListing(r.db.QueryRowContext(ctx,
		"SELECT "+listingCols+" FROM listings WHERE id=?", id), &l)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Images returns a listing's image references in position order.
func (r *ListingRepo) Images(ctx context.Context, listingID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT image_ref FROM listing_images WHERE listing_id=? ORDER BY position", listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// SearchQuery defines filters for browsing approved listings.
type SearchQuery struct {
	CategoryID uint64  // 0 means any category
	Location   string  // empty means any location
	MinPrice   float64 // negative means unset
	MaxPrice   float64 // negative means unset
	Search     string  // title substring, case-insensitive
	Limit      int     // defaults to 20
}

// SearchApproved returns approved listings matching the query, newest first.
func (r *ListingRepo) SearchApproved(ctx context.Context, q SearchQuery) ([]*Listing, error) {
	where := []string{"status='approved'"}
	args := []any{}
	if q.CategoryID != 0 {
		where = append(where, "category_id=?")
		args = append(args, q.CategoryID)
	}
	if q.Location != "" {
		where = append(where, "location=?")
		args = append(args, q.Location)
	}
	if q.MinPrice >= 0 {
		where = append(where, "price>=?")
		args = append(args, q.MinPrice)
	}
	if q.MaxPrice >= 0 {
		where = append(where, "price<=?")
		args = append(args, q.MaxPrice)
	}
	if q.Search != "" {
		where = append(where, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Search)+"%")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)
	sqlq := "SELECT " + listingCols + " FROM listings WHERE " +
		strings.Join(where, " AND ") + " ORDER BY id DESC LIMIT ?"
	return r.queryListings(ctx, sqlq, args...)
}

// ListFeatured returns approved listings flagged as featured, newest first.
func (r *ListingRepo) ListFeatured(ctx context.Context, limit int) ([]*Listing, error) {
	if limit <= 0 {
		limit = 8
	}
	return r.queryListings(ctx,
		"SELECT "+listingCols+" FROM listings WHERE status='approved' AND featured=1 ORDER BY id DESC LIMIT ?",
		limit)
}

// ListBySeller returns all of a seller's listings, newest first, any status.
func (r *ListingRepo) ListBySeller(ctx context.Context, sellerID uint64) ([]*Listing, error) {
	return r.queryListings(ctx,
		"SELECT "+listingCols+" FROM listings WHERE seller_id=? ORDER BY id DESC", sellerID)
}

// ListByStatus returns listings in a given status, newest first, paginated.
// It also reports the total number of rows in that status so moderation
// clients can page through the queue.
func (r *ListingRepo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*Listing, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM listings WHERE status=?", status).Scan(&total); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items, err := r.queryListings(ctx,
		"SELECT "+listingCols+" FROM listings WHERE status=? ORDER BY id DESC LIMIT ? OFFSET ?",
		status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateStatus patches the status column only. Other fields are untouched.
func (r *ListingRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE listings SET status=? WHERE id=?", status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is also 0 when the status already matches; confirm the
		// row exists before reporting not found.
		var one int
		if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM listings WHERE id=?", id).Scan(&one); errors.Is(err, sql.ErrNoRows) {
			return ErrListingNotFound
		}
	}
	return nil
}

// SetFeatured patches the featured flag, independent of status.
func (r *ListingRepo) SetFeatured(ctx context.Context, id uint64, featured bool) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE listings SET featured=? WHERE id=?", featured, id)
	return err
}

// IncrementViews bumps the monotone view counter by one.
func (r *ListingRepo) IncrementViews(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE listings SET views=views+1 WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrListingNotFound
	}
	return nil
}

// CountByStatus returns the number of listings in a given status.
func (r *ListingRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM listings WHERE status=?", status).Scan(&n)
	return n, err
}

// CountAll returns the total number of listings.
func (r *ListingRepo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings").Scan(&n)
	return n, err
}

func (r *ListingRepo) queryListings(ctx context.Context, q string, args ...any) ([]*Listing, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Listing
	for rows.Next() {
		l := new(Listing)
		if err := scanListing(rows, l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
