package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Category is static reference data describing a listing category.
type Category struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Icon        string  `json:"icon"`
	Description *string `json:"description,omitempty"`
}

var ErrCategoryNotFound = errors.New("category not found")

type CategoryRepo struct{ db *sql.DB }

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// ListAll returns every category ordered by id.
func (r *CategoryRepo) ListAll(ctx context.Context) ([]*Category, error) {
	const q = "SELECT id, name, slug, icon, description FROM categories ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Category
	for rows.Next() {
		c := new(Category)
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Icon, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches one category, returning ErrCategoryNotFound on a miss.
func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (*Category, error) {
	const q = "SELECT id, name, slug, icon, description FROM categories WHERE id=?"
	var c Category
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.Slug, &c.Icon, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a category and populates its ID.
func (r *CategoryRepo) Create(ctx context.Context, c *Category) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (name, slug, icon, description) VALUES (?,?,?,?)",
		c.Name, c.Slug, c.Icon, c.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// SeedDefaults inserts the canonical category set if the table is empty.
// Calling it on a populated table is a no-op.
func (r *CategoryRepo) SeedDefaults(ctx context.Context) error {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	defaults := []Category{
		{Name: "Mobile Phones", Slug: "phones", Icon: "📱", Description: strptr("Smartphones and accessories")},
		{Name: "Vehicles", Slug: "vehicles", Icon: "🚗", Description: strptr("Cars, motorcycles, and auto parts")},
		{Name: "Electronics", Slug: "electronics", Icon: "💻", Description: strptr("Computers, TVs, and gadgets")},
		{Name: "Real Estate", Slug: "real-estate", Icon: "🏠", Description: strptr("Houses, apartments, and land")},
		{Name: "Fashion", Slug: "fashion", Icon: "👕", Description: strptr("Clothing, shoes, and accessories")},
		{Name: "Home & Garden", Slug: "home-garden", Icon: "🏡", Description: strptr("Furniture and home decor")},
		{Name: "Services", Slug: "services", Icon: "🔧", Description: strptr("Professional and personal services")},
		{Name: "Jobs", Slug: "jobs", Icon: "💼", Description: strptr("Job opportunities and career")},
	}
	for i := range defaults {
		if err := r.Create(ctx, &defaults[i]); err != nil {
			return err
		}
	}
	return nil
}

func strptr(s string) *string { return &s }
