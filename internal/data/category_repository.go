package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// CategoryRepository handles database operations for categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindByName finds a category by name. It returns nil, nil when none exists.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*Category, error) {
	var category Category
	err := conn(ctx, r.db).GetContext(ctx, &category, "SELECT * FROM categories WHERE name = ?", name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found is not an error
		}
		return nil, fmt.Errorf("failed to find category by name: %w", err)
	}
	return &category, nil
}

// GetAll retrieves all categories, default first.
func (r *CategoryRepository) GetAll(ctx context.Context) ([]*Category, error) {
	var categories []*Category
	err := conn(ctx, r.db).SelectContext(ctx, &categories, "SELECT * FROM categories ORDER BY is_default DESC, name")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Save creates a new category and returns its ID.
func (r *CategoryRepository) Save(ctx context.Context, category *Category) (int64, error) {
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	res, err := conn(ctx, r.db).NamedExecContext(ctx,
		"INSERT INTO categories (name, is_default, created_at) VALUES (:name, :is_default, :created_at)", category)
	if err != nil {
		return 0, fmt.Errorf("failed to create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	category.ID = id
	return id, nil
}

// GetByID finds a category by its ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*Category, error) {
	var category Category
	if err := conn(ctx, r.db).GetContext(ctx, &category, "SELECT * FROM categories WHERE id = ?", id); err != nil {
		return nil, notFound(err, "category", id)
	}
	return &category, nil
}

// GetDefault returns the default category.
func (r *CategoryRepository) GetDefault(ctx context.Context) (*Category, error) {
	var category Category
	err := conn(ctx, r.db).GetContext(ctx, &category, "SELECT * FROM categories WHERE is_default = ? ORDER BY id LIMIT 1", true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("default category: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get default category: %w", err)
	}
	return &category, nil
}

// Rename changes a category's name.
func (r *CategoryRepository) Rename(ctx context.Context, id int64, name string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, "UPDATE categories SET name = ? WHERE id = ?", name, id); err != nil {
		return fmt.Errorf("failed to rename category: %w", err)
	}
	return nil
}

// Delete removes a category.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return affectedOne(res, "category", id)
}
