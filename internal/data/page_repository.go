package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const pageColumns = `id, slug, title, content, created_by, created_at, updated_at`

// PageRepository handles database operations for pages.
type PageRepository struct {
	db *sqlx.DB
}

// NewPageRepository creates a new PageRepository.
func NewPageRepository(db *sqlx.DB) *PageRepository {
	return &PageRepository{db: db}
}

// Create inserts a new page and sets its ID and timestamps.
func (r *PageRepository) Create(ctx context.Context, page *Page) error {
	now := time.Now().UTC()
	page.CreatedAt, page.UpdatedAt = now, now
	query := `INSERT INTO pages (slug, title, content, created_by, created_at, updated_at)
		VALUES (:slug, :title, :content, :created_by, :created_at, :updated_at)`
	res, err := conn(ctx, r.db).NamedExecContext(ctx, query, page)
	if err != nil {
		return fmt.Errorf("failed to execute create page query: %w", err)
	}
	if page.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read page id: %w", err)
	}
	return nil
}

// GetByID retrieves a single page by its ID.
func (r *PageRepository) GetByID(ctx context.Context, id int64) (*Page, error) {
	var page Page
	query := `SELECT ` + pageColumns + ` FROM pages WHERE id = ?`
	if err := conn(ctx, r.db).GetContext(ctx, &page, query, id); err != nil {
		return nil, notFound(err, "page", id)
	}
	return &page, nil
}

// SlugTaken reports whether a page other than exceptID uses slug.
func (r *PageRepository) SlugTaken(ctx context.Context, slug string, exceptID int64) (bool, error) {
	var n int
	err := conn(ctx, r.db).GetContext(ctx, &n, `SELECT COUNT(*) FROM pages WHERE slug = ? AND id <> ?`, slug, exceptID)
	if err != nil {
		return false, fmt.Errorf("failed to check page slug: %w", err)
	}
	return n > 0, nil
}

// Update writes a page's title and content.
func (r *PageRepository) Update(ctx context.Context, page *Page) error {
	page.UpdatedAt = time.Now().UTC()
	query := `UPDATE pages SET title = :title, content = :content, updated_at = :updated_at WHERE id = :id`
	res, err := conn(ctx, r.db).NamedExecContext(ctx, query, page)
	if err != nil {
		return fmt.Errorf("failed to update page: %w", err)
	}
	return affectedOne(res, "page", page.ID)
}

// UpdateContent overwrites only the content of a page.
func (r *PageRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE pages SET content = ?, updated_at = ? WHERE id = ?`, content, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update page content: %w", err)
	}
	return affectedOne(res, "page", id)
}

// Delete removes a page. Its blocks must be gone already.
func (r *PageRepository) Delete(ctx context.Context, id int64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}
	return affectedOne(res, "page", id)
}
