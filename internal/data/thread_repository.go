package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const threadColumns = `id, title, author_id, category_id, is_locked, is_pinned, created_at, updated_at`

// ThreadRepository handles database operations for threads.
type ThreadRepository struct {
	db *sqlx.DB
}

// NewThreadRepository creates a new ThreadRepository.
func NewThreadRepository(db *sqlx.DB) *ThreadRepository {
	return &ThreadRepository{db: db}
}

// Create inserts a thread and sets its ID and timestamps.
func (r *ThreadRepository) Create(ctx context.Context, thread *Thread) error {
	now := time.Now().UTC()
	thread.CreatedAt, thread.UpdatedAt = now, now
	res, err := conn(ctx, r.db).NamedExecContext(ctx, `
		INSERT INTO threads (title, author_id, category_id, is_locked, is_pinned, created_at, updated_at)
		VALUES (:title, :author_id, :category_id, :is_locked, :is_pinned, :created_at, :updated_at)`, thread)
	if err != nil {
		return fmt.Errorf("failed to create thread: %w", err)
	}
	if thread.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read thread id: %w", err)
	}
	return nil
}

// GetByID retrieves a thread by ID.
func (r *ThreadRepository) GetByID(ctx context.Context, id int64) (*Thread, error) {
	var thread Thread
	query := `SELECT ` + threadColumns + ` FROM threads WHERE id = ?`
	if err := conn(ctx, r.db).GetContext(ctx, &thread, query, id); err != nil {
		return nil, notFound(err, "thread", id)
	}
	return &thread, nil
}

// ListByCategory returns a category's threads, pinned first, newest first.
func (r *ThreadRepository) ListByCategory(ctx context.Context, categoryID int64) ([]*Thread, error) {
	var threads []*Thread
	query := `SELECT ` + threadColumns + ` FROM threads WHERE category_id = ? ORDER BY is_pinned DESC, created_at DESC, id DESC`
	if err := conn(ctx, r.db).SelectContext(ctx, &threads, query, categoryID); err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	return threads, nil
}

// Update writes the mutable thread fields: title, category, lock and pin.
func (r *ThreadRepository) Update(ctx context.Context, thread *Thread) error {
	thread.UpdatedAt = time.Now().UTC()
	res, err := conn(ctx, r.db).NamedExecContext(ctx, `
		UPDATE threads
		SET title = :title, category_id = :category_id, is_locked = :is_locked, is_pinned = :is_pinned, updated_at = :updated_at
		WHERE id = :id`, thread)
	if err != nil {
		return fmt.Errorf("failed to update thread: %w", err)
	}
	return affectedOne(res, "thread", thread.ID)
}

// MoveAll reassigns every thread of one category to another and returns
// how many moved.
func (r *ThreadRepository) MoveAll(ctx context.Context, fromCategoryID, toCategoryID int64) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE threads SET category_id = ?, updated_at = ? WHERE category_id = ?`,
		toCategoryID, time.Now().UTC(), fromCategoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to move threads: %w", err)
	}
	return res.RowsAffected()
}

// Delete removes the thread row. Dependent rows must be gone already.
func (r *ThreadRepository) Delete(ctx context.Context, id int64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	return affectedOne(res, "thread", id)
}
