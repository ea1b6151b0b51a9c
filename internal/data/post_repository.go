package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const postColumns = `id, thread_id, author_id, content, created_at, updated_at`

// PostRepository handles database operations for posts.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a post and sets its ID and timestamps.
func (r *PostRepository) Create(ctx context.Context, post *Post) error {
	now := time.Now().UTC()
	post.CreatedAt, post.UpdatedAt = now, now
	res, err := conn(ctx, r.db).NamedExecContext(ctx, `
		INSERT INTO posts (thread_id, author_id, content, created_at, updated_at)
		VALUES (:thread_id, :author_id, :content, :created_at, :updated_at)`, post)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	if post.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read post id: %w", err)
	}
	return nil
}

// GetByID retrieves a post by ID.
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*Post, error) {
	var post Post
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ?`
	if err := conn(ctx, r.db).GetContext(ctx, &post, query, id); err != nil {
		return nil, notFound(err, "post", id)
	}
	return &post, nil
}

// ListByThread returns a thread's posts in posting order.
func (r *PostRepository) ListByThread(ctx context.Context, threadID int64) ([]*Post, error) {
	var posts []*Post
	query := `SELECT ` + postColumns + ` FROM posts WHERE thread_id = ? ORDER BY created_at, id`
	if err := conn(ctx, r.db).SelectContext(ctx, &posts, query, threadID); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// UpdateContent replaces a post's content.
func (r *PostRepository) UpdateContent(ctx context.Context, post *Post) error {
	post.UpdatedAt = time.Now().UTC()
	res, err := conn(ctx, r.db).NamedExecContext(ctx,
		`UPDATE posts SET content = :content, updated_at = :updated_at WHERE id = :id`, post)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return affectedOne(res, "post", post.ID)
}

// Delete removes a single post row. Its comments and votes must be gone already.
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return affectedOne(res, "post", id)
}

// DeleteByThread removes every post of a thread and returns how many.
func (r *PostRepository) DeleteByThread(ctx context.Context, threadID int64) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM posts WHERE thread_id = ?`, threadID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete thread posts: %w", err)
	}
	return res.RowsAffected()
}
