package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const commentColumns = `id, post_id, author_id, content, created_at, updated_at`

// CommentRepository handles database operations for comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a comment and sets its ID and timestamps.
func (r *CommentRepository) Create(ctx context.Context, comment *Comment) error {
	now := time.Now().UTC()
	comment.CreatedAt, comment.UpdatedAt = now, now
	res, err := conn(ctx, r.db).NamedExecContext(ctx, `
		INSERT INTO comments (post_id, author_id, content, created_at, updated_at)
		VALUES (:post_id, :author_id, :content, :created_at, :updated_at)`, comment)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	if comment.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read comment id: %w", err)
	}
	return nil
}

// GetByID retrieves a comment by ID.
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*Comment, error) {
	var comment Comment
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = ?`
	if err := conn(ctx, r.db).GetContext(ctx, &comment, query, id); err != nil {
		return nil, notFound(err, "comment", id)
	}
	return &comment, nil
}

// ListByPost returns a post's comments, oldest first.
func (r *CommentRepository) ListByPost(ctx context.Context, postID int64) ([]*Comment, error) {
	var comments []*Comment
	query := `SELECT ` + commentColumns + ` FROM comments WHERE post_id = ? ORDER BY created_at, id`
	if err := conn(ctx, r.db).SelectContext(ctx, &comments, query, postID); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// UpdateContent replaces a comment's content.
func (r *CommentRepository) UpdateContent(ctx context.Context, comment *Comment) error {
	comment.UpdatedAt = time.Now().UTC()
	res, err := conn(ctx, r.db).NamedExecContext(ctx,
		`UPDATE comments SET content = :content, updated_at = :updated_at WHERE id = :id`, comment)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return affectedOne(res, "comment", comment.ID)
}

// Delete removes a comment.
func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return affectedOne(res, "comment", id)
}

// DeleteByPost removes every comment on a post.
func (r *CommentRepository) DeleteByPost(ctx context.Context, postID int64) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM comments WHERE post_id = ?`, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete post comments: %w", err)
	}
	return res.RowsAffected()
}

// DeleteByThread removes every comment on every post of a thread.
func (r *CommentRepository) DeleteByThread(ctx context.Context, threadID int64) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM comments WHERE post_id IN (SELECT id FROM posts WHERE thread_id = ?)`, threadID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete thread comments: %w", err)
	}
	return res.RowsAffected()
}
