package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// VoteRepository handles database operations for votes.
type VoteRepository struct {
	db *sqlx.DB
}

// NewVoteRepository creates a new VoteRepository.
func NewVoteRepository(db *sqlx.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// ListFor returns every vote row for a (post, user) pair, oldest first.
// More than one row means an earlier writer bypassed the vote service.
func (r *VoteRepository) ListFor(ctx context.Context, postID, userID int64) ([]*Vote, error) {
	var votes []*Vote
	err := conn(ctx, r.db).SelectContext(ctx, &votes,
		`SELECT id, post_id, user_id, value FROM votes WHERE post_id = ? AND user_id = ? ORDER BY id`, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	return votes, nil
}

// DeleteFor removes every vote row for a (post, user) pair.
func (r *VoteRepository) DeleteFor(ctx context.Context, postID, userID int64) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM votes WHERE post_id = ? AND user_id = ?`, postID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete votes: %w", err)
	}
	return nil
}

// Insert records a vote.
func (r *VoteRepository) Insert(ctx context.Context, vote *Vote) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO votes (post_id, user_id, value, created_at) VALUES (?, ?, ?, ?)`,
		vote.PostID, vote.UserID, vote.Value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	if vote.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read vote id: %w", err)
	}
	return nil
}

// Counts aggregates the votes of a post.
func (r *VoteRepository) Counts(ctx context.Context, postID int64) (VoteCounts, error) {
	var c VoteCounts
	err := conn(ctx, r.db).GetContext(ctx, &c, `
		SELECT
			COALESCE(SUM(value), 0) AS score,
			COALESCE(SUM(CASE WHEN value > 0 THEN 1 ELSE 0 END), 0) AS up,
			COALESCE(SUM(CASE WHEN value < 0 THEN 1 ELSE 0 END), 0) AS down
		FROM votes WHERE post_id = ?`, postID)
	if err != nil {
		return VoteCounts{}, fmt.Errorf("failed to count votes: %w", err)
	}
	return c, nil
}

// DeleteByPost removes every vote on a post.
func (r *VoteRepository) DeleteByPost(ctx context.Context, postID int64) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM votes WHERE post_id = ?`, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete post votes: %w", err)
	}
	return res.RowsAffected()
}

// DeleteByThread removes every vote on every post of a thread.
func (r *VoteRepository) DeleteByThread(ctx context.Context, threadID int64) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM votes WHERE post_id IN (SELECT id FROM posts WHERE thread_id = ?)`, threadID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete thread votes: %w", err)
	}
	return res.RowsAffected()
}
