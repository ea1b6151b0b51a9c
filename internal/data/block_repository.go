package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const blockColumns = `id, page_id, content, sort_order, is_published, updated_at`

// BlockRepository handles database operations for content blocks.
type BlockRepository struct {
	db *sqlx.DB
}

// NewBlockRepository creates a new BlockRepository.
func NewBlockRepository(db *sqlx.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

// Create inserts a block and sets its ID.
func (r *BlockRepository) Create(ctx context.Context, block *ContentBlock) error {
	block.UpdatedAt = time.Now().UTC()
	res, err := conn(ctx, r.db).NamedExecContext(ctx, `
		INSERT INTO content_blocks (page_id, content, sort_order, is_published, updated_at)
		VALUES (:page_id, :content, :sort_order, :is_published, :updated_at)`, block)
	if err != nil {
		return fmt.Errorf("failed to create block: %w", err)
	}
	if block.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read block id: %w", err)
	}
	return nil
}

// GetByID retrieves a block by ID.
func (r *BlockRepository) GetByID(ctx context.Context, id int64) (*ContentBlock, error) {
	var block ContentBlock
	query := `SELECT ` + blockColumns + ` FROM content_blocks WHERE id = ?`
	if err := conn(ctx, r.db).GetContext(ctx, &block, query, id); err != nil {
		return nil, notFound(err, "block", id)
	}
	return &block, nil
}

// ListByPage returns a page's blocks in display order.
func (r *BlockRepository) ListByPage(ctx context.Context, pageID int64, includeUnpublished bool) ([]*ContentBlock, error) {
	query := `SELECT ` + blockColumns + ` FROM content_blocks WHERE page_id = ?`
	if !includeUnpublished {
		query += ` AND is_published = 1`
	}
	query += ` ORDER BY sort_order, id`
	var blocks []*ContentBlock
	if err := conn(ctx, r.db).SelectContext(ctx, &blocks, query, pageID); err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	return blocks, nil
}

// Update writes content, order and publication state.
func (r *BlockRepository) Update(ctx context.Context, block *ContentBlock) error {
	block.UpdatedAt = time.Now().UTC()
	res, err := conn(ctx, r.db).NamedExecContext(ctx, `
		UPDATE content_blocks
		SET content = :content, sort_order = :sort_order, is_published = :is_published, updated_at = :updated_at
		WHERE id = :id`, block)
	if err != nil {
		return fmt.Errorf("failed to update block: %w", err)
	}
	return affectedOne(res, "block", block.ID)
}

// UpdateContent overwrites only the content of a block.
func (r *BlockRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE content_blocks SET content = ?, updated_at = ? WHERE id = ?`, content, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update block content: %w", err)
	}
	return affectedOne(res, "block", id)
}

// Delete removes a block.
func (r *BlockRepository) Delete(ctx context.Context, id int64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM content_blocks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete block: %w", err)
	}
	return affectedOne(res, "block", id)
}

// DeleteByPage removes every block of a page and returns their IDs.
func (r *BlockRepository) DeleteByPage(ctx context.Context, pageID int64) ([]int64, error) {
	q := conn(ctx, r.db)
	var ids []int64
	if err := q.SelectContext(ctx, &ids, `SELECT id FROM content_blocks WHERE page_id = ?`, pageID); err != nil {
		return nil, fmt.Errorf("failed to list page blocks: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM content_blocks WHERE page_id = ?`, pageID); err != nil {
		return nil, fmt.Errorf("failed to delete page blocks: %w", err)
	}
	return ids, nil
}
