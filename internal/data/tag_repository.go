package data

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TagRepository handles tags and their links to threads.
type TagRepository struct {
	db *sqlx.DB
}

// NewTagRepository creates a new TagRepository.
func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{db: db}
}

// Create inserts a tag and sets its ID.
func (r *TagRepository) Create(ctx context.Context, tag *Tag) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `INSERT INTO tags (name) VALUES (?)`, tag.Name)
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}
	if tag.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read tag id: %w", err)
	}
	return nil
}

// FindByName returns the tag with the given name, or nil, nil.
func (r *TagRepository) FindByName(ctx context.Context, name string) (*Tag, error) {
	var tags []*Tag
	if err := conn(ctx, r.db).SelectContext(ctx, &tags, `SELECT id, name FROM tags WHERE name = ?`, name); err != nil {
		return nil, fmt.Errorf("failed to find tag: %w", err)
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return tags[0], nil
}

// GetAll lists every tag by name.
func (r *TagRepository) GetAll(ctx context.Context) ([]*Tag, error) {
	var tags []*Tag
	if err := conn(ctx, r.db).SelectContext(ctx, &tags, `SELECT id, name FROM tags ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// GetByIDs returns the tags among ids that exist.
func (r *TagRepository) GetByIDs(ctx context.Context, ids []int64) ([]*Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := conn(ctx, r.db)
	query, args, err := sqlx.In(`SELECT id, name FROM tags WHERE id IN (?) ORDER BY name`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build tag query: %w", err)
	}
	var tags []*Tag
	if err := q.SelectContext(ctx, &tags, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	return tags, nil
}

// Delete removes a tag. Its thread links must be gone already.
func (r *TagRepository) Delete(ctx context.Context, id int64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	return affectedOne(res, "tag", id)
}

// Attach links a tag to a thread. Linking twice is a no-op.
func (r *TagRepository) Attach(ctx context.Context, threadID, tagID int64) error {
	q := conn(ctx, r.db)
	var n int
	err := q.GetContext(ctx, &n, `SELECT COUNT(*) FROM thread_tags WHERE thread_id = ? AND tag_id = ?`, threadID, tagID)
	if err != nil {
		return fmt.Errorf("failed to check thread tag: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := q.ExecContext(ctx, `INSERT INTO thread_tags (thread_id, tag_id) VALUES (?, ?)`, threadID, tagID); err != nil {
		return fmt.Errorf("failed to attach tag: %w", err)
	}
	return nil
}

// Detach unlinks a tag from a thread. Missing links are ignored.
func (r *TagRepository) Detach(ctx context.Context, threadID, tagID int64) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM thread_tags WHERE thread_id = ? AND tag_id = ?`, threadID, tagID)
	if err != nil {
		return fmt.Errorf("failed to detach tag: %w", err)
	}
	return nil
}

// ListForThread returns the tags attached to a thread.
func (r *TagRepository) ListForThread(ctx context.Context, threadID int64) ([]*Tag, error) {
	var tags []*Tag
	err := conn(ctx, r.db).SelectContext(ctx, &tags, `
		SELECT t.id, t.name FROM tags t
		JOIN thread_tags tt ON tt.tag_id = t.id
		WHERE tt.thread_id = ?
		ORDER BY t.name`, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list thread tags: %w", err)
	}
	return tags, nil
}

// DeleteByThread removes every tag link of a thread.
func (r *TagRepository) DeleteByThread(ctx context.Context, threadID int64) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM thread_tags WHERE thread_id = ?`, threadID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete thread tags: %w", err)
	}
	return res.RowsAffected()
}

// DeleteLinksForTag removes a tag from every thread.
func (r *TagRepository) DeleteLinksForTag(ctx context.Context, tagID int64) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM thread_tags WHERE tag_id = ?`, tagID); err != nil {
		return fmt.Errorf("failed to delete tag links: %w", err)
	}
	return nil
}
