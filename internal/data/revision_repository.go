package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const revisionColumns = `id, entity_type, entity_id, content, author_id, created_at`

// RevisionRepository appends and reads content revisions. Rows are never
// updated or deleted.
type RevisionRepository struct {
	db *sqlx.DB
}

// NewRevisionRepository creates a new RevisionRepository.
func NewRevisionRepository(db *sqlx.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

// Insert appends a revision and sets its ID and timestamp.
func (r *RevisionRepository) Insert(ctx context.Context, rev *Revision) error {
	rev.CreatedAt = time.Now().UTC()
	res, err := conn(ctx, r.db).NamedExecContext(ctx, `
		INSERT INTO content_revisions (entity_type, entity_id, content, author_id, created_at)
		VALUES (:entity_type, :entity_id, :content, :author_id, :created_at)`, rev)
	if err != nil {
		return fmt.Errorf("failed to insert revision: %w", err)
	}
	if rev.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read revision id: %w", err)
	}
	return nil
}

// GetByID retrieves a revision.
func (r *RevisionRepository) GetByID(ctx context.Context, id int64) (*Revision, error) {
	var rev Revision
	query := `SELECT ` + revisionColumns + ` FROM content_revisions WHERE id = ?`
	if err := conn(ctx, r.db).GetContext(ctx, &rev, query, id); err != nil {
		return nil, notFound(err, "revision", id)
	}
	return &rev, nil
}

// List returns an entity's revisions, newest first.
func (r *RevisionRepository) List(ctx context.Context, entityType EntityType, entityID int64) ([]*Revision, error) {
	var revs []*Revision
	query := `SELECT ` + revisionColumns + ` FROM content_revisions
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY created_at DESC, id DESC`
	if err := conn(ctx, r.db).SelectContext(ctx, &revs, query, entityType, entityID); err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	return revs, nil
}
