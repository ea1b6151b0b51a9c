// Package revision keeps an append-only history of page and block content
// and restores earlier versions.
package revision

import (
	"context"
	"errors"
	"fmt"

	"go-community-app/internal/apperr"
	"go-community-app/internal/data"
)

// Repository persists revisions.
type Repository interface {
	Insert(ctx context.Context, rev *data.Revision) error
	GetByID(ctx context.Context, id int64) (*data.Revision, error)
	List(ctx context.Context, entityType data.EntityType, entityID int64) ([]*data.Revision, error)
}

// Target overwrites and reads back the live content of one entity type.
// UpdateContent returns data.ErrNotFound when the entity no longer exists.
type Target interface {
	UpdateContent(ctx context.Context, id int64, content string) error
	Load(ctx context.Context, id int64) (interface{}, error)
}

// For builds a Target from a repository's content update and lookup.
func For[T any](update func(ctx context.Context, id int64, content string) error, get func(ctx context.Context, id int64) (T, error)) Target {
	return funcTarget[T]{update: update, get: get}
}

type funcTarget[T any] struct {
	update func(ctx context.Context, id int64, content string) error
	get    func(ctx context.Context, id int64) (T, error)
}

func (t funcTarget[T]) UpdateContent(ctx context.Context, id int64, content string) error {
	return t.update(ctx, id, content)
}

func (t funcTarget[T]) Load(ctx context.Context, id int64) (interface{}, error) {
	return t.get(ctx, id)
}

// Options controls restore behavior.
type Options struct {
	// SnapshotOnRestore appends the restored content as a new revision.
	SnapshotOnRestore bool
}

// Store records and restores revisions.
type Store struct {
	repo    Repository
	tx      data.Transactor
	targets map[data.EntityType]Target
	opts    Options
}

// Restored describes a completed restore. Entity is the live entity as it
// reads after the restore.
type Restored struct {
	Entity   interface{}    `json:"entity"`
	From     *data.Revision `json:"from"`
	Snapshot *data.Revision `json:"snapshot,omitempty"`
}

// NewStore creates a Store. Targets are added with Register.
func NewStore(repo Repository, tx data.Transactor, opts Options) *Store {
	return &Store{
		repo:    repo,
		tx:      tx,
		targets: make(map[data.EntityType]Target),
		opts:    opts,
	}
}

// Register sets the live-content target for an entity type.
func (s *Store) Register(entityType data.EntityType, t Target) {
	s.targets[entityType] = t
}

func checkType(op string, entityType data.EntityType) error {
	if !entityType.Valid() {
		return apperr.E(apperr.InvalidArgument, op, fmt.Sprintf("unknown entity type %q", entityType))
	}
	return nil
}

// Snapshot appends a revision. It joins the transaction carried by ctx, so
// a caller that updates the entity in the same unit gets both or neither.
func (s *Store) Snapshot(ctx context.Context, entityType data.EntityType, entityID int64, content string, authorID int64) (*data.Revision, error) {
	const op = "revision.Snapshot"
	if err := checkType(op, entityType); err != nil {
		return nil, err
	}
	rev := &data.Revision{
		EntityType: entityType,
		EntityID:   entityID,
		Content:    content,
		AuthorID:   authorID,
	}
	if err := s.repo.Insert(ctx, rev); err != nil {
		return nil, apperr.Internalf(op, err)
	}
	return rev, nil
}

// List returns an entity's revisions, newest first.
func (s *Store) List(ctx context.Context, entityType data.EntityType, entityID int64) ([]*data.Revision, error) {
	const op = "revision.List"
	if err := checkType(op, entityType); err != nil {
		return nil, err
	}
	revs, err := s.repo.List(ctx, entityType, entityID)
	if err != nil {
		return nil, apperr.Internalf(op, err)
	}
	return revs, nil
}

// Get returns one revision.
func (s *Store) Get(ctx context.Context, id int64) (*data.Revision, error) {
	const op = "revision.Get"
	rev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, apperr.E(apperr.NotFound, op, "revision not found")
		}
		return nil, apperr.Internalf(op, err)
	}
	return rev, nil
}

// Restore copies a revision's content back onto its entity. Only the
// content field changes. If the entity is gone the result is Conflict and
// nothing is written.
func (s *Store) Restore(ctx context.Context, revisionID, actorID int64) (*Restored, error) {
	const op = "revision.Restore"
	var out *Restored
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		rev, err := s.Get(ctx, revisionID)
		if err != nil {
			return err
		}
		target, ok := s.targets[rev.EntityType]
		if !ok {
			return apperr.E(apperr.InvalidArgument, op, fmt.Sprintf("unknown entity type %q", rev.EntityType))
		}
		if err := target.UpdateContent(ctx, rev.EntityID, rev.Content); err != nil {
			if errors.Is(err, data.ErrNotFound) {
				return apperr.E(apperr.Conflict, op, fmt.Sprintf("%s %d no longer exists", rev.EntityType, rev.EntityID))
			}
			return apperr.Internalf(op, err)
		}
		entity, err := target.Load(ctx, rev.EntityID)
		if err != nil {
			return apperr.Internalf(op, err)
		}
		out = &Restored{Entity: entity, From: rev}
		if s.opts.SnapshotOnRestore {
			snap, err := s.Snapshot(ctx, rev.EntityType, rev.EntityID, rev.Content, actorID)
			if err != nil {
				return err
			}
			out.Snapshot = snap
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
