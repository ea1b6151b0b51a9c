package service

import (
	"context"
	"regexp"
	"strings"

	"go-community-app/internal/apperr"
	"go-community-app/internal/auth"
	"go-community-app/internal/config"
	"go-community-app/internal/data"
	"go-community-app/internal/lock"
	"go-community-app/internal/logger"
	"go-community-app/internal/revision"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const maxSlugLength = 100

// NewPage is the input for CreatePage.
type NewPage struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PageEdit is the input for UpdatePage. An empty Title keeps the current
// one. EditIntent must be set; writes without it are rejected.
type PageEdit struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	EditIntent bool   `json:"editIntent"`
}

// NewBlock is the input for CreateBlock.
type NewBlock struct {
	Content     string `json:"content"`
	Order       int    `json:"order"`
	IsPublished bool   `json:"isPublished"`
}

// BlockEdit is the input for UpdateBlock.
type BlockEdit struct {
	Content    string `json:"content"`
	EditIntent bool   `json:"editIntent"`
}

// ContentService edits pages and blocks and keeps their revision history
// in step with every content change.
type ContentService struct {
	gate      *auth.Gate
	tx        data.Transactor
	pages     PageStore
	blocks    BlockStore
	revisions *revision.Store
	locker    lock.Locker
	validate  *validator
	log       logger.Logger
}

// NewContentService creates a ContentService and registers pages and
// blocks as restore targets of store.
func NewContentService(gate *auth.Gate, st Stores, store *revision.Store, locker lock.Locker, cfg config.ContentConfig, log logger.Logger) *ContentService {
	store.Register(data.EntityPage, revision.For(st.Pages.UpdateContent, st.Pages.GetByID))
	store.Register(data.EntityBlock, revision.For(st.Blocks.UpdateContent, st.Blocks.GetByID))
	return &ContentService{
		gate:      gate,
		tx:        st.Tx,
		pages:     st.Pages,
		blocks:    st.Blocks,
		revisions: store,
		locker:    locker,
		validate:  newValidator(cfg),
		log:       log,
	}
}

func editIntent(op string, ok bool) error {
	if !ok {
		return apperr.E(apperr.InvalidArgument, op, "editIntent must be set for content changes")
	}
	return nil
}

// withLock holds the keyed lock for one entity while fn runs.
func (s *ContentService) withLock(ctx context.Context, op string, entityType data.EntityType, id int64, fn func() error) error {
	release, err := s.locker.Acquire(ctx, lock.Key(string(entityType), id))
	if err != nil {
		return apperr.Internalf(op, err)
	}
	defer release()
	return fn()
}

// CreatePage creates a page and its first revision.
func (s *ContentService) CreatePage(ctx context.Context, actor *auth.Actor, in NewPage) (*data.Page, error) {
	const op = "content.CreatePage"
	if err := require(s.gate, op, actor, auth.PermEditContent, nil); err != nil {
		return nil, err
	}
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	if len(slug) > maxSlugLength || !slugPattern.MatchString(slug) {
		return nil, apperr.E(apperr.InvalidArgument, op, "slug must be lowercase letters, digits and single hyphens")
	}
	title, err := s.validate.title(op, in.Title)
	if err != nil {
		return nil, err
	}
	content, err := s.validate.body(op, in.Content)
	if err != nil {
		return nil, err
	}

	page := &data.Page{Slug: slug, Title: title, Content: content, CreatedByID: actor.ID}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		taken, err := s.pages.SlugTaken(ctx, slug, 0)
		if err != nil {
			return apperr.Internalf(op, err)
		}
		if taken {
			return apperr.E(apperr.Conflict, op, "slug is already in use")
		}
		if err := s.pages.Create(ctx, page); err != nil {
			return apperr.Internalf(op, err)
		}
		_, err = s.revisions.Snapshot(ctx, data.EntityPage, page.ID, page.Content, actor.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// GetPage returns a page.
func (s *ContentService) GetPage(ctx context.Context, actor *auth.Actor, pageID int64) (*data.Page, error) {
	const op = "content.GetPage"
	if err := require(s.gate, op, auth.OrGuest(actor), auth.PermViewContent, nil); err != nil {
		return nil, err
	}
	page, err := s.pages.GetByID(ctx, pageID)
	if err != nil {
		return nil, lookup(op, "page", err)
	}
	return page, nil
}

// UpdatePage edits a page and records the new content as a revision in
// the same transaction.
func (s *ContentService) UpdatePage(ctx context.Context, actor *auth.Actor, pageID int64, in PageEdit) (*data.Page, error) {
	const op = "content.UpdatePage"
	if err := require(s.gate, op, actor, auth.PermEditContent, nil); err != nil {
		return nil, err
	}
	if err := editIntent(op, in.EditIntent); err != nil {
		return nil, err
	}
	content, err := s.validate.body(op, in.Content)
	if err != nil {
		return nil, err
	}
	var title string
	if strings.TrimSpace(in.Title) != "" {
		if title, err = s.validate.title(op, in.Title); err != nil {
			return nil, err
		}
	}

	var out *data.Page
	err = s.withLock(ctx, op, data.EntityPage, pageID, func() error {
		return s.tx.InTx(ctx, func(ctx context.Context) error {
			page, err := s.pages.GetByID(ctx, pageID)
			if err != nil {
				return lookup(op, "page", err)
			}
			if title != "" {
				page.Title = title
			}
			page.Content = content
			if err := s.pages.Update(ctx, page); err != nil {
				return lookup(op, "page", err)
			}
			if _, err := s.revisions.Snapshot(ctx, data.EntityPage, page.ID, page.Content, actor.ID); err != nil {
				return err
			}
			out = page
			return nil
		})
	})
	return out, err
}

// DeletePage removes a page and its blocks. Revisions stay.
func (s *ContentService) DeletePage(ctx context.Context, actor *auth.Actor, pageID int64) error {
	const op = "content.DeletePage"
	if err := require(s.gate, op, actor, auth.PermEditContent, nil); err != nil {
		return err
	}
	return s.withLock(ctx, op, data.EntityPage, pageID, func() error {
		return s.tx.InTx(ctx, func(ctx context.Context) error {
			if _, err := s.pages.GetByID(ctx, pageID); err != nil {
				return lookup(op, "page", err)
			}
			if _, err := s.blocks.DeleteByPage(ctx, pageID); err != nil {
				return apperr.Internalf(op, err)
			}
			if err := s.pages.Delete(ctx, pageID); err != nil {
				return lookup(op, "page", err)
			}
			return nil
		})
	})
}

// ListBlocks returns a page's blocks in order. Unpublished blocks are only
// visible to content editors.
func (s *ContentService) ListBlocks(ctx context.Context, actor *auth.Actor, pageID int64, includeUnpublished bool) ([]*data.ContentBlock, error) {
	const op = "content.ListBlocks"
	perm := auth.PermViewContent
	if includeUnpublished {
		perm = auth.PermEditContent
	}
	if err := require(s.gate, op, auth.OrGuest(actor), perm, nil); err != nil {
		return nil, err
	}
	if _, err := s.pages.GetByID(ctx, pageID); err != nil {
		return nil, lookup(op, "page", err)
	}
	blocks, err := s.blocks.ListByPage(ctx, pageID, includeUnpublished)
	if err != nil {
		return nil, apperr.Internalf(op, err)
	}
	return blocks, nil
}

// CreateBlock adds a block to a page and records its first revision.
func (s *ContentService) CreateBlock(ctx context.Context, actor *auth.Actor, pageID int64, in NewBlock) (*data.ContentBlock, error) {
	const op = "content.CreateBlock"
	if err := require(s.gate, op, actor, auth.PermEditContent, nil); err != nil {
		return nil, err
	}
	content, err := s.validate.body(op, in.Content)
	if err != nil {
		return nil, err
	}
	block := &data.ContentBlock{PageID: pageID, Content: content, Order: in.Order, IsPublished: in.IsPublished}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.pages.GetByID(ctx, pageID); err != nil {
			return lookup(op, "page", err)
		}
		if err := s.blocks.Create(ctx, block); err != nil {
			return apperr.Internalf(op, err)
		}
		_, err := s.revisions.Snapshot(ctx, data.EntityBlock, block.ID, block.Content, actor.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return block, nil
}

// mutateBlock loads a block under its lock and transaction, applies fn and
// saves. A true snapshot result records the new content as a revision.
// Callers authorize first.
func (s *ContentService) mutateBlock(ctx context.Context, op string, actor *auth.Actor, blockID int64,
	fn func(b *data.ContentBlock) (snapshot bool)) (*data.ContentBlock, error) {
	var out *data.ContentBlock
	err := s.withLock(ctx, op, data.EntityBlock, blockID, func() error {
		return s.tx.InTx(ctx, func(ctx context.Context) error {
			b, err := s.blocks.GetByID(ctx, blockID)
			if err != nil {
				return lookup(op, "block", err)
			}
			snapshot := fn(b)
			if err := s.blocks.Update(ctx, b); err != nil {
				return lookup(op, "block", err)
			}
			if snapshot {
				if _, err := s.revisions.Snapshot(ctx, data.EntityBlock, b.ID, b.Content, actor.ID); err != nil {
					return err
				}
			}
			out = b
			return nil
		})
	})
	return out, err
}

// UpdateBlock replaces a block's content and records a revision.
func (s *ContentService) UpdateBlock(ctx context.Context, actor *auth.Actor, blockID int64, in BlockEdit) (*data.ContentBlock, error) {
	const op = "content.UpdateBlock"
	if err := require(s.gate, op, actor, auth.PermEditContent, nil); err != nil {
		return nil, err
	}
	if err := editIntent(op, in.EditIntent); err != nil {
		return nil, err
	}
	content, err := s.validate.body(op, in.Content)
	if err != nil {
		return nil, err
	}
	return s.mutateBlock(ctx, op, actor, blockID, func(b *data.ContentBlock) bool {
		b.Content = content
		return true
	})
}

// SetBlockPublished shows or hides a block.
func (s *ContentService) SetBlockPublished(ctx context.Context, actor *auth.Actor, blockID int64, published bool) (*data.ContentBlock, error) {
	const op = "content.SetBlockPublished"
	if err := require(s.gate, op, actor, auth.PermEditContent, nil); err != nil {
		return nil, err
	}
	return s.mutateBlock(ctx, op, actor, blockID, func(b *data.ContentBlock) bool {
		b.IsPublished = published
		return false
	})
}

// MoveBlock changes a block's position.
func (s *ContentService) MoveBlock(ctx context.Context, actor *auth.Actor, blockID int64, order int) (*data.ContentBlock, error) {
	const op = "content.MoveBlock"
	if err := require(s.gate, op, actor, auth.PermEditContent, nil); err != nil {
		return nil, err
	}
	return s.mutateBlock(ctx, op, actor, blockID, func(b *data.ContentBlock) bool {
		b.Order = order
		return false
	})
}

// DeleteBlock removes a block. Revisions stay.
func (s *ContentService) DeleteBlock(ctx context.Context, actor *auth.Actor, blockID int64) error {
	const op = "content.DeleteBlock"
	if err := require(s.gate, op, actor, auth.PermEditContent, nil); err != nil {
		return err
	}
	return s.withLock(ctx, op, data.EntityBlock, blockID, func() error {
		return lookup(op, "block", s.blocks.Delete(ctx, blockID))
	})
}

// ListRevisions returns an entity's history, newest first.
func (s *ContentService) ListRevisions(ctx context.Context, actor *auth.Actor, entityType data.EntityType, entityID int64) ([]*data.Revision, error) {
	const op = "content.ListRevisions"
	if err := require(s.gate, op, actor, auth.PermEditContent, nil); err != nil {
		return nil, err
	}
	return s.revisions.List(ctx, entityType, entityID)
}

// RestoreRevision puts a revision's content back on its entity.
func (s *ContentService) RestoreRevision(ctx context.Context, actor *auth.Actor, revisionID int64) (*revision.Restored, error) {
	const op = "content.RestoreRevision"
	if err := require(s.gate, op, actor, auth.PermEditContent, nil); err != nil {
		return nil, err
	}
	rev, err := s.revisions.Get(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	var out *revision.Restored
	err = s.withLock(ctx, op, rev.EntityType, rev.EntityID, func() error {
		out, err = s.revisions.Restore(ctx, revisionID, actor.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.With(map[string]interface{}{
		"revision_id": revisionID,
		"entity_type": string(rev.EntityType),
		"entity_id":   rev.EntityID,
		"actor_id":    actor.ID,
	}).Info("revision restored")
	return out, nil
}
