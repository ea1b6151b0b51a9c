package service

import (
	"context"
	"strings"

	"go-community-app/internal/apperr"
	"go-community-app/internal/auth"
	"go-community-app/internal/config"
	"go-community-app/internal/data"
	"go-community-app/internal/logger"
)

const maxNameLength = 64

// CategoryService manages categories and tags.
type CategoryService struct {
	gate       *auth.Gate
	tx         data.Transactor
	categories CategoryStore
	threads    ThreadStore
	tags       TagStore
	validate   *validator
	log        logger.Logger
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(gate *auth.Gate, st Stores, cfg config.ContentConfig, log logger.Logger) *CategoryService {
	return &CategoryService{
		gate:       gate,
		tx:         st.Tx,
		categories: st.Categories,
		threads:    st.Threads,
		tags:       st.Tags,
		validate:   newValidator(cfg),
		log:        log,
	}
}

func (s *CategoryService) name(op, raw string) (string, error) {
	name, err := s.validate.title(op, raw)
	if err != nil {
		return "", err
	}
	return name, checkLength(op, "name", name, maxNameLength)
}

// ListCategories returns every category, default first.
func (s *CategoryService) ListCategories(ctx context.Context, actor *auth.Actor) ([]*data.Category, error) {
	const op = "category.ListCategories"
	if err := require(s.gate, op, auth.OrGuest(actor), auth.PermViewContent, nil); err != nil {
		return nil, err
	}
	cats, err := s.categories.GetAll(ctx)
	if err != nil {
		return nil, apperr.Internalf(op, err)
	}
	return cats, nil
}

// CreateCategory adds a category. Names are unique.
func (s *CategoryService) CreateCategory(ctx context.Context, actor *auth.Actor, name string) (*data.Category, error) {
	const op = "category.CreateCategory"
	if err := require(s.gate, op, actor, auth.PermManageCategories, nil); err != nil {
		return nil, err
	}
	name, err := s.name(op, name)
	if err != nil {
		return nil, err
	}
	cat := &data.Category{Name: name}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.categories.FindByName(ctx, name)
		if err != nil {
			return apperr.Internalf(op, err)
		}
		if existing != nil {
			return apperr.E(apperr.Conflict, op, "category already exists")
		}
		if _, err := s.categories.Save(ctx, cat); err != nil {
			return apperr.Internalf(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// loadMutable returns a category that may be changed, or Conflict for the
// default category.
func (s *CategoryService) loadMutable(ctx context.Context, op string, id int64) (*data.Category, error) {
	cat, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(op, "category", err)
	}
	if cat.IsDefault {
		return nil, apperr.E(apperr.Conflict, op, "the default category cannot be changed")
	}
	return cat, nil
}

// RenameCategory renames a category other than the default one.
func (s *CategoryService) RenameCategory(ctx context.Context, actor *auth.Actor, id int64, name string) (*data.Category, error) {
	const op = "category.RenameCategory"
	if err := require(s.gate, op, actor, auth.PermManageCategories, nil); err != nil {
		return nil, err
	}
	name, err := s.name(op, name)
	if err != nil {
		return nil, err
	}
	var out *data.Category
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		cat, err := s.loadMutable(ctx, op, id)
		if err != nil {
			return err
		}
		existing, err := s.categories.FindByName(ctx, name)
		if err != nil {
			return apperr.Internalf(op, err)
		}
		if existing != nil && existing.ID != id {
			return apperr.E(apperr.Conflict, op, "category already exists")
		}
		if err := s.categories.Rename(ctx, id, name); err != nil {
			return apperr.Internalf(op, err)
		}
		cat.Name = name
		out = cat
		return nil
	})
	return out, err
}

// DeleteCategory removes a category after moving its threads to the
// default category. The default category itself cannot be deleted.
func (s *CategoryService) DeleteCategory(ctx context.Context, actor *auth.Actor, id int64) (moved int64, err error) {
	const op = "category.DeleteCategory"
	if err := require(s.gate, op, actor, auth.PermManageCategories, nil); err != nil {
		return 0, err
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.loadMutable(ctx, op, id); err != nil {
			return err
		}
		def, err := s.categories.GetDefault(ctx)
		if err != nil {
			return apperr.Internalf(op, err)
		}
		if moved, err = s.threads.MoveAll(ctx, id, def.ID); err != nil {
			return apperr.Internalf(op, err)
		}
		if err := s.categories.Delete(ctx, id); err != nil {
			return lookup(op, "category", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.With(map[string]interface{}{"category_id": id, "moved_threads": moved}).Info("category deleted")
	return moved, nil
}

// ListTags returns every tag.
func (s *CategoryService) ListTags(ctx context.Context, actor *auth.Actor) ([]*data.Tag, error) {
	const op = "category.ListTags"
	if err := require(s.gate, op, auth.OrGuest(actor), auth.PermViewContent, nil); err != nil {
		return nil, err
	}
	tags, err := s.tags.GetAll(ctx)
	if err != nil {
		return nil, apperr.Internalf(op, err)
	}
	return tags, nil
}

// CreateTag adds a tag. Names are stored lower-case and are unique.
func (s *CategoryService) CreateTag(ctx context.Context, actor *auth.Actor, name string) (*data.Tag, error) {
	const op = "category.CreateTag"
	if err := require(s.gate, op, actor, auth.PermManageTags, nil); err != nil {
		return nil, err
	}
	name, err := s.name(op, name)
	if err != nil {
		return nil, err
	}
	tag := &data.Tag{Name: strings.ToLower(name)}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.tags.FindByName(ctx, tag.Name)
		if err != nil {
			return apperr.Internalf(op, err)
		}
		if existing != nil {
			return apperr.E(apperr.Conflict, op, "tag already exists")
		}
		if err := s.tags.Create(ctx, tag); err != nil {
			return apperr.Internalf(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// DeleteTag removes a tag from every thread and then deletes it.
func (s *CategoryService) DeleteTag(ctx context.Context, actor *auth.Actor, id int64) error {
	const op = "category.DeleteTag"
	if err := require(s.gate, op, actor, auth.PermManageTags, nil); err != nil {
		return err
	}
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.tags.DeleteLinksForTag(ctx, id); err != nil {
			return apperr.Internalf(op, err)
		}
		return lookup(op, "tag", s.tags.Delete(ctx, id))
	})
}
