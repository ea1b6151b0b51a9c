package service

import (
	"context"

	"go-community-app/internal/data"
	"go-community-app/internal/revision"

	"github.com/jmoiron/sqlx"
)

// UserStore reads users and changes their role.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*data.User, error)
	SetRole(ctx context.Context, id int64, role string) error
}

// ThreadStore persists threads.
type ThreadStore interface {
	Create(ctx context.Context, thread *data.Thread) error
	GetByID(ctx context.Context, id int64) (*data.Thread, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]*data.Thread, error)
	Update(ctx context.Context, thread *data.Thread) error
	MoveAll(ctx context.Context, fromCategoryID, toCategoryID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// PostStore persists posts.
type PostStore interface {
	Create(ctx context.Context, post *data.Post) error
	GetByID(ctx context.Context, id int64) (*data.Post, error)
	ListByThread(ctx context.Context, threadID int64) ([]*data.Post, error)
	UpdateContent(ctx context.Context, post *data.Post) error
	Delete(ctx context.Context, id int64) error
	DeleteByThread(ctx context.Context, threadID int64) (int64, error)
}

// CommentStore persists comments.
type CommentStore interface {
	Create(ctx context.Context, comment *data.Comment) error
	GetByID(ctx context.Context, id int64) (*data.Comment, error)
	ListByPost(ctx context.Context, postID int64) ([]*data.Comment, error)
	UpdateContent(ctx context.Context, comment *data.Comment) error
	Delete(ctx context.Context, id int64) error
	DeleteByPost(ctx context.Context, postID int64) (int64, error)
	DeleteByThread(ctx context.Context, threadID int64) (int64, error)
}

// TagStore persists tags and thread links.
type TagStore interface {
	Create(ctx context.Context, tag *data.Tag) error
	FindByName(ctx context.Context, name string) (*data.Tag, error)
	GetAll(ctx context.Context) ([]*data.Tag, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*data.Tag, error)
	Delete(ctx context.Context, id int64) error
	Attach(ctx context.Context, threadID, tagID int64) error
	Detach(ctx context.Context, threadID, tagID int64) error
	ListForThread(ctx context.Context, threadID int64) ([]*data.Tag, error)
	DeleteByThread(ctx context.Context, threadID int64) (int64, error)
	DeleteLinksForTag(ctx context.Context, tagID int64) error
}

// VoteStore persists votes.
type VoteStore interface {
	ListFor(ctx context.Context, postID, userID int64) ([]*data.Vote, error)
	DeleteFor(ctx context.Context, postID, userID int64) error
	Insert(ctx context.Context, vote *data.Vote) error
	Counts(ctx context.Context, postID int64) (data.VoteCounts, error)
	DeleteByPost(ctx context.Context, postID int64) (int64, error)
	DeleteByThread(ctx context.Context, threadID int64) (int64, error)
}

// CategoryStore persists categories.
type CategoryStore interface {
	FindByName(ctx context.Context, name string) (*data.Category, error)
	GetAll(ctx context.Context) ([]*data.Category, error)
	Save(ctx context.Context, category *data.Category) (int64, error)
	GetByID(ctx context.Context, id int64) (*data.Category, error)
	GetDefault(ctx context.Context) (*data.Category, error)
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}

// PageStore persists pages.
type PageStore interface {
	Create(ctx context.Context, page *data.Page) error
	GetByID(ctx context.Context, id int64) (*data.Page, error)
	SlugTaken(ctx context.Context, slug string, exceptID int64) (bool, error)
	Update(ctx context.Context, page *data.Page) error
	UpdateContent(ctx context.Context, id int64, content string) error
	Delete(ctx context.Context, id int64) error
}

// BlockStore persists content blocks.
type BlockStore interface {
	Create(ctx context.Context, block *data.ContentBlock) error
	GetByID(ctx context.Context, id int64) (*data.ContentBlock, error)
	ListByPage(ctx context.Context, pageID int64, includeUnpublished bool) ([]*data.ContentBlock, error)
	Update(ctx context.Context, block *data.ContentBlock) error
	UpdateContent(ctx context.Context, id int64, content string) error
	Delete(ctx context.Context, id int64) error
	DeleteByPage(ctx context.Context, pageID int64) ([]int64, error)
}

// Stores bundles every repository the services use.
type Stores struct {
	Users      UserStore
	Threads    ThreadStore
	Posts      PostStore
	Comments   CommentStore
	Tags       TagStore
	Votes      VoteStore
	Categories CategoryStore
	Pages      PageStore
	Blocks     BlockStore
	Revisions  revision.Repository
	Tx         data.Transactor
}

// NewStores builds the SQL-backed stores over one connection pool.
func NewStores(db *sqlx.DB) Stores {
	return Stores{
		Users:      data.NewUserRepository(db),
		Threads:    data.NewThreadRepository(db),
		Posts:      data.NewPostRepository(db),
		Comments:   data.NewCommentRepository(db),
		Tags:       data.NewTagRepository(db),
		Votes:      data.NewVoteRepository(db),
		Categories: data.NewCategoryRepository(db),
		Pages:      data.NewPageRepository(db),
		Blocks:     data.NewBlockRepository(db),
		Revisions:  data.NewRevisionRepository(db),
		Tx:         data.NewTxManager(db),
	}
}
