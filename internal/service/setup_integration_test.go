//go:build integration

package service_test

import (
	"context"
	"testing"

	"go-community-app/internal/auth"
	"go-community-app/internal/cache"
	"go-community-app/internal/config"
	"go-community-app/internal/data"
	"go-community-app/internal/lock"
	"go-community-app/internal/logger"
	"go-community-app/internal/revision"
	"go-community-app/internal/service"
	"go-community-app/internal/testutil"

	"github.com/jmoiron/sqlx"
)

type env struct {
	db         *sqlx.DB
	stores     service.Stores
	forum      *service.ForumService
	votes      *service.VoteService
	content    *service.ContentService
	categories *service.CategoryService
	users      *service.UserService

	admin, mod, member, other *auth.Actor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := config.Default()
	db := testutil.NewDB(t)
	gate := auth.NewGate(auth.MustNewAuthority())
	st := service.NewStores(db)
	locker := lock.NewLocal()

	tallies, err := cache.New(config.CacheConfig{FilePath: ":memory:", TallyTTL: cfg.Cache.TallyTTL})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	t.Cleanup(func() { tallies.Close() })

	revs := revision.NewStore(st.Revisions, st.Tx, revision.Options{SnapshotOnRestore: cfg.Revisions.SnapshotOnRestore})
	log := logger.Nop()

	return &env{
		db:         db,
		stores:     st,
		forum:      service.NewForumService(gate, st, cfg.Content, log),
		votes:      service.NewVoteService(gate, st, locker, tallies, log),
		content:    service.NewContentService(gate, st, revs, locker, cfg.Content, log),
		categories: service.NewCategoryService(gate, st, cfg.Content, log),
		users:      service.NewUserService(gate, st, log),
		admin:      testutil.CreateUser(t, db, "admin", auth.RoleAdmin),
		mod:        testutil.CreateUser(t, db, "mod", auth.RoleModerator),
		member:     testutil.CreateUser(t, db, "member", auth.RoleMember),
		other:      testutil.CreateUser(t, db, "other", auth.RoleMember),
	}
}

// thread creates a thread by actor in the default category.
func (e *env) thread(t *testing.T, actor *auth.Actor) *data.Thread {
	t.Helper()
	th, err := e.forum.CreateThread(context.Background(), actor, service.NewThread{Title: "Hello", Content: "First post"})
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}
	return th
}

// firstPost returns the opening post of a thread.
func (e *env) firstPost(t *testing.T, threadID int64) *data.Post {
	t.Helper()
	posts, err := e.forum.ListPosts(context.Background(), nil, threadID)
	if err != nil || len(posts) == 0 {
		t.Fatalf("ListPosts failed: %v (%d posts)", err, len(posts))
	}
	return posts[0]
}

func (e *env) tag(t *testing.T, name string) *data.Tag {
	t.Helper()
	tag, err := e.categories.CreateTag(context.Background(), e.mod, name)
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	return tag
}

func (e *env) count(t *testing.T, query string, args ...interface{}) int {
	t.Helper()
	var n int
	if err := e.db.Get(&n, query, args...); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}
