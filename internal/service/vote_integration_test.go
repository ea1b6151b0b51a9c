//go:build integration

package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-community-app/internal/apperr"
	"go-community-app/internal/auth"
	"go-community-app/internal/cache"
	"go-community-app/internal/config"
	"go-community-app/internal/data"
	"go-community-app/internal/lock"
	"go-community-app/internal/logger"
	"go-community-app/internal/service"
)

func TestCastVoteTransitions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	post := e.firstPost(t, e.thread(t, e.member).ID)

	steps := []struct {
		actor    string
		value    int
		score    int
		userVote int
	}{
		{"member", 1, 1, 1},
		{"other", 1, 2, 1},
		{"member", 1, 1, 0},
		{"member", -1, 0, -1},
		{"member", 1, 2, 1},
		{"other", -1, 0, -1},
	}
	for i, step := range steps {
		actor := e.member
		if step.actor == "other" {
			actor = e.other
		}
		tally, err := e.votes.CastVote(ctx, actor, post.ID, step.value)
		if err != nil {
			t.Fatalf("step %d: CastVote failed: %v", i, err)
		}
		if tally.Score != step.score || tally.UserVote != step.userVote {
			t.Errorf("step %d: expected score %d vote %d, got %+v", i, step.score, step.userVote, tally)
		}
		if tally.Score != tally.Up-tally.Down {
			t.Errorf("step %d: score %d != up %d - down %d", i, tally.Score, tally.Up, tally.Down)
		}
	}

	got, err := e.votes.GetTally(ctx, e.member, post.ID)
	if err != nil {
		t.Fatalf("GetTally failed: %v", err)
	}
	if got.Up != 1 || got.Down != 1 || got.UserVote != 1 {
		t.Errorf("unexpected tally %+v", got)
	}
	guest, err := e.votes.GetTally(ctx, nil, post.ID)
	if err != nil || guest.UserVote != 0 || guest.Score != 0 {
		t.Errorf("unexpected guest tally %+v, %v", guest, err)
	}
}

func TestCastVoteErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	post := e.firstPost(t, e.thread(t, e.member).ID)

	if _, err := e.votes.CastVote(ctx, nil, post.ID, 1); !apperr.Is(err, apperr.Unauthenticated) {
		t.Errorf("expected Unauthenticated, got %v", err)
	}
	if _, err := e.votes.CastVote(ctx, e.member, post.ID, 2); !apperr.Is(err, apperr.InvalidArgument) {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
	if _, err := e.votes.CastVote(ctx, e.member, 999, 1); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
	if _, err := e.votes.GetTally(ctx, nil, 999); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestCastVoteCollapsesDuplicates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	post := e.firstPost(t, e.thread(t, e.member).ID)

	for _, v := range []int{-1, 1} {
		if err := e.stores.Votes.Insert(ctx, &data.Vote{PostID: post.ID, UserID: e.member.ID, Value: v}); err != nil {
			t.Fatal(err)
		}
	}
	// The newest row (+1) is the current vote, so +1 toggles it off.
	tally, err := e.votes.CastVote(ctx, e.member, post.ID, 1)
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if tally.UserVote != 0 || tally.Score != 0 {
		t.Errorf("expected cleared vote, got %+v", tally)
	}
	if n := e.count(t, `SELECT COUNT(*) FROM votes WHERE post_id = ? AND user_id = ?`, post.ID, e.member.ID); n != 0 {
		t.Errorf("expected duplicates collapsed, got %d rows", n)
	}
}

func TestCastVoteConcurrent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	post := e.firstPost(t, e.thread(t, e.member).ID)

	const n = 9
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.votes.CastVote(ctx, e.other, post.ID, 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent CastVote failed: %v", err)
	}

	// An odd number of toggles leaves exactly one upvote.
	if rows := e.count(t, `SELECT COUNT(*) FROM votes WHERE post_id = ? AND user_id = ?`, post.ID, e.other.ID); rows != 1 {
		t.Errorf("expected one vote row, got %d", rows)
	}
	tally, err := e.votes.GetTally(ctx, e.other, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if tally.Score != 1 || tally.UserVote != 1 {
		t.Errorf("unexpected tally %+v", tally)
	}
}

func TestTallyCacheInvalidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	post := e.firstPost(t, e.thread(t, e.member).ID)

	if tally, err := e.votes.GetTally(ctx, nil, post.ID); err != nil || tally.Score != 0 {
		t.Fatalf("unexpected tally %+v, %v", tally, err)
	}
	if _, err := e.votes.CastVote(ctx, e.other, post.ID, -1); err != nil {
		t.Fatal(err)
	}
	tally, err := e.votes.GetTally(ctx, nil, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if tally.Score != -1 || tally.Down != 1 {
		t.Errorf("stale tally after vote: %+v", tally)
	}
}

// hookedCache runs beforeSet once, just before the first cache fill.
type hookedCache struct {
	service.TallyCache
	once      sync.Once
	beforeSet func()
}

func (c *hookedCache) SetJSON(ctx context.Context, key string, v interface{}) error {
	c.once.Do(c.beforeSet)
	return c.TallyCache.SetJSON(ctx, key, v)
}

func TestTallyFillRacingVote(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	post := e.firstPost(t, e.thread(t, e.member).ID)

	inner, err := cache.New(config.CacheConfig{FilePath: ":memory:", TallyTTL: time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { inner.Close() })
	hc := &hookedCache{TallyCache: inner}
	votes := service.NewVoteService(auth.NewGate(auth.MustNewAuthority()), e.stores, lock.NewLocal(), hc, logger.Nop())

	// A vote commits after the fill has read its counts but before it writes them.
	voted := make(chan error, 1)
	hc.beforeSet = func() {
		go func() {
			_, err := votes.CastVote(ctx, e.other, post.ID, 1)
			voted <- err
		}()
		deadline := time.Now().Add(2 * time.Second)
		for e.count(t, `SELECT COUNT(*) FROM votes WHERE post_id = ?`, post.ID) == 0 {
			if time.Now().After(deadline) {
				t.Fatal("vote did not commit")
			}
			time.Sleep(5 * time.Millisecond)
		}
	}

	if _, err := votes.GetTally(ctx, nil, post.ID); err != nil {
		t.Fatalf("GetTally failed: %v", err)
	}
	if err := <-voted; err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	tally, err := votes.GetTally(ctx, nil, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if tally.Up != 1 || tally.Score != 1 {
		t.Errorf("stale tally after committed vote: %+v", tally)
	}
}
