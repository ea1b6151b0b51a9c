//go:build integration

package service_test

import (
	"context"
	"testing"

	"go-community-app/internal/apperr"
	"go-community-app/internal/service"
)

func TestCreateThread(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.forum.CreateThread(ctx, nil, service.NewThread{Title: "x", Content: "y"}); !apperr.Is(err, apperr.Unauthenticated) {
		t.Errorf("expected Unauthenticated for anonymous, got %v", err)
	}
	if _, err := e.forum.CreateThread(ctx, e.member, service.NewThread{Title: " ", Content: "y"}); !apperr.Is(err, apperr.InvalidArgument) {
		t.Errorf("expected InvalidArgument for blank title, got %v", err)
	}
	if _, err := e.forum.CreateThread(ctx, e.member, service.NewThread{Title: "x", Content: "y", CategoryID: 999}); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected NotFound for unknown category, got %v", err)
	}

	tag := e.tag(t, "golang")
	th, err := e.forum.CreateThread(ctx, e.member, service.NewThread{Title: "Tagged", Content: "body", TagIDs: []int64{tag.ID}})
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}
	if len(th.Tags) != 1 || th.Tags[0].ID != tag.ID {
		t.Errorf("expected thread to carry tag, got %+v", th.Tags)
	}
	if th.CategoryID == 0 {
		t.Error("expected default category to be assigned")
	}
	if n := e.count(t, `SELECT COUNT(*) FROM posts WHERE thread_id = ?`, th.ID); n != 1 {
		t.Errorf("expected opening post, got %d posts", n)
	}
}

func TestLockScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	th := e.thread(t, e.member)

	if _, err := e.forum.ToggleLock(ctx, e.member, th.ID); !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("author must not self-lock, got %v", err)
	}
	locked, err := e.forum.ToggleLock(ctx, e.mod, th.ID)
	if err != nil || !locked.IsLocked {
		t.Fatalf("moderator lock failed: %+v, %v", locked, err)
	}

	if _, err := e.forum.CreatePost(ctx, e.member, th.ID, "reply"); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("member reply into locked thread: expected Forbidden, got %v", err)
	}
	if _, err := e.forum.CreatePost(ctx, e.mod, th.ID, "mod reply"); err != nil {
		t.Errorf("moderator reply into locked thread failed: %v", err)
	}

	post := e.firstPost(t, th.ID)
	if _, err := e.forum.CreateComment(ctx, e.other, post.ID, "c"); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("member comment in locked thread: expected Forbidden, got %v", err)
	}
	// Own posts stay editable whatever the lock state.
	if _, err := e.forum.EditPost(ctx, e.member, post.ID, "edited"); err != nil {
		t.Errorf("author edit of own post in locked thread failed: %v", err)
	}
	if _, err := e.forum.EditThread(ctx, e.member, th.ID, "New title"); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("author retitle of locked thread: expected Forbidden, got %v", err)
	}
	if _, err := e.forum.EditThread(ctx, e.mod, th.ID, "Mod title"); err != nil {
		t.Errorf("moderator retitle of locked thread failed: %v", err)
	}

	unlocked, err := e.forum.ToggleLock(ctx, e.mod, th.ID)
	if err != nil || unlocked.IsLocked {
		t.Fatalf("unlock failed: %+v, %v", unlocked, err)
	}
	if _, err := e.forum.CreatePost(ctx, e.member, th.ID, "reply"); err != nil {
		t.Errorf("reply after unlock failed: %v", err)
	}
}

func TestPinAndMove(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	th := e.thread(t, e.member)
	cat, err := e.categories.CreateCategory(ctx, e.admin, "Announcements")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.forum.ToggleLock(ctx, e.mod, th.ID); err != nil {
		t.Fatal(err)
	}
	pinned, err := e.forum.TogglePin(ctx, e.mod, th.ID)
	if err != nil || !pinned.IsPinned {
		t.Fatalf("pin failed: %+v, %v", pinned, err)
	}

	if _, err := e.forum.MoveThread(ctx, e.mod, th.ID, 999); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected NotFound for unknown target, got %v", err)
	}
	moved, err := e.forum.MoveThread(ctx, e.mod, th.ID, cat.ID)
	if err != nil {
		t.Fatalf("MoveThread failed: %v", err)
	}
	if moved.CategoryID != cat.ID || !moved.IsLocked || !moved.IsPinned {
		t.Errorf("move must keep lock and pin, got %+v", moved)
	}
	if _, err := e.forum.MoveThread(ctx, e.member, th.ID, cat.ID); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("expected Forbidden for member move, got %v", err)
	}
	if _, err := e.forum.TogglePin(ctx, e.mod, 999); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected NotFound pinning unknown thread, got %v", err)
	}
}

func TestDeleteThreadCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	th := e.thread(t, e.member)
	tag := e.tag(t, "cascade")
	if _, err := e.forum.AttachTags(ctx, e.member, th.ID, []int64{tag.ID}); err != nil {
		t.Fatal(err)
	}
	reply, err := e.forum.CreatePost(ctx, e.other, th.ID, "reply")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := e.forum.CreateComment(ctx, e.member, reply.ID, "comment"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := e.votes.CastVote(ctx, e.member, reply.ID, 1); err != nil {
		t.Fatal(err)
	}
	// A second thread must be untouched.
	keep := e.thread(t, e.other)

	if _, err := e.forum.DeleteThread(ctx, e.member, th.ID); !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden for author delete, got %v", err)
	}
	res, err := e.forum.DeleteThread(ctx, e.mod, th.ID)
	if err != nil {
		t.Fatalf("DeleteThread failed: %v", err)
	}
	if res.Posts != 2 || res.Comments != 2 || res.Votes != 1 || res.Tags != 1 {
		t.Errorf("unexpected deletion counts %+v", res)
	}
	if _, err := e.forum.GetThread(ctx, nil, th.ID); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected NotFound after delete, got %v", err)
	}
	if n := e.count(t, `SELECT COUNT(*) FROM posts WHERE thread_id = ?`, th.ID); n != 0 {
		t.Errorf("expected no dangling posts, got %d", n)
	}
	if n := e.count(t, `SELECT COUNT(*) FROM comments`); n != 0 {
		t.Errorf("expected no dangling comments, got %d", n)
	}
	if n := e.count(t, `SELECT COUNT(*) FROM posts WHERE thread_id = ?`, keep.ID); n != 1 {
		t.Errorf("other thread lost posts, has %d", n)
	}
	if _, err := e.forum.DeleteThread(ctx, e.mod, th.ID); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected NotFound deleting twice, got %v", err)
	}
}

func TestTags(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	mine := e.thread(t, e.member)
	theirs := e.thread(t, e.other)
	a, b := e.tag(t, "a"), e.tag(t, "b")

	if _, err := e.forum.AttachTags(ctx, e.member, mine.ID, nil); !apperr.Is(err, apperr.InvalidArgument) {
		t.Errorf("expected InvalidArgument for empty list, got %v", err)
	}
	if _, err := e.forum.AttachTags(ctx, e.member, theirs.ID, []int64{a.ID}); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("member tagging someone else's thread: expected Forbidden, got %v", err)
	}
	if _, err := e.forum.AttachTags(ctx, nil, mine.ID, []int64{a.ID}); !apperr.Is(err, apperr.Unauthenticated) {
		t.Errorf("expected Unauthenticated, got %v", err)
	}

	// All-or-nothing: one unknown id means no link is written.
	if _, err := e.forum.AttachTags(ctx, e.member, mine.ID, []int64{a.ID, 999}); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound for unknown tag, got %v", err)
	}
	if n := e.count(t, `SELECT COUNT(*) FROM thread_tags WHERE thread_id = ?`, mine.ID); n != 0 {
		t.Errorf("expected no links after failed attach, got %d", n)
	}

	th, err := e.forum.AttachTags(ctx, e.member, mine.ID, []int64{a.ID, b.ID, a.ID})
	if err != nil || len(th.Tags) != 2 {
		t.Fatalf("attach failed: %+v, %v", th, err)
	}
	th, err = e.forum.AttachTags(ctx, e.member, mine.ID, []int64{a.ID})
	if err != nil || len(th.Tags) != 2 {
		t.Errorf("re-attach must be a no-op, got %+v, %v", th, err)
	}
	if _, err := e.forum.AttachTags(ctx, e.mod, theirs.ID, []int64{b.ID}); err != nil {
		t.Errorf("moderator tagging any thread failed: %v", err)
	}

	th, err = e.forum.DetachTags(ctx, e.member, mine.ID, []int64{a.ID})
	if err != nil || len(th.Tags) != 1 || th.Tags[0].ID != b.ID {
		t.Errorf("detach failed: %+v, %v", th, err)
	}
}

func TestPostAndCommentRights(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	th := e.thread(t, e.member)
	post := e.firstPost(t, th.ID)
	comment, err := e.forum.CreateComment(ctx, e.member, post.ID, "mine")
	if err != nil {
		t.Fatal(err)
	}

	// Rights are checked before input, so a bad title from a non-owner is still Forbidden.
	if _, err := e.forum.EditThread(ctx, e.other, th.ID, "   "); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("expected Forbidden for non-owner retitle, got %v", err)
	}
	if _, err := e.forum.EditThread(ctx, e.member, th.ID, "   "); !apperr.Is(err, apperr.InvalidArgument) {
		t.Errorf("expected InvalidArgument for blank title, got %v", err)
	}
	if _, err := e.forum.EditPost(ctx, e.other, post.ID, "hijack"); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("expected Forbidden editing another's post, got %v", err)
	}
	if _, err := e.forum.EditPost(ctx, e.mod, post.ID, "moderated"); err != nil {
		t.Errorf("moderator edit failed: %v", err)
	}
	if _, err := e.forum.EditComment(ctx, e.other, comment.ID, "hijack"); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("expected Forbidden editing another's comment, got %v", err)
	}
	if err := e.forum.DeleteComment(ctx, e.other, comment.ID); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("expected Forbidden deleting another's comment, got %v", err)
	}
	if _, err := e.forum.EditComment(ctx, e.member, comment.ID, "still mine"); err != nil {
		t.Errorf("author comment edit failed: %v", err)
	}
	if err := e.forum.DeleteComment(ctx, e.member, comment.ID); err != nil {
		t.Errorf("author comment delete failed: %v", err)
	}
	if err := e.forum.DeleteComment(ctx, e.member, comment.ID); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected NotFound deleting twice, got %v", err)
	}

	reply, _ := e.forum.CreatePost(ctx, e.other, th.ID, "reply")
	_, _ = e.forum.CreateComment(ctx, e.member, reply.ID, "on reply")
	_, _ = e.votes.CastVote(ctx, e.member, reply.ID, -1)
	if err := e.forum.DeletePost(ctx, e.member, reply.ID); !apperr.Is(err, apperr.Forbidden) {
		t.Errorf("expected Forbidden deleting another's post, got %v", err)
	}
	if err := e.forum.DeletePost(ctx, e.mod, reply.ID); err != nil {
		t.Fatalf("moderator delete failed: %v", err)
	}
	if n := e.count(t, `SELECT COUNT(*) FROM comments WHERE post_id = ?`, reply.ID); n != 0 {
		t.Errorf("expected comments removed with post, got %d", n)
	}
	if n := e.count(t, `SELECT COUNT(*) FROM votes WHERE post_id = ?`, reply.ID); n != 0 {
		t.Errorf("expected votes removed with post, got %d", n)
	}
}

func TestReadsAllowGuests(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	th := e.thread(t, e.member)

	if _, err := e.forum.GetThread(ctx, nil, th.ID); err != nil {
		t.Errorf("guest GetThread failed: %v", err)
	}
	threads, err := e.forum.ListThreads(ctx, nil, th.CategoryID)
	if err != nil || len(threads) != 1 {
		t.Errorf("guest ListThreads failed: %d, %v", len(threads), err)
	}
	if _, err := e.forum.ListThreads(ctx, nil, 999); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("expected NotFound for unknown category, got %v", err)
	}
	if _, err := e.forum.CreatePost(ctx, nil, th.ID, "x"); !apperr.Is(err, apperr.Unauthenticated) {
		t.Errorf("expected Unauthenticated for anonymous reply, got %v", err)
	}
}
