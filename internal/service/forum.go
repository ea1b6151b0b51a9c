package service

import (
	"context"
	"fmt"
	"sort"

	"go-community-app/internal/apperr"
	"go-community-app/internal/auth"
	"go-community-app/internal/config"
	"go-community-app/internal/data"
	"go-community-app/internal/logger"
)

// NewThread is the input for CreateThread.
type NewThread struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	CategoryID int64   `json:"categoryId"`
	TagIDs     []int64 `json:"tagIds"`
}

// ThreadDeletion reports what a thread delete removed.
type ThreadDeletion struct {
	ThreadID int64 `json:"threadId"`
	Posts    int64 `json:"posts"`
	Comments int64 `json:"comments"`
	Votes    int64 `json:"votes"`
	Tags     int64 `json:"tags"`
}

// ForumService runs the thread state machine and the post and comment
// rights that hang off it.
type ForumService struct {
	gate       *auth.Gate
	tx         data.Transactor
	threads    ThreadStore
	posts      PostStore
	comments   CommentStore
	tags       TagStore
	votes      VoteStore
	categories CategoryStore
	validate   *validator
	log        logger.Logger
}

// NewForumService creates a new ForumService.
func NewForumService(gate *auth.Gate, st Stores, cfg config.ContentConfig, log logger.Logger) *ForumService {
	return &ForumService{
		gate:       gate,
		tx:         st.Tx,
		threads:    st.Threads,
		posts:      st.Posts,
		comments:   st.Comments,
		tags:       st.Tags,
		votes:      st.Votes,
		categories: st.Categories,
		validate:   newValidator(cfg),
		log:        log,
	}
}

func (s *ForumService) loadThread(ctx context.Context, op string, id int64) (*data.Thread, error) {
	t, err := s.threads.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(op, "thread", err)
	}
	return t, nil
}

func (s *ForumService) loadPost(ctx context.Context, op string, id int64) (*data.Post, error) {
	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(op, "post", err)
	}
	return p, nil
}

func (s *ForumService) loadComment(ctx context.Context, op string, id int64) (*data.Comment, error) {
	c, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, lookup(op, "comment", err)
	}
	return c, nil
}

// resolveTags returns the tags for ids, or NotFound naming the ids that do
// not exist. Nothing is changed either way.
func (s *ForumService) resolveTags(ctx context.Context, op string, ids []int64) ([]*data.Tag, error) {
	tags, err := s.tags.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internalf(op, err)
	}
	if len(tags) == len(ids) {
		return tags, nil
	}
	found := make(map[int64]bool, len(tags))
	for _, t := range tags {
		found[t.ID] = true
	}
	var missing []int64
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return nil, apperr.E(apperr.NotFound, op, fmt.Sprintf("tags not found: %v", missing))
}

// lockedOut reports whether the thread's lock keeps actor out.
func (s *ForumService) lockedOut(actor *auth.Actor, t *data.Thread) bool {
	return t.State() == data.ThreadLocked && !s.gate.Can(actor, auth.PermManageContent, nil)
}

// CreateThread opens a thread with its first post. A zero CategoryID
// files it under the default category.
func (s *ForumService) CreateThread(ctx context.Context, actor *auth.Actor, in NewThread) (*data.Thread, error) {
	const op = "forum.CreateThread"
	if err := require(s.gate, op, actor, auth.PermCreateThreads, nil); err != nil {
		return nil, err
	}
	title, err := s.validate.title(op, in.Title)
	if err != nil {
		return nil, err
	}
	content, err := s.validate.body(op, in.Content)
	if err != nil {
		return nil, err
	}

	thread := &data.Thread{Title: title, AuthorID: actor.ID}
	tagIDs := uniqueIDs(in.TagIDs)
	if len(tagIDs) > 0 {
		if err := require(s.gate, op, actor, auth.PermTagThreads, thread); err != nil {
			return nil, err
		}
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		var cat *data.Category
		var err error
		if in.CategoryID == 0 {
			cat, err = s.categories.GetDefault(ctx)
		} else {
			cat, err = s.categories.GetByID(ctx, in.CategoryID)
		}
		if err != nil {
			return lookup(op, "category", err)
		}
		thread.CategoryID = cat.ID

		var tags []*data.Tag
		if len(tagIDs) > 0 {
			if tags, err = s.resolveTags(ctx, op, tagIDs); err != nil {
				return err
			}
		}

		if err := s.threads.Create(ctx, thread); err != nil {
			return apperr.Internalf(op, err)
		}
		post := &data.Post{ThreadID: thread.ID, AuthorID: actor.ID, Content: content}
		if err := s.posts.Create(ctx, post); err != nil {
			return apperr.Internalf(op, err)
		}
		for _, tag := range tags {
			if err := s.tags.Attach(ctx, thread.ID, tag.ID); err != nil {
				return apperr.Internalf(op, err)
			}
		}
		sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
		thread.Tags = tags
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.With(map[string]interface{}{"thread_id": thread.ID, "actor_id": actor.ID}).Info("thread created")
	return thread, nil
}

// GetThread returns a thread with its tags.
func (s *ForumService) GetThread(ctx context.Context, actor *auth.Actor, threadID int64) (*data.Thread, error) {
	const op = "forum.GetThread"
	if err := require(s.gate, op, auth.OrGuest(actor), auth.PermViewContent, nil); err != nil {
		return nil, err
	}
	t, err := s.loadThread(ctx, op, threadID)
	if err != nil {
		return nil, err
	}
	if t.Tags, err = s.tags.ListForThread(ctx, t.ID); err != nil {
		return nil, apperr.Internalf(op, err)
	}
	return t, nil
}

// ListThreads returns a category's threads, pinned first, newest first.
func (s *ForumService) ListThreads(ctx context.Context, actor *auth.Actor, categoryID int64) ([]*data.Thread, error) {
	const op = "forum.ListThreads"
	if err := require(s.gate, op, auth.OrGuest(actor), auth.PermViewContent, nil); err != nil {
		return nil, err
	}
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		return nil, lookup(op, "category", err)
	}
	threads, err := s.threads.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, apperr.Internalf(op, err)
	}
	return threads, nil
}

// ListPosts returns a thread's posts in order.
func (s *ForumService) ListPosts(ctx context.Context, actor *auth.Actor, threadID int64) ([]*data.Post, error) {
	const op = "forum.ListPosts"
	if err := require(s.gate, op, auth.OrGuest(actor), auth.PermViewContent, nil); err != nil {
		return nil, err
	}
	if _, err := s.loadThread(ctx, op, threadID); err != nil {
		return nil, err
	}
	posts, err := s.posts.ListByThread(ctx, threadID)
	if err != nil {
		return nil, apperr.Internalf(op, err)
	}
	return posts, nil
}

// ListComments returns a post's comments in order.
func (s *ForumService) ListComments(ctx context.Context, actor *auth.Actor, postID int64) ([]*data.Comment, error) {
	const op = "forum.ListComments"
	if err := require(s.gate, op, auth.OrGuest(actor), auth.PermViewContent, nil); err != nil {
		return nil, err
	}
	if _, err := s.loadPost(ctx, op, postID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, apperr.Internalf(op, err)
	}
	return comments, nil
}

// mutateThread loads a thread inside a transaction, applies fn and saves.
func (s *ForumService) mutateThread(ctx context.Context, op string, threadID int64, fn func(context.Context, *data.Thread) error) (*data.Thread, error) {
	var out *data.Thread
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		t, err := s.loadThread(ctx, op, threadID)
		if err != nil {
			return err
		}
		if err := fn(ctx, t); err != nil {
			return err
		}
		if err := s.threads.Update(ctx, t); err != nil {
			return lookup(op, "thread", err)
		}
		out = t
		return nil
	})
	return out, err
}

// ToggleLock flips a thread between open and locked. Authors cannot lock
// their own threads; only content managers can.
func (s *ForumService) ToggleLock(ctx context.Context, actor *auth.Actor, threadID int64) (*data.Thread, error) {
	const op = "forum.ToggleLock"
	if err := require(s.gate, op, actor, auth.PermManageContent, nil); err != nil {
		return nil, err
	}
	t, err := s.mutateThread(ctx, op, threadID, func(ctx context.Context, t *data.Thread) error {
		t.IsLocked = !t.IsLocked
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.With(map[string]interface{}{"thread_id": t.ID, "state": string(t.State())}).Info("thread lock toggled")
	return t, nil
}

// TogglePin flips a thread's pinned flag.
func (s *ForumService) TogglePin(ctx context.Context, actor *auth.Actor, threadID int64) (*data.Thread, error) {
	const op = "forum.TogglePin"
	if err := require(s.gate, op, actor, auth.PermManageContent, nil); err != nil {
		return nil, err
	}
	return s.mutateThread(ctx, op, threadID, func(ctx context.Context, t *data.Thread) error {
		t.IsPinned = !t.IsPinned
		return nil
	})
}

// MoveThread files a thread under another category. Lock and pin state
// are left alone.
func (s *ForumService) MoveThread(ctx context.Context, actor *auth.Actor, threadID, categoryID int64) (*data.Thread, error) {
	const op = "forum.MoveThread"
	if err := require(s.gate, op, actor, auth.PermManageContent, nil); err != nil {
		return nil, err
	}
	return s.mutateThread(ctx, op, threadID, func(ctx context.Context, t *data.Thread) error {
		cat, err := s.categories.GetByID(ctx, categoryID)
		if err != nil {
			return lookup(op, "category", err)
		}
		t.CategoryID = cat.ID
		return nil
	})
}

// EditThread retitles a thread. On a locked thread only content managers
// may do so, the author included.
func (s *ForumService) EditThread(ctx context.Context, actor *auth.Actor, threadID int64, title string) (*data.Thread, error) {
	const op = "forum.EditThread"
	if err := signedIn(op, actor); err != nil {
		return nil, err
	}
	return s.mutateThread(ctx, op, threadID, func(ctx context.Context, t *data.Thread) error {
		if err := require(s.gate, op, actor, auth.PermEditThreads, t); err != nil {
			return err
		}
		if s.lockedOut(actor, t) {
			return apperr.E(apperr.Forbidden, op, "thread is locked")
		}
		clean, err := s.validate.title(op, title)
		if err != nil {
			return err
		}
		t.Title = clean
		return nil
	})
}

// DeleteThread removes a thread and everything under it, children first,
// in one transaction.
func (s *ForumService) DeleteThread(ctx context.Context, actor *auth.Actor, threadID int64) (*ThreadDeletion, error) {
	const op = "forum.DeleteThread"
	if err := require(s.gate, op, actor, auth.PermManageContent, nil); err != nil {
		return nil, err
	}
	res := &ThreadDeletion{ThreadID: threadID}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.loadThread(ctx, op, threadID); err != nil {
			return err
		}
		var err error
		if res.Comments, err = s.comments.DeleteByThread(ctx, threadID); err != nil {
			return apperr.Internalf(op, err)
		}
		if res.Votes, err = s.votes.DeleteByThread(ctx, threadID); err != nil {
			return apperr.Internalf(op, err)
		}
		if res.Posts, err = s.posts.DeleteByThread(ctx, threadID); err != nil {
			return apperr.Internalf(op, err)
		}
		if res.Tags, err = s.tags.DeleteByThread(ctx, threadID); err != nil {
			return apperr.Internalf(op, err)
		}
		if err := s.threads.Delete(ctx, threadID); err != nil {
			return lookup(op, "thread", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.With(map[string]interface{}{
		"thread_id": threadID,
		"actor_id":  actor.ID,
		"posts":     res.Posts,
		"comments":  res.Comments,
	}).Info("thread deleted")
	return res, nil
}

// AttachTags links tags to a thread. Every id must exist before any link
// is written; linking an already attached tag is a no-op.
func (s *ForumService) AttachTags(ctx context.Context, actor *auth.Actor, threadID int64, tagIDs []int64) (*data.Thread, error) {
	return s.changeTags(ctx, "forum.AttachTags", actor, threadID, tagIDs, s.tags.Attach)
}

// DetachTags unlinks tags from a thread under the same rules as AttachTags.
func (s *ForumService) DetachTags(ctx context.Context, actor *auth.Actor, threadID int64, tagIDs []int64) (*data.Thread, error) {
	return s.changeTags(ctx, "forum.DetachTags", actor, threadID, tagIDs, s.tags.Detach)
}

func (s *ForumService) changeTags(ctx context.Context, op string, actor *auth.Actor, threadID int64, tagIDs []int64,
	apply func(ctx context.Context, threadID, tagID int64) error) (*data.Thread, error) {
	if err := signedIn(op, actor); err != nil {
		return nil, err
	}
	ids := uniqueIDs(tagIDs)
	if len(ids) == 0 {
		return nil, apperr.E(apperr.InvalidArgument, op, "at least one tag id is required")
	}

	var out *data.Thread
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		t, err := s.loadThread(ctx, op, threadID)
		if err != nil {
			return err
		}
		if err := require(s.gate, op, actor, auth.PermTagThreads, t); err != nil {
			return err
		}
		tags, err := s.resolveTags(ctx, op, ids)
		if err != nil {
			return err
		}
		for _, tag := range tags {
			if err := apply(ctx, t.ID, tag.ID); err != nil {
				return apperr.Internalf(op, err)
			}
		}
		if t.Tags, err = s.tags.ListForThread(ctx, t.ID); err != nil {
			return apperr.Internalf(op, err)
		}
		out = t
		return nil
	})
	return out, err
}

// CreatePost replies to a thread. Locked threads only take replies from
// content managers.
func (s *ForumService) CreatePost(ctx context.Context, actor *auth.Actor, threadID int64, content string) (*data.Post, error) {
	const op = "forum.CreatePost"
	if err := require(s.gate, op, actor, auth.PermCreatePosts, nil); err != nil {
		return nil, err
	}
	content, err := s.validate.body(op, content)
	if err != nil {
		return nil, err
	}
	post := &data.Post{ThreadID: threadID, AuthorID: actor.ID, Content: content}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		t, err := s.loadThread(ctx, op, threadID)
		if err != nil {
			return err
		}
		if s.lockedOut(actor, t) {
			return apperr.E(apperr.Forbidden, op, "thread is locked")
		}
		if err := s.posts.Create(ctx, post); err != nil {
			return apperr.Internalf(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// EditPost replaces a post's content. Lock state does not matter.
func (s *ForumService) EditPost(ctx context.Context, actor *auth.Actor, postID int64, content string) (*data.Post, error) {
	const op = "forum.EditPost"
	if err := signedIn(op, actor); err != nil {
		return nil, err
	}
	content, err := s.validate.body(op, content)
	if err != nil {
		return nil, err
	}
	var out *data.Post
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.loadPost(ctx, op, postID)
		if err != nil {
			return err
		}
		if err := require(s.gate, op, actor, auth.PermEditAnyPost, p); err != nil {
			return err
		}
		p.Content = content
		if err := s.posts.UpdateContent(ctx, p); err != nil {
			return lookup(op, "post", err)
		}
		out = p
		return nil
	})
	return out, err
}

// DeletePost removes a post with its comments and votes.
func (s *ForumService) DeletePost(ctx context.Context, actor *auth.Actor, postID int64) error {
	const op = "forum.DeletePost"
	if err := signedIn(op, actor); err != nil {
		return err
	}
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.loadPost(ctx, op, postID)
		if err != nil {
			return err
		}
		if err := require(s.gate, op, actor, auth.PermDeleteAnyPost, p); err != nil {
			return err
		}
		if _, err := s.comments.DeleteByPost(ctx, postID); err != nil {
			return apperr.Internalf(op, err)
		}
		if _, err := s.votes.DeleteByPost(ctx, postID); err != nil {
			return apperr.Internalf(op, err)
		}
		if err := s.posts.Delete(ctx, postID); err != nil {
			return lookup(op, "post", err)
		}
		return nil
	})
}

// CreateComment comments on a post. The parent thread's lock applies.
func (s *ForumService) CreateComment(ctx context.Context, actor *auth.Actor, postID int64, content string) (*data.Comment, error) {
	const op = "forum.CreateComment"
	if err := require(s.gate, op, actor, auth.PermCreateComments, nil); err != nil {
		return nil, err
	}
	content, err := s.validate.body(op, content)
	if err != nil {
		return nil, err
	}
	comment := &data.Comment{PostID: postID, AuthorID: actor.ID, Content: content}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.loadPost(ctx, op, postID)
		if err != nil {
			return err
		}
		t, err := s.loadThread(ctx, op, p.ThreadID)
		if err != nil {
			return err
		}
		if s.lockedOut(actor, t) {
			return apperr.E(apperr.Forbidden, op, "thread is locked")
		}
		if err := s.comments.Create(ctx, comment); err != nil {
			return apperr.Internalf(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// EditComment replaces a comment's content.
func (s *ForumService) EditComment(ctx context.Context, actor *auth.Actor, commentID int64, content string) (*data.Comment, error) {
	const op = "forum.EditComment"
	if err := signedIn(op, actor); err != nil {
		return nil, err
	}
	content, err := s.validate.body(op, content)
	if err != nil {
		return nil, err
	}
	var out *data.Comment
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		c, err := s.loadComment(ctx, op, commentID)
		if err != nil {
			return err
		}
		if err := require(s.gate, op, actor, auth.PermEditAnyComment, c); err != nil {
			return err
		}
		c.Content = content
		if err := s.comments.UpdateContent(ctx, c); err != nil {
			return lookup(op, "comment", err)
		}
		out = c
		return nil
	})
	return out, err
}

// DeleteComment removes a comment.
func (s *ForumService) DeleteComment(ctx context.Context, actor *auth.Actor, commentID int64) error {
	const op = "forum.DeleteComment"
	if err := signedIn(op, actor); err != nil {
		return err
	}
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		c, err := s.loadComment(ctx, op, commentID)
		if err != nil {
			return err
		}
		if err := require(s.gate, op, actor, auth.PermDeleteAnyComment, c); err != nil {
			return err
		}
		if err := s.comments.Delete(ctx, commentID); err != nil {
			return lookup(op, "comment", err)
		}
		return nil
	})
}
