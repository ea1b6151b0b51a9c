package handler

import (
	"net/http"

	"go-community-app/internal/middleware"
	"go-community-app/internal/service"
)

// ForumHandler serves threads, posts, comments and votes.
type ForumHandler struct {
	forum *service.ForumService
	votes *service.VoteService
}

// NewForumHandler creates a new ForumHandler.
func NewForumHandler(forum *service.ForumService, votes *service.VoteService) *ForumHandler {
	return &ForumHandler{forum: forum, votes: votes}
}

type contentBody struct {
	Content string `json:"content"`
}

type tagIDsBody struct {
	TagIDs []int64 `json:"tagIds"`
}

func (h *ForumHandler) listThreads(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	threads, err := h.forum.ListThreads(r.Context(), middleware.ActorFrom(r.Context()), id)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, threads)
}

func (h *ForumHandler) createThread(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var in service.NewThread
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	t, err := h.forum.CreateThread(r.Context(), middleware.ActorFrom(r.Context()), in)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusCreated, t)
}

func (h *ForumHandler) getThread(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	t, err := h.forum.GetThread(r.Context(), middleware.ActorFrom(r.Context()), id)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, t)
}

func (h *ForumHandler) editThread(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	var in struct {
		Title string `json:"title"`
	}
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	t, err := h.forum.EditThread(r.Context(), middleware.ActorFrom(r.Context()), id, in.Title)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, t)
}

func (h *ForumHandler) deleteThread(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	res, err := h.forum.DeleteThread(r.Context(), middleware.ActorFrom(r.Context()), id)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, res)
}

func (h *ForumHandler) toggleLock(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	t, err := h.forum.ToggleLock(r.Context(), middleware.ActorFrom(r.Context()), id)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, t)
}

func (h *ForumHandler) togglePin(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	t, err := h.forum.TogglePin(r.Context(), middleware.ActorFrom(r.Context()), id)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, t)
}

func (h *ForumHandler) moveThread(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	var in struct {
		CategoryID int64 `json:"categoryId"`
	}
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	t, err := h.forum.MoveThread(r.Context(), middleware.ActorFrom(r.Context()), id, in.CategoryID)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, t)
}

func (h *ForumHandler) attachTags(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	var in tagIDsBody
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	t, err := h.forum.AttachTags(r.Context(), middleware.ActorFrom(r.Context()), id, in.TagIDs)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, t)
}

func (h *ForumHandler) detachTags(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	var in tagIDsBody
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	t, err := h.forum.DetachTags(r.Context(), middleware.ActorFrom(r.Context()), id, in.TagIDs)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, t)
}

func (h *ForumHandler) listPosts(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	posts, err := h.forum.ListPosts(r.Context(), middleware.ActorFrom(r.Context()), id)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, posts)
}

func (h *ForumHandler) createPost(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	var in contentBody
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	p, err := h.forum.CreatePost(r.Context(), middleware.ActorFrom(r.Context()), id, in.Content)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusCreated, p)
}

func (h *ForumHandler) editPost(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	var in contentBody
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	p, err := h.forum.EditPost(r.Context(), middleware.ActorFrom(r.Context()), id, in.Content)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, p)
}

func (h *ForumHandler) deletePost(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	if err := h.forum.DeletePost(r.Context(), middleware.ActorFrom(r.Context()), id); err != nil {
		return middleware.FromErr(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *ForumHandler) castVote(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	var in struct {
		Value int `json:"value"`
	}
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	tally, err := h.votes.CastVote(r.Context(), middleware.ActorFrom(r.Context()), id, in.Value)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, tally)
}

func (h *ForumHandler) getTally(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	tally, err := h.votes.GetTally(r.Context(), middleware.ActorFrom(r.Context()), id)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, tally)
}

func (h *ForumHandler) listComments(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	comments, err := h.forum.ListComments(r.Context(), middleware.ActorFrom(r.Context()), id)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, comments)
}

func (h *ForumHandler) createComment(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	var in contentBody
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	c, err := h.forum.CreateComment(r.Context(), middleware.ActorFrom(r.Context()), id, in.Content)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusCreated, c)
}

func (h *ForumHandler) editComment(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	var in contentBody
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	c, err := h.forum.EditComment(r.Context(), middleware.ActorFrom(r.Context()), id, in.Content)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, c)
}

func (h *ForumHandler) deleteComment(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	if err := h.forum.DeleteComment(r.Context(), middleware.ActorFrom(r.Context()), id); err != nil {
		return middleware.FromErr(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
