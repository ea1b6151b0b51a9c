package handler

import (
	"net/http"

	"go-community-app/internal/data"
	"go-community-app/internal/middleware"
	"go-community-app/internal/service"

	"github.com/go-chi/chi/v5"
)

// ContentHandler serves pages, blocks and revision history.
type ContentHandler struct {
	content *service.ContentService
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(content *service.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

func (h *ContentHandler) createPage(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var in service.NewPage
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	page, err := h.content.CreatePage(r.Context(), middleware.ActorFrom(r.Context()), in)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusCreated, page)
}

func (h *ContentHandler) getPage(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	page, err := h.content.GetPage(r.Context(), middleware.ActorFrom(r.Context()), id)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, page)
}

func (h *ContentHandler) updatePage(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	var in service.PageEdit
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	page, err := h.content.UpdatePage(r.Context(), middleware.ActorFrom(r.Context()), id, in)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, page)
}

func (h *ContentHandler) deletePage(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	if err := h.content.DeletePage(r.Context(), middleware.ActorFrom(r.Context()), id); err != nil {
		return middleware.FromErr(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *ContentHandler) listBlocks(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	all := r.URL.Query().Get("all") == "true"
	blocks, err := h.content.ListBlocks(r.Context(), middleware.ActorFrom(r.Context()), id, all)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, blocks)
}

func (h *ContentHandler) createBlock(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	var in service.NewBlock
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	block, err := h.content.CreateBlock(r.Context(), middleware.ActorFrom(r.Context()), id, in)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusCreated, block)
}

// updateBlock applies whichever of content, order and publication state
// the body carries. A content change needs editIntent.
func (h *ContentHandler) updateBlock(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	var in struct {
		Content     *string `json:"content"`
		EditIntent  bool    `json:"editIntent"`
		Order       *int    `json:"order"`
		IsPublished *bool   `json:"isPublished"`
	}
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	ctx, actor := r.Context(), middleware.ActorFrom(r.Context())

	var (
		block *data.ContentBlock
		err   error
	)
	if in.Content != nil {
		if block, err = h.content.UpdateBlock(ctx, actor, id, service.BlockEdit{Content: *in.Content, EditIntent: in.EditIntent}); err != nil {
			return middleware.FromErr(err)
		}
	}
	if in.Order != nil {
		if block, err = h.content.MoveBlock(ctx, actor, id, *in.Order); err != nil {
			return middleware.FromErr(err)
		}
	}
	if in.IsPublished != nil {
		if block, err = h.content.SetBlockPublished(ctx, actor, id, *in.IsPublished); err != nil {
			return middleware.FromErr(err)
		}
	}
	if block == nil {
		return &middleware.AppError{Error: errEmptyPatch, Message: "nothing to update", Code: http.StatusBadRequest}
	}
	return writeJSON(w, http.StatusOK, block)
}

func (h *ContentHandler) deleteBlock(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	if err := h.content.DeleteBlock(r.Context(), middleware.ActorFrom(r.Context()), id); err != nil {
		return middleware.FromErr(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *ContentHandler) listRevisions(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	entityType := data.EntityType(chi.URLParam(r, "type"))
	revs, err := h.content.ListRevisions(r.Context(), middleware.ActorFrom(r.Context()), entityType, id)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, revs)
}

func (h *ContentHandler) restoreRevision(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	res, err := h.content.RestoreRevision(r.Context(), middleware.ActorFrom(r.Context()), id)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, res)
}
