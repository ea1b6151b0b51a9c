package handler

import (
	"errors"
	"net/http"

	"go-community-app/internal/middleware"
	"go-community-app/internal/service"
)

var errEmptyPatch = errors.New("request changes nothing")

// CategoryHandler serves categories and tags.
type CategoryHandler struct {
	categories *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categories *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

type nameBody struct {
	Name string `json:"name"`
}

func (h *CategoryHandler) listCategories(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	cats, err := h.categories.ListCategories(r.Context(), middleware.ActorFrom(r.Context()))
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, cats)
}

func (h *CategoryHandler) createCategory(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var in nameBody
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	cat, err := h.categories.CreateCategory(r.Context(), middleware.ActorFrom(r.Context()), in.Name)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusCreated, cat)
}

func (h *CategoryHandler) renameCategory(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	var in nameBody
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	cat, err := h.categories.RenameCategory(r.Context(), middleware.ActorFrom(r.Context()), id, in.Name)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, cat)
}

func (h *CategoryHandler) deleteCategory(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	moved, err := h.categories.DeleteCategory(r.Context(), middleware.ActorFrom(r.Context()), id)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, map[string]int64{"movedThreads": moved})
}

func (h *CategoryHandler) listTags(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	tags, err := h.categories.ListTags(r.Context(), middleware.ActorFrom(r.Context()))
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, tags)
}

func (h *CategoryHandler) createTag(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var in nameBody
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	tag, err := h.categories.CreateTag(r.Context(), middleware.ActorFrom(r.Context()), in.Name)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusCreated, tag)
}

func (h *CategoryHandler) deleteTag(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	if err := h.categories.DeleteTag(r.Context(), middleware.ActorFrom(r.Context()), id); err != nil {
		return middleware.FromErr(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
