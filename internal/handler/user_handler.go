package handler

import (
	"net/http"

	"go-community-app/internal/middleware"
	"go-community-app/internal/service"
)

// UserHandler serves user administration.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) setRole(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	var in struct {
		Role string `json:"role"`
	}
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	u, err := h.users.SetRole(r.Context(), middleware.ActorFrom(r.Context()), id, in.Role)
	if err != nil {
		return middleware.FromErr(err)
	}
	return writeJSON(w, http.StatusOK, u)
}
