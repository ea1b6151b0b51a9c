package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"time"

	"go-community-app/internal/auth"
	"go-community-app/internal/data"
	"go-community-app/internal/logger"
	"go-community-app/internal/middleware"
	"go-community-app/internal/session"

	"golang.org/x/oauth2"
)

// Identifier runs the identity provider side of login.
type Identifier interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Identify(ctx context.Context, code string) (*auth.Identity, error)
}

// UserStore creates or finds users by identity-provider subject.
type UserStore interface {
	EnsureBySubject(ctx context.Context, subject, name, email, defaultRole string) (*data.User, error)
}

// AuthHandler holds the dependencies for the authentication handlers.
type AuthHandler struct {
	idp      Identifier
	sessions session.Manager
	users    UserStore
	log      logger.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(idp Identifier, sm session.Manager, users UserStore, log logger.Logger) *AuthHandler {
	return &AuthHandler{idp: idp, sessions: sm, users: users, log: log}
}

// handleLogin redirects the user to the OIDC provider to log in.
// It uses a random 'state' string for CSRF protection.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	state, err := randString(16)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "failed to start login", Code: http.StatusInternalServerError}
	}
	// Store the state in a short-lived cookie to verify on callback.
	http.SetCookie(w, &http.Cookie{
		Name:     "state",
		Value:    state,
		Path:     "/",
		MaxAge:   int(10 * time.Minute / time.Second),
		HttpOnly: true,
		Secure:   r.TLS != nil,
	})
	http.Redirect(w, r, h.idp.AuthCodeURL(state), http.StatusFound)
	return nil
}

// handleCallback finishes the code flow. First-time users become members.
func (h *AuthHandler) handleCallback(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	// Verify the state parameter to prevent CSRF attacks.
	stateCookie, err := r.Cookie("state")
	if err != nil {
		return &middleware.AppError{Error: err, Message: "state cookie not found", Code: http.StatusBadRequest}
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		return &middleware.AppError{Error: errors.New("state mismatch"), Message: "state did not match", Code: http.StatusBadRequest}
	}
	http.SetCookie(w, &http.Cookie{Name: "state", Path: "/", MaxAge: -1})

	id, err := h.idp.Identify(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		return &middleware.AppError{Error: err, Message: "login failed", Code: http.StatusUnauthorized}
	}
	user, err := h.users.EnsureBySubject(r.Context(), id.Subject, id.Name, id.Email, string(auth.RoleMember))
	if err != nil {
		return &middleware.AppError{Error: err, Message: "failed to load user", Code: http.StatusInternalServerError}
	}

	// A fresh token on privilege change prevents session fixation.
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		return &middleware.AppError{Error: err, Message: "failed to start session", Code: http.StatusInternalServerError}
	}
	h.sessions.Put(r.Context(), session.UserIDKey, user.ID)
	h.log.With(map[string]interface{}{"user_id": user.ID}).Info("user logged in")

	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

// handleLogout destroys the session and redirects home.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.sessions.Destroy(r.Context()); err != nil {
		return &middleware.AppError{Error: err, Message: "failed to log out", Code: http.StatusInternalServerError}
	}
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

// handleMe returns the signed-in actor.
func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	actor := middleware.ActorFrom(r.Context())
	if actor == nil {
		return &middleware.AppError{Error: errors.New("no session"), Message: "authentication required", Code: http.StatusUnauthorized}
	}
	return writeJSON(w, http.StatusOK, actor)
}

// randString is a helper function to generate a random string for the 'state' parameter.
func randString(nByte int) (string, error) {
	b := make([]byte, nByte)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
