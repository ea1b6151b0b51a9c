//go:build unit

package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-community-app/internal/apperr"
	"go-community-app/internal/auth"
	"go-community-app/internal/data"
	"go-community-app/internal/logger"
	"go-community-app/internal/session"
)

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body["error"]
}

func TestError_MapsKinds(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"unauthenticated", apperr.E(apperr.Unauthenticated, "op", "authentication required"), http.StatusUnauthorized, "authentication required"},
		{"forbidden", apperr.E(apperr.Forbidden, "op", "no"), http.StatusForbidden, "no"},
		{"not found", apperr.E(apperr.NotFound, "op", "thread not found"), http.StatusNotFound, "thread not found"},
		{"conflict", apperr.E(apperr.Conflict, "op", "gone"), http.StatusConflict, "gone"},
		{"invalid", apperr.E(apperr.InvalidArgument, "op", "bad value"), http.StatusUnprocessableEntity, "bad value"},
		{"internal hides cause", fmt.Errorf("db exploded"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Error(logger.Nop())(func(w http.ResponseWriter, r *http.Request) *AppError {
				return FromErr(tt.err)
			})
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

			if rr.Code != tt.code {
				t.Errorf("expected status %d, got %d", tt.code, rr.Code)
			}
			if got := errorBody(t, rr); got != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, got)
			}
		})
	}
}

func TestError_RecoversPanic(t *testing.T) {
	h := Error(logger.Nop())(func(w http.ResponseWriter, r *http.Request) *AppError {
		panic("boom")
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
}

func TestFromErr_Nil(t *testing.T) {
	if FromErr(nil) != nil {
		t.Error("expected nil AppError for nil error")
	}
}

type stubSession struct {
	userID  int64
	removed bool
}

var _ session.Manager = (*stubSession)(nil)

func (s *stubSession) LoadAndSave(next http.Handler) http.Handler          { return next }
func (s *stubSession) Put(ctx context.Context, key string, val interface{}) {}
func (s *stubSession) GetString(ctx context.Context, key string) string     { return "" }
func (s *stubSession) GetInt64(ctx context.Context, key string) int64       { return s.userID }
func (s *stubSession) PopString(ctx context.Context, key string) string     { return "" }
func (s *stubSession) RenewToken(ctx context.Context) error                 { return nil }
func (s *stubSession) Destroy(ctx context.Context) error                    { return nil }
func (s *stubSession) Remove(ctx context.Context, key string)               { s.removed = true }

type stubUsers map[int64]*data.User

func (u stubUsers) GetByID(ctx context.Context, id int64) (*data.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, fmt.Errorf("user %d: %w", id, data.ErrNotFound)
}

func runLoadActor(t *testing.T, sm *stubSession, users UserLookup) *auth.Actor {
	t.Helper()
	var seen *auth.Actor
	h := LoadActor(sm, users, logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ActorFrom(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	return seen
}

func TestLoadActor(t *testing.T) {
	users := stubUsers{
		1: {ID: 1, Subject: "a", Role: " Moderator "},
		2: {ID: 2, Subject: "b", Role: "superuser"},
	}

	t.Run("anonymous", func(t *testing.T) {
		if a := runLoadActor(t, &stubSession{}, users); a != nil {
			t.Errorf("expected no actor, got %+v", a)
		}
	})

	t.Run("normalizes role", func(t *testing.T) {
		a := runLoadActor(t, &stubSession{userID: 1}, users)
		if a == nil || a.ID != 1 || a.Role != auth.RoleModerator {
			t.Errorf("expected moderator actor 1, got %+v", a)
		}
	})

	t.Run("unknown role keeps actor without permissions", func(t *testing.T) {
		a := runLoadActor(t, &stubSession{userID: 2}, users)
		if a == nil || a.Role.Valid() {
			t.Fatalf("expected actor with invalid role, got %+v", a)
		}
		gate := auth.NewGate(auth.MustNewAuthority())
		if gate.Can(a, auth.PermViewContent, nil) {
			t.Error("unknown role must hold no permissions")
		}
	})

	t.Run("missing user clears session", func(t *testing.T) {
		sm := &stubSession{userID: 99}
		if a := runLoadActor(t, sm, users); a != nil {
			t.Errorf("expected no actor, got %+v", a)
		}
		if !sm.removed {
			t.Error("expected stale user id to be removed")
		}
	})
}

func TestActorContext(t *testing.T) {
	if ActorFrom(context.Background()) != nil {
		t.Error("expected nil actor on empty context")
	}
	a := &auth.Actor{ID: 5, Role: auth.RoleMember}
	if got := ActorFrom(WithActor(context.Background(), a)); got != a {
		t.Errorf("expected %+v, got %+v", a, got)
	}
}
