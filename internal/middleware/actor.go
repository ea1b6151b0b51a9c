package middleware

import (
	"context"
	"errors"
	"net/http"

	"go-community-app/internal/auth"
	"go-community-app/internal/data"
	"go-community-app/internal/logger"
	"go-community-app/internal/session"
)

// UserLookup loads users by id.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*data.User, error)
}

// LoadActor resolves the session's user id into an actor on the request
// context. Unknown users and unknown roles leave the request anonymous or
// without permissions; they never fail the request.
func LoadActor(sm session.Manager, users UserLookup, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sm.GetInt64(r.Context(), session.UserIDKey)
			if id == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetByID(r.Context(), id)
			if err != nil {
				if !errors.Is(err, data.ErrNotFound) {
					log.Error(err, "failed to load session user")
				}
				sm.Remove(r.Context(), session.UserIDKey)
				next.ServeHTTP(w, r)
				return
			}

			role, ok := auth.ParseRole(user.Role)
			if !ok {
				log.Warn("user " + user.Subject + " has unknown role " + user.Role)
			}
			ctx := WithActor(r.Context(), &auth.Actor{ID: user.ID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
