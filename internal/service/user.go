package service

import (
	"context"

	"go-community-app/internal/apperr"
	"go-community-app/internal/auth"
	"go-community-app/internal/data"
	"go-community-app/internal/logger"
)

// UserService is the admin side of user accounts.
type UserService struct {
	gate  *auth.Gate
	tx    data.Transactor
	users UserStore
	log   logger.Logger
}

// NewUserService creates a new UserService.
func NewUserService(gate *auth.Gate, st Stores, log logger.Logger) *UserService {
	return &UserService{gate: gate, tx: st.Tx, users: st.Users, log: log}
}

// SetRole assigns a role to a user. Guest is not assignable, and admins
// cannot change their own role.
func (s *UserService) SetRole(ctx context.Context, actor *auth.Actor, userID int64, role string) (*data.User, error) {
	const op = "user.SetRole"
	if err := require(s.gate, op, actor, auth.PermManageUsers, nil); err != nil {
		return nil, err
	}
	r, ok := auth.ParseRole(role)
	if !ok || r == auth.RoleGuest {
		return nil, apperr.E(apperr.InvalidArgument, op, "role must be one of admin, moderator, member")
	}
	if userID == actor.ID {
		return nil, apperr.E(apperr.Conflict, op, "you cannot change your own role")
	}

	var out *data.User
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return lookup(op, "user", err)
		}
		if err := s.users.SetRole(ctx, userID, string(r)); err != nil {
			return lookup(op, "user", err)
		}
		u.Role = string(r)
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.With(map[string]interface{}{"user_id": userID, "role": string(r), "actor_id": actor.ID}).Info("user role changed")
	return out, nil
}
