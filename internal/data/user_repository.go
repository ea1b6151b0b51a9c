package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// UserRepository handles database operations for users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID finds a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	var user User
	if err := conn(ctx, r.db).GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id); err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

// EnsureBySubject returns the user with the given identity-provider subject,
// creating it with defaultRole on first login. Name and email are refreshed
// on every login; the role never is.
func (r *UserRepository) EnsureBySubject(ctx context.Context, subject, name, email, defaultRole string) (*User, error) {
	q := conn(ctx, r.db)
	var user User
	err := q.GetContext(ctx, &user, `SELECT * FROM users WHERE subject = ?`, subject)
	switch {
	case err == nil:
		if user.Name != name || user.Email != email {
			if _, err := q.ExecContext(ctx, `UPDATE users SET name = ?, email = ? WHERE id = ?`, name, email, user.ID); err != nil {
				return nil, fmt.Errorf("failed to refresh user profile: %w", err)
			}
			user.Name, user.Email = name, email
		}
		return &user, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to look up user by subject: %w", err)
	}

	user = User{Subject: subject, Name: name, Email: email, Role: defaultRole, CreatedAt: time.Now().UTC()}
	res, err := q.NamedExecContext(ctx,
		`INSERT INTO users (subject, name, email, role, created_at) VALUES (:subject, :name, :email, :role, :created_at)`, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if user.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}
	return &user, nil
}

// SetRole changes a user's role.
func (r *UserRepository) SetRole(ctx context.Context, id int64, role string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return fmt.Errorf("failed to set user role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		// MySQL reports zero for a no-op update, so confirm the row exists.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
