// Package testutil builds migrated in-memory databases for integration tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"go-community-app/internal/auth"
	"go-community-app/internal/config"
	"go-community-app/internal/data"

	"github.com/jmoiron/sqlx"
)

var dbSeq atomic.Int64

// NewDB returns a private, migrated in-memory SQLite database that is
// closed when the test ends.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	db, err := data.NewDB(config.DBConfig{Driver: data.DriverSQLite, DSN: dsn})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := data.ApplyMigrations(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given role and returns it as an actor.
func CreateUser(t testing.TB, db *sqlx.DB, subject string, role auth.Role) *auth.Actor {
	t.Helper()
	u, err := data.NewUserRepository(db).EnsureBySubject(context.Background(), subject, subject, subject+"@example.com", string(role))
	if err != nil {
		t.Fatalf("failed to create user %q: %v", subject, err)
	}
	return &auth.Actor{ID: u.ID, Role: role}
}
