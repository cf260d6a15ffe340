package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/uigen-dev/uigen/server/internal/config"
	"github.com/uigen-dev/uigen/server/internal/database"
	"github.com/uigen-dev/uigen/server/internal/model"
	"github.com/uigen-dev/uigen/server/internal/store"
)

// newTestStore opens a migrated SQLite database in a temp directory.
func newTestStore(t *testing.T) (*store.Store, *config.Config) {
	t.Helper()

	cfg := config.Default()
	cfg.DatabaseDSN = fmt.Sprintf("sqlite3://%s/test.db", t.TempDir())
	cfg.DatabaseDriver = "sqlite"
	cfg.BcryptCost = 4 // bcrypt.MinCost keeps tests fast

	db, err := database.New(cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return store.New(db.DB), cfg
}

// createTestUser inserts a user row so projects can reference it.
func createTestUser(t *testing.T, s *store.Store, email string) string {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "x"}
	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	return user.ID
}
