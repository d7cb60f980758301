// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"gopher-accounts/internal/config"
	"gopher-accounts/internal/pkg/hasher"
	"gopher-accounts/internal/platform/database"
)

// NewDB opens a migrated sqlite database in a per-test temp dir.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		Database: config.DatabaseConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "accounts.db"),
		},
	}
	db, err := database.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// FastHasher keeps bcrypt but at the minimum cost.
func FastHasher() *hasher.Bcrypt {
	return hasher.NewBcrypt(bcrypt.MinCost)
}
