// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"fundsledger/internal/config"
	"fundsledger/internal/infrastructure/database"

	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// OpenSQLite returns a migrated, private in-memory SQLite database. A single
// connection keeps the memory database alive and serializes writers.
func OpenSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         fmt.Sprintf("file:ledger%d?mode=memory&cache=shared", dbSeq.Add(1)),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
