package testutil

import (
	"context"
	"fmt"
	"testing"

	"healthpulse/database"
	"healthpulse/database/repository"
	userRepo "healthpulse/database/repository/user"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewTestDB opens a private in-memory SQLite database. It is closed when the
// test completes.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache db survives across pool connections; the name keeps tests isolated.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := database.OpenSQL("sqlite", dsn)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}

	t.Cleanup(func() {
		if err := database.Close(context.Background(), db); err != nil {
			t.Errorf("closing test db: %v", err)
		}
	})
	return db
}

// NewTestStores returns every repository on a fresh test database.
func NewTestStores(t *testing.T) (*repository.Stores, *gorm.DB) {
	t.Helper()

	db := NewTestDB(t)
	stores, err := repository.NewGormStores(db)
	if err != nil {
		t.Fatalf("creating test stores: %v", err)
	}
	return stores, db
}

// SeedUsers inserts users into the directory.
func SeedUsers(t *testing.T, db *gorm.DB, ids ...string) {
	t.Helper()

	for _, id := range ids {
		if err := db.Create(&userRepo.UserRow{ID: id}).Error; err != nil {
			t.Fatalf("seeding user %s: %v", id, err)
		}
	}
}
