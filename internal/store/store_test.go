package store

import (
	"database/sql"
	"testing"

	"github.com/aijobhunter/jobhunter/internal/database"
	"github.com/aijobhunter/jobhunter/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, googleID, email string) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Upsert(googleID, email, model.Profile{DisplayName: "Test User"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}
