package repository

import (
	"path/filepath"
	"testing"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupSQLiteDB returns a migrated SQLite database in a per-test directory.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(&config.Config{
		DBDriver:   config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "repo.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func seedUser(t *testing.T, repo UserRepository, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Password: "hash"}
	require.NoError(t, repo.Create(t.Context(), u))
	return u
}

func seedPost(t *testing.T, db *gorm.DB, authorID, title string, createdAt time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:     title,
		Summary:   "summary",
		Content:   "content",
		Cover:     "uploads/cover.png",
		AuthorID:  authorID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func strPtr(s string) *string { return &s }
