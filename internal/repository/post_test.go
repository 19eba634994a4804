package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_CreateAndGetResolvesAuthor(t *testing.T) {
	db := setupSQLiteDB(t)
	users := NewUserRepository(db)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := seedUser(t, users, "alice")
	post := &models.Post{Title: "Hello", Summary: "s", Content: "c", Cover: "uploads/a.png", AuthorID: alice.ID}
	require.NoError(t, repo.Create(ctx, post))
	assert.NotEmpty(t, post.ID)

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	require.NotNil(t, got.Author)
	assert.Equal(t, alice.ID, got.Author.ID)
	assert.Equal(t, "alice", got.Author.Username)
	assert.Empty(t, got.Author.Password)
}

func TestPostRepository_GetMissing(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)

	_, err := repo.GetByID(context.Background(), "nope")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestPostRepository_ListCapsAndOrdersNewestFirst(t *testing.T) {
	db := setupSQLiteDB(t)
	alice := seedUser(t, NewUserRepository(db), "alice")
	repo := NewPostRepository(db)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		seedPost(t, db, alice.ID, fmt.Sprintf("post-%02d", i), base.Add(time.Duration(i)*time.Minute))
	}

	posts, err := repo.List(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, posts, 20)
	assert.Equal(t, "post-24", posts[0].Title)
	assert.Equal(t, "post-05", posts[19].Title)
	for i := 1; i < len(posts); i++ {
		assert.False(t, posts[i].CreatedAt.After(posts[i-1].CreatedAt))
	}
	require.NotNil(t, posts[0].Author)
	assert.Equal(t, "alice", posts[0].Author.Username)
}

func TestPostRepository_UpdateOwned(t *testing.T) {
	db := setupSQLiteDB(t)
	users := NewUserRepository(db)
	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := seedPost(t, db, alice.ID, "Original", time.Now().Add(-time.Hour))

	matched, err := repo.UpdateOwned(ctx, post.ID, bob.ID, models.PostChanges{Title: strPtr("Hijacked")})
	require.NoError(t, err)
	assert.False(t, matched)

	unchanged, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", unchanged.Title)

	matched, err = repo.UpdateOwned(ctx, post.ID, alice.ID, models.PostChanges{
		Title:   strPtr("Edited"),
		Summary: strPtr(""),
	})
	require.NoError(t, err)
	assert.True(t, matched)

	updated, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)
	assert.Equal(t, "", updated.Summary)
	assert.Equal(t, "content", updated.Content)
	assert.Equal(t, alice.ID, updated.AuthorID)
	assert.True(t, updated.UpdatedAt.After(post.UpdatedAt))

	matched, err = repo.UpdateOwned(ctx, "missing", alice.ID, models.PostChanges{Title: strPtr("x")})
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestPostRepository_UpdateOwned_ConditionalStatement(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "posts" SET .* WHERE id = \$\d+ AND author_id = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	matched, err := repo.UpdateOwned(context.Background(), "p-1", "u-2", models.PostChanges{Title: strPtr("t")})
	require.NoError(t, err)
	assert.False(t, matched)
	assert.NoError(t, mock.ExpectationsWereMet())
}
