package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn      func(context.Context, *models.Post) error
	getByIDFn     func(context.Context, string) (*models.Post, error)
	listFn        func(context.Context, int) ([]*models.Post, error)
	updateOwnedFn func(context.Context, string, string, models.PostChanges) (bool, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, limit int) ([]*models.Post, error) {
	return s.listFn(ctx, limit)
}
func (s *postRepoStub) UpdateOwned(ctx context.Context, id, authorID string, changes models.PostChanges) (bool, error) {
	return s.updateOwnedFn(ctx, id, authorID, changes)
}

func failingPostRepo(t *testing.T) *postRepoStub {
	fail := func(name string) { t.Helper(); t.Fatalf("unexpected call to %s", name) }
	return &postRepoStub{
		createFn: func(_ context.Context, _ *models.Post) error { fail("Create"); return nil },
		getByIDFn: func(_ context.Context, _ string) (*models.Post, error) {
			fail("GetByID")
			return nil, nil
		},
		listFn: func(_ context.Context, _ int) ([]*models.Post, error) { fail("List"); return nil, nil },
		updateOwnedFn: func(_ context.Context, _, _ string, _ models.PostChanges) (bool, error) {
			fail("UpdateOwned")
			return false, nil
		},
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	listRecentFn func(context.Context, int) ([]*models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) ListRecent(ctx context.Context, limit int) ([]*models.Comment, error) {
	return s.listRecentFn(ctx, limit)
}

// memStore is an in-memory storage.Storage that records every write.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	saves   []string
	deletes []string
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) Save(_ context.Context, name string, r io.Reader, _ int64, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return "", m.saveErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objects[name] = b
	m.types[name] = contentType
	m.saves = append(m.saves, name)
	return storage.PublicPath(name), nil
}

func (m *memStore) Open(_ context.Context, name string) (io.ReadCloser, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[name]
	if !ok {
		return nil, "", storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), m.types[name], nil
}

func (m *memStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, name)
	m.deletes = append(m.deletes, name)
	return nil
}

func (m *memStore) Ping(_ context.Context) error { return nil }
func (m *memStore) Backend() string              { return "memory" }

func upload(name, content string) *Upload {
	return &Upload{Filename: name, Size: int64(len(content)), Content: bytes.NewBufferString(content)}
}

func strPtr(s string) *string { return &s }

// assertAppCode asserts that err is an AppError with the given code.
func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
