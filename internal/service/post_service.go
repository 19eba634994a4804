package service

import (
	"context"
	"io"
	"log/slog"

	"inkwell/internal/auth"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/storage"

	"go.opentelemetry.io/otel/attribute"
)

// PostListLimit caps the number of posts returned by List.
const PostListLimit = 20

// Upload is a file received with a post request.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

type CreatePostInput struct {
	Title   string
	Summary string
	Content string
	File    *Upload
}

type UpdatePostInput struct {
	PostID  string
	Changes models.PostChanges
	File    *Upload
}

type PostService struct {
	posts repository.PostRepository
	store storage.Storage
}

func NewPostService(posts repository.PostRepository, store storage.Storage) *PostService {
	return &PostService{posts: posts, store: store}
}

// CreatePost stores the cover, then inserts the post owned by the caller.
// A failed insert removes the stored cover again.
func (s *PostService) CreatePost(ctx context.Context, identity auth.Identity, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.CreatePost")
	defer func() { observability.EndSpan(span, err) }()

	if identity.UserID == "" {
		return nil, models.NewUnauthorizedError("No token")
	}
	if in.File == nil {
		return nil, models.NewMissingFileError()
	}

	name, cover, err := s.storeCover(ctx, in.File)
	if err != nil {
		return nil, err
	}

	post = &models.Post{
		Title:    in.Title,
		Summary:  in.Summary,
		Content:  in.Content,
		Cover:    cover,
		AuthorID: identity.UserID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		s.removeCover(ctx, name)
		return nil, err
	}

	post.Author = &models.User{ID: identity.UserID, Username: identity.Username}
	observability.PostMutations.WithLabelValues("create").Inc()
	return post, nil
}

// UpdatePost applies a partial update for the post's author. Nothing is
// written, on disk or in the store, before ownership is established.
func (s *PostService) UpdatePost(ctx context.Context, identity auth.Identity, in UpdatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.UpdatePost", attribute.String("post.id", in.PostID))
	defer func() { observability.EndSpan(span, err) }()

	existing, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwnership(identity, existing.AuthorID); err != nil {
		return nil, err
	}

	changes := in.Changes
	var newName string
	if in.File != nil {
		name, cover, err := s.storeCover(ctx, in.File)
		if err != nil {
			return nil, err
		}
		newName = name
		changes.Cover = &cover
	}

	matched, err := s.posts.UpdateOwned(ctx, in.PostID, identity.UserID, changes)
	if err != nil || !matched {
		if newName != "" {
			s.removeCover(ctx, newName)
		}
		if err != nil {
			return nil, err
		}
		return nil, s.explainMiss(ctx, in.PostID)
	}

	if newName != "" && existing.Cover != "" {
		s.removeCover(ctx, storage.NameFromPath(existing.Cover))
	}
	observability.PostMutations.WithLabelValues("update").Inc()

	return s.posts.GetByID(ctx, in.PostID)
}

// explainMiss tells a vanished post apart from one that changed hands
// between the ownership check and the conditional update.
func (s *PostService) explainMiss(ctx context.Context, postID string) error {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return err
	}
	return models.NewForbiddenError("Not allowed")
}

// ListPosts returns the newest posts, at most PostListLimit.
func (s *PostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.posts.List(ctx, PostListLimit)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

func (s *PostService) storeCover(ctx context.Context, f *Upload) (string, string, error) {
	name := storage.NewObjectName(f.Filename)
	contentType, r := storage.DetectContentType(f.Content, f.Filename)

	cover, err := s.store.Save(ctx, name, r, f.Size, contentType)
	if err != nil {
		return "", "", models.NewInternalError(err)
	}
	return name, cover, nil
}

func (s *PostService) removeCover(ctx context.Context, name string) {
	if err := s.store.Delete(ctx, name); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove cover",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
	}
}
