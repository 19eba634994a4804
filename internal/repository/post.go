package repository

import (
	"context"
	"errors"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, limit int) ([]*models.Post, error)
	// UpdateOwned applies changes only when the post exists and belongs to
	// authorID. It reports whether a row matched.
	UpdateOwned(ctx context.Context, id, authorID string, changes models.PostChanges) (bool, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func authorPreview(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("insert", "posts")()

	if err := r.db.WithContext(ctx).Omit("Author").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	defer observability.TrackQuery("select", "posts")()

	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author", authorPreview).
		Where("id = ?", id).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit int) ([]*models.Post, error) {
	defer observability.TrackQuery("select", "posts")()

	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("Author", authorPreview).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) UpdateOwned(ctx context.Context, id, authorID string, changes models.PostChanges) (bool, error) {
	defer observability.TrackQuery("update", "posts")()

	cols := changes.Columns()
	cols["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND author_id = ?", id, authorID).
		Updates(cols)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}
