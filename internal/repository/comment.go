package repository

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	// ListRecent returns the newest comments with author and post resolved
	// where they still exist.
	ListRecent(ctx context.Context, limit int) ([]*models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("insert", "comments")()

	if err := r.db.WithContext(ctx).Omit("Author", "Post").Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) ListRecent(ctx context.Context, limit int) ([]*models.Comment, error) {
	defer observability.TrackQuery("select", "comments")()

	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author", authorPreview).
		Preload("Post", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title")
		}).
		Order("created_at DESC").
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}
