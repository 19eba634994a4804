package service

import (
	"context"

	"inkwell/internal/auth"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// RecentCommentsLimit caps the recent comments feed.
const RecentCommentsLimit = 5

type CommentService struct {
	comments repository.CommentRepository
}

func NewCommentService(comments repository.CommentRepository) *CommentService {
	return &CommentService{comments: comments}
}

// CreateComment stores a comment by the caller. The referenced post is not
// looked up.
func (s *CommentService) CreateComment(ctx context.Context, identity auth.Identity, postID, content string) (*models.Comment, error) {
	if identity.UserID == "" {
		return nil, models.NewUnauthorizedError("No token")
	}
	if postID == "" || content == "" {
		return nil, models.NewValidationError("Post ID and content are required")
	}

	comment := &models.Comment{
		PostID:   postID,
		AuthorID: identity.UserID,
		Content:  content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListRecentComments returns the newest comments in display form.
func (s *CommentService) ListRecentComments(ctx context.Context) ([]models.DisplayComment, error) {
	comments, err := s.comments.ListRecent(ctx, RecentCommentsLimit)
	if err != nil {
		return nil, err
	}

	out := make([]models.DisplayComment, 0, len(comments))
	for _, c := range comments {
		out = append(out, c.Display())
	}
	return out, nil
}
