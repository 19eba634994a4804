package server

import (
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	PostID  string `json:"postId" form:"postId"`
	Content string `json:"content" form:"content"`
}

// CreateComment handles POST /comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), identity(c), req.PostID, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Comment added successfully",
		"comment": comment,
	})
}

// ListRecentComments handles GET /comments
func (s *Server) ListRecentComments(c *fiber.Ctx) error {
	comments, err := s.commentService.ListRecentComments(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}
