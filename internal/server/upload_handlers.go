package server

import (
	"errors"

	"inkwell/internal/models"
	"inkwell/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// GetUpload handles GET /uploads/:name and streams a stored cover.
func (s *Server) GetUpload(c *fiber.Ctx) error {
	name := c.Params("name")

	rc, contentType, err := s.runtime.Storage.Open(c.UserContext(), name)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return respondError(c, models.NewNotFoundError("Upload", name))
		}
		return respondError(c, models.NewInternalError(err))
	}

	if contentType != "" {
		c.Set(fiber.HeaderContentType, contentType)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400, immutable")
	// The body stream is closed by fasthttp once written.
	return c.SendStream(rc)
}
