package server

import (
	"log/slog"

	"inkwell/internal/auth"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// respondError logs internal failures with their cause and renders err.
func respondError(c *fiber.Ctx, err error) error {
	appErr := models.AsAppError(err)
	if appErr.Status() >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithAppError(c, appErr)
}

// identity returns the caller set by RequireAuthenticated, or the zero value.
func identity(c *fiber.Ctx) auth.Identity {
	id, _ := middleware.IdentityFrom(c)
	return id
}
