package auth

import (
	"errors"

	"inkwell/internal/models"
)

// VerificationError converts a Verify failure into the guard's taxonomy:
// missing or expired credentials are Unauthorized, anything else is Forbidden.
func VerificationError(err error) *models.AppError {
	switch {
	case errors.Is(err, ErrTokenMissing):
		return models.NewUnauthorizedError("No token")
	case errors.Is(err, ErrTokenExpired):
		return models.NewUnauthorizedError("Token expired")
	default:
		return models.NewForbiddenError("Invalid token")
	}
}

// RequireOwnership rejects callers that are not the resource's author.
func RequireOwnership(identity Identity, resourceAuthorID string) error {
	if identity.UserID == "" || identity.UserID != resourceAuthorID {
		return models.NewForbiddenError("Not allowed")
	}
	return nil
}
