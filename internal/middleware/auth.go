package middleware

import (
	"context"

	"inkwell/internal/auth"
	"inkwell/internal/models"
	"inkwell/internal/observability"

	"github.com/gofiber/fiber/v2"
)

const identityLocal = "identity"

// RequireAuthenticated verifies the session cookie and stores the caller's
// identity in locals and in the user context. Missing or expired tokens are
// rejected with 401, any other verification failure with 403.
func RequireAuthenticated(tokens *auth.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := tokens.Verify(c.Cookies(auth.CookieName))
		if err != nil {
			appErr := auth.VerificationError(err)
			observability.RecordAuthEvent("verify", appErr.Code)
			Logger.WarnContext(c.UserContext(), "session verification failed",
				"reason", err.Error(),
				"path", c.Path(),
			)
			return models.RespondWithAppError(c, appErr)
		}

		observability.RecordAuthEvent("verify", "ok")
		c.Locals(identityLocal, identity)
		c.Locals("userID", identity.UserID)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, identity.UserID))

		return c.Next()
	}
}

// IdentityFrom returns the identity stored by RequireAuthenticated.
func IdentityFrom(c *fiber.Ctx) (auth.Identity, bool) {
	identity, ok := c.Locals(identityLocal).(auth.Identity)
	return identity, ok
}
