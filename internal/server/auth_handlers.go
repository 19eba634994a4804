package server

import (
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Register handles POST /register
func (s *Server) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.credentials.Register(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"user": user.Public()})
}

// Login handles POST /login and sets the session cookie.
func (s *Server) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.credentials.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	c.Cookie(s.sessionCookie(token, s.tokens.TTL()))
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    user.Public(),
	})
}

// Profile handles GET /profile
func (s *Server) Profile(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"user": identity(c)})
}

// Logout handles POST /logout. Tokens are stateless; only the cookie is cleared.
func (s *Server) Logout(c *fiber.Ctx) error {
	c.Cookie(s.sessionCookie("", 0))
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// sessionCookie builds the token cookie; a zero ttl expires it immediately.
func (s *Server) sessionCookie(value string, ttl time.Duration) *fiber.Cookie {
	cookie := &fiber.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if ttl > 0 {
		cookie.MaxAge = int(ttl.Seconds())
		cookie.Expires = time.Now().Add(ttl)
	} else {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	}
	return cookie
}
