// Package service holds the business rules behind the HTTP handlers.
package service

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// CredentialService registers users and checks their passwords.
type CredentialService struct {
	users repository.UserRepository
	cost  int
}

// NewCredentialService hashes with the given bcrypt cost.
func NewCredentialService(users repository.UserRepository, cost int) *CredentialService {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialService{users: users, cost: cost}
}

// Register stores a new user under the trimmed username.
func (s *CredentialService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		observability.RecordAuthEvent("register", models.CodeValidation)
		return nil, models.NewValidationError("Username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			observability.RecordAuthEvent("register", models.CodeValidation)
			return nil, models.NewValidationError("Password too long")
		}
		observability.RecordAuthEvent("register", models.CodeInternal)
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Username: username, Password: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		observability.RecordAuthEvent("register", models.AsAppError(err).Code)
		return nil, err
	}

	observability.RecordAuthEvent("register", "ok")
	return user, nil
}

// Authenticate returns the user when the password matches its stored hash.
func (s *CredentialService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		observability.RecordAuthEvent("login", models.AsAppError(err).Code)
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		observability.RecordAuthEvent("login", models.CodeInvalidCredentials)
		return nil, models.NewInvalidCredentialsError()
	}

	observability.RecordAuthEvent("login", "ok")
	return user, nil
}
