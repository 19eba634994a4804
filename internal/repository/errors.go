// Package repository implements the data access layer for users, posts and comments.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// isUniqueViolation recognizes duplicate-key failures from every supported store.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return true
	}
	return mongo.IsDuplicateKeyError(err)
}
