// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered author. The password hash never leaves the server.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" bson:"username" json:"username"`
	Password  string    `gorm:"not null" bson:"password" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt,omitzero"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt,omitzero"`
}

// BeforeCreate assigns an application-generated identifier.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// PublicUser is the {id, username} view returned by auth endpoints.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Public strips everything but the identity fields.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username}
}
