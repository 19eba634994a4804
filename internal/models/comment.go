package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Display fallbacks for references that no longer resolve.
const (
	AnonymousAuthor = "Anonymous"
	UntitledPost    = "Untitled Post"
)

// Comment is a flat comment on a post. PostID is not checked on insert.
type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	PostID    string    `gorm:"type:varchar(36);not null;index" bson:"postId" json:"postId"`
	AuthorID  string    `gorm:"type:varchar(36);not null;index" bson:"authorId" json:"authorId"`
	Content   string    `gorm:"type:text;not null" bson:"content" json:"content"`
	CreatedAt time.Time `gorm:"index" bson:"createdAt" json:"createdAt"`
	Author    *User     `gorm:"foreignKey:AuthorID" bson:"-" json:"-"`
	Post      *Post     `gorm:"foreignKey:PostID" bson:"-" json:"-"`
}

// BeforeCreate assigns an application-generated identifier.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// DisplayComment is the read-facing shape of the recent comments feed.
type DisplayComment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	PostTitle string    `json:"postTitle"`
	CreatedAt time.Time `json:"createdAt"`
	Content   string    `json:"content"`
}

// Display resolves author and post title, tolerating dangling references.
func (c *Comment) Display() DisplayComment {
	d := DisplayComment{
		ID:        c.ID,
		Author:    AnonymousAuthor,
		PostTitle: UntitledPost,
		CreatedAt: c.CreatedAt,
		Content:   c.Content,
	}
	if c.Author != nil && c.Author.Username != "" {
		d.Author = c.Author.Username
	}
	if c.Post != nil && c.Post.Title != "" {
		d.PostTitle = c.Post.Title
	}
	return d
}
