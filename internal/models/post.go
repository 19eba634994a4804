package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post represents a blog post. AuthorID is fixed at creation.
type Post struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Title     string    `bson:"title" json:"title"`
	Summary   string    `bson:"summary" json:"summary"`
	Content   string    `gorm:"type:text" bson:"content" json:"content"`
	Cover     string    `bson:"cover" json:"cover"`
	AuthorID  string    `gorm:"type:varchar(36);not null;index" bson:"authorId" json:"authorId"`
	Author    *User     `gorm:"foreignKey:AuthorID" bson:"-" json:"author,omitempty"`
	CreatedAt time.Time `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// BeforeCreate assigns an application-generated identifier.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PostChanges carries the fields of a partial update. Nil means "not sent".
type PostChanges struct {
	Title   *string
	Summary *string
	Content *string
	Cover   *string
}

// Empty reports whether no field was supplied.
func (c PostChanges) Empty() bool {
	return c.Title == nil && c.Summary == nil && c.Content == nil && c.Cover == nil
}

// Columns returns the supplied fields keyed by column name. A map is used so
// that explicitly empty strings are written rather than skipped.
func (c PostChanges) Columns() map[string]interface{} {
	cols := make(map[string]interface{}, 4)
	if c.Title != nil {
		cols["title"] = *c.Title
	}
	if c.Summary != nil {
		cols["summary"] = *c.Summary
	}
	if c.Content != nil {
		cols["content"] = *c.Content
	}
	if c.Cover != nil {
		cols["cover"] = *c.Cover
	}
	return cols
}

// Apply copies the supplied fields onto p.
func (c PostChanges) Apply(p *Post) {
	if c.Title != nil {
		p.Title = *c.Title
	}
	if c.Summary != nil {
		p.Summary = *c.Summary
	}
	if c.Content != nil {
		p.Content = *c.Content
	}
	if c.Cover != nil {
		p.Cover = *c.Cover
	}
}
