package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a blog entry managed through the admin panel. The id is minted by
// the client when the editor opens a blank form, so create and update share a
// single id-addressed write path. A post with a nil or future PublishedAt is a
// draft. Posts are hard-deleted together with their association rows.
type Post struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	UserID        string     `gorm:"index;size:36" json:"user_id"`
	Slug          string     `gorm:"size:255;uniqueIndex" json:"slug"`
	Title         string     `gorm:"size:255" json:"title"`
	Summary       string     `gorm:"type:text" json:"summary"`
	Body          string     `gorm:"type:text" json:"body"`
	FeaturedImage string     `gorm:"size:512" json:"featured_image"`
	PublishedAt   *time.Time `json:"published_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Tags  []*Tag   `gorm:"many2many:post_tags;" json:"tags"`
	Topic []*Topic `gorm:"many2many:post_topics;" json:"topic"`

	Views  []View  `gorm:"foreignKey:PostID" json:"-"`
	Visits []Visit `gorm:"foreignKey:PostID" json:"-"`

	// ViewsCount is populated by listing queries via subselect; not a column.
	ViewsCount int64 `gorm:"->;-:migration" json:"views_count"`
}

// IsPublished reports whether the post is publicly visible: a publish
// timestamp exists and is not in the future.
func (p *Post) IsPublished() bool {
	return p.PublishedAt != nil && !p.PublishedAt.After(time.Now())
}

// BeforeCreate keeps timestamps consistent for rows created with
// caller-supplied ids.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return nil
}
