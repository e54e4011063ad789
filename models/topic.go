package models

import "time"

// Topic groups posts into a single editorial category. The association is kept
// in a join table like tags, but the write path only ever syncs zero or one
// topic per post.
type Topic struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"index;size:36" json:"user_id"`
	Name      string    `gorm:"size:255" json:"name"`
	Slug      string    `gorm:"size:255;uniqueIndex" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Posts []*Post `gorm:"many2many:post_topics;" json:"-"`
}
