package models

import "time"

// Tag labels posts. Tags are created lazily by the association synchronizer
// when a post references a slug that does not exist yet; the creator becomes
// the owner.
type Tag struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"index;size:36" json:"user_id"`
	Name      string    `gorm:"size:255" json:"name"`
	Slug      string    `gorm:"size:255;uniqueIndex" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Posts []*Post `gorm:"many2many:post_tags;" json:"-"`
}
