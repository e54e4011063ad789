package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Visit records the first view of a post within a browsing session, so it
// approximates unique readers while View counts raw renders. Append-only.
type Visit struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"index;size:36;not null" json:"post_id"`
	IP        string    `gorm:"size:45" json:"ip"`
	UserAgent string    `gorm:"size:512" json:"user_agent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (v *Visit) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	return nil
}
