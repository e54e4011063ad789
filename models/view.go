package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// View records a single page render of a published post. Rows are append-only
// and read exclusively by the stats aggregator.
type View struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"index;size:36;not null" json:"post_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (v *View) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	return nil
}
