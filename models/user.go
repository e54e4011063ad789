package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles. Only contributors are restricted to their own content; editors
// and admins may request cross-owner visibility.
const (
	RoleContributor = 1
	RoleEditor      = 2
	RoleAdmin       = 3
)

// User represents an admin-panel account. Passwords are stored as bcrypt hashes only.
// Accounts are soft-deleted so that re-creating one with the same email restores
// the original row instead of producing a duplicate.
type User struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	Name         string         `gorm:"size:255" json:"name"`
	Email        string         `gorm:"size:255;uniqueIndex" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         int            `gorm:"default:1" json:"role"`
	Avatar       string         `gorm:"size:512" json:"avatar"`
	Locale       string         `gorm:"size:8" json:"locale"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Posts []Post `gorm:"foreignKey:UserID" json:"-"`

	// PostsCount is populated by listing queries via subselect; not a column.
	PostsCount int64 `gorm:"->;-:migration" json:"posts_count"`
}

// IsContributor reports whether the account holds the most restricted role.
func (u *User) IsContributor() bool {
	return u.Role == RoleContributor
}

// IsAdmin reports whether the account holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// BeforeCreate ensures timestamps are set even when rows are created with
// caller-supplied ids.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}
