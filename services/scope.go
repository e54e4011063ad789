// Package services carries the domain logic of the admin panel: visibility
// scoping, tag/topic association sync, traffic statistics, and the flattened
// search index. Handlers stay thin and delegate here.
package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/easelcms/easel/models"
)

// Request-level visibility scopes. The default is always "user": an admin who
// does not explicitly ask for scope=all sees only their own records.
const (
	ScopeUser = "user"
	ScopeAll  = "all"
)

// Publication partitions accepted by the post listing.
const (
	TypePublished = "published"
	TypeDraft     = "draft"
)

// OwnedBy restricts a post query to a single owner.
func OwnedBy(userID string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where("user_id = ?", userID)
	}
}

// VisibleTo builds the owner predicate for listing-style queries. Contributors
// are always pinned to their own records; every other role widens only on an
// explicit scope=all. Callers must apply this per query, scopes never carry
// over between calls.
func VisibleTo(actor *models.User, scope string) func(*gorm.DB) *gorm.DB {
	if actor.IsContributor() || scope != ScopeAll {
		return OwnedBy(actor.ID)
	}
	return func(q *gorm.DB) *gorm.DB { return q }
}

// OwnerRestricted builds the owner predicate for single-record lookups, where
// no scope parameter exists: contributors see their own records, everyone else
// sees all. A miss caused by this predicate is indistinguishable from a true
// absence.
func OwnerRestricted(actor *models.User) func(*gorm.DB) *gorm.DB {
	if actor.IsContributor() {
		return OwnedBy(actor.ID)
	}
	return func(q *gorm.DB) *gorm.DB { return q }
}

// Published restricts to posts whose publish timestamp exists and has passed.
func Published() func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where("published_at IS NOT NULL AND published_at <= ?", time.Now())
	}
}

// Draft is the complement of Published: no timestamp, or one in the future.
func Draft() func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where("published_at IS NULL OR published_at > ?", time.Now())
	}
}

// Partition selects the publication scope for a listing type parameter;
// anything other than "draft" means published.
func Partition(typ string) func(*gorm.DB) *gorm.DB {
	if typ == TypeDraft {
		return Draft()
	}
	return Published()
}
