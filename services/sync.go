package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easelcms/easel/models"
)

// AssocInput is a tag or topic reference on the post write path. Slugs are
// the resolution key; Name is only used when the record has to be created.
type AssocInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Syncer reconciles a post's requested tag and topic sets against the
// existing collections, creating missing records on demand and replacing the
// association rows wholesale. All work runs on the *gorm.DB handed in, so the
// caller decides the transaction boundary.
type Syncer struct{}

// NewSyncer creates a Syncer.
func NewSyncer() *Syncer {
	return &Syncer{}
}

// assocRow is the projection the slug resolver works on; tags and topics
// share it.
type assocRow struct {
	ID   string
	Name string
	Slug string
}

// SyncTags resolves the requested tags and replaces the post's tag
// associations with exactly that set. Unchanged associations are left alone;
// only removed ones are detached and new ones attached.
func (s *Syncer) SyncTags(tx *gorm.DB, post *models.Post, requested []AssocInput, actor *models.User) error {
	ids, err := resolveSlugs(tx, &models.Tag{}, requested, func(item AssocInput) (string, error) {
		tag := models.Tag{ID: uuid.NewString(), Name: item.Name, Slug: item.Slug, UserID: actor.ID}
		return tag.ID, tx.Create(&tag).Error
	})
	if err != nil {
		return err
	}
	targets := make([]*models.Tag, len(ids))
	for i, id := range ids {
		targets[i] = &models.Tag{ID: id}
	}
	return tx.Model(post).Association("Tags").Replace(targets)
}

// SyncTopic mirrors SyncTags for the topic relation. The association is a set
// for storage purposes, but callers pass at most one element.
func (s *Syncer) SyncTopic(tx *gorm.DB, post *models.Post, requested []AssocInput, actor *models.User) error {
	ids, err := resolveSlugs(tx, &models.Topic{}, requested, func(item AssocInput) (string, error) {
		topic := models.Topic{ID: uuid.NewString(), Name: item.Name, Slug: item.Slug, UserID: actor.ID}
		return topic.ID, tx.Create(&topic).Error
	})
	if err != nil {
		return err
	}
	targets := make([]*models.Topic, len(ids))
	for i, id := range ids {
		targets[i] = &models.Topic{ID: id}
	}
	return tx.Model(post).Association("Topic").Replace(targets)
}

// resolveSlugs maps the requested slugs to record ids in request order,
// creating records that do not exist yet and dropping repeated slugs. A
// unique-key failure from create means a concurrent writer landed the slug
// first; the winner's id is adopted instead of failing the operation.
func resolveSlugs(tx *gorm.DB, model any, requested []AssocInput, create func(AssocInput) (string, error)) ([]string, error) {
	var existing []assocRow
	if err := tx.Model(model).Select("id", "name", "slug").Find(&existing).Error; err != nil {
		return nil, err
	}
	bySlug := make(map[string]string, len(existing))
	for _, r := range existing {
		bySlug[r.Slug] = r.ID
	}

	ids := make([]string, 0, len(requested))
	seen := make(map[string]bool, len(requested))
	for _, item := range requested {
		id, ok := bySlug[item.Slug]
		if !ok {
			created, err := create(item)
			if err != nil {
				if !isDuplicateKey(err) {
					return nil, err
				}
				winner, err := winnerBySlug(tx, model, item.Slug)
				if err != nil {
					return nil, err
				}
				created = winner.ID
			}
			id = created
			bySlug[item.Slug] = id
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// winnerBySlug re-reads the row that won a slug race. On MySQL this must be a
// locking read: the winner committed after this transaction's REPEATABLE READ
// snapshot was taken, so a plain consistent read would not see it, while
// SELECT FOR UPDATE reads the latest committed version. sqlite has no FOR
// UPDATE syntax and a single writer, so the plain read is already current.
func winnerBySlug(tx *gorm.DB, model any, slug string) (assocRow, error) {
	q := tx.Model(model).Select("id", "name", "slug").Where("slug = ?", slug)
	if tx.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row assocRow
	err := q.First(&row).Error
	return row, err
}

// isDuplicateKey recognizes unique-constraint violations across the MySQL and
// sqlite dialects. TranslateError covers the common case; the string checks
// keep older driver versions working.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
