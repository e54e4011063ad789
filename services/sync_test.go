package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/easelcms/easel/models"
	"github.com/easelcms/easel/utils"
)

// raceTagCreate makes a competing writer land a conflicting row right before
// the synchronizer's own insert runs, once.
func raceTagCreate(t *testing.T, db *gorm.DB, insert string, args ...interface{}) *bool {
	t.Helper()
	raced := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("sync_test:competing_writer", func(d *gorm.DB) {
		if raced {
			return
		}
		switch d.Statement.Dest.(type) {
		case *models.Tag, *models.Topic:
		default:
			return
		}
		raced = true
		require.NoError(t, d.Session(&gorm.Session{NewDB: true}).Exec(insert, args...).Error)
	}))
	t.Cleanup(func() {
		require.NoError(t, db.Callback().Create().Remove("sync_test:competing_writer"))
	})
	return &raced
}

func seedSyncPost(t *testing.T, db *gorm.DB) (*models.Post, *models.User) {
	t.Helper()
	actor := &models.User{ID: "u1", Name: "Author", Email: "author@example.com", Role: models.RoleContributor}
	require.NoError(t, db.Create(actor).Error)
	post := &models.Post{ID: "post-1", UserID: actor.ID, Slug: "post-1", Title: "Post"}
	require.NoError(t, db.Create(post).Error)
	return post, actor
}

func tagSlugs(t *testing.T, db *gorm.DB, post *models.Post) []string {
	t.Helper()
	var tags []models.Tag
	require.NoError(t, db.Model(post).Association("Tags").Find(&tags))
	slugs := make([]string, len(tags))
	for i, tag := range tags {
		slugs[i] = tag.Slug
	}
	return slugs
}

func TestSyncTagsFullReplacement(t *testing.T) {
	db := utils.OpenTestDB(t)
	post, actor := seedSyncPost(t, db)
	syncer := NewSyncer()

	require.NoError(t, syncer.SyncTags(db, post, []AssocInput{
		{Name: "Alpha", Slug: "alpha"},
		{Name: "Beta", Slug: "beta"},
	}, actor))
	assert.ElementsMatch(t, []string{"alpha", "beta"}, tagSlugs(t, db, post))

	var beta models.Tag
	require.NoError(t, db.First(&beta, "slug = ?", "beta").Error)

	require.NoError(t, syncer.SyncTags(db, post, []AssocInput{
		{Name: "Beta", Slug: "beta"},
		{Name: "Gamma", Slug: "gamma"},
	}, actor))
	assert.ElementsMatch(t, []string{"beta", "gamma"}, tagSlugs(t, db, post))

	// Beta survived as the same record, not a recreation.
	var betaAfter models.Tag
	require.NoError(t, db.First(&betaAfter, "slug = ?", "beta").Error)
	assert.Equal(t, beta.ID, betaAfter.ID)

	// Alpha is detached but not deleted.
	var tagCount int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&tagCount).Error)
	assert.EqualValues(t, 3, tagCount)

	var joinCount int64
	require.NoError(t, db.Table("post_tags").Where("post_id = ?", post.ID).Count(&joinCount).Error)
	assert.EqualValues(t, 2, joinCount)
}

func TestSyncTagsReusesExistingSlug(t *testing.T) {
	db := utils.OpenTestDB(t)
	post, actor := seedSyncPost(t, db)
	syncer := NewSyncer()

	existing := models.Tag{ID: "tag-go", Name: "Go", Slug: "go", UserID: "someone-else"}
	require.NoError(t, db.Create(&existing).Error)

	require.NoError(t, syncer.SyncTags(db, post, []AssocInput{
		{Name: "Golang", Slug: "go"},
	}, actor))

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Where("slug = ?", "go").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var tags []models.Tag
	require.NoError(t, db.Model(post).Association("Tags").Find(&tags))
	require.Len(t, tags, 1)
	assert.Equal(t, existing.ID, tags[0].ID)
	assert.Equal(t, "Go", tags[0].Name)
}

func TestSyncTagsCreatesMissingOwnedByActor(t *testing.T) {
	db := utils.OpenTestDB(t)
	post, actor := seedSyncPost(t, db)
	syncer := NewSyncer()

	require.NoError(t, syncer.SyncTags(db, post, []AssocInput{
		{Name: "Fresh", Slug: "fresh"},
	}, actor))

	var tag models.Tag
	require.NoError(t, db.First(&tag, "slug = ?", "fresh").Error)
	assert.Equal(t, actor.ID, tag.UserID)
	assert.Equal(t, "Fresh", tag.Name)
	assert.NotEmpty(t, tag.ID)
}

func TestSyncTagsDeduplicatesRequest(t *testing.T) {
	db := utils.OpenTestDB(t)
	post, actor := seedSyncPost(t, db)
	syncer := NewSyncer()

	require.NoError(t, syncer.SyncTags(db, post, []AssocInput{
		{Name: "Dup", Slug: "dup"},
		{Name: "Dup again", Slug: "dup"},
	}, actor))

	var joinCount int64
	require.NoError(t, db.Table("post_tags").Where("post_id = ?", post.ID).Count(&joinCount).Error)
	assert.EqualValues(t, 1, joinCount)
}

func TestSyncTagsAdoptsWinnerAfterSlugRace(t *testing.T) {
	db := utils.OpenTestDB(t)
	post, actor := seedSyncPost(t, db)
	syncer := NewSyncer()

	now := time.Now()
	raced := raceTagCreate(t, db,
		"INSERT INTO tags (id, user_id, name, slug, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		"tag-winner", "someone-else", "Contested", "contested", now, now,
	)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return syncer.SyncTags(tx, post, []AssocInput{{Name: "Contested", Slug: "contested"}}, actor)
	}))
	require.True(t, *raced)

	// The loser adopted the winner's record instead of erroring out.
	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Where("slug = ?", "contested").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var tags []models.Tag
	require.NoError(t, db.Model(post).Association("Tags").Find(&tags))
	require.Len(t, tags, 1)
	assert.Equal(t, "tag-winner", tags[0].ID)
	assert.Equal(t, "someone-else", tags[0].UserID)
}

func TestSyncTopicAdoptsWinnerAfterSlugRace(t *testing.T) {
	db := utils.OpenTestDB(t)
	post, actor := seedSyncPost(t, db)
	syncer := NewSyncer()

	now := time.Now()
	raced := raceTagCreate(t, db,
		"INSERT INTO topics (id, user_id, name, slug, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		"topic-winner", "someone-else", "Contested", "contested", now, now,
	)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return syncer.SyncTopic(tx, post, []AssocInput{{Name: "Contested", Slug: "contested"}}, actor)
	}))
	require.True(t, *raced)

	var topics []models.Topic
	require.NoError(t, db.Model(post).Association("Topic").Find(&topics))
	require.Len(t, topics, 1)
	assert.Equal(t, "topic-winner", topics[0].ID)
}

func TestSyncTopicReplacesSingleAssociation(t *testing.T) {
	db := utils.OpenTestDB(t)
	post, actor := seedSyncPost(t, db)
	syncer := NewSyncer()

	require.NoError(t, syncer.SyncTopic(db, post, []AssocInput{
		{Name: "Engineering", Slug: "eng"},
	}, actor))

	var topics []models.Topic
	require.NoError(t, db.Model(post).Association("Topic").Find(&topics))
	require.Len(t, topics, 1)
	assert.Equal(t, "eng", topics[0].Slug)

	require.NoError(t, syncer.SyncTopic(db, post, []AssocInput{
		{Name: "Design", Slug: "design"},
	}, actor))

	topics = nil
	require.NoError(t, db.Model(post).Association("Topic").Find(&topics))
	require.Len(t, topics, 1)
	assert.Equal(t, "design", topics[0].Slug)

	// Clearing the request detaches the topic entirely.
	require.NoError(t, syncer.SyncTopic(db, post, nil, actor))
	topics = nil
	require.NoError(t, db.Model(post).Association("Topic").Find(&topics))
	assert.Empty(t, topics)
}
