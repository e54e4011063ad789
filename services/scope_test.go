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

func seedScopePosts(t *testing.T, db *gorm.DB) (contributor, admin *models.User) {
	t.Helper()

	contributor = &models.User{ID: "u-contrib", Name: "Contrib", Email: "c@example.com", Role: models.RoleContributor}
	admin = &models.User{ID: "u-admin", Name: "Admin", Email: "a@example.com", Role: models.RoleAdmin}
	require.NoError(t, db.Create(contributor).Error)
	require.NoError(t, db.Create(admin).Error)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	posts := []models.Post{
		{ID: "p1", UserID: contributor.ID, Slug: "p1", Title: "contrib published", PublishedAt: &past},
		{ID: "p2", UserID: contributor.ID, Slug: "p2", Title: "contrib draft"},
		{ID: "p3", UserID: admin.ID, Slug: "p3", Title: "admin published", PublishedAt: &past},
		{ID: "p4", UserID: admin.ID, Slug: "p4", Title: "admin scheduled", PublishedAt: &future},
	}
	for i := range posts {
		require.NoError(t, db.Create(&posts[i]).Error)
	}
	return contributor, admin
}

func queryIDs(t *testing.T, db *gorm.DB, scopes ...func(*gorm.DB) *gorm.DB) []string {
	t.Helper()
	var ids []string
	require.NoError(t, db.Model(&models.Post{}).Scopes(scopes...).Order("id").Pluck("id", &ids).Error)
	return ids
}

func TestVisibleToContributorIgnoresScopeParam(t *testing.T) {
	db := utils.OpenTestDB(t)
	contributor, _ := seedScopePosts(t, db)

	for _, scope := range []string{ScopeUser, ScopeAll, "", "bogus"} {
		ids := queryIDs(t, db, VisibleTo(contributor, scope))
		assert.Equal(t, []string{"p1", "p2"}, ids, "scope=%q", scope)
	}
}

func TestVisibleToAdminWidensOnlyOnExplicitAll(t *testing.T) {
	db := utils.OpenTestDB(t)
	_, admin := seedScopePosts(t, db)

	assert.Equal(t, []string{"p3", "p4"}, queryIDs(t, db, VisibleTo(admin, ScopeUser)))
	assert.Equal(t, []string{"p3", "p4"}, queryIDs(t, db, VisibleTo(admin, "")))
	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, queryIDs(t, db, VisibleTo(admin, ScopeAll)))
}

func TestOwnerRestricted(t *testing.T) {
	db := utils.OpenTestDB(t)
	contributor, admin := seedScopePosts(t, db)

	assert.Equal(t, []string{"p1", "p2"}, queryIDs(t, db, OwnerRestricted(contributor)))
	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, queryIDs(t, db, OwnerRestricted(admin)))
}

func TestPublicationPartition(t *testing.T) {
	db := utils.OpenTestDB(t)
	seedScopePosts(t, db)

	// A future publish timestamp still counts as a draft.
	assert.Equal(t, []string{"p1", "p3"}, queryIDs(t, db, Published()))
	assert.Equal(t, []string{"p2", "p4"}, queryIDs(t, db, Draft()))

	assert.Equal(t, []string{"p2", "p4"}, queryIDs(t, db, Partition(TypeDraft)))
	assert.Equal(t, []string{"p1", "p3"}, queryIDs(t, db, Partition(TypePublished)))
	assert.Equal(t, []string{"p1", "p3"}, queryIDs(t, db, Partition("anything-else")))
}
