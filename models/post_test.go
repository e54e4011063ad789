package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsPublished(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	assert.False(t, (&Post{PublishedAt: nil}).IsPublished())
	assert.False(t, (&Post{PublishedAt: &future}).IsPublished())
	assert.True(t, (&Post{PublishedAt: &past}).IsPublished())
}

func TestUserRoles(t *testing.T) {
	assert.True(t, (&User{Role: RoleContributor}).IsContributor())
	assert.False(t, (&User{Role: RoleEditor}).IsContributor())
	assert.False(t, (&User{Role: RoleAdmin}).IsContributor())
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
}
