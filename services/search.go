package services

import (
	"gorm.io/gorm"

	"github.com/easelcms/easel/models"
)

// SearchResult is the uniform row shape the admin UI's quick search consumes:
// every entity kind flattens to an id, a display name, a kind tag, and a
// client-side routing hint.
type SearchResult struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Route string `json:"route"`
}

// SearchIndex projects posts, tags, topics, and users into SearchResult rows.
// Only posts are owner-scoped; the other kinds are global in this view.
type SearchIndex struct {
	db *gorm.DB
}

// NewSearchIndex creates a SearchIndex.
func NewSearchIndex(db *gorm.DB) *SearchIndex {
	return &SearchIndex{db: db}
}

// Posts returns post rows visible to the actor, newest first.
func (s *SearchIndex) Posts(actor *models.User) ([]SearchResult, error) {
	var posts []models.Post
	if err := s.db.Select("id", "title", "created_at").
		Scopes(OwnerRestricted(actor)).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		return nil, err
	}

	results := make([]SearchResult, len(posts))
	for i := range posts {
		results[i] = searchRowFromPost(&posts[i])
	}
	return results, nil
}

// Tags returns all tag rows, newest first.
func (s *SearchIndex) Tags() ([]SearchResult, error) {
	var tags []models.Tag
	if err := s.db.Select("id", "name", "created_at").
		Order("created_at DESC").
		Find(&tags).Error; err != nil {
		return nil, err
	}

	results := make([]SearchResult, len(tags))
	for i := range tags {
		results[i] = searchRowFromTag(&tags[i])
	}
	return results, nil
}

// Topics returns all topic rows, newest first.
func (s *SearchIndex) Topics() ([]SearchResult, error) {
	var topics []models.Topic
	if err := s.db.Select("id", "name", "created_at").
		Order("created_at DESC").
		Find(&topics).Error; err != nil {
		return nil, err
	}

	results := make([]SearchResult, len(topics))
	for i := range topics {
		results[i] = searchRowFromTopic(&topics[i])
	}
	return results, nil
}

// Users returns all user rows, newest first.
func (s *SearchIndex) Users() ([]SearchResult, error) {
	var users []models.User
	if err := s.db.Select("id", "name", "created_at").
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, err
	}

	results := make([]SearchResult, len(users))
	for i := range users {
		results[i] = searchRowFromUser(&users[i])
	}
	return results, nil
}

func searchRowFromPost(p *models.Post) SearchResult {
	return SearchResult{ID: p.ID, Name: p.Title, Type: "Post", Route: "edit-post"}
}

func searchRowFromTag(t *models.Tag) SearchResult {
	return SearchResult{ID: t.ID, Name: t.Name, Type: "Tag", Route: "edit-tag"}
}

func searchRowFromTopic(t *models.Topic) SearchResult {
	return SearchResult{ID: t.ID, Name: t.Name, Type: "Topic", Route: "edit-topic"}
}

func searchRowFromUser(u *models.User) SearchResult {
	return SearchResult{ID: u.ID, Name: u.Name, Type: "User", Route: "edit-user"}
}
