package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/easelcms/easel/config"
	"github.com/easelcms/easel/middleware"
	"github.com/easelcms/easel/models"
)

func testConfig() config.AppConfig {
	return config.AppConfig{
		Timezone:         "UTC",
		StatsWindowDays:  30,
		AvailableLocales: []string{"en", "de"},
		FallbackLocale:   "en",
		TokenTTLMinutes:  60,
	}
}

// testRouter wires the controllers behind a stub auth layer that injects the
// given actor directly, so handler behavior is tested without JWT plumbing.
func testRouter(db *gorm.DB, actor *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if actor != nil {
			c.Set(middleware.ContextActorKey, actor)
		}
		c.Next()
	})

	postController := NewPostController(db, cfg)
	userController := NewUserController(db, cfg)
	statsController := NewStatsController(db, cfg)
	searchController := NewSearchController(db)

	r.GET("/posts", postController.List)
	r.GET("/posts/new", postController.New)
	r.POST("/posts/:id", postController.Store)
	r.GET("/posts/:id", postController.Show)
	r.GET("/posts/:id/stats", postController.Stats)
	r.DELETE("/posts/:id", postController.Destroy)

	r.GET("/stats", statsController.Overview)

	r.GET("/search/posts", searchController.Posts)
	r.GET("/search/tags", searchController.Tags)
	r.GET("/search/topics", searchController.Topics)
	r.GET("/search/users", searchController.Users)

	r.GET("/users", userController.List)
	r.GET("/users/new", userController.New)
	r.POST("/users/:id", userController.Store)
	r.GET("/users/:id", userController.Show)
	r.GET("/users/:id/posts", userController.Posts)
	r.DELETE("/users/:id", userController.Destroy)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
}

func createActor(t *testing.T, db *gorm.DB, id string, role int) *models.User {
	t.Helper()
	actor := &models.User{ID: id, Name: "User " + id, Email: id + "@example.com", Role: role}
	require.NoError(t, db.Create(actor).Error)
	return actor
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "body: %s", w.Body.String())
}
