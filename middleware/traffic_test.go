package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easelcms/easel/models"
	"github.com/easelcms/easel/utils"
)

func trafficTestRouter(t *testing.T) (*gin.Engine, func() (int64, int64)) {
	t.Helper()
	db := utils.OpenTestDB(t)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TrafficRecorder(db))
	r.GET("/blog/posts/:slug", func(c *gin.Context) {
		if c.Param("slug") == "missing" {
			c.Status(http.StatusNotFound)
			return
		}
		c.Set(ContextViewedPostKey, "post-1")
		c.Status(http.StatusOK)
	})

	counts := func() (int64, int64) {
		var views, visits int64
		require.NoError(t, db.Model(&models.View{}).Count(&views).Error)
		require.NoError(t, db.Model(&models.Visit{}).Count(&visits).Error)
		return views, visits
	}
	return r, counts
}

func get(r *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTrafficRecorderCountsViewsPerRequest(t *testing.T) {
	r, counts := trafficTestRouter(t)

	w := get(r, "/blog/posts/hello", nil)
	require.Equal(t, http.StatusOK, w.Code)

	views, visits := counts()
	assert.EqualValues(t, 1, views)
	assert.EqualValues(t, 1, visits)
}

func TestTrafficRecorderDeduplicatesVisitsPerSession(t *testing.T) {
	r, counts := trafficTestRouter(t)

	w := get(r, "/blog/posts/hello", nil)
	require.Equal(t, http.StatusOK, w.Code)
	session := w.Result().Cookies()

	// Same session reads again: another view, no new visit.
	get(r, "/blog/posts/hello", session)

	views, visits := counts()
	assert.EqualValues(t, 2, views)
	assert.EqualValues(t, 1, visits)

	// A different session counts as a fresh visit.
	get(r, "/blog/posts/hello", nil)
	views, visits = counts()
	assert.EqualValues(t, 3, views)
	assert.EqualValues(t, 2, visits)
}

func TestTrafficRecorderSkipsMisses(t *testing.T) {
	r, counts := trafficTestRouter(t)

	w := get(r, "/blog/posts/missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	views, visits := counts()
	assert.Zero(t, views)
	assert.Zero(t, visits)
}
