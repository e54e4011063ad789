package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/easelcms/easel/models"
	"github.com/easelcms/easel/utils"
)

// ContextViewedPostKey is set by public read handlers to the id of the post
// that was served, which tells the recorder what to count.
const ContextViewedPostKey = "viewed_post_id"

const (
	sessionCookie = "easel_session"
	sessionTTL    = 24 * time.Hour
)

// TrafficRecorder appends a View row for every successful public post read
// and a Visit row the first time a browsing session reads that post. Both
// writes are best-effort; a failure never affects the response.
func TrafficRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// The cookie must go out before a handler writes the body, so the
		// session is established up front even if this request records nothing.
		sessionID, err := c.Cookie(sessionCookie)
		if err != nil || sessionID == "" {
			sessionID = uuid.NewString()
			c.SetCookie(sessionCookie, sessionID, int(sessionTTL.Seconds()), "/", "", false, true)
		}

		c.Next()

		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		postID := c.GetString(ContextViewedPostKey)
		if postID == "" {
			return
		}

		if err := db.Create(&models.View{PostID: postID}).Error; err != nil {
			if utils.Sugar != nil {
				utils.Sugar.Warnf("record view failed post=%s err=%v", postID, err)
			}
			return
		}

		if utils.MarkVisit(sessionID, postID, sessionTTL) {
			visit := models.Visit{
				PostID:    postID,
				IP:        c.ClientIP(),
				UserAgent: c.Request.UserAgent(),
			}
			if err := db.Create(&visit).Error; err != nil && utils.Sugar != nil {
				utils.Sugar.Warnf("record visit failed post=%s err=%v", postID, err)
			}
		}
	}
}
