package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/easelcms/easel/config"
	"github.com/easelcms/easel/models"
	"github.com/easelcms/easel/utils"
)

// ContextActorKey is the key used to store the authenticated account in the
// Gin context.
const ContextActorKey = "actor"

// AuthRequired ensures the request is authenticated via JWT and loads the
// actor's current record, so role changes and soft deletes take effect
// immediately rather than at token expiry.
func AuthRequired(db *gorm.DB, cfg config.AppConfig) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
			ctx.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
			ctx.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
			ctx.Abort()
			return
		}

		if utils.IsTokenRevoked(tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(cfg, tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		var actor models.User
		if err := db.First(&actor, "id = ?", claims.UserID).Error; err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40106, "unknown account")
			ctx.Abort()
			return
		}

		ctx.Set(ContextActorKey, &actor)
		ctx.Next()
	}
}

// Actor returns the authenticated account stored by AuthRequired.
func Actor(ctx *gin.Context) (*models.User, bool) {
	value, exists := ctx.Get(ContextActorKey)
	if !exists {
		return nil, false
	}
	actor, ok := value.(*models.User)
	return actor, ok
}
