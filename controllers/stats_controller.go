package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/easelcms/easel/config"
	"github.com/easelcms/easel/middleware"
	"github.com/easelcms/easel/models"
	"github.com/easelcms/easel/services"
	"github.com/easelcms/easel/utils"
)

// StatsController serves the cross-post traffic overview.
type StatsController struct {
	db    *gorm.DB
	cfg   config.AppConfig
	stats *services.StatsAggregator
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB, cfg config.AppConfig) *StatsController {
	return &StatsController{
		db:    db,
		cfg:   cfg,
		stats: services.NewStatsAggregator(db, cfg.Location()),
	}
}

// Overview aggregates views and visits across all published posts visible to
// the actor under the requested scope.
func (s *StatsController) Overview(ctx *gin.Context) {
	actor, ok := middleware.Actor(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40116, "unauthorized")
		return
	}

	scope := ctx.DefaultQuery("scope", services.ScopeUser)

	var posts []*models.Post
	if err := s.db.Model(&models.Post{}).
		Scopes(services.VisibleTo(actor, scope), services.Published()).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to load posts")
		return
	}

	results, err := s.stats.StatsForPosts(posts, s.cfg.StatsWindowDays)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to compute stats")
		return
	}

	utils.Success(ctx, results)
}
