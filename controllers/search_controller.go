package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/easelcms/easel/middleware"
	"github.com/easelcms/easel/services"
	"github.com/easelcms/easel/utils"
)

// SearchController exposes the flattened quick-search rows.
type SearchController struct {
	index *services.SearchIndex
}

// NewSearchController creates a new SearchController instance.
func NewSearchController(db *gorm.DB) *SearchController {
	return &SearchController{index: services.NewSearchIndex(db)}
}

// Posts returns post search rows scoped to the actor.
func (s *SearchController) Posts(ctx *gin.Context) {
	actor, ok := middleware.Actor(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40117, "unauthorized")
		return
	}

	results, err := s.index.Posts(actor)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50037, "failed to search posts")
		return
	}
	utils.Success(ctx, results)
}

// Tags returns tag search rows.
func (s *SearchController) Tags(ctx *gin.Context) {
	results, err := s.index.Tags()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50038, "failed to search tags")
		return
	}
	utils.Success(ctx, results)
}

// Topics returns topic search rows.
func (s *SearchController) Topics(ctx *gin.Context) {
	results, err := s.index.Topics()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50039, "failed to search topics")
		return
	}
	utils.Success(ctx, results)
}

// Users returns user search rows.
func (s *SearchController) Users(ctx *gin.Context) {
	results, err := s.index.Users()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to search users")
		return
	}
	utils.Success(ctx, results)
}
