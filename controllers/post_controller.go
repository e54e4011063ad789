package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/easelcms/easel/config"
	"github.com/easelcms/easel/middleware"
	"github.com/easelcms/easel/models"
	"github.com/easelcms/easel/services"
	"github.com/easelcms/easel/utils"
)

const viewsCountSelect = "posts.*, (SELECT COUNT(*) FROM views WHERE views.post_id = posts.id) AS views_count"

// PostController manages the post resource: scoped listings, the id-addressed
// create-or-update path, per-post stats, and deletion.
type PostController struct {
	db     *gorm.DB
	cfg    config.AppConfig
	syncer *services.Syncer
	stats  *services.StatsAggregator
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, cfg config.AppConfig) *PostController {
	return &PostController{
		db:     db,
		cfg:    cfg,
		syncer: services.NewSyncer(),
		stats:  services.NewStatsAggregator(db, cfg.Location()),
	}
}

// List returns a paginated post listing filtered by visibility scope and
// publication type, with draft/published counts recomputed under the same
// scope.
func (p *PostController) List(ctx *gin.Context) {
	actor, ok := middleware.Actor(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	scope := ctx.DefaultQuery("scope", services.ScopeUser)
	typ := ctx.DefaultQuery("type", services.TypePublished)
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	visibility := services.VisibleTo(actor, scope)

	var total int64
	if err := p.db.Model(&models.Post{}).
		Scopes(visibility, services.Partition(typ)).
		Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count posts")
		return
	}

	var posts []models.Post
	if err := p.db.Model(&models.Post{}).
		Select(viewsCountSelect).
		Scopes(visibility, services.Partition(typ)).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return
	}

	var draftCount int64
	if err := p.db.Model(&models.Post{}).
		Scopes(visibility, services.Draft()).
		Count(&draftCount).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to count drafts")
		return
	}

	var publishedCount int64
	if err := p.db.Model(&models.Post{}).
		Scopes(visibility, services.Published()).
		Count(&publishedCount).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to count published posts")
		return
	}

	utils.Success(ctx, gin.H{
		"posts":           pagePayload(posts, page, pageSize, total),
		"draft_count":     draftCount,
		"published_count": publishedCount,
	})
}

// New seeds the blank editor form: a fresh client-side id and slug plus the
// full tag/topic collections for the pickers.
func (p *PostController) New(ctx *gin.Context) {
	id := uuid.NewString()

	var tags []models.Tag
	if err := p.db.Select("name", "slug").Find(&tags).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load tags")
		return
	}
	var topics []models.Topic
	if err := p.db.Select("name", "slug").Find(&topics).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load topics")
		return
	}

	utils.Success(ctx, gin.H{
		"post":   models.Post{ID: id, Slug: "post-" + id},
		"tags":   tags,
		"topics": topics,
	})
}

// Store creates or updates the post addressed by the client-supplied id, then
// synchronizes its tag and topic associations, all in one transaction. The
// response carries the reloaded record including associations.
func (p *PostController) Store(ctx *gin.Context) {
	actor, ok := middleware.Actor(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	var req struct {
		Title         string                `json:"title" binding:"required"`
		Summary       string                `json:"summary"`
		Slug          string                `json:"slug" binding:"required"`
		Body          string                `json:"body"`
		FeaturedImage string                `json:"featured_image"`
		PublishedAt   *time.Time            `json:"published_at"`
		Tags          []services.AssocInput `json:"tags"`
		Topic         []services.AssocInput `json:"topic"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	id := ctx.Param("id")

	var post models.Post
	err := p.db.Transaction(func(tx *gorm.DB) error {
		isNew := false
		err := tx.Scopes(services.OwnerRestricted(actor)).First(&post, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			post = models.Post{ID: id}
			isNew = true
		} else if err != nil {
			return err
		}

		post.Title = req.Title
		post.Summary = utils.Sanitize(req.Summary)
		post.Slug = req.Slug
		post.Body = utils.Sanitize(req.Body)
		post.FeaturedImage = req.FeaturedImage
		post.PublishedAt = req.PublishedAt
		// The owner is assigned on first write and never reassigned.
		if post.UserID == "" {
			post.UserID = actor.ID
		}

		// Save would silently update zero rows for a fresh client-minted id.
		if isNew {
			if err := tx.Create(&post).Error; err != nil {
				return err
			}
		} else if err := tx.Save(&post).Error; err != nil {
			return err
		}
		if err := p.syncer.SyncTags(tx, &post, req.Tags, actor); err != nil {
			return err
		}
		return p.syncer.SyncTopic(tx, &post, req.Topic, actor)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusConflict, 40901, "post id or slug already in use")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to save post")
		return
	}

	// Reload so the response reflects the synced association state, not the
	// pre-sync in-memory one.
	var saved models.Post
	if err := p.db.Preload("Tags").Preload("Topic").First(&saved, "id = ?", post.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to reload post")
		return
	}

	utils.Created(ctx, gin.H{"post": saved})
}

// Show returns a single post within the actor's visibility, plus the full
// tag/topic collections for the editor.
func (p *PostController) Show(ctx *gin.Context) {
	actor, ok := middleware.Actor(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}

	var post models.Post
	err := p.db.Scopes(services.OwnerRestricted(actor)).
		Preload("Tags").
		Preload("Topic").
		First(&post, "id = ?", ctx.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to load post")
		return
	}

	var tags []models.Tag
	if err := p.db.Select("name", "slug").Find(&tags).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load tags")
		return
	}
	var topics []models.Topic
	if err := p.db.Select("name", "slug").Find(&topics).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load topics")
		return
	}

	utils.Success(ctx, gin.H{
		"post":   post,
		"tags":   tags,
		"topics": topics,
	})
}

// Stats returns the traffic summary for one published post within the actor's
// visibility.
func (p *PostController) Stats(ctx *gin.Context) {
	actor, ok := middleware.Actor(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}

	var post models.Post
	err := p.db.Scopes(services.OwnerRestricted(actor), services.Published()).
		First(&post, "id = ?", ctx.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load post")
		return
	}

	stats, err := p.stats.StatsForPost(&post, p.cfg.StatsWindowDays)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to compute stats")
		return
	}

	utils.Success(ctx, stats)
}

// Destroy hard-deletes a post together with its association rows and traffic
// records.
func (p *PostController) Destroy(ctx *gin.Context) {
	actor, ok := middleware.Actor(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	var post models.Post
	err := p.db.Scopes(services.OwnerRestricted(actor)).
		First(&post, "id = ?", ctx.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load post")
		return
	}

	err = p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&post).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Model(&post).Association("Topic").Clear(); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.View{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Visit{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to delete post")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// PublicShow serves a published post by slug on the unauthenticated blog
// surface and marks it for the traffic recorder.
func (p *PostController) PublicShow(ctx *gin.Context) {
	var post models.Post
	err := p.db.Scopes(services.Published()).
		Preload("Tags").
		Preload("Topic").
		First(&post, "slug = ?", ctx.Param("slug")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40404, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to load post")
		return
	}

	ctx.Set(middleware.ContextViewedPostKey, post.ID)
	utils.Success(ctx, gin.H{"post": post})
}
