package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/easelcms/easel/config"
	"github.com/easelcms/easel/middleware"
	"github.com/easelcms/easel/models"
	"github.com/easelcms/easel/utils"
)

const postsCountSelect = "users.*, (SELECT COUNT(*) FROM posts WHERE posts.user_id = users.id) AS posts_count"

// UserController manages panel accounts, including the tombstone-restore path
// on the write endpoint.
type UserController struct {
	db  *gorm.DB
	cfg config.AppConfig
}

// NewUserController creates a new UserController instance.
func NewUserController(db *gorm.DB, cfg config.AppConfig) *UserController {
	return &UserController{db: db, cfg: cfg}
}

// List returns a paginated account listing, newest first, with post counts.
func (u *UserController) List(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var total int64
	if err := u.db.Model(&models.User{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to count users")
		return
	}

	var users []models.User
	if err := u.db.Model(&models.User{}).
		Select(postsCountSelect).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to list users")
		return
	}

	utils.Success(ctx, pagePayload(users, page, pageSize, total))
}

// New seeds the blank account form with a fresh id and the default role.
func (u *UserController) New(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"user": models.User{ID: uuid.NewString(), Role: models.RoleContributor},
	})
}

// Store creates or updates the account addressed by the client-supplied id.
// When the id is unknown but a soft-deleted account holds the requested
// email, that account is restored instead of creating a duplicate.
func (u *UserController) Store(ctx *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password"`
		Role     int    `json:"role"`
		Avatar   string `json:"avatar"`
		Locale   string `json:"locale"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	id := ctx.Param("id")

	var user models.User
	isNew := false
	err := u.db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var trashed models.User
		err := u.db.Unscoped().
			Where("email = ? AND deleted_at IS NOT NULL", req.Email).
			First(&trashed).Error
		if err == nil {
			if err := u.db.Unscoped().Model(&trashed).Update("deleted_at", nil).Error; err != nil {
				utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to restore user")
				return
			}
			var restored models.User
			if err := u.db.First(&restored, "id = ?", trashed.ID).Error; err != nil {
				utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to restore user")
				return
			}
			utils.Created(ctx, gin.H{"user": restored})
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load user")
			return
		}
		user = models.User{ID: id}
		isNew = true
	} else if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load user")
		return
	}

	user.Name = req.Name
	user.Email = req.Email
	user.Avatar = req.Avatar
	user.Locale = u.cfg.LocaleOrFallback(req.Locale)
	if req.Role != 0 {
		user.Role = req.Role
	}
	if user.Role == 0 {
		user.Role = models.RoleContributor
	}

	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to hash password")
			return
		}
		user.PasswordHash = hash
	}

	// Save would silently update zero rows for a fresh client-minted id.
	var saveErr error
	if isNew {
		saveErr = u.db.Create(&user).Error
	} else {
		saveErr = u.db.Save(&user).Error
	}
	if err := saveErr; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusConflict, 40902, "email already in use")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to save user")
		return
	}

	utils.Created(ctx, gin.H{"user": user})
}

// Show returns a single account with its post count, or an explicit 404
// without treating the miss as a hard failure.
func (u *UserController) Show(ctx *gin.Context) {
	var user models.User
	err := u.db.Model(&models.User{}).
		Select(postsCountSelect).
		First(&user, "id = ?", ctx.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50046, "failed to load user")
		return
	}

	utils.Success(ctx, gin.H{"user": user})
}

// Posts returns a paginated listing of one account's posts with view counts.
// An unknown id answers 200 with a null body, matching the soft lookup
// semantics of the account form.
func (u *UserController) Posts(ctx *gin.Context) {
	id := ctx.Param("id")

	var user models.User
	err := u.db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Success(ctx, nil)
		return
	} else if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50047, "failed to load user")
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var total int64
	if err := u.db.Model(&models.Post{}).Where("user_id = ?", id).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50048, "failed to count posts")
		return
	}

	var posts []models.Post
	if err := u.db.Model(&models.Post{}).
		Select(viewsCountSelect).
		Where("user_id = ?", id).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50049, "failed to list posts")
		return
	}

	utils.Success(ctx, pagePayload(posts, page, pageSize, total))
}

// Destroy soft-deletes an account. Self-deletion is always forbidden,
// regardless of role.
func (u *UserController) Destroy(ctx *gin.Context) {
	actor, ok := middleware.Actor(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40115, "unauthorized")
		return
	}

	id := ctx.Param("id")
	if actor.ID == id {
		utils.Error(ctx, http.StatusForbidden, 40310, "cannot delete your own account")
		return
	}

	var user models.User
	err := u.db.First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40411, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load user")
		return
	}

	if err := u.db.Delete(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to delete user")
		return
	}

	ctx.Status(http.StatusNoContent)
}
