package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/easelcms/easel/config"
	"github.com/easelcms/easel/middleware"
	"github.com/easelcms/easel/models"
	"github.com/easelcms/easel/utils"
)

// AuthController issues and revokes bearer tokens for panel accounts.
type AuthController struct {
	db  *gorm.DB
	cfg config.AppConfig
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB, cfg config.AppConfig) *AuthController {
	return &AuthController{db: db, cfg: cfg}
}

// Login checks email/password credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}

	var user models.User
	err := a.db.First(&user, "email = ?", req.Email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !utils.CheckPassword(user.PasswordHash, req.Password)) {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid credentials")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to load user")
		return
	}

	token, err := utils.GenerateToken(a.cfg, user.ID, a.cfg.TokenTTL())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50054, "failed to issue token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Logout revokes the presented bearer token until its natural expiry.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 {
		token := strings.TrimSpace(parts[1])
		if claims, err := utils.ParseToken(a.cfg, token); err == nil && claims.ExpiresAt != nil {
			utils.RevokeToken(token, claims.ExpiresAt.Time)
		} else {
			utils.RevokeToken(token, time.Now().Add(a.cfg.TokenTTL()))
		}
	}
	utils.Success(ctx, nil)
}

// Me returns the authenticated account.
func (a *AuthController) Me(ctx *gin.Context) {
	actor, ok := middleware.Actor(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40118, "unauthorized")
		return
	}
	utils.Success(ctx, gin.H{"user": actor})
}
