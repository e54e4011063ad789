package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/easelcms/easel/config"
	"github.com/easelcms/easel/controllers"
	"github.com/easelcms/easel/middleware"
	"github.com/easelcms/easel/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, cfg config.AppConfig) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if utils.Logger != nil {
		r.Use(utils.AccessLog(utils.Logger))
		r.Use(utils.Recovery(utils.Logger))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db, cfg)
	postController := controllers.NewPostController(db, cfg)
	userController := controllers.NewUserController(db, cfg)
	statsController := controllers.NewStatsController(db, cfg)
	searchController := controllers.NewSearchController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimit(cfg))
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(db, cfg), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(db, cfg), authController.Me)

	// Public blog surface; reads feed the traffic recorder.
	blog := r.Group("/blog")
	blog.Use(middleware.TrafficRecorder(db))
	blog.GET("/posts/:slug", postController.PublicShow)

	admin := api.Group("")
	admin.Use(middleware.AuthRequired(db, cfg), middleware.RateLimit(cfg))

	admin.GET("/posts", postController.List)
	admin.GET("/posts/new", postController.New)
	admin.POST("/posts/:id", postController.Store)
	admin.GET("/posts/:id", postController.Show)
	admin.GET("/posts/:id/stats", postController.Stats)
	admin.DELETE("/posts/:id", postController.Destroy)

	admin.GET("/stats", statsController.Overview)

	admin.GET("/search/posts", searchController.Posts)
	admin.GET("/search/tags", searchController.Tags)
	admin.GET("/search/topics", searchController.Topics)
	admin.GET("/search/users", searchController.Users)

	admin.GET("/users", userController.List)
	admin.GET("/users/new", userController.New)
	admin.POST("/users/:id", userController.Store)
	admin.GET("/users/:id", userController.Show)
	admin.GET("/users/:id/posts", userController.Posts)
	admin.DELETE("/users/:id", userController.Destroy)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
