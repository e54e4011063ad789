package main

import (
	"github.com/easelcms/easel/config"
	"github.com/easelcms/easel/models"
	"github.com/easelcms/easel/routes"
	"github.com/easelcms/easel/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Post{},
		&models.Tag{},
		&models.Topic{},
		&models.View{},
		&models.Visit{},
	)

	r := routes.SetupRouter(db, cfg)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
