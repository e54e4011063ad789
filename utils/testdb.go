package utils

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/easelcms/easel/models"
)

// OpenTestDB opens a fresh in-memory sqlite database with the full schema
// migrated. Intended for _test.go files only.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Parts of the stack reach config.Get lazily (redis fallback paths);
	// keep Load from fataling inside tests.
	t.Setenv("JWT_SECRET", "test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	// A second pool connection would see its own empty :memory: database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Tag{},
		&models.Topic{},
		&models.View{},
		&models.Visit{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return db
}
