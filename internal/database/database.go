package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"jobpilot/internal/config"
)

// InitDatabase opens the PostgreSQL connection and returns a GORM handle.
func InitDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap db: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Migrate runs auto-migration for every model the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Profile{},
		&Skill{},
		&UserSkill{},
		&Resume{},
		&ChatMessage{},
		&SavedJob{},
	)
}

// SeedSkillCatalog inserts the built-in skill catalog if it is empty.
// The catalog is reference data; rows are never mutated afterwards.
func SeedSkillCatalog(db *gorm.DB) error {
	var count int64
	if err := db.Model(&Skill{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count skills: %w", err)
	}
	if count > 0 {
		return nil
	}

	seed := []Skill{
		{Name: "Python", Category: "programming"},
		{Name: "Go", Category: "programming"},
		{Name: "JavaScript", Category: "programming"},
		{Name: "TypeScript", Category: "programming"},
		{Name: "SQL", Category: "data"},
		{Name: "Data Analysis", Category: "data"},
		{Name: "Machine Learning", Category: "data"},
		{Name: "React", Category: "frontend"},
		{Name: "Node.js", Category: "backend"},
		{Name: "Docker", Category: "devops"},
		{Name: "Kubernetes", Category: "devops"},
		{Name: "AWS", Category: "cloud"},
		{Name: "Project Management", Category: "soft"},
		{Name: "Communication", Category: "soft"},
		{Name: "Leadership", Category: "soft"},
	}
	if err := db.Create(&seed).Error; err != nil {
		return fmt.Errorf("seed skills: %w", err)
	}
	return nil
}
