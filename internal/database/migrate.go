package database

import (
	"fmt"
	"io/fs"

	"github.com/kentavrex/topfit/internal/models"
	"github.com/kentavrex/topfit/migrations"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RunMigrations applies every pending SQL migration from fsys. SQLite, used
// in tests, gets GORM auto-migration instead.
func RunMigrations(db *gorm.DB, fsys fs.FS, log *zap.Logger) error {
	if db.Dialector.Name() == "sqlite" {
		log.Debug("using GORM auto-migration for SQLite")
		return db.AutoMigrate(models.All()...)
	}

	files, err := migrations.Up(fsys)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, name := range files {
		var count int64
		if err := db.Table("migrations").Where("name = ?", name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			log.Debug("skipping migration", zap.String("name", name))
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(content)).Error; err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", name, err)
			}
			if err := tx.Exec("INSERT INTO migrations (name) VALUES (?)", name).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", name, err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		log.Info("applied migration", zap.String("name", name))
	}

	return nil
}
