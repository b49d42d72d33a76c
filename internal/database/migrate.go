package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pageza/chef-next-door/backend/internal/models"
)

// Models lists every table owned by a direct database backend.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Recipe{},
		&models.RecipeRating{},
	}
}

// AutoMigrate creates or updates the tables for Models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// RunMigrations auto-migrates the schema and then, on postgres, executes the
// SQL files in migrationsDir that have not been applied yet. The SQL files
// carry what gorm cannot express: the recipe count functions and row level
// security policies.
func RunMigrations(db *gorm.DB, migrationsDir string, log logrus.FieldLogger) error {
	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to auto-migrate schema: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		log.WithField("dialect", db.Dialector.Name()).Info("skipping SQL migrations")
		return nil
	}

	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		if os.IsNotExist(err) {
			log.WithField("dir", migrationsDir).Warn("migrations directory not found")
			return nil
		}
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name() < files[j].Name()
	})

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		var count int64
		if err := db.Table("migrations").Where("name = ?", file.Name()).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			log.WithField("migration", file.Name()).Debug("already applied")
			continue
		}

		content, err := os.ReadFile(filepath.Join(migrationsDir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file.Name(), err)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(content)).Error; err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", file.Name(), err)
			}
			if err := tx.Exec("INSERT INTO migrations (name) VALUES (?)", file.Name()).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", file.Name(), err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		log.WithField("migration", file.Name()).Info("applied migration")
	}

	return nil
}
