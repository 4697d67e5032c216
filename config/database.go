package config

import (
	"fmt"

	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/types"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type DatabaseConfig struct {
	URL      string
	Host     string
	User     string
	Password string
	Name     string
	Port     string
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.User, d.Password, d.Name, d.Port)
}

func ConnectDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// Migrate creates the schema and seeds the fixed category rows.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Category{},
		&models.Location{},
		&models.LocationPhoto{},
		&models.LocationReview{},
		&models.PlaceInfo{},
		&models.Profile{},
		&models.UserFavorite{},
		&models.RefreshToken{},
		&models.ScrapeRun{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	categories := types.DefaultCategories()
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	return nil
}

func InitDB(cfg DatabaseConfig) (*gorm.DB, error) {
	db, err := ConnectDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
