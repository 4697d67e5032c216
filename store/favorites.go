package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/city-guide/api-go/models"
	"gorm.io/gorm"
)

type Favorites struct {
	db *gorm.DB
}

func NewFavorites(db *gorm.DB) *Favorites {
	return &Favorites{db: db}
}

// Toggle adds the listing to the user's favorites, or removes it if it is
// already there. It returns the new state.
func (s *Favorites) Toggle(ctx context.Context, userID, locationID uint) (bool, error) {
	var favorited bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Location{}).Where("id = ?", locationID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}

		var existing models.UserFavorite
		err := tx.Where("user_id = ? AND location_id = ?", userID, locationID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("remove favorite: %w", err)
			}
			favorited = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			fav := models.UserFavorite{UserID: userID, LocationID: locationID}
			if err := tx.Create(&fav).Error; err != nil {
				return fmt.Errorf("add favorite: %w", err)
			}
			favorited = true
		default:
			return err
		}
		return nil
	})
	return favorited, err
}

// List returns the user's favorites, newest first, with their listings.
func (s *Favorites) List(ctx context.Context, userID uint) ([]models.UserFavorite, error) {
	var favorites []models.UserFavorite
	err := s.db.WithContext(ctx).
		Preload("Location").
		Preload("Location.Photos").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favorites).Error
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return favorites, nil
}

func (s *Favorites) IsFavorite(ctx context.Context, userID, locationID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.UserFavorite{}).
		Where("user_id = ? AND location_id = ?", userID, locationID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
