// Package store is the data-access layer. A Store is constructed once in
// main and handed to every controller; nothing in here is package-global.
package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrSlugTaken = errors.New("slug already in use")
)

type Store struct {
	DB         *gorm.DB
	Locations  *Locations
	PlaceInfos *PlaceInfos
	Favorites  *Favorites
	Profiles   *Profiles
	ScrapeRuns *ScrapeRuns
}

func New(db *gorm.DB) *Store {
	return &Store{
		DB:         db,
		Locations:  NewLocations(db),
		PlaceInfos: NewPlaceInfos(db),
		Favorites:  NewFavorites(db),
		Profiles:   NewProfiles(db),
		ScrapeRuns: NewScrapeRuns(db),
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
