package store

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/city-guide/api-go/models"
	"github.com/city-guide/api-go/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ratingScale is the maximum rating each source reports.
var ratingScale = map[string]float64{
	models.SourceGoogle:      5,
	models.SourceBooking:     10,
	models.SourceTripadvisor: 5,
}

// CompositeScore averages the source ratings on a 5-point scale, rounded to
// one decimal. Without any rated source the fallback is returned.
func CompositeScore(infos []models.PlaceInfo, fallback *float64) *float64 {
	var sum float64
	var n int
	for _, info := range infos {
		if info.Rating == nil {
			continue
		}
		scale, ok := ratingScale[info.Source]
		if !ok {
			scale = 5
		}
		sum += *info.Rating / scale * 5
		n++
	}
	if n == 0 {
		return fallback
	}
	score := math.Round(sum/float64(n)*10) / 10
	return &score
}

type PlaceInfos struct {
	db *gorm.DB
}

func NewPlaceInfos(db *gorm.DB) *PlaceInfos {
	return &PlaceInfos{db: db}
}

func (s *PlaceInfos) ListForLocation(ctx context.Context, locationID uint) ([]models.PlaceInfo, error) {
	var infos []models.PlaceInfo
	err := s.db.WithContext(ctx).Where("location_id = ?", locationID).Order("source").Find(&infos).Error
	if err != nil {
		return nil, fmt.Errorf("list place info: %w", err)
	}
	return infos, nil
}

// Upsert stores the info for (location, source), replacing any existing row,
// and refreshes the listing's composite score.
func (s *PlaceInfos) Upsert(ctx context.Context, info *models.PlaceInfo) error {
	if _, ok := ratingScale[info.Source]; !ok {
		return types.NewValidationError("source", "must be one of google, booking, tripadvisor")
	}
	if info.Rating != nil && (*info.Rating < 0 || *info.Rating > ratingScale[info.Source]) {
		return types.NewValidationError("rating", "must be between 0 and %g for %s", ratingScale[info.Source], info.Source)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loc models.Location
		if err := tx.Select("id", "rating").First(&loc, info.LocationID).Error; err != nil {
			return notFound(err)
		}

		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "location_id"}, {Name: "source"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"rating", "review_count", "price_level", "amenities",
				"check_in_time", "check_out_time", "neighborhood", "updated_at",
			}),
		}).Create(info).Error
		if err != nil {
			return fmt.Errorf("upsert place info: %w", err)
		}

		var stored models.PlaceInfo
		if err := tx.Where("location_id = ? AND source = ?", info.LocationID, info.Source).First(&stored).Error; err != nil {
			return err
		}
		*info = stored
		return refreshComposite(tx, &loc)
	})
}

// Delete removes one source row and returns the id of its listing.
func (s *PlaceInfos) Delete(ctx context.Context, id uint) (uint, error) {
	var info models.PlaceInfo
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&info, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Delete(&info).Error; err != nil {
			return err
		}
		var loc models.Location
		if err := tx.Select("id", "rating").First(&loc, info.LocationID).Error; err != nil {
			return notFound(err)
		}
		return refreshComposite(tx, &loc)
	})
	if err != nil {
		return 0, err
	}
	return info.LocationID, nil
}

// Summary aggregates the sources of a listing: composite score and the
// sorted union of amenities.
func (s *PlaceInfos) Summary(ctx context.Context, locationID uint) (*types.PlaceInfoSummary, error) {
	var loc models.Location
	if err := s.db.WithContext(ctx).Select("id", "rating").First(&loc, locationID).Error; err != nil {
		return nil, notFound(err)
	}
	infos, err := s.ListForLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}

	summary := &types.PlaceInfoSummary{
		LocationID: locationID,
		Amenities:  []string{},
		Sources:    infos,
	}
	if score := CompositeScore(infos, loc.Rating); score != nil {
		summary.CompositeScore = *score
	}

	seen := map[string]bool{}
	for _, info := range infos {
		for _, a := range info.Amenities {
			if !seen[a] {
				seen[a] = true
				summary.Amenities = append(summary.Amenities, a)
			}
		}
	}
	sort.Strings(summary.Amenities)
	return summary, nil
}

// refreshComposite recomputes the stored composite score of loc from its
// sources, falling back to loc.Rating, and sets it on loc as well.
func refreshComposite(tx *gorm.DB, loc *models.Location) error {
	var infos []models.PlaceInfo
	if err := tx.Where("location_id = ?", loc.ID).Find(&infos).Error; err != nil {
		return err
	}
	score := CompositeScore(infos, loc.Rating)
	if err := tx.Model(&models.Location{}).Where("id = ?", loc.ID).Update("composite_score", score).Error; err != nil {
		return fmt.Errorf("refresh composite score: %w", err)
	}
	loc.CompositeScore = score
	return nil
}
