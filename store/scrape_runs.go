package store

import (
	"context"
	"fmt"

	"github.com/city-guide/api-go/models"
	"gorm.io/gorm"
)

type ScrapeRuns struct {
	db *gorm.DB
}

func NewScrapeRuns(db *gorm.DB) *ScrapeRuns {
	return &ScrapeRuns{db: db}
}

func (s *ScrapeRuns) Create(ctx context.Context, run *models.ScrapeRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("create scrape run: %w", err)
	}
	return nil
}

func (s *ScrapeRuns) Update(ctx context.Context, run *models.ScrapeRun) error {
	if err := s.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("update scrape run %s: %w", run.RunID, err)
	}
	return nil
}

func (s *ScrapeRuns) Get(ctx context.Context, runID string) (*models.ScrapeRun, error) {
	var run models.ScrapeRun
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error; err != nil {
		return nil, notFound(err)
	}
	return &run, nil
}

// List returns the most recent runs first.
func (s *ScrapeRuns) List(ctx context.Context, limit int) ([]models.ScrapeRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.ScrapeRun
	if err := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list scrape runs: %w", err)
	}
	return runs, nil
}
