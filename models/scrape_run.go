package models

import (
	"time"

	"gorm.io/datatypes"
)

// Actor run statuses reported by the scraping service.
const (
	RunStatusPending   = "PENDING"
	RunStatusReady     = "READY"
	RunStatusRunning   = "RUNNING"
	RunStatusSucceeded = "SUCCEEDED"
	RunStatusFailed    = "FAILED"
	RunStatusAborted   = "ABORTED"
	RunStatusTimedOut  = "TIMED-OUT"
	RunStatusCancelled = "CANCELLED"
	RunStatusError     = "ERROR"
)

// ScrapeRun records one background scrape job and its outcome.
type ScrapeRun struct {
	ID           uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	RunID        string         `json:"runId" gorm:"uniqueIndex;not null"`
	ActorID      string         `json:"actorId" gorm:"not null"`
	Status       string         `json:"status" gorm:"type:varchar(16);not null"`
	SearchParams datatypes.JSON `json:"searchParams"`
	Attempts     int            `json:"attempts"`
	Processed    int            `json:"processed"`
	Error        string         `json:"error,omitempty" gorm:"type:text"`
	StartedBy    uint           `json:"startedBy"`
	StartedAt    time.Time      `json:"startedAt"`
	FinishedAt   *time.Time     `json:"finishedAt,omitempty"`
}
