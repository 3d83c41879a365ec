package store

import (
	"context"
	"time"

	"github.com/verdantlabs/greenspace-cli/internal/greenspace"
)

// ExtractionStatus is the lifecycle state of an extraction run.
type ExtractionStatus string

const (
	StatusRunning  ExtractionStatus = "running"
	StatusComplete ExtractionStatus = "complete"
	StatusFailed   ExtractionStatus = "failed"
)

// Extraction is one recorded extraction run for a region.
type Extraction struct {
	ID         string                    `json:"id"`
	Region     string                    `json:"region"`
	SourceFile string                    `json:"source_file"`
	Status     ExtractionStatus          `json:"status"`
	Summary    *greenspace.RegionSummary `json:"summary,omitempty"`
	Error      string                    `json:"error,omitempty"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt *time.Time                `json:"finished_at,omitempty"`
}

// ExtractionFilter specifies criteria for listing extraction runs.
type ExtractionFilter struct {
	Region string           `json:"region,omitempty"`
	Status ExtractionStatus `json:"status,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for extraction runs.
type Store interface {
	CreateExtraction(ctx context.Context, region greenspace.Region) (*Extraction, error)
	CompleteExtraction(ctx context.Context, id string, summary *greenspace.RegionSummary) error
	FailExtraction(ctx context.Context, id string, cause error) error
	GetExtraction(ctx context.Context, id string) (*Extraction, error)
	ListExtractions(ctx context.Context, filter ExtractionFilter) ([]Extraction, error)
	LatestSummary(ctx context.Context, region string) (*greenspace.RegionSummary, error)

	Migrate(ctx context.Context) error
	Close() error
}
