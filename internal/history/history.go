// Package history defines persistent storage of finished analyses.
package history

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("analysis record not found")

// AnalysisRecord is one persisted analysis run. AnalysisResult holds the
// full result document as JSON.
type AnalysisRecord struct {
	ID             string
	URL            string
	Timestamp      time.Time
	AnalysisResult []byte
	Status         string
	SEOScore       int
	UseAI          bool
}

// Summary is the listing row: everything but the result document.
type Summary struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	SEOScore  int       `json:"seo_score"`
	UseAI     bool      `json:"use_ai"`
}

// Stats aggregates the stored records.
type Stats struct {
	Total      int     `json:"total_analyses"`
	Successful int     `json:"successful_analyses"`
	Failed     int     `json:"failed_analyses"`
	AvgScore   float64 `json:"average_score"`
	Today      int     `json:"today_analyses"`
}

// Store persists analysis records.
type Store interface {
	Save(ctx context.Context, record AnalysisRecord) error
	Get(ctx context.Context, id string) (AnalysisRecord, error)
	List(ctx context.Context, limit int) ([]Summary, error)
	Stats(ctx context.Context) (Stats, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	Close() error
}
