// Package memory provides an in-memory history store for development and
// testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/seoscout/seoscout/internal/history"
)

// Store keeps analysis records in a map.
type Store struct {
	mu      sync.RWMutex
	records map[string]history.AnalysisRecord
}

var _ history.Store = (*Store)(nil)

// New constructs a Store.
func New() *Store {
	return &Store{
		records: make(map[string]history.AnalysisRecord),
	}
}

// Save inserts or replaces a record.
func (s *Store) Save(_ context.Context, record history.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.AnalysisResult = append([]byte(nil), record.AnalysisResult...)
	s.records[record.ID] = record
	return nil
}

// Get fetches a record by id.
func (s *Store) Get(_ context.Context, id string) (history.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return history.AnalysisRecord{}, history.ErrNotFound
	}
	record.AnalysisResult = append([]byte(nil), record.AnalysisResult...)
	return record, nil
}

// List returns summaries newest first, up to limit. A limit <= 0 returns
// everything.
func (s *Store) List(_ context.Context, limit int) ([]history.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]history.Summary, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, history.Summary{
			ID:        record.ID,
			URL:       record.URL,
			Timestamp: record.Timestamp,
			Status:    record.Status,
			SEOScore:  record.SEOScore,
			UseAI:     record.UseAI,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Stats aggregates over all records.
func (s *Store) Stats(_ context.Context) (history.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats history.Stats
	var scoreSum int
	for _, record := range s.records {
		stats.Total++
		if record.Status == "completed" {
			stats.Successful++
			scoreSum += record.SEOScore
		} else {
			stats.Failed++
		}
	}
	if stats.Successful > 0 {
		stats.AvgScore = float64(scoreSum) / float64(stats.Successful)
	}
	today := time.Now().UTC()
	for _, record := range s.records {
		if sameDay(record.Timestamp, today) {
			stats.Today++
		}
	}
	return stats, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// Delete removes one record.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return history.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// DeleteAll clears the store.
func (s *Store) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]history.AnalysisRecord)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
