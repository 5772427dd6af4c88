// Package sqlite provides a file-backed history store using modernc.org's
// CGO-free sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/seoscout/seoscout/internal/history"
	"github.com/seoscout/seoscout/internal/seo"
)

// Store persists analysis records in a sqlite database file.
type Store struct {
	db    *sql.DB
	clock seo.Clock
}

var _ history.Store = (*Store)(nil)

const createTable = `
CREATE TABLE IF NOT EXISTS analyses (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	analysis_result TEXT NOT NULL
)`

// migrationColumns are added to tables created by older versions. PRAGMA
// table_info tells us which ones already exist, so the migration is safe to
// run on every start.
var migrationColumns = []struct {
	name string
	ddl  string
}{
	{"status", `ALTER TABLE analyses ADD COLUMN status TEXT NOT NULL DEFAULT 'completed'`},
	{"seo_score", `ALTER TABLE analyses ADD COLUMN seo_score INTEGER NOT NULL DEFAULT 0`},
	{"use_ai", `ALTER TABLE analyses ADD COLUMN use_ai INTEGER NOT NULL DEFAULT 1`},
}

// Open opens (creating if needed) the database at path and runs migrations.
func Open(ctx context.Context, path string, clock seo.Clock) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent pollers
	db.SetMaxOpenConns(1)

	s := &Store{db: db, clock: clock}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create analyses table: %w", err)
	}

	existing, err := s.columnNames(ctx)
	if err != nil {
		return err
	}
	for _, col := range migrationColumns {
		if existing[col.name] {
			continue
		}
		if _, err := s.db.ExecContext(ctx, col.ddl); err != nil {
			return fmt.Errorf("add column %s: %w", col.name, err)
		}
	}
	return nil
}

func (s *Store) columnNames(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `PRAGMA table_info(analyses)`)
	if err != nil {
		return nil, fmt.Errorf("read table info: %w", err)
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		names[name] = true
	}
	return names, rows.Err()
}

// Save inserts or replaces a record.
func (s *Store) Save(ctx context.Context, record history.AnalysisRecord) error {
	const query = `
INSERT OR REPLACE INTO analyses (id, url, timestamp, analysis_result, status, seo_score, use_ai)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.URL,
		record.Timestamp.UTC().Format(time.RFC3339),
		string(record.AnalysisResult),
		record.Status,
		record.SEOScore,
		boolToInt(record.UseAI),
	)
	if err != nil {
		return fmt.Errorf("save analysis record: %w", err)
	}
	return nil
}

// Get fetches a record by id.
func (s *Store) Get(ctx context.Context, id string) (history.AnalysisRecord, error) {
	const query = `
SELECT id, url, timestamp, analysis_result, status, seo_score, use_ai
FROM analyses WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)

	var (
		record history.AnalysisRecord
		ts     string
		result string
		useAI  int
	)
	err := row.Scan(&record.ID, &record.URL, &ts, &result, &record.Status, &record.SEOScore, &useAI)
	if errors.Is(err, sql.ErrNoRows) {
		return history.AnalysisRecord{}, history.ErrNotFound
	}
	if err != nil {
		return history.AnalysisRecord{}, fmt.Errorf("get analysis record: %w", err)
	}
	record.Timestamp = parseTimestamp(ts)
	record.AnalysisResult = []byte(result)
	record.UseAI = useAI != 0
	return record, nil
}

// List returns summaries newest first, up to limit. A limit <= 0 returns
// everything.
func (s *Store) List(ctx context.Context, limit int) ([]history.Summary, error) {
	query := `
SELECT id, url, timestamp, status, seo_score, use_ai
FROM analyses ORDER BY timestamp DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list analysis records: %w", err)
	}
	defer rows.Close()

	var out []history.Summary
	for rows.Next() {
		var (
			summary history.Summary
			ts      string
			useAI   int
		)
		if err := rows.Scan(&summary.ID, &summary.URL, &ts, &summary.Status, &summary.SEOScore, &useAI); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		summary.Timestamp = parseTimestamp(ts)
		summary.UseAI = useAI != 0
		out = append(out, summary)
	}
	return out, rows.Err()
}

// Stats aggregates the stored records.
func (s *Store) Stats(ctx context.Context) (history.Stats, error) {
	const query = `
SELECT
	COUNT(*),
	COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN status != 'completed' THEN 1 ELSE 0 END), 0),
	COALESCE(AVG(CASE WHEN status = 'completed' THEN seo_score END), 0),
	COALESCE(SUM(CASE WHEN timestamp >= ? THEN 1 ELSE 0 END), 0)
FROM analyses`

	dayStart := s.clock.Now().UTC().Truncate(24 * time.Hour).Format(time.RFC3339)
	var stats history.Stats
	err := s.db.QueryRowContext(ctx, query, dayStart).Scan(
		&stats.Total, &stats.Successful, &stats.Failed, &stats.AvgScore, &stats.Today,
	)
	if err != nil {
		return history.Stats{}, fmt.Errorf("aggregate stats: %w", err)
	}
	return stats, nil
}

// Delete removes one record.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete analysis record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete analysis record: %w", err)
	}
	if affected == 0 {
		return history.ErrNotFound
	}
	return nil
}

// DeleteAll clears the table.
func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM analyses`); err != nil {
		return fmt.Errorf("clear analysis records: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func parseTimestamp(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
