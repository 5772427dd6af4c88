// Package postgres provides a Postgres-backed history store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seoscout/seoscout/internal/history"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store persists analysis records in Postgres.
type Store struct {
	pool pgxPool
}

var _ history.Store = (*Store)(nil)

const createTable = `
CREATE TABLE IF NOT EXISTS analyses (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL,
	analysis_result JSONB NOT NULL,
	status TEXT NOT NULL DEFAULT 'completed',
	seo_score INTEGER NOT NULL DEFAULT 0,
	use_ai BOOLEAN NOT NULL DEFAULT TRUE
)`

// migrations bring tables created by older versions up to date. ADD COLUMN
// IF NOT EXISTS makes them safe to run on every start.
var migrations = []string{
	`ALTER TABLE analyses ADD COLUMN IF NOT EXISTS status TEXT NOT NULL DEFAULT 'completed'`,
	`ALTER TABLE analyses ADD COLUMN IF NOT EXISTS seo_score INTEGER NOT NULL DEFAULT 0`,
	`ALTER TABLE analyses ADD COLUMN IF NOT EXISTS use_ai BOOLEAN NOT NULL DEFAULT TRUE`,
}

// Open connects to Postgres and runs migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("history.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewWithPool constructs a store from an existing pool (primarily for
// testing). No migrations are run.
func NewWithPool(pool pgxPool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("create analyses table: %w", err)
	}
	for _, migration := range migrations {
		if _, err := s.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("run migration: %w", err)
		}
	}
	return nil
}

// Save inserts or replaces a record.
func (s *Store) Save(ctx context.Context, record history.AnalysisRecord) error {
	const query = `
INSERT INTO analyses (id, url, timestamp, analysis_result, status, seo_score, use_ai)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	url = EXCLUDED.url,
	timestamp = EXCLUDED.timestamp,
	analysis_result = EXCLUDED.analysis_result,
	status = EXCLUDED.status,
	seo_score = EXCLUDED.seo_score,
	use_ai = EXCLUDED.use_ai`
	_, err := s.pool.Exec(ctx, query,
		record.ID,
		record.URL,
		record.Timestamp.UTC(),
		record.AnalysisResult,
		record.Status,
		record.SEOScore,
		record.UseAI,
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
FROM analyses WHERE id = $1`
	row := s.pool.QueryRow(ctx, query, id)

	var record history.AnalysisRecord
	err := row.Scan(
		&record.ID,
		&record.URL,
		&record.Timestamp,
		&record.AnalysisResult,
		&record.Status,
		&record.SEOScore,
		&record.UseAI,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return history.AnalysisRecord{}, history.ErrNotFound
	}
	if err != nil {
		return history.AnalysisRecord{}, fmt.Errorf("get analysis record: %w", err)
	}
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
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list analysis records: %w", err)
	}
	defer rows.Close()

	var out []history.Summary
	for rows.Next() {
		var summary history.Summary
		if err := rows.Scan(
			&summary.ID,
			&summary.URL,
			&summary.Timestamp,
			&summary.Status,
			&summary.SEOScore,
			&summary.UseAI,
		); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
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
	COALESCE(SUM(CASE WHEN status <> 'completed' THEN 1 ELSE 0 END), 0),
	COALESCE(AVG(seo_score) FILTER (WHERE status = 'completed'), 0),
	COALESCE(SUM(CASE WHEN timestamp >= date_trunc('day', now() AT TIME ZONE 'utc') THEN 1 ELSE 0 END), 0)
FROM analyses`

	var stats history.Stats
	err := s.pool.QueryRow(ctx, query).Scan(
		&stats.Total, &stats.Successful, &stats.Failed, &stats.AvgScore, &stats.Today,
	)
	if err != nil {
		return history.Stats{}, fmt.Errorf("aggregate stats: %w", err)
	}
	return stats, nil
}

// Delete removes one record.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete analysis record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return history.ErrNotFound
	}
	return nil
}

// DeleteAll clears the table.
func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM analyses`); err != nil {
		return fmt.Errorf("clear analysis records: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
