package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoscout/seoscout/internal/history"
)

var testNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(context.Background(), path, fixedClock{now: testNow})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(id string, score int, status string, ts time.Time) history.AnalysisRecord {
	return history.AnalysisRecord{
		ID:             id,
		URL:            "https://example.test/",
		Timestamp:      ts,
		AnalysisResult: []byte(`{"overall_score": 75}`),
		Status:         status,
		SEOScore:       score,
		UseAI:          true,
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, record("r1", 75, "completed", ts)))

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, "https://example.test/", got.URL)
	assert.Equal(t, ts, got.Timestamp)
	assert.JSONEq(t, `{"overall_score": 75}`, string(got.AnalysisResult))
	assert.Equal(t, 75, got.SEOScore)
	assert.True(t, got.UseAI)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestSaveReplacesExisting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ts := time.Now().UTC()

	require.NoError(t, s.Save(ctx, record("r1", 50, "completed", ts)))
	require.NoError(t, s.Save(ctx, record("r1", 90, "completed", ts)))

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 90, got.SEOScore)

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestListOrderAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, record("old", 40, "completed", base.Add(-2*time.Hour))))
	require.NoError(t, s.Save(ctx, record("new", 80, "completed", base)))
	require.NoError(t, s.Save(ctx, record("mid", 60, "failed", base.Add(-time.Hour))))

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].ID)
	assert.Equal(t, "mid", all[1].ID)
	assert.Equal(t, "old", all[2].ID)

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "new", limited[0].ID)
}

func TestStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := testNow

	require.NoError(t, s.Save(ctx, record("a", 80, "completed", now)))
	require.NoError(t, s.Save(ctx, record("b", 60, "completed", now.Add(-72*time.Hour))))
	require.NoError(t, s.Save(ctx, record("c", 0, "failed", now)))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Successful)
	assert.Equal(t, 1, stats.Failed)
	assert.InDelta(t, 70.0, stats.AvgScore, 0.001)
	assert.Equal(t, 2, stats.Today)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, record("a", 80, "completed", time.Now().UTC())))
	require.NoError(t, s.Delete(ctx, "a"))
	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, history.ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "a"), history.ErrNotFound)
}

func TestDeleteAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, record("a", 80, "completed", time.Now().UTC())))
	require.NoError(t, s.Save(ctx, record("b", 70, "completed", time.Now().UTC())))
	require.NoError(t, s.DeleteAll(ctx))

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMigrationIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	first, err := Open(ctx, path, fixedClock{now: testNow})
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, record("a", 80, "completed", time.Now().UTC())))
	require.NoError(t, first.Close())

	// reopening runs the migration again against the populated file
	second, err := Open(ctx, path, fixedClock{now: testNow})
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 80, got.SEOScore)
}
