package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoscout/seoscout/internal/history"
)

var testNow = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(fixedClock{now: testNow})
	require.NoError(t, err)
	return r
}

func TestRenderFullRecord(t *testing.T) {
	r := newRenderer(t)

	record := history.AnalysisRecord{
		ID:        "rec-1",
		URL:       "https://acme.test/",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		SEOScore:  85,
		Status:    "completed",
		AnalysisResult: []byte(`{
			"url": "https://acme.test/",
			"overall_score": 85,
			"sub_scores": {"basic_seo": 90, "content_quality": 55},
			"recommendations": [
				{"issue": "missing description", "solution": "write one", "priority": "high"}
			],
			"ai_insights": {"readability": "easy to read"},
			"html_report": "<div id=\"detail\">full detail</div>"
		}`),
	}

	html, err := r.Render(record)
	require.NoError(t, err)

	assert.Contains(t, html, "https://acme.test/")
	assert.Contains(t, html, `class="score excellent"`)
	assert.Contains(t, html, "basic_seo")
	assert.Contains(t, html, "missing description")
	assert.Contains(t, html, "easy to read")
	assert.Contains(t, html, `<div id="detail">full detail</div>`)
}

func TestRenderMinimalRecord(t *testing.T) {
	r := newRenderer(t)

	record := history.AnalysisRecord{
		ID:             "rec-2",
		URL:            "https://bare.test/",
		SEOScore:       0,
		AnalysisResult: []byte(`{"url": "https://bare.test/", "seo_score": 0}`),
	}

	html, err := r.Render(record)
	require.NoError(t, err)

	assert.Contains(t, html, "https://bare.test/")
	assert.Contains(t, html, `class="score poor"`)
	assert.NotContains(t, html, "Recommendations")
	assert.NotContains(t, html, "Detailed Report")
}

func TestRenderToleratesMalformedResult(t *testing.T) {
	r := newRenderer(t)

	record := history.AnalysisRecord{
		ID:             "rec-3",
		URL:            "https://broken.test/",
		SEOScore:       42,
		AnalysisResult: []byte(`this is not json`),
	}

	html, err := r.Render(record)
	require.NoError(t, err)
	assert.Contains(t, html, "https://broken.test/")
	assert.Contains(t, html, `class="score fair"`)
}

func TestScoreClass(t *testing.T) {
	assert.Equal(t, "excellent", scoreClass(80))
	assert.Equal(t, "good", scoreClass(65))
	assert.Equal(t, "fair", scoreClass(40))
	assert.Equal(t, "poor", scoreClass(39))
}

func TestRenderBatch(t *testing.T) {
	r := newRenderer(t)
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	records := []history.AnalysisRecord{
		{ID: "a", URL: "https://a.test/", SEOScore: 85, Status: "completed", Timestamp: ts},
		{ID: "b", URL: "https://b.test/", SEOScore: 30, Status: "failed", Timestamp: ts},
	}

	html, err := r.RenderBatch(records)
	require.NoError(t, err)

	assert.Contains(t, html, "https://a.test/")
	assert.Contains(t, html, "https://b.test/")
	assert.Contains(t, html, `class="excellent"`)
	assert.Contains(t, html, `class="poor"`)
	assert.Contains(t, html, "failed")
	// generation time comes from the injected clock
	assert.Contains(t, html, "2025-06-02T10:00:00Z")
}
