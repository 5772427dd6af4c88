package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seoscout/seoscout/internal/seo"
)

func TestOverallNoScores(t *testing.T) {
	t.Parallel()

	if got := Overall(map[string]any{}); got != 50 {
		t.Fatalf("Overall(empty) = %d, want neutral 50", got)
	}
	if got := Overall(nil); got != 50 {
		t.Fatalf("Overall(nil) = %d, want neutral 50", got)
	}
}

func TestOverallSingleScorePassthrough(t *testing.T) {
	t.Parallel()

	got := Overall(map[string]any{"content_quality": 73})
	if got != 73 {
		t.Fatalf("Overall(single) = %d, want 73 unmodified", got)
	}
}

func TestOverallWeighted(t *testing.T) {
	t.Parallel()

	got := Overall(map[string]any{
		"technical_performance": 80,
		"basic_seo":             60,
		"content_quality":       40,
	})
	// round((80*1.2 + 60*1.2 + 40*1.1) / 3.5) = round(60.57) = 61
	assert.Equal(t, 61, got)
}

func TestOverallDiscardsUnparsable(t *testing.T) {
	t.Parallel()

	got := Overall(map[string]any{
		"technical": "around 80 or so",
		"content":   []string{"not a score"},
		"junk":      nil,
	})
	// Only "technical" parses (embedded 80); single valid score passes through.
	assert.Equal(t, 80, got)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    any
		want  int
		valid bool
	}{
		{"int in range", 42, 42, true},
		{"float truncated", 59.7, 59, true},
		{"negative clamped", -5, 0, true},
		{"over range clamped", 150, 100, true},
		{"string embedded", "score is 85 out of 100", 85, true},
		{"string bare", "73", 73, true},
		{"string no digits", "excellent", 0, false},
		{"unsupported type", []int{1}, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Normalize(tc.in)
			assert.Equal(t, tc.valid, ok)
			if tc.valid {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestWeightForOrderSensitive(t *testing.T) {
	t.Parallel()

	// "technical_tags" contains "technical", an earlier entry, so it gets
	// 1.2 rather than its own 1.0. Legacy behavior, preserved on purpose.
	assert.Equal(t, 1.2, WeightFor("technical_tags"))
	assert.Equal(t, 1.2, WeightFor("Technical_Performance"))
	assert.Equal(t, 1.1, WeightFor("content_quality"))
	assert.Equal(t, 0.8, WeightFor("social_optimization"))
	assert.Equal(t, 0.5, WeightFor("traffic_data"))
	assert.Equal(t, 1.0, WeightFor("something_else"))
}

func TestContentScore(t *testing.T) {
	t.Parallel()

	full := seo.ContentAnalysis{
		TDK: seo.TDK{
			Title:             "A well sized page title for testing purposes",
			TitleLength:       44,
			Description:       makeText(140),
			DescriptionLength: 140,
		},
		Headings: map[string][]string{"h1": {"Only heading"}},
		Images:   seo.ImageStats{Total: 10, WithoutAlt: 0, WithAlt: 10},
		Links:    seo.LinkStats{Internal: 12, External: 3},
		Metrics:  seo.ContentMetrics{WordCount: 500},
	}
	// 30 title + 20 description + 15 headings + 15 word count + 10 alt + 5 links
	assert.Equal(t, 95, ContentScore(full))

	empty := seo.ContentAnalysis{}
	assert.Equal(t, 0, ContentScore(empty))

	// Half the images missing alt text contributes proportionally.
	partialAlt := full
	partialAlt.Images = seo.ImageStats{Total: 10, WithoutAlt: 5, WithAlt: 5}
	assert.Equal(t, 90, ContentScore(partialAlt))
}

func TestTechnicalScore(t *testing.T) {
	t.Parallel()

	full := seo.TechnicalSEO{
		HTTPS:          true,
		MetaRobots:     "index,follow",
		Canonical:      "https://example.com/",
		SchemaTypes:    []string{"Organization"},
		OpenGraph:      map[string]string{"title": "x"},
		MobileFriendly: 100,
	}
	assert.Equal(t, 100, TechnicalScore(full))
	assert.Equal(t, 0, TechnicalScore(seo.TechnicalSEO{}))
}

func TestPerformanceScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, PerformanceScore(seo.Performance{}))
	assert.Equal(t, 90, PerformanceScore(seo.Performance{MeasuredLoadTimeMs: 100}))
	assert.Equal(t, 0, PerformanceScore(seo.Performance{MeasuredLoadTimeMs: 50000}))
}

func TestRecommendations(t *testing.T) {
	t.Parallel()

	signals := seo.RawSignals{
		URL:         "http://example.com",
		Performance: seo.Performance{MeasuredLoadTimeMs: 5000},
	}
	recs := Recommendations(signals)

	issues := make([]string, 0, len(recs))
	for _, r := range recs {
		issues = append(issues, r.Issue)
	}
	assert.Contains(t, issues, "Missing page title")
	assert.Contains(t, issues, "Missing meta description")
	assert.Contains(t, issues, "Not served over HTTPS")
	assert.Contains(t, issues, "Missing canonical tag")
	assert.Contains(t, issues, "Slow page load")
}

func makeText(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}
