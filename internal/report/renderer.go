// Package report renders persisted analysis records as standalone HTML
// documents and stores generated reports on disk for download.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/seoscout/seoscout/internal/history"
	"github.com/seoscout/seoscout/internal/seo"
)

// Renderer turns analysis records into HTML documents. Records are rendered
// from their stored JSON, so any field may be missing; the template treats
// everything as optional.
type Renderer struct {
	single *template.Template
	batch  *template.Template
	clock  seo.Clock
}

// NewRenderer builds a Renderer with its templates parsed.
func NewRenderer(clock seo.Clock) (*Renderer, error) {
	funcs := template.FuncMap{
		"scoreClass": scoreClass,
	}
	single, err := template.New("report").Funcs(funcs).Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	batch, err := template.New("batch").Funcs(funcs).Parse(batchTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse batch template: %w", err)
	}
	return &Renderer{single: single, batch: batch, clock: clock}, nil
}

// scoreClass buckets a score for styling.
func scoreClass(score int) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "fair"
	default:
		return "poor"
	}
}

type reportView struct {
	URL             string
	Timestamp       string
	Score           int
	SubScores       map[string]int
	Recommendations []recommendationView
	Insights        map[string]string
	EmbeddedReport  template.HTML
}

type recommendationView struct {
	Issue    string
	Solution string
	Priority string
}

// Render produces an HTML document for one record. A record whose stored
// result already carries a designer-generated report gets that report
// embedded verbatim; otherwise the structured fields are laid out.
func (r *Renderer) Render(record history.AnalysisRecord) (string, error) {
	view := r.buildView(record)
	var out strings.Builder
	if err := r.single.Execute(&out, view); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return out.String(), nil
}

func (r *Renderer) buildView(record history.AnalysisRecord) reportView {
	view := reportView{
		URL:   record.URL,
		Score: record.SEOScore,
	}
	if !record.Timestamp.IsZero() {
		view.Timestamp = record.Timestamp.UTC().Format(time.RFC3339)
	}

	var doc map[string]any
	if err := json.Unmarshal(record.AnalysisResult, &doc); err != nil {
		return view
	}

	if url, ok := doc["url"].(string); ok && view.URL == "" {
		view.URL = url
	}
	if embedded, ok := doc["html_report"].(string); ok && embedded != "" {
		// designer-stage output is embedded unescaped
		view.EmbeddedReport = template.HTML(embedded) // #nosec G203
	}

	if scores, ok := doc["sub_scores"].(map[string]any); ok {
		view.SubScores = make(map[string]int, len(scores))
		for key, value := range scores {
			if n, ok := value.(float64); ok {
				view.SubScores[key] = int(n)
			}
		}
	}

	if recs, ok := doc["recommendations"].([]any); ok {
		for _, entry := range recs {
			item, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			view.Recommendations = append(view.Recommendations, recommendationView{
				Issue:    stringField(item, "issue"),
				Solution: stringField(item, "solution"),
				Priority: stringField(item, "priority"),
			})
		}
	}

	if insights, ok := doc["ai_insights"].(map[string]any); ok {
		view.Insights = make(map[string]string, len(insights))
		for key, value := range insights {
			if s, ok := value.(string); ok {
				view.Insights[key] = s
			}
		}
	}
	return view
}

type batchView struct {
	Generated string
	Rows      []batchRow
}

type batchRow struct {
	URL       string
	Score     int
	Status    string
	Timestamp string
}

// RenderBatch produces a side-by-side comparison of multiple records.
func (r *Renderer) RenderBatch(records []history.AnalysisRecord) (string, error) {
	view := batchView{
		Generated: r.clock.Now().UTC().Format(time.RFC3339),
	}
	for _, record := range records {
		row := batchRow{
			URL:    record.URL,
			Score:  record.SEOScore,
			Status: record.Status,
		}
		if !record.Timestamp.IsZero() {
			row.Timestamp = record.Timestamp.UTC().Format(time.RFC3339)
		}
		view.Rows = append(view.Rows, row)
	}

	var out strings.Builder
	if err := r.batch.Execute(&out, view); err != nil {
		return "", fmt.Errorf("render batch report: %w", err)
	}
	return out.String(), nil
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>SEO Report{{if .URL}} - {{.URL}}{{end}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 960px; color: #1f2933; }
.score { font-size: 3rem; font-weight: 700; }
.score.excellent { color: #0f9d58; }
.score.good { color: #7cb342; }
.score.fair { color: #f4b400; }
.score.poor { color: #db4437; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { border: 1px solid #d2d6dc; padding: 0.5rem 0.75rem; text-align: left; }
th { background: #f5f7fa; }
.meta { color: #616e7c; font-size: 0.9rem; }
section { margin-top: 2rem; }
</style>
</head>
<body>
<h1>SEO Analysis Report</h1>
{{if .URL}}<p class="meta">{{.URL}}</p>{{end}}
{{if .Timestamp}}<p class="meta">Generated {{.Timestamp}}</p>{{end}}
<p class="score {{scoreClass .Score}}">{{.Score}}<small>/100</small></p>
{{if .SubScores}}
<section>
<h2>Category Scores</h2>
<table>
<tr><th>Category</th><th>Score</th></tr>
{{range $key, $value := .SubScores}}<tr><td>{{$key}}</td><td class="{{scoreClass $value}}">{{$value}}</td></tr>
{{end}}</table>
</section>
{{end}}
{{if .Recommendations}}
<section>
<h2>Recommendations</h2>
<table>
<tr><th>Issue</th><th>Solution</th><th>Priority</th></tr>
{{range .Recommendations}}<tr><td>{{.Issue}}</td><td>{{.Solution}}</td><td>{{.Priority}}</td></tr>
{{end}}</table>
</section>
{{end}}
{{if .Insights}}
<section>
<h2>AI Insights</h2>
<table>
<tr><th>Aspect</th><th>Assessment</th></tr>
{{range $key, $value := .Insights}}<tr><td>{{$key}}</td><td>{{$value}}</td></tr>
{{end}}</table>
</section>
{{end}}
{{if .EmbeddedReport}}
<section>
<h2>Detailed Report</h2>
{{.EmbeddedReport}}
</section>
{{end}}
</body>
</html>`

const batchTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>SEO Batch Comparison</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 960px; color: #1f2933; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { border: 1px solid #d2d6dc; padding: 0.5rem 0.75rem; text-align: left; }
th { background: #f5f7fa; }
td.excellent { color: #0f9d58; }
td.good { color: #7cb342; }
td.fair { color: #f4b400; }
td.poor { color: #db4437; }
.meta { color: #616e7c; font-size: 0.9rem; }
</style>
</head>
<body>
<h1>SEO Batch Comparison</h1>
<p class="meta">Generated {{.Generated}}</p>
<table>
<tr><th>URL</th><th>Score</th><th>Status</th><th>Analyzed</th></tr>
{{range .Rows}}<tr><td>{{.URL}}</td><td class="{{scoreClass .Score}}">{{.Score}}</td><td>{{.Status}}</td><td>{{.Timestamp}}</td></tr>
{{end}}</table>
</body>
</html>`
