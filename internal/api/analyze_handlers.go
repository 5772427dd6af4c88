package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seoscout/seoscout/internal/history"
	"github.com/seoscout/seoscout/internal/metrics"
	"github.com/seoscout/seoscout/internal/seo"
)

const batchConcurrency = 3

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	var out strings.Builder
	if err := indexTmpl.Execute(&out, nil); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	writeHTML(w, http.StatusOK, out.String())
}

// analyze runs one or more URLs synchronously and renders a results page.
// Successful results are persisted; failures appear as error rows only.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	urls := collectURLs(r.FormValue("url"), r.FormValue("batchUrls"))
	if len(urls) == 0 {
		writeError(w, http.StatusBadRequest, "at least one valid URL is required")
		return
	}
	useAI := formBool(r.FormValue("useAi"))

	type row struct {
		URL        string
		Score      int
		AnalysisID string
		Critical   int
		Warnings   int
		Err        string
	}
	rows := make([]row, len(urls))

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(batchConcurrency)
	for i, target := range urls {
		g.Go(func() error {
			started := time.Now()
			result, err := s.analyzer.Analyze(ctx, target, useAI)
			if err != nil {
				s.logger.Warn("analysis failed", zap.String("url", target), zap.Error(err))
				metrics.ObserveAnalysis("failed", modeLabel(useAI), time.Since(started))
				rows[i] = row{URL: target, Err: err.Error()}
				return nil
			}
			metrics.ObserveAnalysis("completed", modeLabel(useAI), time.Since(started))

			analysisID, err := s.persistResult(ctx, result, useAI)
			if err != nil {
				s.logger.Error("persist analysis failed", zap.String("url", target), zap.Error(err))
				rows[i] = row{URL: target, Err: "analysis succeeded but could not be saved"}
				return nil
			}
			rows[i] = row{
				URL:        target,
				Score:      result.OverallScore,
				AnalysisID: analysisID,
				Critical:   result.Summary.CriticalIssues,
				Warnings:   result.Summary.Warnings,
			}
			return nil
		})
	}
	_ = g.Wait()

	var out strings.Builder
	if err := resultsTmpl.Execute(&out, map[string]any{"Rows": rows}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render results")
		return
	}
	writeHTML(w, http.StatusOK, out.String())
}

// analyzeAsync registers a task and starts the analysis in the background.
// The run deliberately uses a fresh context: closing the HTTP connection
// must not cancel the analysis.
func (s *Server) analyzeAsync(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	target := normalizeURL(r.FormValue("url"))
	if target == "" {
		writeError(w, http.StatusBadRequest, "a valid URL is required")
		return
	}
	useAI := formBool(r.FormValue("useAi"))

	taskID, err := s.registry.CreateTask(target)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create analysis task")
		return
	}
	metrics.ObserveTaskCreated()
	metrics.SetActiveTasks(s.registry.Count())

	s.registry.Run(context.Background(), taskID, func(ctx context.Context) (seo.AnalysisResult, error) {
		started := time.Now()
		result, err := s.analyzer.Analyze(ctx, target, useAI)
		if err != nil {
			metrics.ObserveAnalysis("failed", modeLabel(useAI), time.Since(started))
			return seo.AnalysisResult{}, err
		}
		metrics.ObserveAnalysis("completed", modeLabel(useAI), time.Since(started))
		return result, nil
	})

	writeJSON(w, http.StatusOK, map[string]string{
		"task_id": taskID,
		"message": "analysis task started",
		"status":  "started",
	})
}

// persistResult writes a synchronous analysis straight to the store.
func (s *Server) persistResult(ctx context.Context, result seo.AnalysisResult, useAI bool) (string, error) {
	recordID, err := s.idGen.NewID()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	record := history.AnalysisRecord{
		ID:             recordID,
		URL:            result.URL,
		Timestamp:      result.Timestamp,
		AnalysisResult: payload,
		Status:         "completed",
		SEOScore:       result.OverallScore,
		UseAI:          useAI,
	}
	if err := s.store.Save(ctx, record); err != nil {
		return "", err
	}
	return recordID, nil
}

// collectURLs merges the single url field with the newline-separated batch
// field, dropping blanks and invalid entries.
func collectURLs(single, batch string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(raw string) {
		normalized := normalizeURL(raw)
		if normalized == "" || seen[normalized] {
			return
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	add(single)
	for _, line := range strings.Split(batch, "\n") {
		add(line)
	}
	return out
}

// normalizeURL trims the input and defaults a missing scheme to https.
func normalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "https://" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return trimmed
}

func formBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

func modeLabel(useAI bool) string {
	if useAI {
		return "ai"
	}
	return "heuristic"
}
