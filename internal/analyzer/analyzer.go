// Package analyzer runs a full analysis for one URL: collect signals, then
// score them either heuristically or through the AI pipeline.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seoscout/seoscout/internal/scoring"
	"github.com/seoscout/seoscout/internal/seo"
)

// SignalCollector gathers raw page signals.
type SignalCollector interface {
	Collect(ctx context.Context, url string) (seo.RawSignals, error)
}

// Pipeline is the staged AI analysis. It may be absent when no completion
// endpoint is configured.
type Pipeline interface {
	Run(ctx context.Context, signals seo.RawSignals) (seo.AnalysisResult, error)
}

// Service produces analysis results.
type Service struct {
	collector SignalCollector
	pipeline  Pipeline
	clock     seo.Clock
	logger    *zap.Logger
}

// New builds a Service. pipeline may be nil; AI requests then degrade to
// heuristic scoring.
func New(collector SignalCollector, pipeline Pipeline, clock seo.Clock, logger *zap.Logger) *Service {
	return &Service{
		collector: collector,
		pipeline:  pipeline,
		clock:     clock,
		logger:    logger,
	}
}

// Analyze collects signals for the URL and scores them. Collection only
// rejects an invalid URL; unreachable pages come back as degraded signals
// and are scored as such.
func (s *Service) Analyze(ctx context.Context, url string, useAI bool) (seo.AnalysisResult, error) {
	started := s.clock.Now()

	signals, err := s.collector.Collect(ctx, url)
	if err != nil {
		return seo.AnalysisResult{}, fmt.Errorf("unable to fetch page content: %w", err)
	}

	if useAI && s.pipeline != nil {
		result, err := s.pipeline.Run(ctx, signals)
		if err != nil {
			return seo.AnalysisResult{}, fmt.Errorf("run analysis pipeline: %w", err)
		}
		return result, nil
	}
	if useAI {
		s.logger.Info("ai analysis requested but no completion endpoint configured, using heuristics",
			zap.String("url", url))
	}

	return s.heuristic(url, signals, started), nil
}

// heuristic scores the signals with the built-in point tables, no model in
// the loop.
func (s *Service) heuristic(url string, signals seo.RawSignals, started time.Time) seo.AnalysisResult {
	subScores, overall := scoring.Score(signals)
	recs := scoring.Recommendations(signals)

	result := seo.AnalysisResult{
		URL:          url,
		Timestamp:    started,
		OverallScore: overall,
		RawData:      &signals,
		SubScores:    subScores,
		AIInsights: map[string]any{
			"content_quality": contentVerdict(subScores["content_quality"]),
			"keyword_density": "moderate",
			"readability":     readabilityVerdict(signals),
		},
		Recommendations: recs,
		AnalysisTime:    s.clock.Now().Sub(started).Seconds(),
	}
	result.Summary = summarize(overall, recs)
	return result
}

func summarize(overall int, recs []seo.Recommendation) seo.Summary {
	summary := seo.Summary{
		OverallScore:         overall,
		RecommendationsCount: len(recs),
	}
	for _, rec := range recs {
		switch strings.ToLower(rec.Priority) {
		case "high", "critical":
			summary.CriticalIssues++
		case "medium":
			summary.Warnings++
		}
	}
	return summary
}

func contentVerdict(score int) string {
	switch {
	case score >= 70:
		return "good"
	case score >= 40:
		return "average"
	default:
		return "needs improvement"
	}
}

func readabilityVerdict(signals seo.RawSignals) string {
	words := signals.ContentAnalysis.Metrics.WordCount
	switch {
	case words >= 300:
		return "easy to read"
	case words > 0:
		return "thin content"
	default:
		return "no readable content"
	}
}
