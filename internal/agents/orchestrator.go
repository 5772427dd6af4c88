package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/seoscout/seoscout/internal/scoring"
	"github.com/seoscout/seoscout/internal/seo"
)

const analystSystemPrompt = `You are a senior SEO analyst. You receive the raw signals collected from a web page and produce a rigorous assessment.
Respond with JSON only, using this shape:
{
  "scores": {"basic_seo": 0-100, "content_quality": 0-100, "technical_performance": 0-100},
  "issues": [{"issue": "...", "severity": "high|medium|low"}],
  "strengths": ["..."],
  "summary": "one paragraph"
}`

const strategistSystemPrompt = `You are an SEO strategist. You receive an analyst's assessment of a web page and produce a prioritized improvement plan.
Respond with JSON only, using this shape:
{
  "strategy": "one paragraph describing the overall approach",
  "action_plan": [{"issue": "...", "solution": "...", "priority": "high|medium|low"}],
  "quick_wins": ["..."]
}`

const designerSystemPrompt = `You are a report designer. You receive an SEO assessment and an improvement plan, and render them as a single self-contained HTML document.
Use inline CSS only. Include a headline score, a findings section and the action plan as a table. Respond with the HTML document only, no commentary.`

// Orchestrator drives the analyst, strategist and designer stages in order.
type Orchestrator struct {
	completer seo.Completer
	clock     seo.Clock
	logger    *zap.Logger
}

// NewOrchestrator builds an Orchestrator.
func NewOrchestrator(completer seo.Completer, clock seo.Clock, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		completer: completer,
		clock:     clock,
		logger:    logger,
	}
}

// Run executes the full pipeline against collected signals. Stage failures
// degrade rather than abort: a non-JSON analyst response still yields
// scavenged scores, and a non-JSON strategist response is wrapped verbatim.
func (o *Orchestrator) Run(ctx context.Context, signals seo.RawSignals) (seo.AnalysisResult, error) {
	started := o.clock.Now()

	analysis, scores := o.analyze(ctx, signals)
	strategy := o.strategize(ctx, analysis)
	report := o.render(ctx, analysis, strategy)

	overall := scoring.Overall(scores)
	if len(scores) == 0 || overall == 0 {
		// no usable score map; any score-like mention in the raw stage
		// output beats the neutral default
		if rescued, ok := rescueScore(fmt.Sprint(analysis), fmt.Sprint(strategy)); ok {
			overall = scoring.Clamp(rescued)
		}
	}

	result := seo.AnalysisResult{
		URL:             signals.URL,
		Timestamp:       started,
		OverallScore:    overall,
		RawData:         &signals,
		Analysis:        analysis,
		Strategy:        strategy,
		HTMLReport:      report,
		SubScores:       intScores(scores),
		Recommendations: recommendations(strategy),
		AnalysisTime:    o.clock.Now().Sub(started).Seconds(),
	}
	result.Summary = summarize(overall, analysis, result.Recommendations)
	return result, nil
}

func (o *Orchestrator) analyze(ctx context.Context, signals seo.RawSignals) (map[string]any, map[string]any) {
	payload, err := json.Marshal(signals)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"url": %q}`, signals.URL))
	}

	text := o.completer.Complete(ctx, analystSystemPrompt, string(payload))
	stage := parseStage(text)
	if stage.Structured() {
		scores := validateScores(stage.Fields["scores"])
		if len(scores) == 0 {
			// valid JSON but no usable scores object; scan the raw
			// response for labeled score mentions instead
			scores = extractScoresFromText(text)
			if len(scores) > 0 {
				stage.Fields["scores"] = scores
			}
		}
		return stage.Fields, scores
	}

	o.logger.Warn("analyst response not structured, scavenging scores")
	scores := extractScoresFromText(stage.Text)
	return map[string]any{
		"raw_analysis": stage.Text,
		"scores":       scores,
	}, scores
}

func (o *Orchestrator) strategize(ctx context.Context, analysis map[string]any) map[string]any {
	payload, err := json.Marshal(analysis)
	if err != nil {
		payload = []byte("{}")
	}

	text := o.completer.Complete(ctx, strategistSystemPrompt, string(payload))
	stage := parseStage(text)
	if stage.Structured() {
		return stage.Fields
	}

	o.logger.Warn("strategist response not structured, wrapping raw text")
	return map[string]any{
		"raw_strategy": stage.Text,
		"strategy":     stage.Text,
		"action_plan":  []any{},
	}
}

func (o *Orchestrator) render(ctx context.Context, analysis, strategy map[string]any) string {
	payload, err := json.Marshal(map[string]any{
		"analysis": analysis,
		"strategy": strategy,
	})
	if err != nil {
		return ""
	}

	text := stripCodeFence(o.completer.Complete(ctx, designerSystemPrompt, string(payload)))
	if !strings.Contains(text, "<") {
		o.logger.Warn("designer response is not html, dropping report")
		return ""
	}
	return text
}

func intScores(scores map[string]any) map[string]int {
	if len(scores) == 0 {
		return nil
	}
	out := make(map[string]int, len(scores))
	for key, value := range scores {
		if v, ok := scoring.Normalize(value); ok {
			out[key] = v
		}
	}
	return out
}

// recommendations flattens the strategist action plan. Entries may be maps
// or bare strings, both are accepted.
func recommendations(strategy map[string]any) []seo.Recommendation {
	plan, ok := strategy["action_plan"].([]any)
	if !ok {
		return nil
	}
	var recs []seo.Recommendation
	for _, entry := range plan {
		switch item := entry.(type) {
		case map[string]any:
			recs = append(recs, seo.Recommendation{
				Issue:    stringField(item, "issue"),
				Solution: stringField(item, "solution"),
				Priority: stringField(item, "priority"),
			})
		case string:
			recs = append(recs, seo.Recommendation{Solution: item, Priority: "medium"})
		}
	}
	return recs
}

func summarize(overall int, analysis map[string]any, recs []seo.Recommendation) seo.Summary {
	summary := seo.Summary{
		OverallScore:         overall,
		RecommendationsCount: len(recs),
	}
	issues, _ := analysis["issues"].([]any)
	for _, entry := range issues {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		switch strings.ToLower(stringField(item, "severity")) {
		case "high", "critical":
			summary.CriticalIssues++
		case "medium":
			summary.Warnings++
		}
	}
	return summary
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
