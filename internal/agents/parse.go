// Package agents runs the staged AI analysis pipeline: an analyst scores the
// raw signals, a strategist turns the findings into an action plan, and a
// designer renders the final HTML report. Model responses are best-effort
// JSON; every parse path has a fallback so a sloppy response still produces
// a usable result.
package agents

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/seoscout/seoscout/internal/scoring"
)

// StageResult is the outcome of one pipeline stage: either structured fields
// decoded from JSON, or the raw text when decoding failed.
type StageResult struct {
	Fields map[string]any
	Text   string
}

// Structured reports whether the stage produced decodable JSON.
func (r StageResult) Structured() bool {
	return r.Fields != nil
}

var fencePattern = regexp.MustCompile("(?s)```(?:json|html)?\\s*(.*?)\\s*```")

// stripCodeFence removes a surrounding markdown code fence, if any.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

// parseStage decodes a model response into fields, falling back to raw text.
func parseStage(text string) StageResult {
	cleaned := stripCodeFence(text)
	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned), &fields); err == nil {
		return StageResult{Fields: fields}
	}
	return StageResult{Text: cleaned}
}

// knownScorePatterns match labeled scores in free-form model text. Checked
// in order; each key is recorded at most once.
var knownScorePatterns = []struct {
	key     string
	pattern *regexp.Regexp
}{
	{"technical_performance", regexp.MustCompile(`(?i)technical[_\s]performance[^0-9]{0,20}(\d{1,3})`)},
	{"basic_seo", regexp.MustCompile(`(?i)basic[_\s]seo[^0-9]{0,20}(\d{1,3})`)},
	{"content_quality", regexp.MustCompile(`(?i)content[_\s]quality[^0-9]{0,20}(\d{1,3})`)},
	{"overall_score", regexp.MustCompile(`(?i)overall[_\s]score[^0-9]{0,20}(\d{1,3})`)},
	{"overall", regexp.MustCompile(`(?i)overall[^0-9]{0,20}(\d{1,3})`)},
}

var genericScorePattern = regexp.MustCompile(`(?i)(?:score|rating|得分)[:：\s]*(\d{1,3})`)

// extractScoresFromText scavenges labeled scores out of non-JSON analyst
// text. When no labeled score is found, the first generic score mention is
// taken as overall_score.
func extractScoresFromText(text string) map[string]any {
	scores := make(map[string]any)
	for _, entry := range knownScorePatterns {
		if _, seen := scores[entry.key]; seen {
			continue
		}
		if m := entry.pattern.FindStringSubmatch(text); m != nil {
			if v, ok := scoring.Normalize(m[1]); ok {
				scores[entry.key] = v
			}
		}
	}
	if len(scores) == 0 {
		if m := genericScorePattern.FindStringSubmatch(text); m != nil {
			if v, ok := scoring.Normalize(m[1]); ok {
				scores["overall_score"] = v
			}
		}
	}
	return scores
}

// validateScores normalizes every entry of a raw scores map, dropping what
// cannot be read as a number.
func validateScores(raw any) map[string]any {
	scores := make(map[string]any)
	fields, ok := raw.(map[string]any)
	if !ok {
		return scores
	}
	for key, value := range fields {
		if v, ok := scoring.Normalize(value); ok {
			scores[key] = v
		}
	}
	return scores
}

var rescuePattern = regexp.MustCompile(`(?:评分|分数|得分|score)[:：\s]*(\d{1,3})`)

// rescueScore scans arbitrary stage output for any score-like mention. Used
// only when the weighted overall came out zero.
func rescueScore(blobs ...string) (int, bool) {
	for _, blob := range blobs {
		if m := rescuePattern.FindStringSubmatch(blob); m != nil {
			if v, ok := scoring.Normalize(m[1]); ok {
				return v, true
			}
		}
	}
	return 0, false
}
