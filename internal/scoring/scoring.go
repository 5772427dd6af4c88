// Package scoring maps extracted signals to 0-100 sub-scores and a weighted
// overall score. Pure functions, no I/O.
package scoring

import (
	"math"
	"regexp"
	"strings"

	"github.com/seoscout/seoscout/internal/seo"
)

// neutralScore is returned when no numeric sub-scores exist: it reflects
// "unknown" rather than "worst".
const neutralScore = 50

// categoryWeight pairs a keyword with its weight. Matching is by
// case-insensitive substring against the sub-score key, checked in this
// exact sequence, first match wins. The order is intentionally load-bearing:
// "technical_tags" matches the earlier "technical" entry, never its own.
type categoryWeight struct {
	keyword string
	weight  float64
}

var categoryWeights = []categoryWeight{
	{"technical_performance", 1.2},
	{"basic_seo", 1.2},
	{"technical", 1.2},
	{"seo", 1.2},
	{"page_structure", 1.0},
	{"content_quality", 1.1},
	{"content", 1.1},
	{"social_optimization", 0.8},
	{"social", 0.8},
	{"technical_tags", 1.0},
	{"tags", 1.0},
	{"traffic_data", 0.5},
	{"traffic", 0.5},
	{"performance", 1.0},
}

var firstDigitRun = regexp.MustCompile(`\d+`)

// Normalize coerces an arbitrary sub-score value to an int in [0,100].
// Numbers are clamped; strings are scanned for their first decimal run and
// the result clamped. Unparsable values are discarded (ok=false), not zeroed.
func Normalize(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return Clamp(v), true
	case int64:
		return Clamp(int(v)), true
	case float64:
		return Clamp(int(v)), true
	case float32:
		return Clamp(int(v)), true
	case string:
		m := firstDigitRun.FindString(v)
		if m == "" {
			return 0, false
		}
		n := 0
		for _, r := range m {
			n = n*10 + int(r-'0')
			if n > 100 {
				break
			}
		}
		return Clamp(n), true
	default:
		return 0, false
	}
}

// Clamp bounds a score to [0,100].
func Clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// WeightFor returns the weight for a sub-score key, default 1.0.
func WeightFor(key string) float64 {
	lower := strings.ToLower(key)
	for _, cw := range categoryWeights {
		if strings.Contains(lower, cw.keyword) {
			return cw.weight
		}
	}
	return 1.0
}

// Overall computes the weighted overall score from a loosely typed sub-score
// map. No numeric sub-scores yields the neutral default; exactly one yields
// that score unmodified; otherwise round(weighted sum / weight sum).
func Overall(scores map[string]any) int {
	type entry struct {
		score  int
		weight float64
	}
	var entries []entry
	for key, value := range scores {
		score, ok := Normalize(value)
		if !ok {
			continue
		}
		entries = append(entries, entry{score: score, weight: WeightFor(key)})
	}
	switch len(entries) {
	case 0:
		return neutralScore
	case 1:
		return entries[0].score
	}
	var weightedSum, totalWeight float64
	for _, e := range entries {
		weightedSum += float64(e.score) * e.weight
		totalWeight += e.weight
	}
	return int(math.Round(weightedSum / totalWeight))
}

// ContentScore rates on-page content out of 100: title presence and length,
// meta description, heading structure, body volume, alt-text coverage and
// internal linking.
func ContentScore(c seo.ContentAnalysis) int {
	score := 0

	if c.TDK.Title != "" {
		score += 15
		if c.TDK.TitleLength >= 30 && c.TDK.TitleLength <= 60 {
			score += 15
		}
	}
	if c.TDK.Description != "" {
		score += 10
		if c.TDK.DescriptionLength >= 120 && c.TDK.DescriptionLength <= 160 {
			score += 10
		}
	}
	h1s := c.Headings["h1"]
	if len(h1s) > 0 {
		score += 10
		if len(h1s) == 1 {
			score += 5
		}
	}
	switch {
	case c.Metrics.WordCount >= 300:
		score += 15
	case c.Metrics.WordCount >= 100:
		score += 8
	}
	if c.Images.Total > 0 {
		altRatio := 1 - float64(c.Images.WithoutAlt)/float64(c.Images.Total)
		score += int(altRatio * 10)
	}
	if c.Links.Internal > 0 {
		score += 5
	}
	return Clamp(score)
}

// TechnicalScore rates crawl and markup hygiene out of 100.
func TechnicalScore(t seo.TechnicalSEO) int {
	score := 0

	if t.HTTPS {
		score += 20
	}
	if t.MetaRobots != "" {
		score += 10
	}
	if t.Canonical != "" {
		score += 10
	}
	if len(t.SchemaTypes) > 0 {
		score += 20
	}
	if len(t.OpenGraph) > 0 {
		score += 20
	}
	score += int(float64(t.MobileFriendly) * 0.2)
	return Clamp(score)
}

// PerformanceScore derives a score from measured load time: 100 minus one
// point per 10ms, floored at zero. A page with no measurement scores zero.
func PerformanceScore(p seo.Performance) int {
	if p.MeasuredLoadTimeMs <= 0 {
		return 0
	}
	return Clamp(int(100 - p.MeasuredLoadTimeMs/10))
}

// Score computes the heuristic sub-scores for collected signals and their
// weighted overall.
func Score(signals seo.RawSignals) (map[string]int, int) {
	subScores := map[string]int{
		"content_quality": ContentScore(signals.ContentAnalysis),
		"technical_seo":   TechnicalScore(signals.TechnicalSEO),
		"performance":     PerformanceScore(signals.Performance),
	}
	loose := make(map[string]any, len(subScores))
	for k, v := range subScores {
		loose[k] = v
	}
	return subScores, Overall(loose)
}

// Recommendations derives remediation items from collected signals.
func Recommendations(signals seo.RawSignals) []seo.Recommendation {
	var recs []seo.Recommendation

	content := signals.ContentAnalysis
	if content.TDK.Title == "" {
		recs = append(recs, seo.Recommendation{
			Issue:    "Missing page title",
			Solution: "Add a descriptive page title containing target keywords",
			Priority: "high",
		})
	} else if content.TDK.TitleLength > 60 {
		recs = append(recs, seo.Recommendation{
			Issue:    "Title too long",
			Solution: "Shorten the title to 60 characters or fewer",
			Priority: "medium",
		})
	}
	if content.TDK.Description == "" {
		recs = append(recs, seo.Recommendation{
			Issue:    "Missing meta description",
			Solution: "Add a compelling meta description to improve click-through rate",
			Priority: "high",
		})
	}
	if !signals.TechnicalSEO.HTTPS {
		recs = append(recs, seo.Recommendation{
			Issue:    "Not served over HTTPS",
			Solution: "Install an SSL certificate and enable HTTPS",
			Priority: "high",
		})
	}
	if signals.TechnicalSEO.Canonical == "" {
		recs = append(recs, seo.Recommendation{
			Issue:    "Missing canonical tag",
			Solution: "Add a canonical tag to prevent duplicate-content issues",
			Priority: "medium",
		})
	}
	if signals.Performance.MeasuredLoadTimeMs > 3000 {
		recs = append(recs, seo.Recommendation{
			Issue:    "Slow page load",
			Solution: "Optimize images, enable caching and consider a CDN",
			Priority: "high",
		})
	}
	return recs
}
