package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"html fence", "```html\n<html></html>\n```", "<html></html>"},
		{"whitespace", "  \n{\"a\": 1}\n  ", `{"a": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripCodeFence(tc.in))
		})
	}
}

func TestParseStage(t *testing.T) {
	structured := parseStage("```json\n{\"scores\": {\"basic_seo\": 80}}\n```")
	assert.True(t, structured.Structured())
	assert.Contains(t, structured.Fields, "scores")

	raw := parseStage("The page scores about 75 overall.")
	assert.False(t, raw.Structured())
	assert.Equal(t, "The page scores about 75 overall.", raw.Text)
}

func TestExtractScoresFromText(t *testing.T) {
	t.Run("labeled scores", func(t *testing.T) {
		text := "Basic SEO: 80. Content quality is 65, technical performance rated 90."
		scores := extractScoresFromText(text)
		assert.Equal(t, 80, scores["basic_seo"])
		assert.Equal(t, 65, scores["content_quality"])
		assert.Equal(t, 90, scores["technical_performance"])
	})

	t.Run("generic fallback", func(t *testing.T) {
		scores := extractScoresFromText("I would give this page a score: 72 based on its content.")
		assert.Equal(t, map[string]any{"overall_score": 72}, scores)
	})

	t.Run("nothing found", func(t *testing.T) {
		scores := extractScoresFromText("no numbers to be had here")
		assert.Empty(t, scores)
	})
}

func TestValidateScores(t *testing.T) {
	raw := map[string]any{
		"basic_seo":       float64(85),
		"content_quality": "70",
		"oversized":       float64(150),
		"garbage":         "none",
		"nested":          map[string]any{"x": 1},
	}
	scores := validateScores(raw)

	assert.Equal(t, 85, scores["basic_seo"])
	assert.Equal(t, 70, scores["content_quality"])
	assert.Equal(t, 100, scores["oversized"])
	assert.NotContains(t, scores, "garbage")
	assert.NotContains(t, scores, "nested")

	assert.Empty(t, validateScores("not a map"))
	assert.Empty(t, validateScores(nil))
}

func TestRescueScore(t *testing.T) {
	v, ok := rescueScore("nothing here", "final 评分: 68 out of 100")
	assert.True(t, ok)
	assert.Equal(t, 68, v)

	v, ok = rescueScore("overall score: 91")
	assert.True(t, ok)
	assert.Equal(t, 91, v)

	_, ok = rescueScore("no mention at all")
	assert.False(t, ok)
}
