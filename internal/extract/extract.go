// Package extract pulls structured scores and a brief summary out of the
// model's free-text response. The upstream text is inherently unstructured,
// so parsing is best-effort: a malformed block degrades to absent scores and
// never fails the job.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kidooo/analysis-service/internal/analysis/domain"
)

// summaryFallbackLen bounds the summary taken from the narrative head when
// no "Brief Summary" section exists.
const summaryFallbackLen = 200

var (
	scoresBlockRe = regexp.MustCompile("```json\\s*(\\{[^}]+\\})\\s*```")
	headedBlockRe = regexp.MustCompile("(?i)#+\\s*Scores?\\s*\\n?\\s*```json\\s*\\{[^}]+\\}\\s*```")
	blankRunsRe   = regexp.MustCompile(`\n{3,}`)
)

// Scores locates the fenced json block and parses the six known dimensions.
// Returns nil when the block is absent or unparseable. A present but
// out-of-range or non-numeric value becomes 0; a missing key becomes 0
// without discarding the rest.
func Scores(raw string) *domain.Scores {
	match := scoresBlockRe.FindStringSubmatch(raw)
	if match == nil {
		return nil
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(match[1]), &parsed); err != nil {
		return nil
	}

	return &domain.Scores{
		Communication:     scoreValue(parsed, "communication"),
		EyeContact:        scoreValue(parsed, "eyeContact"),
		SocialEngagement:  scoreValue(parsed, "socialEngagement"),
		Gestures:          scoreValue(parsed, "gestures"),
		SpeechClarity:     scoreValue(parsed, "speechClarity"),
		EmotionalResponse: scoreValue(parsed, "emotionalResponse"),
	}
}

func scoreValue(parsed map[string]any, key string) float64 {
	v, ok := parsed[key].(float64)
	if !ok || v < 0 || v > 10 {
		return 0
	}
	return v
}

// Summary returns the content of the "## Brief Summary" section, or the
// first 200 characters of the narrative followed by an ellipsis when that
// section is absent.
func Summary(raw string) string {
	const heading = "## Brief Summary"
	if idx := strings.Index(raw, heading); idx >= 0 {
		section := raw[idx+len(heading):]
		if end := strings.Index(section, "\n## "); end >= 0 {
			section = section[:end]
		}
		return strings.TrimSpace(section)
	}

	runes := []rune(raw)
	if len(runes) > summaryFallbackLen {
		runes = runes[:summaryFallbackLen]
	}
	return strings.TrimSpace(string(runes)) + "..."
}

// StripScores removes the fenced scores block (and any heading that
// introduces it) from the narrative and collapses runs of blank lines.
// Stable under repeated application.
func StripScores(raw string) string {
	stripped := headedBlockRe.ReplaceAllString(raw, "")
	stripped = scoresBlockRe.ReplaceAllString(stripped, "")
	stripped = blankRunsRe.ReplaceAllString(stripped, "\n\n")
	return strings.TrimSpace(stripped)
}
