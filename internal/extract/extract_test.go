package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidooo/analysis-service/internal/analysis/domain"
)

const sampleNarrative = `## Brief Summary
The child showed warm, frequent eye contact and responded to their name on the first call.

## Detailed Observations

### Communication & Language
Clear two-word phrases were used throughout.

## Recommendations
Keep narrating daily routines.

## Scores
` + "```json\n" +
	`{"communication": 7, "eyeContact": 8, "socialEngagement": 6, "gestures": 7, "speechClarity": 5, "emotionalResponse": 9}` +
	"\n```"

func TestScores(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *domain.Scores
	}{
		{
			name: "all six keys in range",
			raw:  sampleNarrative,
			want: &domain.Scores{
				Communication:     7,
				EyeContact:        8,
				SocialEngagement:  6,
				Gestures:          7,
				SpeechClarity:     5,
				EmotionalResponse: 9,
			},
		},
		{
			name: "value above range normalized to zero",
			raw:  "```json\n{\"communication\": 11, \"eyeContact\": 8, \"socialEngagement\": 6, \"gestures\": 7, \"speechClarity\": 5, \"emotionalResponse\": 9}\n```",
			want: &domain.Scores{EyeContact: 8, SocialEngagement: 6, Gestures: 7, SpeechClarity: 5, EmotionalResponse: 9},
		},
		{
			name: "negative value normalized to zero",
			raw:  "```json\n{\"communication\": -1, \"eyeContact\": 3, \"socialEngagement\": 3, \"gestures\": 3, \"speechClarity\": 3, \"emotionalResponse\": 3}\n```",
			want: &domain.Scores{EyeContact: 3, SocialEngagement: 3, Gestures: 3, SpeechClarity: 3, EmotionalResponse: 3},
		},
		{
			name: "missing key yields zero for that key only",
			raw:  "```json\n{\"eyeContact\": 4, \"socialEngagement\": 5, \"gestures\": 6, \"speechClarity\": 7, \"emotionalResponse\": 8}\n```",
			want: &domain.Scores{EyeContact: 4, SocialEngagement: 5, Gestures: 6, SpeechClarity: 7, EmotionalResponse: 8},
		},
		{
			name: "non-numeric value yields zero",
			raw:  "```json\n{\"communication\": \"high\", \"eyeContact\": 4, \"socialEngagement\": 4, \"gestures\": 4, \"speechClarity\": 4, \"emotionalResponse\": 4}\n```",
			want: &domain.Scores{EyeContact: 4, SocialEngagement: 4, Gestures: 4, SpeechClarity: 4, EmotionalResponse: 4},
		},
		{
			name: "no block at all",
			raw:  "## Brief Summary\nNothing structured here.",
			want: nil,
		},
		{
			name: "malformed block",
			raw:  "```json\n{\"communication\": 7,,}\n```",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Scores(tt.raw))
		})
	}
}

func TestScoresRoundTrip(t *testing.T) {
	scores := Scores(sampleNarrative)
	require.NotNil(t, scores)

	// Re-serializing and re-parsing yields the same vector.
	reparsed := Scores("```json\n{\"communication\": 7, \"eyeContact\": 8, \"socialEngagement\": 6, \"gestures\": 7, \"speechClarity\": 5, \"emotionalResponse\": 9}\n```")
	assert.Equal(t, scores, reparsed)
}

func TestSummary(t *testing.T) {
	t.Run("extracts brief summary section", func(t *testing.T) {
		got := Summary(sampleNarrative)
		assert.Equal(t, "The child showed warm, frequent eye contact and responded to their name on the first call.", got)
	})

	t.Run("falls back to narrative head", func(t *testing.T) {
		long := "No headings here. " + strings.Repeat("More observation text. ", 20)
		got := Summary(long)
		assert.True(t, len([]rune(got)) <= summaryFallbackLen+3)
		assert.Contains(t, got, "No headings here.")
		assert.Equal(t, "...", got[len(got)-3:])
	})

	t.Run("short narrative without section", func(t *testing.T) {
		assert.Equal(t, "Short text...", Summary("Short text"))
	})
}

func TestStripScores(t *testing.T) {
	stripped := StripScores(sampleNarrative)

	assert.NotContains(t, stripped, "```json")
	assert.NotContains(t, stripped, "## Scores")
	assert.Contains(t, stripped, "## Brief Summary")
	assert.Contains(t, stripped, "Keep narrating daily routines.")
	assert.NotContains(t, stripped, "\n\n\n")
}

func TestStripScoresIdempotent(t *testing.T) {
	once := StripScores(sampleNarrative)
	twice := StripScores(once)

	assert.Equal(t, once, twice)
	assert.Nil(t, Scores(once))
	assert.Equal(t, Summary(once), Summary(twice))
}

func TestStripScoresBareBlock(t *testing.T) {
	raw := "Observations first.\n\n```json\n{\"communication\": 5}\n```\n\nClosing note."
	stripped := StripScores(raw)

	assert.NotContains(t, stripped, "```json")
	assert.Contains(t, stripped, "Observations first.")
	assert.Contains(t, stripped, "Closing note.")
}
