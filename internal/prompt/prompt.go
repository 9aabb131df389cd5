// Package prompt assembles the instruction text sent to the inference
// service: a scenario-specific or generic template, the structured-scores
// request, and an optional screening-context preamble.
package prompt

import (
	"fmt"
	"strings"

	"github.com/kidooo/analysis-service/internal/screening"
)

const scoresSuffix = "\n\n## Scores\n" +
	"At the very end of your response, provide a JSON block with developmental scores (1-10 scale, where 10 is typical development for age). Use EXACTLY this format:\n" +
	"```json\n" +
	`{"communication": X, "eyeContact": X, "socialEngagement": X, "gestures": X, "speechClarity": X, "emotionalResponse": X}` + "\n" +
	"```\n" +
	"Replace X with your score based on observations. If a dimension cannot be assessed from this video, use 0."

const (
	// ScreeningContextStart and ScreeningContextEnd delimit the optional
	// questionnaire preamble inside the prompt.
	ScreeningContextStart = "--- M-CHAT-R SCREENING CONTEXT ---"
	ScreeningContextEnd   = "--- END SCREENING CONTEXT ---"
)

const genericVideoInstructions = `You are an expert child development specialist and behavioral analyst.
Analyze this video carefully and provide your observations in the following structured format.
Use markdown formatting.

## Brief Summary
Provide a 2-3 sentence overview of the key observations from this video.

## Detailed Observations

### Communication & Language
Describe any verbal and non-verbal communication patterns observed.

### Social Interaction
Note any social engagement, eye contact, joint attention, or interaction patterns.

### Behavior Patterns
Describe any repetitive behaviors, transitions, responses to stimuli, or notable behavioral patterns.

### Motor Skills
Observe and note both fine motor (hand movements, grasping) and gross motor (walking, jumping, balance) skills.

### Sensory Responses
Note any reactions to sensory input (sounds, lights, textures, etc.).

### Emotional Regulation
Describe emotional expressions, self-regulation attempts, and mood patterns observed.

## Key Strengths
List the child's observable strengths and positive behaviors.

## Areas for Support
Identify areas where additional support or intervention might be beneficial.

## Recommendations
Provide specific, actionable suggestions for caregivers and therapists.

Please be thorough but concise. Focus on observable behaviors rather than making diagnoses.`

const reportInstructions = `You are an expert child development specialist reviewing a clinical/educational evaluation report for a child.
Analyze this document carefully and provide your observations in the following structured format.
Use markdown formatting.

## Brief Summary
Provide a 2-3 sentence overview of the key findings from this evaluation report.

## Key Findings
Summarize the main diagnostic findings, test results, and clinical observations from the report.

## Developmental Profile
Based on the evaluation, describe the child's current developmental profile across these areas:
- Communication & Language
- Social Interaction
- Behavior Patterns
- Motor Skills
- Cognitive/Academic Skills
- Adaptive Behavior

## Strengths Identified
List the strengths noted in the evaluation.

## Areas of Concern
List the areas of concern or diagnosed conditions.

## Recommended Interventions
Summarize any therapy, intervention, or support recommendations from the report.

## Parent Guidance
Based on this evaluation, what should parents focus on? Provide practical suggestions.`

// GenericVideo is the instruction template used when no scenario was
// requested.
func GenericVideo() string {
	return genericVideoInstructions + scoresSuffix
}

// Report is the instruction template for evaluation-report documents.
func Report() string {
	return reportInstructions + scoresSuffix
}

// WithScreeningContext prepends the questionnaire preamble to an
// instruction template. A nil result returns the template unmodified.
// The preamble carries the risk score, the risk level, and one line per
// risk-indicating answer.
func WithScreeningContext(instructions string, result *screening.Result) string {
	if result == nil {
		return instructions
	}

	var b strings.Builder
	b.WriteString(ScreeningContextStart)
	b.WriteString("\nThe parent completed the M-CHAT-R (Modified Checklist for Autism in Toddlers, Revised) questionnaire.\n")
	fmt.Fprintf(&b, "Risk score: %d/20 (%s risk).\n", result.Score, result.RiskLevel)

	if flagged := flaggedLines(result.Answers); len(flagged) > 0 {
		b.WriteString("\nRisk-indicating responses:\n")
		for _, line := range flagged {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	b.WriteString("\nItems marked [RISK] indicate answers associated with developmental concern.\n")
	b.WriteString("Use this screening data as important context when assessing the child's behavior.\n")
	b.WriteString(ScreeningContextEnd)
	b.WriteString("\n\n")
	b.WriteString(instructions)
	return b.String()
}

func flaggedLines(answers map[int]bool) []string {
	var lines []string
	for _, q := range Questions {
		answer, ok := answers[q.ID]
		if !ok || !q.RiskIndicating(answer) {
			continue
		}
		yesNo := "No"
		if answer {
			yesNo = "Yes"
		}
		lines = append(lines, fmt.Sprintf("  Q%d. %s → %s [RISK]", q.ID, q.Text, yesNo))
	}
	return lines
}
