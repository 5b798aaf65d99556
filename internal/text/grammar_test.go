package text

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreGrammarClean(t *testing.T) {
	res := ScoreGrammar(repeatWords("word", 100), nil)

	assert.Equal(t, 10.0, res.Score)
	assert.Zero(t, res.TotalIssues)
	assert.Equal(t, MethodLanguageTool, res.AnalysisMethod)
	assert.False(t, res.Degraded())
	assert.Equal(t, "Excellent", res.Summary.QualityRating)
	assert.Equal(t, "Perfect grammar and spelling! Your writing is impeccable.", res.Summary.OverallFeedback)
	assert.Equal(t, []string{"Excellent writing! No grammar or spelling issues found."}, res.Summary.ImprovementTips)
	assert.Equal(t, []string{"0 grammar and spelling issues found"}, res.Summary.SpecificIssues)
	assert.NotNil(t, res.Issues.AllErrors)
}

func TestScoreGrammarSingleIssue(t *testing.T) {
	res := ScoreGrammar(repeatWords("word", 100), []GrammarMatch{{Message: "Possible typo", Replacements: []string{"world"}}})

	assert.Equal(t, 9.5, res.Score)
	assert.Equal(t, 0.01, res.ErrorRatio)
	require.Len(t, res.Issues.AllErrors, 1)
	assert.Equal(t, "Unknown", res.Issues.AllErrors[0].Category)
	assert.Equal(t, []string{"world"}, res.Issues.AllErrors[0].Suggestions)
	assert.Equal(t, []string{"Minor issues found", "A quick proofread would help"}, res.Summary.ImprovementTips)
}

func TestScoreGrammarManyIssues(t *testing.T) {
	matches := make([]GrammarMatch, 12)
	for i := range matches {
		matches[i] = GrammarMatch{
			Message:      fmt.Sprintf("issue %d", i),
			Category:     "Grammar",
			Replacements: []string{"a", "b", "c", "d", "e"},
		}
	}

	res := ScoreGrammar(repeatWords("word", 10), matches)
	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, 12, res.TotalIssues)
	assert.Equal(t, 12, res.Issues.ErrorCount)
	assert.Equal(t, 1.2, res.ErrorRatio)
	require.Len(t, res.Issues.AllErrors, maxReportedErrors)
	for _, e := range res.Issues.AllErrors {
		assert.Len(t, e.Suggestions, maxSuggestions)
	}
	assert.Equal(t, "Several issues need attention.", res.Summary.OverallFeedback)
	assert.Equal(t, "Poor", res.Summary.QualityRating)
}

func TestGrammarScoreBands(t *testing.T) {
	tests := []struct {
		ratio float64
		want  float64
	}{
		{0.02, 9.5},
		{0.05, 9},
		{0.06, 8},
		{0.10, 7},
		{0.15, 6},
		{0.20, 5},
		{0.25, 4},
		{0.30, 3},
		{0.35, 3},
		{0.50, 1},
		{2.00, 1},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, grammarScore(1, tt.ratio), 1e-9, "ratio %v", tt.ratio)
	}
	assert.Equal(t, 10.0, grammarScore(0, 0))
}

func TestGrammarUnavailable(t *testing.T) {
	res := GrammarUnavailable(fmt.Errorf("connection refused"))

	assert.Equal(t, 5.0, res.Score)
	assert.True(t, res.Degraded())
	assert.Equal(t, MethodError, res.AnalysisMethod)
	assert.Equal(t, "Analysis Failed", res.Summary.QualityRating)
	assert.Equal(t, "Grammar analysis error: connection refused", res.Summary.OverallFeedback)
	assert.Equal(t, []string{"Analysis unavailable"}, res.Summary.SpecificIssues)
	assert.Empty(t, res.Issues.AllErrors)
}
