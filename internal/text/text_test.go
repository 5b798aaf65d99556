package text

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/errors"
)

func defaultWeights() config.TextWeights {
	return config.DefaultThresholds().TextWeights
}

func TestCalculateOverallScore(t *testing.T) {
	tests := []struct {
		name   string
		scores map[string]float64
		want   float64
	}{
		{"all categories", map[string]float64{"grammar": 10, "readability": 8, "coherence": 6, "structure": 7}, 8.0},
		{"readability missing renormalizes", map[string]float64{"grammar": 9, "coherence": 6, "structure": 7}, 7.6},
		{"single category", map[string]float64{"coherence": 4.5}, 4.5},
		{"nothing scored", map[string]float64{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateOverallScore(tt.scores, defaultWeights()))
		})
	}
}

func TestImprovementAreas(t *testing.T) {
	got := ImprovementAreas(map[string]float64{"grammar": 6.9, "readability": 8, "structure": 5, "coherence": 7})
	assert.Equal(t, []string{"Grammar", "Structure"}, got)
	assert.Empty(t, ImprovementAreas(map[string]float64{"grammar": 9}))
}

func TestSuggestions(t *testing.T) {
	weak := Suggestions(map[string]float64{"grammar": 6, "readability": 5, "coherence": 5, "structure": 5}, 5.5)
	assert.Equal(t, []string{
		"🔄 **Significant Improvement Needed**: Focus on fundamental writing skills.",
		"📚 **Grammar & Spelling**: Review grammar rules and proofread carefully.",
		"📖 **Readability**: Simplify language and improve sentence flow.",
		"🔗 **Coherence**: Use transition words and improve logical flow.",
		"📐 **Structure**: Vary sentence length and structure.",
	}, weak)

	strong := Suggestions(map[string]float64{"grammar": 10, "readability": 9, "coherence": 9, "structure": 9}, 9.3)
	assert.Equal(t, []string{"🎉 **Excellent Writing**: Your text demonstrates strong writing skills across all categories!"}, strong)

	// categories that were not scored do not produce suggestions
	assert.Len(t, Suggestions(map[string]float64{"grammar": 8}, 8), 1)
}

func TestQualityLabel(t *testing.T) {
	assert.Equal(t, "Excellent", QualityLabel(9))
	assert.Equal(t, "Very Good", QualityLabel(8.5))
	assert.Equal(t, "Good", QualityLabel(7))
	assert.Equal(t, "Fair", QualityLabel(6.2))
	assert.Equal(t, "Needs Improvement", QualityLabel(5))
	assert.Equal(t, "Poor", QualityLabel(4.9))
}

func TestAnalyzeRejectsEmptyText(t *testing.T) {
	_, err := Analyze(context.Background(), "   ", Deps{})
	require.Error(t, err)
	assert.Equal(t, errors.CategoryValidation, errors.ToAppError(err).Category)
}

func TestAnalyzeWithoutCollaborators(t *testing.T) {
	res, err := Analyze(context.Background(), sampleParagraph, Deps{})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.True(t, res.Details.Grammar.Degraded())
	assert.Equal(t, 5.0, res.Analysis.Categories.GrammarSpelling.Score)
	assert.Equal(t, MethodPOSTagging, res.Details.Structure.Method)
	require.NotNil(t, res.Details.Structure.Syntactic)
	// "and" closes the second sentence
	assert.InDelta(t, 3.33, res.Details.Coherence.Metrics.Discourse, 0.01)
	assert.False(t, res.Metadata.ParserUsed)
	assert.Equal(t, MethodPOSTagging, res.Metadata.ParseMethod)
	assert.Equal(t, 4, res.Metadata.SentenceCount)
	assert.Equal(t, 41, res.Metadata.WordCount)
	assert.Equal(t, len(sampleParagraph), res.Metadata.TextLength)
	assert.Equal(t, CalculateOverallScore(res.Details.scores(), defaultWeights()), res.Analysis.OverallScore)
	assert.Contains(t, res.KeyImprovementAreas, "Grammar")
}

func TestAnalyzeWithCollaborators(t *testing.T) {
	checker := &fakeChecker{}
	deps := Deps{Grammar: checker, Parser: fakeParser{parse: twoSentenceParse()}, Weights: defaultWeights()}

	res, err := Analyze(context.Background(), "The cat sat. I left and she stayed.", deps)
	require.NoError(t, err)

	assert.Equal(t, 1, checker.calls)
	assert.Equal(t, 10.0, res.Details.Grammar.Score)
	assert.True(t, res.Metadata.ParserUsed)
	assert.Equal(t, MethodDependencyParse, res.Metadata.ParseMethod)
	assert.Equal(t, 8, res.Metadata.WordCount)
	assert.Equal(t, 2, res.Metadata.SentenceCount)

	cats := res.Analysis.Categories
	assert.Equal(t, "Excellent", cats.GrammarSpelling.Level)
	assert.Equal(t, 7.0, cats.Structure.Score)
	assert.Equal(t, StructureDetails{SentenceVariety: "Could be improved", AvgSentenceLength: 4, WordCount: 8}, cats.Structure.Details)
	assert.Equal(t, []string{"Combine some short sentences", "Add more detail to sentences"}, cats.Structure.ImprovementTips)
	assert.Equal(t, 6.4, cats.Coherence.Score)
	assert.Equal(t, []string{"Text flow", "Transition usage"}, cats.Coherence.Weaknesses)
	assert.Equal(t, 1, cats.Coherence.Details.TransitionWords)
	assert.Equal(t, []string{res.Details.Coherence.Feedback}, cats.Coherence.ImprovementTips)
}

func TestAnalyzeDegradesOnCollaboratorErrors(t *testing.T) {
	deps := Deps{
		Grammar: &fakeChecker{err: fmt.Errorf("status 503")},
		Parser:  fakeParser{err: fmt.Errorf("parser down")},
	}

	res, err := Analyze(context.Background(), sampleParagraph, deps)
	require.NoError(t, err)
	assert.Equal(t, "Grammar analysis error: status 503", res.Details.Grammar.Summary.OverallFeedback)
	assert.False(t, res.Metadata.ParserUsed)
	assert.Equal(t, MethodPOSTagging, res.Details.Structure.Method)
}

func TestAnalyzeLinkedTextWithoutParseService(t *testing.T) {
	const linked = "The team finished the quarterly budget review on Monday. " +
		"However, the budget review showed that hiring costs had grown. " +
		"Therefore, the team decided to delay new hiring until the next quarter. " +
		"Meanwhile, managers will track costs every week."

	res, err := Analyze(context.Background(), linked, Deps{Grammar: &fakeChecker{}})
	require.NoError(t, err)

	assert.False(t, res.Metadata.ParserUsed)
	assert.Equal(t, MethodPOSTagging, res.Metadata.ParseMethod)
	assert.Equal(t, 10.0, res.Details.Coherence.Metrics.Discourse)
	assert.Greater(t, res.Details.Coherence.Metrics.Semantic, 0.0)
	assert.Greater(t, res.Analysis.Categories.Coherence.Score, 5.0)
	assert.Equal(t, MethodPOSTagging, res.Details.Structure.Method)
	assert.Equal(t, 4, res.Metadata.SentenceCount)
}

func TestAnalyzeShortTextSkipsReadability(t *testing.T) {
	res, err := Analyze(context.Background(), "Hi there.", Deps{Grammar: &fakeChecker{}})
	require.NoError(t, err)

	assert.Nil(t, res.Analysis.Categories.Readability.Score)
	assert.Equal(t, "Poor", res.Analysis.Categories.Readability.Level)
	_, scored := res.Details.scores()[CategoryReadability]
	assert.False(t, scored)

	// the readability weight drops out and the other three are re-averaged
	w := defaultWeights()
	d := res.Details
	want := (d.Grammar.Score*w.Grammar + d.Structure.Score*w.Structure + d.Coherence.Score*w.Coherence) /
		(w.Grammar + w.Structure + w.Coherence)
	assert.InDelta(t, want, res.Analysis.OverallScore, 0.05)
}
