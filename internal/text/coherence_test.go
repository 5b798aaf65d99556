package text

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestAnalyzeCoherenceShortText(t *testing.T) {
	res := AnalyzeCoherence("Just one sentence here.", nil)
	assert.Equal(t, 6.0, res.Score)
	assert.Equal(t, "Insufficient Text", res.FluencyRating)
	assert.Equal(t, "Text is too short for meaningful coherence analysis", res.Feedback)
	assert.Nil(t, res.Metrics)
	assert.Zero(t, res.TotalTransitions())
}

func TestAnalyzeCoherenceWithoutParser(t *testing.T) {
	res := AnalyzeCoherence("I like apples. However, I prefer pears. Then I eat them.", nil)
	require.NotNil(t, res.Metrics)

	// both boundaries open with a marker
	assert.Equal(t, 10.0, res.Metrics.Discourse)
	// no content word carries over between sentences
	assert.Equal(t, 0.0, res.Metrics.Semantic)
	assert.Equal(t, 2, res.Metrics.TotalTransitions)
	// 2 transitions in 11 words is too dense
	assert.Equal(t, 6.0, res.Metrics.Transition)
	assert.Equal(t, 5.5, res.Score)
	assert.Equal(t, "Needs Improvement", res.FluencyRating)
	assert.Equal(t, []string{
		"Maintain consistent topics throughout paragraphs",
		"Use pronouns and repetition to create clear references",
		"Add transition words at the beginning of sentences to guide readers",
	}, res.Suggestions)

	conn := res.Metrics.SentenceConnections
	assert.Equal(t, SentenceConnections{TotalSentences: 3, ExplicitTransitions: 1, TopicShifts: 1}, conn)
}

func TestAnalyzeCoherenceLinkedTextWithoutParser(t *testing.T) {
	const linked = "The quarterly budget covers hiring. " +
		"However, the budget also covers training for new managers. " +
		"Therefore, training new managers starts next quarter."
	const unlinked = "The quarterly budget covers hiring. " +
		"Dogs bark loudly at night. " +
		"Rain fell across northern valleys."

	tests := []struct {
		name     string
		parse    *Parse
		minScore float64
	}{
		{"no parse", nil, 5},
		{"local parse", mustLocalParse(t, linked), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := AnalyzeCoherence(linked, tt.parse)
			require.NotNil(t, res.Metrics)

			assert.Equal(t, 10.0, res.Metrics.Discourse)
			assert.Greater(t, res.Metrics.Semantic, 0.0)
			assert.Greater(t, res.Score, tt.minScore)
		})
	}

	flat := AnalyzeCoherence(unlinked, nil)
	linkedRes := AnalyzeCoherence(linked, nil)
	assert.Zero(t, flat.Metrics.Discourse)
	assert.Zero(t, flat.Metrics.Semantic)
	assert.Greater(t, linkedRes.Score, flat.Score)
}

func TestAnalyzeCoherenceWithVectors(t *testing.T) {
	parse := &Parse{Sentences: []Sentence{
		{Text: "Cats are great pets.", Vector: []float64{1, 0}},
		{Text: "Cats are also loyal pets.", Vector: []float64{2, 0}},
	}}

	res := AnalyzeCoherence("Cats are great pets. Cats are also loyal pets.", parse)
	require.NotNil(t, res.Metrics)

	assert.Equal(t, 10.0, res.Metrics.Discourse)
	// vector similarity 10 averaged with the tf-idf similarity
	assert.GreaterOrEqual(t, res.Metrics.Semantic, 5.0)
	assert.Less(t, res.Metrics.Semantic, 10.0)
	assert.Equal(t, 1, res.Metrics.TotalTransitions)
	assert.GreaterOrEqual(t, res.Score, 7.2)
	assert.LessOrEqual(t, res.Score, 9.0)
	assert.Equal(t, 1, res.Metrics.SentenceConnections.ImplicitConnections)
}

func TestAnalyzeCoherenceParsedWithoutVectors(t *testing.T) {
	res := AnalyzeCoherence("The cat sat. I left and she stayed.", twoSentenceParse())
	require.NotNil(t, res.Metrics)

	assert.Equal(t, 10.0, res.Metrics.Discourse)
	assert.Equal(t, 2.5, res.Metrics.Semantic)
	assert.Equal(t, 6.4, res.Score)
	assert.Equal(t, "Fair coherence. Ensure ideas maintain consistent focus.", res.Feedback)
}

func TestTransitionScore(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		score float64
		count int
	}{
		{"ideal density", "however " + repeatWords("word", 49), 9, 1},
		{"acceptable density", "however " + repeatWords("word", 99), 7, 1},
		{"sparse", repeatWords("word", 100), 3, 0},
		{"abbreviation", "We use tools, e.g., hammers.", 6, 1},
		{"whole words only", "Also and so are absent from band and person.", 6, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, count, _ := transitionScore(tt.text)
			assert.Equal(t, tt.score, score)
			assert.Equal(t, tt.count, count)
		})
	}
}

func TestTopicSimilarities(t *testing.T) {
	t.Run("only stop words", func(t *testing.T) {
		_, ok := topicSimilarities([]string{"the and of", "it is"}, tfidfMaxFeatures)
		assert.False(t, ok)
	})

	t.Run("single sentence", func(t *testing.T) {
		_, ok := topicSimilarities([]string{"apples and pears"}, tfidfMaxFeatures)
		assert.False(t, ok)
	})

	t.Run("shared and disjoint terms", func(t *testing.T) {
		sims, ok := topicSimilarities([]string{"Apples pears", "apples pears", "grapes"}, tfidfMaxFeatures)
		require.True(t, ok)
		require.Len(t, sims, 2)
		assert.InDelta(t, 1.0, sims[0], 1e-9)
		assert.Zero(t, sims[1])
	})
}

func TestTopFeatures(t *testing.T) {
	// rows: apples, grapes, pears
	counts := mat.NewDense(3, 2, []float64{
		2, 1,
		1, 0,
		1, 1,
	})
	vocab := map[string]int{"apples": 0, "grapes": 1, "pears": 2}

	kept := topFeatures(counts, vocab, 2)
	rows, cols := kept.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	// apples, pears, grapes by corpus frequency
	assert.Equal(t, []float64{2, 1}, mat.Row(nil, 0, kept))
	assert.Equal(t, []float64{1, 1}, mat.Row(nil, 1, kept))

	all := topFeatures(counts, vocab, 0)
	rows, _ = all.Dims()
	assert.Equal(t, 3, rows)
}

func mustLocalParse(t *testing.T, text string) *Parse {
	t.Helper()
	parse, err := LocalParser().Parse(context.Background(), text)
	require.NoError(t, err)
	return parse
}
