package text

import (
	"strings"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/stats"
)

const (
	tfidfMaxFeatures = 50
	boundaryWindow   = 5
	explicitWindow   = 3
)

var discourseMarkers = phraseList(
	"furthermore", "moreover", "additionally", "also", "and",
	"however", "but", "although", "nevertheless", "conversely",
	"therefore", "thus", "consequently", "hence", "as a result",
	"meanwhile", "subsequently", "finally", "then", "next",
	"for example", "for instance", "specifically", "namely",
)

var transitionWords = phraseList(
	// contrast
	"however", "but", "although", "though", "nevertheless", "nonetheless", "yet", "still", "conversely",
	// addition
	"and", "also", "moreover", "furthermore", "additionally", "besides", "too", "similarly",
	// result
	"therefore", "thus", "consequently", "hence", "accordingly", "so", "as a result",
	// example
	"for example", "for instance", "specifically", "such as", "e.g.", "including",
	// emphasis
	"indeed", "in fact", "certainly", "notably", "importantly",
	// time
	"meanwhile", "subsequently", "finally", "then", "next", "previously", "currently",
)

var explicitTransitions = map[string]bool{
	"however": true, "therefore": true, "moreover": true, "furthermore": true, "consequently": true,
}

type SentenceConnections struct {
	TotalSentences      int `json:"total_sentences"`
	ExplicitTransitions int `json:"explicit_transitions"`
	ImplicitConnections int `json:"implicit_connections"`
	TopicShifts         int `json:"topic_shifts"`
}

type CoherenceMetrics struct {
	Discourse           float64             `json:"discourse_coherence"`
	Semantic            float64             `json:"semantic_coherence"`
	Transition          float64             `json:"transition_density"`
	TransitionsPer100   float64             `json:"transitions_per_100_words"`
	TotalTransitions    int                 `json:"total_transitions"`
	SentenceConnections SentenceConnections `json:"sentence_connections"`
}

type CoherenceResult struct {
	Score         float64           `json:"coherence_score"`
	FluencyRating string            `json:"fluency_rating"`
	Metrics       *CoherenceMetrics `json:"detailed_metrics,omitempty"`
	Feedback      string            `json:"coherence_feedback"`
	Suggestions   []string          `json:"improvement_suggestions"`
}

// TotalTransitions is the transition-word count, 0 when not measured.
func (c CoherenceResult) TotalTransitions() int {
	if c.Metrics == nil {
		return 0
	}
	return c.Metrics.TotalTransitions
}

// AnalyzeCoherence combines discourse markers at sentence boundaries (0.40),
// semantic similarity of adjacent sentences (0.35) and transition-word
// density (0.25). Without a parse, sentences come from the plain splitter
// and semantic similarity rests on TF-IDF alone.
func AnalyzeCoherence(text string, parse *Parse) CoherenceResult {
	var sents []string
	if parse != nil {
		sents = parse.sentenceTexts()
	} else {
		sents = splitSentences(text)
	}
	if len(sents) < 2 {
		return CoherenceResult{
			Score:         6.0,
			FluencyRating: "Insufficient Text",
			Feedback:      "Text is too short for meaningful coherence analysis",
			Suggestions:   []string{"Write more content to enable coherence analysis"},
		}
	}

	discourse := discourseScore(sents)
	semantic := semanticScore(sents, parse)
	transition, count, density := transitionScore(text)

	combined := min(10, stats.Round(discourse*0.40+semantic*0.35+transition*0.25, 1))

	return CoherenceResult{
		Score:         stats.Round(combined, 1),
		FluencyRating: QualityLabel(combined),
		Metrics: &CoherenceMetrics{
			Discourse:           stats.Round(discourse, 2),
			Semantic:            stats.Round(semantic, 2),
			Transition:          stats.Round(transition, 2),
			TransitionsPer100:   stats.Round(density, 2),
			TotalTransitions:    count,
			SentenceConnections: sentenceConnections(sents),
		},
		Feedback:    coherenceFeedback(combined, discourse, semantic, transition),
		Suggestions: coherenceSuggestions(discourse, semantic, transition),
	}
}

// discourseScore is the share of sentence boundaries, scaled to 10, where a
// discourse marker appears in the last words of one sentence or the first
// words of the next.
func discourseScore(sents []string) float64 {
	linked := 0
	for i := 0; i+1 < len(sents); i++ {
		cur, next := words(sents[i]), words(sents[i+1])
		tail := cur[max(0, len(cur)-boundaryWindow):]
		head := next[:min(len(next), boundaryWindow)]
		if containsAnyPhrase(tail, discourseMarkers) || containsAnyPhrase(head, discourseMarkers) {
			linked++
		}
	}
	return min(10, float64(linked)/float64(max(1, len(sents)-1))*10)
}

// semanticScore averages adjacent-sentence vector similarity with adjacent
// TF-IDF cosine similarity, both scaled to 10. Vector similarity defaults to
// 5.0 when the parse carries no usable vectors. Without a parse, or with a
// local one that has no vectors at all, the TF-IDF similarity stands alone.
func semanticScore(sents []string, parse *Parse) float64 {
	topic, ok := topicSimilarities(sents, tfidfMaxFeatures)
	if parse == nil || parse.Method == MethodPOSTagging {
		if !ok {
			return 5.0
		}
		return min(10, stats.Mean(topic)*10)
	}

	vectors := map[string][]float64{}
	for _, s := range parse.Sentences {
		vectors[strings.TrimSpace(s.Text)] = s.Vector
	}
	var sims []float64
	for i := 0; i+1 < len(sents); i++ {
		if sim, ok := cosine(vectors[sents[i]], vectors[sents[i+1]]); ok {
			sims = append(sims, sim)
		}
	}
	score := 5.0
	if len(sims) > 0 {
		score = stats.Mean(sims) * 10
	}
	if ok {
		score = (score + stats.Mean(topic)*10) / 2
	}
	return min(10, score)
}

// transitionScore bands transition words per 100 words: 2-4 is ideal.
func transitionScore(text string) (score float64, count int, density float64) {
	ws := words(text)
	for _, p := range transitionWords {
		count += countPhrase(ws, p)
	}
	density = float64(count) / float64(max(1, len(strings.Fields(text)))) * 100

	switch {
	case density >= 2 && density <= 4:
		score = 9
	case density >= 1 && density <= 5:
		score = 7
	case density > 5:
		score = 6
	default:
		score = max(3, density*2)
	}
	return min(10, score), count, density
}

func sentenceConnections(sents []string) SentenceConnections {
	c := SentenceConnections{TotalSentences: len(sents)}
	for i := 0; i+1 < len(sents); i++ {
		a, b := words(sents[i]), words(sents[i+1])

		explicit := false
		for _, w := range a[max(0, len(a)-explicitWindow):] {
			explicit = explicit || explicitTransitions[w]
		}
		for _, w := range b[:min(len(b), explicitWindow)] {
			explicit = explicit || explicitTransitions[w]
		}
		if explicit {
			c.ExplicitTransitions++
		}

		setA, setB := wordSet(a), wordSet(b)
		shared := 0
		for w := range setA {
			if setB[w] {
				shared++
			}
		}
		if shared >= 2 {
			c.ImplicitConnections++
		}
		if shared <= 1 && len(setA) > 3 && len(setB) > 3 {
			c.TopicShifts++
		}
	}
	return c
}

func wordSet(ws []string) map[string]bool {
	m := make(map[string]bool, len(ws))
	for _, w := range ws {
		m[w] = true
	}
	return m
}

func coherenceFeedback(overall, discourse, semantic, transition float64) string {
	switch {
	case overall >= 9:
		return "Excellent coherence with strong logical flow and clear connections between ideas."
	case overall >= 8:
		return "Very good coherence. Ideas flow logically with appropriate transitions."
	case overall >= 7:
		return "Good coherence overall. Some minor improvements to logical flow possible."
	case overall >= 6:
		parts := []string{"Fair coherence."}
		if discourse < 6 {
			parts = append(parts, "Work on creating clearer logical connections between sentences.")
		}
		if semantic < 6 {
			parts = append(parts, "Ensure ideas maintain consistent focus.")
		}
		if transition < 6 {
			parts = append(parts, "Add more transition words to guide the reader.")
		}
		return strings.Join(parts, " ")
	default:
		return "The text lacks clear coherence. Focus on logical organization, consistent topics, and using transition words to connect ideas."
	}
}

func coherenceSuggestions(discourse, semantic, transition float64) []string {
	var out []string
	if discourse < 7 {
		out = append(out,
			"Use discourse markers (however, therefore, furthermore) to show logical relationships",
			"Ensure each sentence logically follows from the previous one")
	}
	if semantic < 7 {
		out = append(out,
			"Maintain consistent topics throughout paragraphs",
			"Use pronouns and repetition to create clear references")
	}
	if transition < 7 {
		out = append(out,
			"Add transition words at the beginning of sentences to guide readers",
			"Vary transition types (contrast, addition, cause-effect)")
	}
	if len(out) == 0 {
		out = append(out, "Maintain current coherence practices")
	}
	return out[:min(len(out), 3)]
}
