package text

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/stats"
)

// Sentence structure types.
const (
	StructureSimple          = "simple"
	StructureCompound        = "compound"
	StructureComplex         = "complex"
	StructureComplexCompound = "complex-compound"
)

var (
	clauseDeps      = map[string]bool{"ccomp": true, "xcomp": true, "advcl": true, "relcl": true}
	subordinateDeps = map[string]bool{"advcl": true, "relcl": true, "ccomp": true}
)

type BasicMetrics struct {
	SentenceCount          int     `json:"sentence_count"`
	WordCount              int     `json:"word_count"`
	AvgSentenceLength      float64 `json:"avg_sentence_length"`
	SentenceLengthVariance float64 `json:"sentence_length_variance"`
	MaxSentenceLength      int     `json:"max_sentence_length"`
	MinSentenceLength      int     `json:"min_sentence_length"`
	SentenceLengthRange    string  `json:"sentence_length_range,omitempty"`
}

type SyntacticMetrics struct {
	AvgClausesPerSentence float64 `json:"avg_clauses_per_sentence"`
	AvgDependencyDepth    float64 `json:"avg_dependency_depth"`
	ComplexityScore       float64 `json:"syntactic_complexity_score"`
	ComplexityVariance    float64 `json:"complexity_variance"`
}

type POSMetrics struct {
	Richness       int            `json:"pos_richness"`
	DiversityIndex float64        `json:"pos_diversity_index"`
	NounRatio      float64        `json:"noun_ratio"`
	VerbRatio      float64        `json:"verb_ratio"`
	AdjectiveRatio float64        `json:"adjective_ratio"`
	AdverbRatio    float64        `json:"adverb_ratio"`
	Distribution   map[string]int `json:"pos_distribution"`
}

type DependencyMetrics struct {
	StructureTypes map[string]int `json:"sentence_structure_types"`
	Relations      map[string]int `json:"dependency_relations"`
	AvgPerSentence float64        `json:"avg_dependencies_per_sentence"`
}

type StructureResult struct {
	Score       float64            `json:"structure_score"`
	Basic       *BasicMetrics      `json:"basic_metrics,omitempty"`
	Syntactic   *SyntacticMetrics  `json:"syntactic_complexity,omitempty"`
	POS         *POSMetrics        `json:"pos_analysis,omitempty"`
	Dependency  *DependencyMetrics `json:"dependency_analysis,omitempty"`
	Feedback    string             `json:"structure_feedback"`
	Suggestions []string           `json:"improvement_suggestions"`
	Method      string             `json:"analysis_method"`
}

// AnalyzeStructure scores sentence length, variety, syntactic complexity and
// part-of-speech diversity over a dependency parse, from the NLP service or
// the local tagger. A nil parse falls back to a basic split scored at 5.0.
func AnalyzeStructure(text string, parse *Parse) StructureResult {
	if parse == nil {
		return basicStructure(text)
	}
	sents := make([]Sentence, 0, len(parse.Sentences))
	for _, s := range parse.Sentences {
		if len(s.Tokens) > 0 {
			sents = append(sents, s)
		}
	}
	if len(sents) == 0 {
		return shortStructure()
	}

	basic := basicMetrics(sents)
	syn := syntacticMetrics(sents)
	pos := posMetrics(sents)
	dep := dependencyMetrics(sents)
	score := structureScore(basic, syn, pos)

	return StructureResult{
		Score:       stats.Round(score, 1),
		Basic:       &basic,
		Syntactic:   &syn,
		POS:         &pos,
		Dependency:  &dep,
		Feedback:    structureFeedback(score, basic, syn),
		Suggestions: structureSuggestions(basic, syn, pos),
		Method:      parse.method(),
	}
}

func basicMetrics(sents []Sentence) BasicMetrics {
	lengths := make([]float64, len(sents))
	wordCount := 0
	for i, s := range sents {
		for _, t := range s.Tokens {
			if t.IsPunct {
				continue
			}
			lengths[i]++
			if !t.IsSpace {
				wordCount++
			}
		}
	}

	lo, hi := int(lengths[0]), int(lengths[0])
	for _, l := range lengths {
		lo = min(lo, int(l))
		hi = max(hi, int(l))
	}

	return BasicMetrics{
		SentenceCount:          len(sents),
		WordCount:              wordCount,
		AvgSentenceLength:      stats.Round(stats.Mean(lengths), 1),
		SentenceLengthVariance: stats.Round(stats.Stdev(lengths), 2),
		MaxSentenceLength:      hi,
		MinSentenceLength:      lo,
		SentenceLengthRange:    fmt.Sprintf("%d-%d", lo, hi),
	}
}

func syntacticMetrics(sents []Sentence) SyntacticMetrics {
	clauses := make([]float64, len(sents))
	depths := make([]float64, len(sents))
	complexity := make([]float64, len(sents))
	for i, s := range sents {
		clauses[i] = float64(countClauses(s))
		depths[i] = float64(dependencyDepth(s))
		complexity[i] = clauses[i]*0.6 + depths[i]*0.4
	}
	return SyntacticMetrics{
		AvgClausesPerSentence: stats.Round(stats.Mean(clauses), 2),
		AvgDependencyDepth:    stats.Round(stats.Mean(depths), 2),
		ComplexityScore:       stats.Round(stats.Mean(complexity), 2),
		ComplexityVariance:    stats.Round(stats.Stdev(complexity), 2),
	}
}

// headDep returns the dependency label of t's head, or "" when the head
// index is out of range.
func headDep(s Sentence, t Token) string {
	if t.Head < 0 || t.Head >= len(s.Tokens) {
		return ""
	}
	return s.Tokens[t.Head].Dep
}

// countClauses starts from the main clause and adds one per clausal
// complement or modifier and per coordinating conjunction on the root.
func countClauses(s Sentence) int {
	n := 1
	for _, t := range s.Tokens {
		switch {
		case clauseDeps[t.Dep]:
			n++
		case t.Dep == "cc" && headDep(s, t) == "ROOT":
			n++
		}
	}
	return n
}

// dependencyDepth is the height of the tree under the first ROOT token.
func dependencyDepth(s Sentence) int {
	root := -1
	children := make(map[int][]int, len(s.Tokens))
	for i, t := range s.Tokens {
		if t.Dep == "ROOT" {
			if root < 0 {
				root = i
			}
			continue
		}
		if t.Head >= 0 && t.Head < len(s.Tokens) && t.Head != i {
			children[t.Head] = append(children[t.Head], i)
		}
	}
	if root < 0 {
		return 0
	}

	deepest := 0
	seen := make(map[int]bool, len(s.Tokens))
	var walk func(i, d int)
	walk = func(i, d int) {
		if seen[i] {
			return
		}
		seen[i] = true
		deepest = max(deepest, d)
		for _, c := range children[i] {
			walk(c, d+1)
		}
	}
	walk(root, 0)
	return deepest
}

func posMetrics(sents []Sentence) POSMetrics {
	counts := map[string]int{}
	total := 0
	for _, s := range sents {
		for _, t := range s.Tokens {
			if t.IsPunct || t.IsSpace {
				continue
			}
			counts[t.POS]++
			total++
		}
	}

	ratio := func(tag string) float64 {
		return stats.Round(stats.SafeRatio(float64(counts[tag]), float64(total)), 3)
	}

	simpson := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		simpson += p * p
	}
	diversity := 0.0
	if total > 0 {
		diversity = 1 - simpson
	}

	return POSMetrics{
		Richness:       len(counts),
		DiversityIndex: stats.Round(diversity, 3),
		NounRatio:      ratio("NOUN"),
		VerbRatio:      ratio("VERB"),
		AdjectiveRatio: ratio("ADJ"),
		AdverbRatio:    ratio("ADV"),
		Distribution:   counts,
	}
}

func dependencyMetrics(sents []Sentence) DependencyMetrics {
	types := map[string]int{}
	rels := map[string]int{}
	total := 0
	for _, s := range sents {
		types[classifyStructure(s)]++
		for _, t := range s.Tokens {
			rels[t.Dep]++
			total++
		}
	}
	return DependencyMetrics{
		StructureTypes: types,
		Relations:      rels,
		AvgPerSentence: float64(total) / float64(len(sents)),
	}
}

func classifyStructure(s Sentence) string {
	var sub, coord bool
	for _, t := range s.Tokens {
		if subordinateDeps[t.Dep] {
			sub = true
		}
		if t.Dep == "cc" && headDep(s, t) == "ROOT" {
			coord = true
		}
	}
	switch {
	case sub && coord:
		return StructureComplexCompound
	case sub:
		return StructureComplex
	case coord:
		return StructureCompound
	default:
		return StructureSimple
	}
}

// structureScore sums four 2.5-point factors.
func structureScore(b BasicMetrics, syn SyntacticMetrics, pos POSMetrics) float64 {
	score := 0.0

	switch l := b.AvgSentenceLength; {
	case l >= 15 && l <= 25:
		score += 2.5
	case l >= 12 && l <= 30:
		score += 2.0
	default:
		score += 1.0
	}

	switch v := b.SentenceLengthVariance; {
	case v >= 8:
		score += 2.5
	case v >= 5:
		score += 2.0
	case v >= 3:
		score += 1.5
	default:
		score += 1.0
	}

	switch c := syn.ComplexityScore; {
	case c >= 1.5 && c <= 3.0:
		score += 2.5
	case c >= 1.0 && c <= 4.0:
		score += 2.0
	default:
		score += 1.0
	}

	switch d := pos.DiversityIndex; {
	case d >= 0.7:
		score += 2.5
	case d >= 0.5:
		score += 2.0
	case d >= 0.3:
		score += 1.5
	default:
		score += 1.0
	}

	return min(10, score)
}

func structureFeedback(score float64, b BasicMetrics, syn SyntacticMetrics) string {
	switch {
	case score >= 9:
		return "Excellent sentence structure with ideal length, variety, and complexity for academic writing."
	case score >= 8:
		return "Very good sentence structure. Maintains appropriate complexity and variety."
	case score >= 7:
		parts := []string{"Good sentence structure."}
		if b.AvgSentenceLength < 15 {
			parts = append(parts, "Some sentences could be more developed.")
		}
		if b.SentenceLengthVariance < 5 {
			parts = append(parts, "Consider varying sentence length more.")
		}
		return strings.Join(parts, " ")
	}

	parts := []string{"Sentence structure needs improvement."}
	if b.AvgSentenceLength > 25 {
		parts = append(parts, "Some sentences are too long.")
	}
	if b.AvgSentenceLength < 12 {
		parts = append(parts, "Many sentences are too short.")
	}
	if b.SentenceLengthVariance < 3 {
		parts = append(parts, "Sentence length is too uniform.")
	}
	if syn.ComplexityScore < 1.0 {
		parts = append(parts, "Sentences are overly simple.")
	}
	return strings.Join(parts, " ")
}

func structureSuggestions(b BasicMetrics, syn SyntacticMetrics, pos POSMetrics) []string {
	var out []string
	switch {
	case b.AvgSentenceLength > 25:
		out = append(out, "Break long sentences into shorter, clearer statements")
	case b.AvgSentenceLength < 15:
		out = append(out, "Combine some short sentences to create more complex ideas")
	}
	if b.SentenceLengthVariance < 5 {
		out = append(out, "Vary sentence length to create better rhythm and flow")
	}
	if syn.ComplexityScore < 1.5 {
		out = append(out, "Use subordinate clauses to create more sophisticated sentences")
	}
	if pos.DiversityIndex < 0.5 {
		out = append(out, "Use more varied vocabulary and sentence patterns")
	}
	if len(out) == 0 {
		out = append(out, "Maintain current sentence structure practices")
	}
	return out[:min(len(out), 3)]
}

// basicStructure splits on periods only and reports lengths without scoring
// syntax.
func basicStructure(text string) StructureResult {
	var sents []string
	for _, s := range strings.Split(text, ".") {
		if s = strings.TrimSpace(s); s != "" {
			sents = append(sents, s)
		}
	}
	if len(sents) == 0 {
		return shortStructure()
	}

	lengths := make([]float64, len(sents))
	lo, hi := len(strings.Fields(sents[0])), 0
	for i, s := range sents {
		n := len(strings.Fields(s))
		lengths[i] = float64(n)
		lo, hi = min(lo, n), max(hi, n)
	}

	return StructureResult{
		Score: 5.0,
		Basic: &BasicMetrics{
			SentenceCount:     len(sents),
			WordCount:         len(strings.Fields(text)),
			AvgSentenceLength: stats.Round(stats.Mean(lengths), 1),
			MaxSentenceLength: hi,
			MinSentenceLength: lo,
		},
		Feedback:    "Basic structure analysis completed",
		Suggestions: []string{"Enable the NLP parser for advanced structure analysis"},
		Method:      "basic",
	}
}

func shortStructure() StructureResult {
	return StructureResult{
		Score:       5.0,
		Feedback:    "Text is too short for meaningful structure analysis",
		Suggestions: []string{"Write more content to enable structure analysis"},
		Method:      "insufficient",
	}
}

func structureTips(b *BasicMetrics) []string {
	avg := 0.0
	if b != nil {
		avg = b.AvgSentenceLength
	}
	switch {
	case avg > 25:
		return []string{"Break up long sentences", "Use more varied sentence structures"}
	case avg < 10:
		return []string{"Combine some short sentences", "Add more detail to sentences"}
	default:
		return []string{"Good sentence structure variety"}
	}
}
