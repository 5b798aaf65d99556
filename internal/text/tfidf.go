package text

import (
	"sort"
	"strings"

	"github.com/james-bowman/nlp"
	"github.com/james-bowman/nlp/measures/pairwise"
	"gonum.org/v1/gonum/mat"
)

// topicSimilarities is the TF-IDF cosine similarity of each adjacent
// sentence pair, over the maxFeatures most frequent terms left after English
// stop words are removed. ok is false when no term survives.
func topicSimilarities(sents []string, maxFeatures int) ([]float64, bool) {
	if len(sents) < 2 {
		return nil, false
	}
	docs := make([]string, len(sents))
	for i, s := range sents {
		docs[i] = strings.ToLower(s)
	}

	vectoriser := nlp.NewCountVectoriser(nlp.StopWords...)
	vectoriser.Fit(docs...)
	if len(vectoriser.Vocabulary) == 0 {
		return nil, false
	}
	counts, err := vectoriser.Transform(docs...)
	if err != nil {
		return nil, false
	}

	weighted, err := nlp.NewTfidfTransformer().FitTransform(topFeatures(counts, vectoriser.Vocabulary, maxFeatures))
	if err != nil {
		return nil, false
	}

	terms, _ := weighted.Dims()
	sims := make([]float64, 0, len(sents)-1)
	for i := 0; i+1 < len(sents); i++ {
		a := mat.NewVecDense(terms, mat.Col(nil, i, weighted))
		b := mat.NewVecDense(terms, mat.Col(nil, i+1, weighted))
		if mat.Norm(a, 2) == 0 || mat.Norm(b, 2) == 0 {
			sims = append(sims, 0)
			continue
		}
		sims = append(sims, pairwise.CosineSimilarity(a, b))
	}
	return sims, true
}

// topFeatures keeps the maxFeatures rows of a term-document count matrix
// with the highest corpus frequency. Ties go to the alphabetically first term.
func topFeatures(counts mat.Matrix, vocab map[string]int, maxFeatures int) mat.Matrix {
	terms, docs := counts.Dims()
	total := make([]float64, terms)
	for i := 0; i < terms; i++ {
		for j := 0; j < docs; j++ {
			total[i] += counts.At(i, j)
		}
	}
	names := make([]string, terms)
	for term, row := range vocab {
		names[row] = term
	}

	rows := make([]int, terms)
	for i := range rows {
		rows[i] = i
	}
	sort.Slice(rows, func(a, b int) bool {
		ra, rb := rows[a], rows[b]
		if total[ra] != total[rb] {
			return total[ra] > total[rb]
		}
		return names[ra] < names[rb]
	})
	if maxFeatures > 0 && len(rows) > maxFeatures {
		rows = rows[:maxFeatures]
	}

	kept := mat.NewDense(len(rows), docs, nil)
	for i, row := range rows {
		for j := 0; j < docs; j++ {
			kept.Set(i, j, counts.At(row, j))
		}
	}
	return kept
}
