package text

import (
	"context"
	"math"
	"regexp"
	"strings"
	"unicode"
)

// Token is one parsed token. Head indexes the token's syntactic head within
// the same sentence; the root points at itself.
type Token struct {
	Text    string `json:"text"`
	POS     string `json:"pos"`
	Dep     string `json:"dep"`
	Head    int    `json:"head"`
	IsPunct bool   `json:"is_punct"`
	IsSpace bool   `json:"is_space"`
}

type Sentence struct {
	Text   string    `json:"text"`
	Tokens []Token   `json:"tokens"`
	Vector []float64 `json:"vector,omitempty"`
}

// Parse is a dependency parse of a whole text. Method is empty for a full
// parse from the NLP service and MethodPOSTagging for a local shallow one.
type Parse struct {
	Sentences []Sentence `json:"sentences"`
	Method    string     `json:"-"`
}

func (p *Parse) method() string {
	if p.Method == "" {
		return MethodDependencyParse
	}
	return p.Method
}

// Parser produces a dependency parse, either from an NLP service or from
// the local ProseParser.
type Parser interface {
	Parse(ctx context.Context, text string) (*Parse, error)
}

// GrammarChecker returns the rule matches for text.
type GrammarChecker interface {
	Check(ctx context.Context, text string) ([]GrammarMatch, error)
}

var sentenceBreak = regexp.MustCompile(`[.!?]+`)

// splitSentences is the parser-free sentence splitter.
func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceBreak.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// sentenceTexts returns the trimmed, non-empty sentence texts of a parse.
func (p *Parse) sentenceTexts() []string {
	var out []string
	for _, s := range p.Sentences {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// words lowercases text and splits it on whitespace, trimming punctuation
// from both ends of each word. Inner punctuation such as "e.g" survives.
func words(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := strings.TrimFunc(f, isEdgePunct); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func isEdgePunct(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// countPhrase counts occurrences of a (possibly multi-word) phrase in a
// word sequence produced by words.
func countPhrase(ws []string, phrase []string) int {
	n := 0
	for i := 0; i+len(phrase) <= len(ws); i++ {
		match := true
		for j, p := range phrase {
			if ws[i+j] != p {
				match = false
				break
			}
		}
		if match {
			n++
		}
	}
	return n
}

func containsAnyPhrase(ws []string, phrases [][]string) bool {
	for _, p := range phrases {
		if countPhrase(ws, p) > 0 {
			return true
		}
	}
	return false
}

func phraseList(items ...string) [][]string {
	out := make([][]string, len(items))
	for i, it := range items {
		out[i] = words(it)
	}
	return out
}

func cosine(a, b []float64) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}
