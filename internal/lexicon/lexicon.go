// Package lexicon holds the English vocabulary used for pronunciation checks
// together with a phonetic-code index over it. A Lexicon never changes after
// construction, so a single instance is shared by every request.
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/antzucaro/matchr"
)

//go:embed words.txt
var embeddedWords string

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
)

// Lexicon is an immutable vocabulary with a double-metaphone index.
type Lexicon struct {
	words    map[string]struct{}
	sorted   []string
	phonetic map[string]string
}

// New builds a lexicon from words. Entries are cleaned the same way spoken
// words are; empty entries are dropped. When several words share a phonetic
// code the alphabetically first one is kept.
func New(words []string) *Lexicon {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if c := Clean(w); c != "" {
			set[c] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(set))
	for w := range set {
		sorted = append(sorted, w)
	}
	sort.Strings(sorted)

	phonetic := make(map[string]string, len(sorted))
	for _, w := range sorted {
		key, ok := phoneticKey(w)
		if !ok {
			continue
		}
		if _, taken := phonetic[key]; !taken {
			phonetic[key] = w
		}
	}

	return &Lexicon{words: set, sorted: sorted, phonetic: phonetic}
}

// Default returns the process-wide lexicon built from the embedded word list.
func Default() *Lexicon {
	defaultOnce.Do(func() {
		defaultLex = New(strings.Fields(embeddedWords))
	})
	return defaultLex
}

// LoadFile builds a lexicon from a whitespace separated word list on disk.
func LoadFile(path string) (*Lexicon, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	lex := New(strings.Fields(string(b)))
	if lex.Size() == 0 {
		return nil, fmt.Errorf("lexicon %s contains no words", path)
	}
	return lex, nil
}

// Clean lowercases w and strips punctuation.
func Clean(w string) string {
	var b strings.Builder
	b.Grow(len(w))
	for _, r := range strings.ToLower(w) {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (l *Lexicon) Size() int { return len(l.sorted) }

// Contains reports an exact vocabulary hit for an already cleaned word.
func (l *Lexicon) Contains(w string) bool {
	_, ok := l.words[w]
	return ok
}

// PhoneticMatch returns the vocabulary word sharing w's double-metaphone code.
func (l *Lexicon) PhoneticMatch(w string) (string, bool) {
	key, ok := phoneticKey(w)
	if !ok {
		return "", false
	}
	match, ok := l.phonetic[key]
	return match, ok
}

// Closest returns the vocabulary word with the highest normalized edit
// similarity to w, in [0,1]. Ties keep the alphabetically first word.
func (l *Lexicon) Closest(w string) (string, float64) {
	best, bestSim := "", -1.0
	n := utf8.RuneCountInString(w)
	for _, cand := range l.sorted {
		// the length gap alone bounds the similarity from above
		if m := utf8.RuneCountInString(cand); bestSim >= 0 && lengthBound(n, m) <= bestSim {
			continue
		}
		if sim := Similarity(cand, w); sim > bestSim {
			best, bestSim = cand, sim
			if sim == 1 {
				break
			}
		}
	}
	if bestSim < 0 {
		return "", 0
	}
	return best, bestSim
}

func lengthBound(a, b int) float64 {
	longest, gap := max(a, b), a-b
	if gap < 0 {
		gap = -gap
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(gap)/float64(longest)
}

// Similarity is 1 - levenshtein(a,b)/max(len(a),len(b)) over runes.
func Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

func phoneticKey(w string) (string, bool) {
	if w == "" {
		return "", false
	}
	primary, secondary := matchr.DoubleMetaphone(w)
	if primary == "" && secondary == "" {
		return "", false
	}
	return primary + "|" + secondary, true
}
