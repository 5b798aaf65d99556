package text

import (
	"context"
	"strings"
)

type fakeChecker struct {
	matches []GrammarMatch
	err     error
	calls   int
}

func (f *fakeChecker) Check(_ context.Context, _ string) ([]GrammarMatch, error) {
	f.calls++
	return f.matches, f.err
}

type fakeParser struct {
	parse *Parse
	err   error
}

func (f fakeParser) Parse(_ context.Context, _ string) (*Parse, error) {
	return f.parse, f.err
}

func tok(text, pos, dep string, head int) Token {
	return Token{Text: text, POS: pos, Dep: dep, Head: head, IsPunct: pos == "PUNCT"}
}

// twoSentenceParse is "The cat sat. I left and she stayed."
func twoSentenceParse() *Parse {
	return &Parse{Sentences: []Sentence{
		{
			Text: "The cat sat.",
			Tokens: []Token{
				tok("The", "DET", "det", 1),
				tok("cat", "NOUN", "nsubj", 2),
				tok("sat", "VERB", "ROOT", 2),
				tok(".", "PUNCT", "punct", 2),
			},
		},
		{
			Text: "I left and she stayed.",
			Tokens: []Token{
				tok("I", "PRON", "nsubj", 1),
				tok("left", "VERB", "ROOT", 1),
				tok("and", "CCONJ", "cc", 1),
				tok("she", "PRON", "nsubj", 4),
				tok("stayed", "VERB", "conj", 1),
				tok(".", "PUNCT", "punct", 1),
			},
		},
	}}
}

func repeatWords(word string, n int) string {
	return strings.TrimSpace(strings.Repeat(word+" ", n))
}
