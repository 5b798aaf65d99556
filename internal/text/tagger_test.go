package text

import (
	"context"
	"strings"
	"testing"

	"github.com/jdkato/prose/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tagged builds tagger output from "word/TAG" pairs.
func tagged(pairs string) []tag.Token {
	var out []tag.Token
	for _, p := range strings.Fields(pairs) {
		i := strings.LastIndex(p, "/")
		out = append(out, tag.Token{Text: p[:i], Tag: p[i+1:]})
	}
	return out
}

func TestShallowTree(t *testing.T) {
	tests := []struct {
		name      string
		tags      string
		structure string
		clauses   int
		deps      map[string]string
	}{
		{
			name:      "simple",
			tags:      "The/DT cat/NN sat/VBD ./.",
			structure: StructureSimple,
			clauses:   1,
			deps:      map[string]string{"sat": "ROOT", "cat": "dep", ".": "punct"},
		},
		{
			name:      "coordinated verbs",
			tags:      "I/PRP left/VBD and/CC she/PRP stayed/VBD ./.",
			structure: StructureCompound,
			clauses:   2,
			deps:      map[string]string{"left": "ROOT", "and": "cc", "stayed": "conj"},
		},
		{
			name:      "coordinated nouns",
			tags:      "I/PRP bought/VBD apples/NNS and/CC pears/NNS ./.",
			structure: StructureSimple,
			clauses:   1,
			deps:      map[string]string{"bought": "ROOT", "and": "cc"},
		},
		{
			name:      "trailing subordinate clause",
			tags:      "I/PRP stayed/VBD home/NN because/IN it/PRP rained/VBD ./.",
			structure: StructureComplex,
			clauses:   2,
			deps:      map[string]string{"stayed": "ROOT", "because": "mark", "rained": "advcl", ".": "punct"},
		},
		{
			name:      "leading subordinate clause",
			tags:      "Because/IN it/PRP rained/VBD ,/, we/PRP stayed/VBD ./.",
			structure: StructureComplex,
			clauses:   2,
			deps:      map[string]string{"stayed": "ROOT", "rained": "advcl", ",": "punct"},
		},
		{
			name:      "relative clause before the main verb",
			tags:      "The/DT report/NN that/WDT we/PRP wrote/VBD helped/VBD ./.",
			structure: StructureComplex,
			clauses:   2,
			deps:      map[string]string{"helped": "ROOT", "wrote": "relcl", "that": "mark"},
		},
		{
			name:      "complement clause",
			tags:      "She/PRP said/VBD that/IN we/PRP won/VBD and/CC they/PRP cheered/VBD ./.",
			structure: StructureComplexCompound,
			clauses:   3,
			deps:      map[string]string{"said": "ROOT", "won": "ccomp", "cheered": "conj"},
		},
		{
			name:      "auxiliary chain inside a clause",
			tags:      "We/PRP left/VBD when/WRB it/PRP had/VBD been/VBN raining/VBG ./.",
			structure: StructureComplex,
			clauses:   2,
			deps:      map[string]string{"left": "ROOT", "when": "mark", "had": "advcl", "raining": "dep"},
		},
		{
			name:      "no verb",
			tags:      "Great/JJ news/NN !/.",
			structure: StructureSimple,
			clauses:   1,
			deps:      map[string]string{"Great": "ROOT", "!": "punct"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := shallowTree(tagged(tt.tags))
			s := Sentence{Tokens: toks}

			assert.Equal(t, tt.structure, classifyStructure(s))
			assert.Equal(t, tt.clauses, countClauses(s))
			for _, tok := range toks {
				if want, ok := tt.deps[tok.Text]; ok {
					assert.Equal(t, want, tok.Dep, tok.Text)
				}
				assert.True(t, tok.Head >= 0 && tok.Head < len(toks), tok.Text)
			}
			assert.LessOrEqual(t, dependencyDepth(s), 2)
		})
	}
}

func TestUniversalTag(t *testing.T) {
	tests := []struct {
		tok   tag.Token
		pos   string
		punct bool
	}{
		{tag.Token{Text: "runs", Tag: "VBZ"}, "VERB", false},
		{tag.Token{Text: "can", Tag: "MD"}, "AUX", false},
		{tag.Token{Text: "Although", Tag: "IN"}, "SCONJ", false},
		{tag.Token{Text: "in", Tag: "IN"}, "ADP", false},
		{tag.Token{Text: ",", Tag: ","}, "PUNCT", true},
		{tag.Token{Text: "''", Tag: "''"}, "PUNCT", true},
	}

	for _, tt := range tests {
		t.Run(tt.tok.Text, func(t *testing.T) {
			pos, punct := universalTag(tt.tok)
			assert.Equal(t, tt.pos, pos)
			assert.Equal(t, tt.punct, punct)
		})
	}
}

func TestLocalParser(t *testing.T) {
	parse, err := LocalParser().Parse(context.Background(), sampleParagraph)
	require.NoError(t, err)
	assert.Same(t, LocalParser(), LocalParser())

	assert.Equal(t, MethodPOSTagging, parse.Method)
	require.Len(t, parse.Sentences, 4)
	assert.Equal(t, "Several members raised concerns about the budget and the timeline.", parse.Sentences[1].Text)
	for _, s := range parse.Sentences {
		assert.Empty(t, s.Vector)
	}

	res := AnalyzeStructure(sampleParagraph, parse)
	assert.Equal(t, MethodPOSTagging, res.Method)
	require.NotNil(t, res.Basic)
	assert.Equal(t, 41, res.Basic.WordCount)
	require.NotNil(t, res.Syntactic)
	assert.Greater(t, res.Syntactic.AvgDependencyDepth, 0.0)
	require.NotNil(t, res.POS)
	assert.Greater(t, res.POS.Richness, 4)
}

func TestLocalParserHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LocalParser().Parse(ctx, "One sentence. Another one.")
	assert.ErrorIs(t, err, context.Canceled)
}
