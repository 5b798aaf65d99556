package text

import (
	"context"
	"strings"
	"sync"

	"github.com/jdkato/prose/tag"
	"github.com/jdkato/prose/tokenize"
)

// Parse methods.
const (
	MethodDependencyParse = "dependency_parse"
	MethodPOSTagging      = "pos_tagging"
)

// penn maps Penn Treebank tags onto the universal tag set used by Parse.
var penn = map[string]string{
	"NN": "NOUN", "NNS": "NOUN", "NNP": "PROPN", "NNPS": "PROPN",
	"VB": "VERB", "VBD": "VERB", "VBG": "VERB", "VBN": "VERB", "VBP": "VERB", "VBZ": "VERB",
	"MD": "AUX",
	"JJ": "ADJ", "JJR": "ADJ", "JJS": "ADJ",
	"RB": "ADV", "RBR": "ADV", "RBS": "ADV", "WRB": "ADV",
	"PRP": "PRON", "PRP$": "PRON", "WP": "PRON", "WP$": "PRON", "EX": "PRON",
	"DT": "DET", "PDT": "DET", "WDT": "DET",
	"IN": "ADP", "CC": "CCONJ", "CD": "NUM", "UH": "INTJ",
	"TO": "PART", "RP": "PART", "POS": "PART",
	"FW": "X", "SYM": "SYM", "LS": "X",
}

var subordinators = map[string]bool{
	"because": true, "although": true, "though": true, "since": true, "while": true,
	"whereas": true, "if": true, "unless": true, "until": true, "after": true,
	"before": true, "once": true, "that": true, "whether": true,
}

// ProseParser tags parts of speech locally and derives a shallow clause
// structure from the tags: subordinate clauses hang off the main verb, and
// so do verbs joined to it by a coordinating conjunction. It carries no
// sentence vectors.
type ProseParser struct {
	sentences *tokenize.PunktSentenceTokenizer
	words     *tokenize.TreebankWordTokenizer
	tagger    *tag.PerceptronTagger
}

var (
	proseOnce   sync.Once
	proseParser *ProseParser
)

// LocalParser returns the shared ProseParser. The tagger model loads on
// first use.
func LocalParser() *ProseParser {
	proseOnce.Do(func() {
		proseParser = &ProseParser{
			sentences: tokenize.NewPunktSentenceTokenizer(),
			words:     tokenize.NewTreebankWordTokenizer(),
			tagger:    tag.NewPerceptronTagger(),
		}
	})
	return proseParser
}

// Parse splits text into sentences and tags each one.
func (p *ProseParser) Parse(ctx context.Context, text string) (*Parse, error) {
	out := &Parse{Method: MethodPOSTagging}
	for _, raw := range p.sentences.Tokenize(text) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		tagged := p.tagger.Tag(p.words.Tokenize(raw))
		if len(tagged) == 0 {
			continue
		}
		out.Sentences = append(out.Sentences, Sentence{Text: raw, Tokens: shallowTree(tagged)})
	}
	return out, nil
}

func universalTag(t tag.Token) (string, bool) {
	if pos, ok := penn[t.Tag]; ok {
		if pos == "ADP" && subordinators[strings.ToLower(t.Text)] {
			return "SCONJ", false
		}
		return pos, false
	}
	return "PUNCT", true
}

func isVerb(pos string) bool { return pos == "VERB" || pos == "AUX" }

var auxiliaries = map[string]bool{
	"be": true, "am": true, "is": true, "are": true, "was": true, "were": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "having": true, "do": true, "does": true, "did": true,
}

func isAuxiliary(t Token) bool {
	return t.POS == "AUX" || (t.POS == "VERB" && auxiliaries[strings.ToLower(t.Text)])
}

// shallowTree builds a shallow dependency tree from tagged tokens.
// A clause marker opens a span that runs to the next comma, conjunction or
// verb group; the first verb in the span heads it.
func shallowTree(tagged []tag.Token) []Token {
	toks := make([]Token, len(tagged))
	for i, t := range tagged {
		pos, punct := universalTag(t)
		toks[i] = Token{Text: t.Text, POS: pos, IsPunct: punct, Head: -1}
	}

	// clause spans keyed by marker index
	spanOf := make([]int, len(toks))
	for i := range spanOf {
		spanOf[i] = -1
	}
	type span struct{ marker, verb int }
	var spans []span
	for i, t := range toks {
		if spanOf[i] >= 0 {
			continue
		}
		relative := tagged[i].Tag == "WDT" || tagged[i].Tag == "WP" || tagged[i].Tag == "WP$" || tagged[i].Tag == "WRB"
		if t.POS != "SCONJ" && !relative {
			continue
		}
		s := span{marker: i, verb: -1}
		end := i + 1
		for ; end < len(toks) && toks[end].Text != "," && toks[end].POS != "CCONJ"; end++ {
			if isVerb(toks[end].POS) {
				if s.verb < 0 {
					s.verb = end
				} else if !isAuxiliary(toks[end-1]) {
					// a second verb group starts the main clause
					break
				}
			}
		}
		if s.verb < 0 {
			continue
		}
		for j := i + 1; j < end; j++ {
			spanOf[j] = len(spans)
		}
		spanOf[i] = len(spans)
		spans = append(spans, s)
	}

	root := -1
	for i, t := range toks {
		if isVerb(t.POS) && spanOf[i] < 0 {
			root = i
			break
		}
	}
	if root < 0 {
		for i, t := range toks {
			if !t.IsPunct {
				root = i
				break
			}
		}
	}
	if root < 0 {
		root = 0
	}
	if s := spanOf[root]; s >= 0 {
		// the main verb sits inside the only clause, which is then no clause
		spans[s].verb = -1
	}
	toks[root].Dep, toks[root].Head = "ROOT", root

	for i := range toks {
		if i == root {
			continue
		}
		t := &toks[i]
		if s := spanOf[i]; s >= 0 && spans[s].verb >= 0 {
			sp := spans[s]
			switch {
			case i == sp.verb:
				t.Head = root
				t.Dep = "advcl"
				switch tagged[sp.marker].Tag {
				case "WDT", "WP", "WP$":
					t.Dep = "relcl"
				default:
					if strings.EqualFold(toks[sp.marker].Text, "that") {
						t.Dep = "ccomp"
					}
				}
			case i == sp.marker:
				t.Head, t.Dep = sp.verb, "mark"
			case t.IsPunct:
				t.Head, t.Dep = root, "punct"
			default:
				t.Head, t.Dep = sp.verb, "dep"
			}
			continue
		}
		switch {
		case t.IsPunct:
			t.Head, t.Dep = root, "punct"
		case t.POS == "CCONJ":
			t.Head, t.Dep = max(0, i-1), "cc"
			if verb := nextVerb(toks, spanOf, i); verb >= 0 && verb != root {
				t.Head = root
				toks[verb].Head, toks[verb].Dep = root, "conj"
			}
		case t.Dep == "conj":
		default:
			t.Head, t.Dep = root, "dep"
		}
	}
	return toks
}

// nextVerb finds a verb after a conjunction and before the next conjunction
// or punctuation mark, outside any clause span.
func nextVerb(toks []Token, spanOf []int, from int) int {
	for j := from + 1; j < len(toks); j++ {
		if toks[j].IsPunct || toks[j].POS == "CCONJ" || spanOf[j] >= 0 {
			return -1
		}
		if isVerb(toks[j].POS) {
			return j
		}
	}
	return -1
}
