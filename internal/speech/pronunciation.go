package speech

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/lexicon"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/stats"
)

const (
	feedbackCorrect   = "Correct"
	feedbackIncorrect = "Incorrect / mispronounced"
)

type WordAssessment struct {
	SpokenWord string `json:"spoken_word"`
	Correct    bool   `json:"correct"`
	Feedback   string `json:"feedback"`
	Suggestion string `json:"suggestion,omitempty"`
}

type PronunciationResult struct {
	Results            []WordAssessment `json:"results"`
	TotalWords         int              `json:"total_words"`
	CorrectWords       int              `json:"correct_words"`
	MispronouncedWords int              `json:"mispronounced_words"`
	ScorePercent       float64          `json:"score_percent"`
}

// AssessPronunciation checks every transcribed word against the lexicon:
// exact hit, then phonetic match, then a close-spelling suggestion at or
// above minSimilarity. Only the first two count as correct.
func AssessPronunciation(tr TranscriptionResult, lex *lexicon.Lexicon, minSimilarity float64) PronunciationResult {
	res := PronunciationResult{Results: []WordAssessment{}}

	for _, raw := range strings.Fields(tr.Text) {
		word := lexicon.Clean(raw)
		if word == "" {
			continue
		}
		a := assessWord(word, lex, minSimilarity)
		if a.Correct {
			res.CorrectWords++
		} else {
			res.MispronouncedWords++
		}
		res.Results = append(res.Results, a)
	}

	res.TotalWords = len(res.Results)
	if res.TotalWords > 0 {
		res.ScorePercent = stats.Round(float64(res.CorrectWords)/float64(res.TotalWords)*100, 2)
	}
	return res
}

func assessWord(word string, lex *lexicon.Lexicon, minSimilarity float64) WordAssessment {
	if lex.Contains(word) {
		return WordAssessment{SpokenWord: word, Correct: true, Feedback: feedbackCorrect}
	}
	if match, ok := lex.PhoneticMatch(word); ok {
		return WordAssessment{
			SpokenWord: word,
			Correct:    true,
			Feedback:   fmt.Sprintf("Correct (phonetic match to '%s')", match),
			Suggestion: match,
		}
	}
	if best, sim := lex.Closest(word); best != "" && sim >= minSimilarity {
		return WordAssessment{
			SpokenWord: word,
			Feedback:   fmt.Sprintf("Close! Did you mean '%s'?", best),
			Suggestion: best,
		}
	}
	return WordAssessment{SpokenWord: word, Feedback: feedbackIncorrect}
}
