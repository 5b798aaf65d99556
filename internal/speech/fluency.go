package speech

import (
	"math"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/jdkato/prose/tokenize"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/lexicon"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/stats"
)

// FillerWords is the disfluency vocabulary, matched as whole words.
var FillerWords = []string{"um", "uh", "like", "you know", "so", "actually", "basically", "right", "er", "ahm", "well"}

var fillerPattern = regexp.MustCompile(`\b(` + strings.Join(FillerWords, "|") + `)\b`)

var (
	tokenizerOnce sync.Once
	sentenceSplit *tokenize.PunktSentenceTokenizer
	treebank      *tokenize.TreebankWordTokenizer
)

const errNoTranscription = "No transcription data"

type FillerWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type Pause struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

type FluencyResult struct {
	FluencyScore     float64      `json:"fluency_score"`
	PacingScore      float64      `json:"pacing_score"`
	ClarityScore     float64      `json:"clarity_score"`
	WPM              float64      `json:"wpm"`
	TotalWords       int          `json:"total_words"`
	DurationSeconds  float64      `json:"duration_seconds"`
	FillerWordsCount int          `json:"filler_words_count"`
	FillerWords      []FillerWord `json:"filler_words"`
	Pauses           []Pause      `json:"pauses"`
	Error            string       `json:"error,omitempty"`
}

// CountWords counts Penn Treebank word tokens sentence by sentence, so
// contractions split ("don't" is "do" and "n't"). Tokens without a letter or
// digit are punctuation and do not count.
func CountWords(text string) int {
	tokenizerOnce.Do(func() {
		sentenceSplit = tokenize.NewPunktSentenceTokenizer()
		treebank = tokenize.NewTreebankWordTokenizer()
	})
	n := 0
	for _, sent := range sentenceSplit.Tokenize(text) {
		for _, tok := range treebank.Tokenize(sent) {
			if strings.IndexFunc(tok, isWordRune) >= 0 {
				n++
			}
		}
	}
	return n
}

func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsNumber(r) }

// CalculateFluency derives fluency from fillers and pauses, pacing from
// words per minute, and clarity from both.
func CalculateFluency(tr TranscriptionResult, th config.FluencyThresholds) FluencyResult {
	if strings.TrimSpace(tr.Text) == "" || len(tr.Segments) == 0 {
		return FluencyResult{
			FillerWords: []FillerWord{},
			Pauses:      []Pause{},
			Error:       errNoTranscription,
		}
	}

	total := CountWords(tr.Text)
	duration := math.Max(tr.Segments[len(tr.Segments)-1].End-tr.Segments[0].Start, 1)
	wpm := float64(total) / (duration / 60)

	matches := fillerPattern.FindAllString(strings.ToLower(tr.Text), -1)
	fillers := matchFillerTimestamps(matches, tr.Segments)
	pauses := detectPauses(tr.Segments, th.PauseSeconds)

	pacing := PacingScore(wpm, th)

	fillerRatio := float64(len(matches)) / math.Max(float64(total), 1)
	fillerPenalty := math.Min(fillerRatio*200, th.FillerPenaltyCap)
	pausePenalty := math.Min(float64(len(pauses))*th.PausePenalty, th.PausePenaltyCap)
	fluency := stats.Round(math.Max(100-(fillerPenalty+pausePenalty), 0), 2)

	return FluencyResult{
		FluencyScore:     fluency,
		PacingScore:      pacing,
		ClarityScore:     Clarity(fluency, pacing),
		WPM:              stats.Round(wpm, 2),
		TotalWords:       total,
		DurationSeconds:  stats.Round(duration, 2),
		FillerWordsCount: len(matches),
		FillerWords:      fillers,
		Pauses:           pauses,
	}
}

// PacingScore maps words per minute onto 0-100: full marks inside the ideal
// band, linear falloff outside it.
func PacingScore(wpm float64, th config.FluencyThresholds) float64 {
	var score float64
	switch {
	case wpm < th.SlowWPM:
		score = wpm / th.SlowWPM * 60
	case wpm > th.FastWPM:
		score = 100 - (wpm-th.FastWPM)/50*40
	default:
		score = 100
	}
	return stats.Round(stats.Clip(score, 0, 100), 2)
}

// Clarity blends fluency and pacing 60/40.
func Clarity(fluency, pacing float64) float64 {
	return stats.Round(0.6*fluency+0.4*pacing, 2)
}

// matchFillerTimestamps pairs each filler occurrence with the first unused
// run of word timestamps spelling it, one timestamp per word of the filler.
// Unpaired fillers still count toward the filler ratio.
func matchFillerTimestamps(fillers []string, segments []Segment) []FillerWord {
	type stamp struct {
		word       string
		start, end float64
		used       bool
	}
	var stamps []stamp
	for _, seg := range segments {
		for _, w := range seg.Words {
			if c := lexicon.Clean(w.Word); c != "" {
				stamps = append(stamps, stamp{word: c, start: w.Start, end: w.End})
			}
		}
	}

	runMatches := func(i int, parts []string) bool {
		if i+len(parts) > len(stamps) {
			return false
		}
		for k, part := range parts {
			if stamps[i+k].used || stamps[i+k].word != part {
				return false
			}
		}
		return true
	}

	out := []FillerWord{}
	for _, f := range fillers {
		parts := strings.Fields(f)
		for i := range stamps {
			if !runMatches(i, parts) {
				continue
			}
			last := i + len(parts) - 1
			for k := i; k <= last; k++ {
				stamps[k].used = true
			}
			out = append(out, FillerWord{
				Word:  f,
				Start: stats.Round(stamps[i].start, 2),
				End:   stats.Round(stamps[last].end, 2),
			})
			break
		}
	}
	return out
}

func detectPauses(segments []Segment, threshold float64) []Pause {
	pauses := []Pause{}
	for i := 1; i < len(segments); i++ {
		prevEnd, start := segments[i-1].End, segments[i].Start
		if gap := start - prevEnd; gap >= threshold {
			pauses = append(pauses, Pause{
				Start:    stats.Round(prevEnd, 2),
				End:      stats.Round(start, 2),
				Duration: stats.Round(gap, 2),
			})
		}
	}
	return pauses
}
