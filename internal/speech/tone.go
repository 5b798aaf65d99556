package speech

import (
	"fmt"
	"math"
	"strings"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/stats"
)

// Speech contexts.
const (
	ContextApology         = "apology"
	ContextCongratulations = "congratulations"
	ContextThanks          = "thanks"
	ContextQuestion        = "question"
	ContextNeutral         = "neutral"
)

// Emotions inferred from pitch spread.
const (
	EmotionNeutral  = "neutral"
	EmotionSad      = "sad"
	EmotionHappy    = "happy"
	EmotionExcited  = "excited"
	EmotionGrateful = "grateful"
	EmotionCurious  = "curious"
)

// Tone evaluation descriptors.
const (
	EvaluationPositive = "positive"
	EvaluationNeutral  = "neutral"
	EvaluationMismatch = "mismatch"
)

var expectedEmotions = map[string][]string{
	ContextApology:         {EmotionSad, EmotionNeutral},
	ContextCongratulations: {EmotionHappy, EmotionExcited},
	ContextThanks:          {EmotionHappy, EmotionGrateful},
	ContextQuestion:        {EmotionNeutral, EmotionCurious},
	ContextNeutral:         {EmotionNeutral},
}

var upbeat = map[string]bool{EmotionHappy: true, EmotionExcited: true, EmotionGrateful: true}

// ExpectedEmotions lists the emotions that fit a context. Unknown contexts
// expect a neutral delivery.
func ExpectedEmotions(context string) []string {
	if e, ok := expectedEmotions[context]; ok {
		return append([]string(nil), e...)
	}
	return []string{EmotionNeutral}
}

// SentenceContext classifies one sentence by keyword.
func SentenceContext(sentence string) string {
	s := strings.ToLower(strings.TrimSpace(sentence))
	switch {
	case strings.Contains(s, "sorry") || strings.Contains(s, "apologize"):
		return ContextApology
	case strings.Contains(s, "congratulations") || strings.Contains(s, "congrats"):
		return ContextCongratulations
	case strings.Contains(s, "thank"):
		return ContextThanks
	case strings.HasSuffix(s, "?"):
		return ContextQuestion
	default:
		return ContextNeutral
	}
}

// SplitSentences splits on . ! and ?, keeping each terminator with its
// sentence. Blank pieces are dropped.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(text[start : i+1]); strings.Trim(s, ".!?") != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// DetectContext returns the majority context over sentences and the
// per-sentence labels. Text without sentences is neutral.
func DetectContext(text string) (string, []string) {
	sentences := SplitSentences(text)
	labels := make([]string, 0, len(sentences))
	for _, s := range sentences {
		labels = append(labels, SentenceContext(s))
	}
	if len(labels) == 0 {
		return ContextNeutral, labels
	}
	return stats.MajorityVote(labels), labels
}

// ChunkEmotion buckets a chunk's pitch standard deviation.
func ChunkEmotion(ch AudioChunkFeatures) string {
	std := math.Sqrt(math.Max(ch.PitchVariance, 0))
	switch {
	case std < 30:
		return EmotionNeutral
	case std < 200:
		return EmotionSad
	case std < 1000:
		return EmotionHappy
	default:
		return EmotionExcited
	}
}

// AggregateEmotions returns the majority emotion and the per-chunk labels.
func AggregateEmotions(chunks []AudioChunkFeatures) (string, []string) {
	labels := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		labels = append(labels, ChunkEmotion(ch))
	}
	if len(labels) == 0 {
		return EmotionNeutral, labels
	}
	return stats.MajorityVote(labels), labels
}

type ToneEvaluation struct {
	Status     string   `json:"status"`
	Feedback   string   `json:"feedback"`
	Evaluation string   `json:"evaluation"`
	Context    string   `json:"context"`
	Emotion    string   `json:"emotion"`
	Expected   []string `json:"expected"`
}

// Matched reports whether the detected emotion fit the context.
func (t ToneEvaluation) Matched() bool { return t.Status == "match" }

// EvaluateTone checks the detected emotion against the context's expected
// set and grades the delivery.
func EvaluateTone(context, emotion string) ToneEvaluation {
	emotion = strings.ToLower(emotion)
	expected := ExpectedEmotions(context)
	ev := ToneEvaluation{Context: context, Emotion: emotion, Expected: expected}

	if contains(expected, emotion) {
		ev.Status = "match"
		ev.Feedback = "✅ Tone matches content."
		ev.Evaluation = EvaluationNeutral
		if upbeat[emotion] {
			ev.Evaluation = EvaluationPositive
		}
		return ev
	}

	ev.Status = "mismatch"
	ev.Evaluation = EvaluationMismatch
	ev.Feedback = fmt.Sprintf("⚠️ Tone mismatch. For '%s', expected %s, but detected '%s'.", context, pyList(expected), emotion)
	return ev
}

// ToneScore maps an evaluation descriptor onto the 0-100 scale.
func ToneScore(evaluation string) int {
	e := strings.ToLower(evaluation)
	switch {
	case strings.Contains(e, EvaluationPositive):
		return 90
	case strings.Contains(e, EvaluationNeutral):
		return 70
	default:
		return 50
	}
}

type TonePractice struct {
	Success  bool     `json:"success"`
	Expected []string `json:"expected"`
	Correct  bool     `json:"correct"`
	Feedback string   `json:"feedback"`
}

// CheckTonePractice grades a practice attempt at delivering a context with
// a given emotion.
func CheckTonePractice(context, emotion string) TonePractice {
	emotion = strings.ToLower(strings.TrimSpace(emotion))
	expected := ExpectedEmotions(context)
	correct := contains(expected, emotion)

	feedback := fmt.Sprintf("✅ Correct tone! '%s' fits the '%s' context.", emotion, context)
	if !correct {
		feedback = fmt.Sprintf("⚠️ Tone mismatch. For '%s', expected %s, but got '%s'.", context, pyList(expected), emotion)
	}
	return TonePractice{Success: true, Expected: expected, Correct: correct, Feedback: feedback}
}

// pyList renders labels as ['a', 'b'], the format users see in tone feedback.
func pyList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = "'" + it + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func contains(items []string, s string) bool {
	for _, it := range items {
		if it == s {
			return true
		}
	}
	return false
}
