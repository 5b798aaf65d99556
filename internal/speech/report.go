package speech

import (
	"fmt"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/errors"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/lexicon"
)

// Input is everything the speech scorers consume for one recording.
type Input struct {
	Transcription    TranscriptionResult  `json:"transcription"`
	Chunks           []AudioChunkFeatures `json:"chunks"`
	PromptMatchRatio float64              `json:"prompt_match_ratio"`
	DurationSeconds  float64              `json:"duration_seconds,omitempty"`
}

type ToneAnalysis struct {
	OverallContext string         `json:"overallContext"`
	OverallEmotion string         `json:"overallEmotion"`
	Evaluation     ToneEvaluation `json:"evaluation"`
	ChunkContexts  []string       `json:"chunkContexts"`
	ChunkEmotions  []string       `json:"chunkEmotions"`
}

type RecordingInfo struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Duration string `json:"duration"`
}

// NewRecordingInfo stamps a report with when it was made and how long the
// recording ran.
func NewRecordingInfo(at time.Time, durationSeconds float64) *RecordingInfo {
	return &RecordingInfo{
		Date:     at.Format("2006-01-02"),
		Time:     at.Format("15:04:05"),
		Duration: fmt.Sprintf("%.1f seconds", durationSeconds),
	}
}

type Report struct {
	Transcription TranscriptionResult `json:"transcription"`
	Pronunciation PronunciationResult `json:"pronunciation"`
	Fluency       FluencyResult       `json:"fluency"`
	Pitch         PitchResult         `json:"pitch"`
	Monotony      MonotonyResult      `json:"monotony"`
	ToneAnalysis  ToneAnalysis        `json:"toneAnalysis"`
	Scoring       SpeechScores        `json:"scoring"`
	Summary       PerformanceSummary  `json:"summary"`
	RecordingInfo *RecordingInfo      `json:"recordingInfo,omitempty"`
}

// Analyze runs every speech scorer over one recording and aggregates the
// results. It is deterministic; callers attach RecordingInfo themselves.
func Analyze(in Input, lex *lexicon.Lexicon, th config.SpeechThresholds) Report {
	tr := in.Transcription
	pron := AssessPronunciation(tr, lex, th.CloseMatchSimilarity)
	flu := CalculateFluency(tr, th.Fluency)
	pitch := AnalyzePitch(in.Chunks, th.MonotoneThreshold)

	ctx, ctxLabels := DetectContext(tr.Text)
	emotion, emoLabels := AggregateEmotions(in.Chunks)
	tone := EvaluateTone(ctx, emotion)

	scores := CalculateScores(pron, flu, pitch, tone, in.PromptMatchRatio)

	return Report{
		Transcription: tr,
		Pronunciation: pron,
		Fluency:       flu,
		Pitch:         pitch,
		Monotony:      DetectMonotony(in.Chunks, DefaultMonotonyVariance),
		ToneAnalysis: ToneAnalysis{
			OverallContext: ctx,
			OverallEmotion: emotion,
			Evaluation:     tone,
			ChunkContexts:  ctxLabels,
			ChunkEmotions:  emoLabels,
		},
		Scoring: scores,
		Summary: SummarizePerformance(scores, pitch),
	}
}

// Features that can be practiced in isolation.
const (
	FeaturePronunciation = "Pronunciation"
	FeatureFluency       = "Fluency"
	FeatureTone          = "Tone"
	FeaturePitch         = "Pitch"
)

type FeatureScoring struct {
	Scores       map[string]int `json:"scores"`
	OverallScore int            `json:"overallScore"`
}

type FeatureEvaluation struct {
	Scoring   FeatureScoring `json:"scoring"`
	Feature   string         `json:"feature"`
	Result    any            `json:"result"`
	IsCorrect bool           `json:"isCorrect"`
	Feedback  string         `json:"feedback"`
}

// ValidFeature reports whether feature names a practicable feature.
func ValidFeature(feature string) bool {
	switch feature {
	case FeaturePronunciation, FeatureFluency, FeatureTone, FeaturePitch:
		return true
	}
	return false
}

// EvaluateFeature scores a single feature as pass or fail.
func EvaluateFeature(feature string, in Input, lex *lexicon.Lexicon, th config.SpeechThresholds) (FeatureEvaluation, error) {
	var (
		result any
		pass   bool
	)

	switch feature {
	case FeaturePronunciation:
		r := AssessPronunciation(in.Transcription, lex, th.CloseMatchSimilarity)
		result, pass = r, r.ScorePercent >= 80
	case FeatureFluency:
		r := CalculateFluency(in.Transcription, th.Fluency)
		result, pass = r, r.FluencyScore >= 80
	case FeatureTone:
		ctx, _ := DetectContext(in.Transcription.Text)
		emotion, _ := AggregateEmotions(in.Chunks)
		r := EvaluateTone(ctx, emotion)
		result, pass = r, ToneScore(r.Evaluation) >= 80
	case FeaturePitch:
		r := AnalyzePitch(in.Chunks, th.MonotoneThreshold)
		result, pass = r, r.MonotoneRatio() < 0.3
	default:
		return FeatureEvaluation{}, errors.NewValidationError("Invalid feature", feature)
	}

	name := strings.ToLower(feature)
	score := 0
	feedback := fmt.Sprintf("Work on %s.", name)
	if pass {
		score = 100
		feedback = fmt.Sprintf("Good %s!", name)
	}

	return FeatureEvaluation{
		Scoring:   FeatureScoring{Scores: map[string]int{name: score}, OverallScore: score},
		Feature:   feature,
		Result:    result,
		IsCorrect: pass,
		Feedback:  feedback,
	}, nil
}
