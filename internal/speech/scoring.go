package speech

import (
	"math"
	"strings"
)

// Weights of the overall speech score.
const (
	WeightPromptMatch   = 0.30
	WeightClarity       = 0.20
	WeightPronunciation = 0.15
	WeightFluency       = 0.15
	WeightPitch         = 0.10
	WeightTone          = 0.10
)

type ScoreBreakdown struct {
	Pronunciation float64 `json:"pronunciation"`
	Fluency       float64 `json:"fluency"`
	Pacing        float64 `json:"pacing"`
	Clarity       float64 `json:"clarity"`
	Pitch         int     `json:"pitch"`
	Tone          int     `json:"tone"`
	PromptMatch   int     `json:"prompt_match"`
}

type SpeechFeedback struct {
	Summary      string   `json:"summary"`
	Improvements []string `json:"improvements"`
	Strengths    []string `json:"strengths"`
}

type SpeechScores struct {
	Scores       ScoreBreakdown `json:"scores"`
	OverallScore int            `json:"overallScore"`
	Feedback     SpeechFeedback `json:"feedback"`
}

// PitchScore scales total relative pitch variation onto 0-100.
func PitchScore(totalVariation float64) int {
	return int(math.Min(float64(int(totalVariation*200)), 100))
}

// CalculateScores combines the speech sub-scores into a truncated weighted
// overall with strengths, improvements and a banded summary.
func CalculateScores(p PronunciationResult, f FluencyResult, pitch PitchResult, tone ToneEvaluation, promptMatchRatio float64) SpeechScores {
	s := ScoreBreakdown{
		Pronunciation: p.ScorePercent,
		Fluency:       f.FluencyScore,
		Pacing:        f.PacingScore,
		Clarity:       Clarity(f.FluencyScore, f.PacingScore),
		Pitch:         PitchScore(pitch.TotalPitchVariation),
		Tone:          ToneScore(tone.Evaluation),
		PromptMatch:   int(promptMatchRatio * 100),
	}

	sum := 0.0
	sum += float64(s.PromptMatch) * WeightPromptMatch
	sum += s.Clarity * WeightClarity
	sum += s.Pronunciation * WeightPronunciation
	sum += s.Fluency * WeightFluency
	sum += float64(s.Pitch) * WeightPitch
	sum += float64(s.Tone) * WeightTone
	overall := int(sum)

	fb := SpeechFeedback{Improvements: []string{}, Strengths: []string{}}
	band := func(score, low, high float64, improve, strength string) {
		switch {
		case score < low:
			fb.Improvements = append(fb.Improvements, improve)
		case score >= high:
			fb.Strengths = append(fb.Strengths, strength)
		}
	}
	band(float64(s.PromptMatch), 60, 90, "Try to match the given prompt more closely", "Excellent adherence to the given prompt")
	band(s.Pronunciation, 70, 85, "Focus on clearer pronunciation of individual words", "Very clear pronunciation")
	band(s.Fluency, 70, 85, "Work on smoother speech flow with fewer pauses", "Good speech fluency and natural flow")
	band(float64(s.Pitch), 70, 85, "Try to vary your pitch more for engaging speech", "Good use of pitch variation")
	band(float64(s.Tone), 70, 85, "Work on matching your tone to the context", "Appropriate tone for the context")

	switch {
	case overall >= 90:
		fb.Summary = "Excellent! Your speech was clear, natural, and very well delivered."
	case overall >= 80:
		fb.Summary = "Very good! Your speech was clear and mostly well-delivered."
	case overall >= 70:
		fb.Summary = "Good effort! There's room for improvement in some areas."
	default:
		fb.Summary = "Keep practicing! Focus on the suggested improvements."
	}

	return SpeechScores{Scores: s, OverallScore: overall, Feedback: fb}
}

type PerformanceSummary struct {
	Strengths       string `json:"strengths"`
	Improvements    string `json:"improvements"`
	Recommendations string `json:"recommendations"`
}

// SummarizePerformance turns scores into short, comma-joined coaching notes.
func SummarizePerformance(scores SpeechScores, pitch PitchResult) PerformanceSummary {
	s := scores.Scores
	var strengths, improvements, recs []string

	if s.Pronunciation >= 80 {
		strengths = append(strengths, "Clear and accurate pronunciation.")
	}
	if s.Fluency >= 80 {
		strengths = append(strengths, "Smooth and natural speech flow.")
	}
	if s.Pitch >= 80 {
		strengths = append(strengths, "Expressive pitch variation.")
	}
	if s.Tone >= 80 {
		strengths = append(strengths, "Positive and engaging tone.")
	}

	if s.Pronunciation < 70 {
		improvements = append(improvements, "Work on clearer pronunciation of words.")
	}
	if s.Fluency < 70 {
		improvements = append(improvements, "Practice smoother transitions between words.")
	}
	if s.Pitch < 70 {
		improvements = append(improvements, "Low pitch variation detected. Try varying your pitch more.")
	}
	if s.Tone < 70 {
		improvements = append(improvements, "Adjust tone to be more positive or neutral.")
	}

	if s.Pitch < 70 {
		recs = append(recs, "Practice emphasizing key words to increase pitch variation.")
	}
	if s.Fluency < 70 {
		recs = append(recs, "Read aloud or practice tongue twisters to improve speech fluency.")
	}
	if s.Pronunciation < 70 {
		recs = append(recs, "Use pronunciation exercises or mimic native speakers.")
	}
	if pitch.Overall.MonotoneChunks > 0 {
		recs = append(recs, "Try expressive reading or storytelling.")
	}

	return PerformanceSummary{
		Strengths:       joinOr(strengths, "No specific strengths identified yet. Keep practicing!"),
		Improvements:    joinOr(improvements, "No major areas for improvement. Great job!"),
		Recommendations: joinOr(recs, "Continue practicing to maintain your performance!"),
	}
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}
