// Package video scores body language from per-frame landmark streams. The
// coverage validator decides which modalities have enough signal; posture,
// gesture and expression scorers each produce a 0-10 score or a null result
// with a reason.
package video

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/stats"
)

const (
	ReasonDisabled = "disabled_by_validation"

	msgPostureSkipped     = "Posture analysis was skipped because we couldn’t detect enough data. Keep your upper body in view!"
	msgGesturesSkipped    = "Gesture analysis was skipped because we couldn’t see your hands clearly. Try keeping them in the frame!"
	msgExpressionsSkipped = "Expression analysis was skipped because we couldn’t detect your face clearly. Keep your face centered!"
)

// Score validates coverage when needed, runs the enabled scorers and combines
// them into a weighted overall score with categorized feedback.
func Score(pv ProcessedVideo, th config.Thresholds) VideoResult {
	meta := pv.Meta
	if meta.Validation == nil {
		v := Validate(pv.Frames, meta, th.Coverage)
		meta.Validation = &v
	}
	mode := meta.Validation.AnalysisMode

	posture := disabled(CategoryPosture, msgPostureSkipped)
	if mode.UsePose {
		posture = ScorePosture(pv.Frames, meta, th.Posture)
	}
	gestures := disabled(CategoryGestures, msgGesturesSkipped)
	if mode.UseHands {
		gestures = ScoreGestures(pv.Frames, meta, th.Gestures)
	}
	expressions := disabled(CategoryExpressions, msgExpressionsSkipped)
	if mode.UseFace {
		expressions = ScoreExpressions(pv.Frames, meta, th.Expressions)
	}

	w := th.VideoWeights
	overall := weightedOverall(
		weighted{posture.Score, w.Posture},
		weighted{gestures.Score, w.Gestures},
		weighted{expressions.Score, w.Expressions},
	)

	summary := Summarize(posture, gestures, expressions)
	if missing := missingModalities(posture, gestures, expressions); len(missing) > 0 {
		note := fmt.Sprintf("Partial analysis: %s missing. Try adjusting your frame to include all body parts.", strings.Join(missing, ", "))
		summary.Weaknesses = append([]string{note}, summary.Weaknesses...)
	}

	return VideoResult{
		Posture:     posture,
		Gestures:    gestures,
		Expressions: expressions,
		Overall: Overall{
			AverageScore: overall,
			Feedback:     summary.withDefaults(),
		},
		Validation: meta.Validation,
	}
}

type weighted struct {
	score  *float64
	weight float64
}

// weightedOverall averages the present scores, renormalizing over their
// weights. It is 0 when nothing was scored.
func weightedOverall(parts ...weighted) float64 {
	sum, weights := 0.0, 0.0
	for _, p := range parts {
		if p.score == nil {
			continue
		}
		sum += p.weight * *p.score
		weights += p.weight
	}
	if weights == 0 {
		return 0
	}
	return stats.Round(sum/weights, 1)
}

func disabled(category, message string) ModalityResult {
	return nullResult(ReasonDisabled, category, message)
}

func missingModalities(posture, gestures, expressions ModalityResult) []string {
	var missing []string
	if !posture.Scored() {
		if posture.Reason == "no_pose_detected" {
			missing = append(missing, "Posture (no detectable pose landmarks)")
		} else {
			missing = append(missing, "Posture")
		}
	}
	if !gestures.Scored() {
		missing = append(missing, "Gestures")
	}
	if !expressions.Scored() {
		missing = append(missing, "Expressions")
	}
	return missing
}
