package video

import (
	"math"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/stats"
)

const (
	msgExpressionsInsufficient = "We couldn’t see your face clearly enough to analyze expressions. Keep your face in the frame!"
	msgExpressionsNoData       = "We couldn’t detect your facial landmarks clearly. Try keeping your face centered in the frame!"

	fbExpressionsFewSmiles  = "Add a gentle smile now and then to appear warm and approachable."
	fbExpressionsManySmiles = "You’re smiling a lot! Try using smiles sparingly to emphasize key moments."
	fbExpressionsEyeContact = "Try looking directly at the camera more to connect with your audience."
	fbExpressionsVolatile   = "Your expressions change quickly. Keep them steady to show calm confidence."
	fbExpressionsNervous    = "Your expressions or eye movements seem a bit nervous. Relax and maintain steady focus."
	fbExpressionsGood       = "Nice work! Your facial expressions are natural and engaging."
)

type exprState int

const (
	stateNeutral exprState = 0
	stateSmile   exprState = 1
	stateNervous exprState = 3
)

// ScoreExpressions rates smiling, eye contact, expression stability and signs
// of nervousness on a 0-10 scale.
func ScoreExpressions(frames []Frame, meta VideoMeta, th config.ExpressionThresholds) ModalityResult {
	processed := len(frames)
	faceFrames := 0
	if meta.Validation != nil {
		faceFrames = meta.Validation.Metrics.FaceFrames
	} else {
		for _, f := range frames {
			if f.Face.present() {
				faceFrames++
			}
		}
	}
	if processed < th.MinFrames || faceFrames < th.MinFrames {
		return nullResult("insufficient_face_frames", CategoryExpressions, msgExpressionsInsufficient)
	}

	w, h := meta.width(), meta.height()
	duration := math.Max(float64(processed)/meta.fps(), 1e-3)

	var (
		ratios     []float64
		contact    int
		nervous    int
		states     = make([]exprState, 0, processed)
		eyeOffsets = make([]float64, 0, processed)
	)
	for _, f := range frames {
		face := f.Face
		if !face.complete() {
			states = append(states, stateNeutral)
			eyeOffsets = append(eyeOffsets, 0)
			continue
		}
		mouthW := math.Hypot((face.MouthLeft.X-face.MouthRight.X)*w, (face.MouthLeft.Y-face.MouthRight.Y)*h)
		mouthH := math.Hypot((face.MouthTop.X-face.MouthBottom.X)*w, (face.MouthTop.Y-face.MouthBottom.Y)*h) + 1e-6
		ratio := mouthW / mouthH
		ratios = append(ratios, ratio)

		eyeMid := (face.LeftEye.X + face.RightEye.X) / 2
		mouthMid := (face.MouthLeft.X + face.MouthRight.X) / 2
		offset := math.Abs(eyeMid - mouthMid)
		eyeOffsets = append(eyeOffsets, offset)
		if offset < th.EyeContactOffset {
			contact++
		}

		isNervous := mouthW < th.NervousMouthFrac*w && mouthH < th.NervousMouthFrac*h
		switch {
		case isNervous:
			nervous++
			states = append(states, stateNervous)
		case ratio > th.SmileRatio:
			states = append(states, stateSmile)
		default:
			states = append(states, stateNeutral)
		}
	}

	if len(ratios) == 0 {
		return nullResult("no_face_data", CategoryExpressions, msgExpressionsNoData)
	}

	smileCut := stats.Median(ratios) * th.SmileMedianFactor
	smiles := 0
	for _, r := range ratios {
		if r > smileCut {
			smiles++
		}
	}
	smilePct := float64(smiles) / float64(len(ratios))
	eyeContactPct := float64(contact) / float64(processed)
	nervousPct := float64(nervous) / float64(processed)

	transitions := 0
	for i := 1; i < len(states); i++ {
		if states[i] != states[i-1] {
			transitions++
		}
	}
	transitionsPer10 := float64(transitions) / duration * 10

	offsetStd := stats.PStdev(eyeOffsets)
	nervousEye := offsetStd > th.NervousEyeStd
	isNervous := nervousPct > th.NervousPctMax || nervousEye

	raw := 100.0
	if smilePct < th.IdealSmileMin {
		raw -= (th.IdealSmileMin - smilePct) * 40
	} else if smilePct > th.IdealSmileMax {
		raw -= (smilePct - th.IdealSmileMax) * 30
	}
	if eyeContactPct < th.EyeContactMin {
		raw -= (th.EyeContactMin - eyeContactPct) * 50
	}
	raw -= stats.Interp(transitionsPer10, []float64{0, 3, 6}, []float64{0, 10, 30})
	if isNervous {
		raw -= th.NervousPenalty
	}
	score := math.Max(0, stats.Round(raw/10, 0))

	var tags []FeedbackTag
	if smilePct < th.IdealSmileMin {
		tags = append(tags, negative(CategoryExpressions, SeverityMinor, fbExpressionsFewSmiles))
	} else if smilePct > th.IdealSmileMax {
		tags = append(tags, negative(CategoryExpressions, SeverityMinor, fbExpressionsManySmiles))
	}
	if eyeContactPct < th.EyeContactMin {
		tags = append(tags, negative(CategoryExpressions, SeverityMinor, fbExpressionsEyeContact))
	}
	if transitionsPer10 > th.TransitionsFeedback {
		tags = append(tags, negative(CategoryExpressions, SeverityMinor, fbExpressionsVolatile))
	}
	if isNervous {
		tags = append(tags, negative(CategoryNervousness, SeverityMajor, fbExpressionsNervous))
	}
	if len(tags) == 0 {
		tags = append(tags, positive(CategoryExpressions, fbExpressionsGood))
	}

	return ModalityResult{
		Score:    scorePtr(score),
		Feedback: tagTexts(tags),
		Tags:     tags,
		ExpressionMetrics: &ExpressionMetrics{
			SmilePercent:               stats.Round(smilePct*100, 1),
			EyeContactPercent:          stats.Round(eyeContactPct*100, 1),
			ExpressionTransitionsPer10: stats.Round(transitionsPer10, 2),
			NervousPercent:             stats.Round(nervousPct*100, 1),
			EyeOffsetStd:               stats.Round(offsetStd, 4),
			NervousEye:                 nervousEye,
		},
	}
}
