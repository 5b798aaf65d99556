package video

import (
	"math"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/stats"
)

const (
	msgGesturesInsufficient = "We couldn’t track your hands enough to analyze gestures. Keep them visible in the frame!"

	fbGesturesHidden  = "Your hands are often out of sight. Try keeping them visible to show open, engaging body language."
	fbGesturesFew     = "Add a few purposeful gestures to highlight your points and connect with your audience."
	fbGesturesMany    = "You’re using a lot of gestures. Slow down a bit to keep the focus on your message."
	fbGesturesFidgety = "Your hands seem a bit fidgety. Relax them to project a calmer presence."
	fbGesturesGood    = "Awesome! Your gestures are natural and engaging."
)

// ScoreGestures rates gesture frequency, hand visibility and fidgeting on a
// 0-10 scale.
func ScoreGestures(frames []Frame, meta VideoMeta, th config.GestureThresholds) ModalityResult {
	processed := len(frames)
	handsFrames := 0
	if meta.Validation != nil {
		handsFrames = meta.Validation.Metrics.HandsFrames
	} else {
		for _, f := range frames {
			if f.Hands.present() {
				handsFrames++
			}
		}
	}
	if processed < th.MinFrames || handsFrames < th.MinFrames {
		return nullResult("insufficient_hand_frames", CategoryGestures, msgGesturesInsufficient)
	}

	w, h := meta.width(), meta.height()
	duration := math.Max(float64(processed)/meta.fps(), 1e-3)

	left := smoothTrack(frames, func(f Frame) *Point {
		if f.Hands == nil {
			return nil
		}
		return f.Hands.LeftWrist
	}, w, h)
	right := smoothTrack(frames, func(f Frame) *Point {
		if f.Hands == nil {
			return nil
		}
		return f.Hands.RightWrist
	}, w, h)

	visible := 0
	for i := range frames {
		if left[i] != nil {
			visible++
		}
		if right[i] != nil {
			visible++
		}
	}
	visibility := float64(visible) / float64(2*processed)

	gestureMin := th.GestureWidthFrac * w
	jitterMin := th.JitterMinWidthFrac * w
	jitterMax := th.JitterMaxWidthFrac * w
	gestures, jitter := 0, 0
	for i := 1; i < processed; i++ {
		for _, pair := range [2][2]*Point{{left[i-1], left[i]}, {right[i-1], right[i]}} {
			prev, cur := pair[0], pair[1]
			if prev == nil || cur == nil {
				continue
			}
			mag := math.Hypot(cur.X-prev.X, cur.Y-prev.Y)
			switch {
			case mag > gestureMin:
				gestures++
			case mag > jitterMin && mag <= jitterMax:
				jitter++
			}
		}
	}

	per10 := float64(gestures) / duration * 10
	jitterRate := float64(jitter) / math.Max(1, duration)

	raw := 100.0
	if visibility < 0.5 {
		raw -= 30 * (0.5 - visibility) / 0.5
	}
	if per10 < th.IdealRateMin {
		raw -= (th.IdealRateMin - per10) * 20
	} else if per10 > th.IdealRateMax {
		raw -= (per10 - th.IdealRateMax) * 10
	}
	raw -= stats.Interp(jitterRate, []float64{0, 0.5, 2}, []float64{0, 10, 30})
	score := math.Max(0, stats.Round(raw/10, 0))

	var tags []FeedbackTag
	if visibility < th.VisibilityFeedback {
		tags = append(tags, negative(CategoryGestures, SeverityMinor, fbGesturesHidden))
	}
	if per10 < th.IdealRateMin {
		tags = append(tags, negative(CategoryGestures, SeverityMinor, fbGesturesFew))
	}
	if per10 > th.IdealRateMax {
		tags = append(tags, negative(CategoryGestures, SeverityMinor, fbGesturesMany))
	}
	if jitterRate > th.JitterFeedback {
		tags = append(tags, negative(CategoryGestures, SeverityMinor, fbGesturesFidgety))
	}
	if len(tags) == 0 {
		tags = append(tags, positive(CategoryGestures, fbGesturesGood))
	}

	return ModalityResult{
		Score:    scorePtr(score),
		Feedback: tagTexts(tags),
		Tags:     tags,
		GestureMetrics: &GestureMetrics{
			VisibleHandsPercent: stats.Round(visibility*100, 1),
			GestureRatePer10s:   stats.Round(per10, 2),
			JitterRatePerSec:    stats.Round(jitterRate, 3),
			GestureCount:        gestures,
			JitterEvents:        jitter,
		},
	}
}

// smoothTrack converts one wrist track to pixels, averaging each interior
// point with its neighbours when both are present.
func smoothTrack(frames []Frame, pick func(Frame) *Point, w, h float64) []*Point {
	out := make([]*Point, len(frames))
	for i, f := range frames {
		cur := pick(f)
		if cur == nil {
			continue
		}
		x, y := cur.X, cur.Y
		if i > 0 && i < len(frames)-1 {
			prev, next := pick(frames[i-1]), pick(frames[i+1])
			if prev != nil && next != nil {
				x = (cur.X + prev.X + next.X) / 3
				y = (cur.Y + prev.Y + next.Y) / 3
			}
		}
		out[i] = &Point{X: x * w, Y: y * h}
	}
	return out
}
