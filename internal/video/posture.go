package video

import (
	"math"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/stats"
)

const (
	msgPostureInsufficient = "We couldn't analyze your posture because there weren't enough clear frames. Try keeping your upper body visible!"
	msgPostureNoPose       = "We couldn't detect your posture clearly. Make sure your upper body and hips are in the frame!"

	fbPostureSlouch = "You’re leaning forward or back a bit too often. Try sitting up straighter to boost your confidence!"
	fbPostureTilt   = "Your shoulders seem uneven at times. Keep them level for a stronger, more polished look."
	fbPostureShift  = "Your posture shifts a lot. Stay steady to project a calm, confident vibe."
	fbPostureGood   = "Great job! Your posture is upright and confident."
)

const maxBadFrames = 3

// ScorePosture scores torso lean, its stability and shoulder level on a 0-10
// scale.
func ScorePosture(frames []Frame, meta VideoMeta, th config.PostureThresholds) ModalityResult {
	poseFrames := 0
	if meta.Validation != nil {
		poseFrames = meta.Validation.Metrics.PoseFrames
	} else {
		for _, f := range frames {
			if f.Pose.hasShoulders() {
				poseFrames++
			}
		}
	}
	if poseFrames < th.MinFrames {
		return nullResult("insufficient_pose_frames", CategoryPosture, msgPostureInsufficient)
	}

	w, h := meta.width(), meta.height()
	var (
		angles    []float64
		slouched  int
		tilted    int
		badFrames = []BadFrame{}
	)
	for _, f := range frames {
		p := f.Pose
		if !p.complete() {
			continue
		}
		angle := torsoLean(p, w, h)
		angles = append(angles, angle)

		if math.Abs(p.LeftShoulder.Y*h-p.RightShoulder.Y*h) > th.TiltHeightFraction*h {
			tilted++
			if len(badFrames) < maxBadFrames {
				badFrames = append(badFrames, BadFrame{FrameIndex: f.Index, Issue: "tilted"})
			}
		}
		if math.Abs(angle) > th.SlouchAngleDeg {
			slouched++
			if len(badFrames) < maxBadFrames {
				badFrames = append(badFrames, BadFrame{FrameIndex: f.Index, Issue: "slouched"})
			}
		}
	}

	if len(angles) == 0 {
		return nullResult("no_pose_detected", CategoryPosture, msgPostureNoPose)
	}

	valid := float64(len(angles))
	meanAngle := stats.Mean(angles)
	angleStd := stats.PStdev(angles)
	slouchPct := float64(slouched) / valid
	tiltPct := float64(tilted) / valid

	raw := 100.0
	raw -= stats.Interp(angleStd, []float64{0, 8, 20}, []float64{0, 10, 40})
	raw -= slouchPct * 50
	raw -= tiltPct * 20
	score := math.Max(0, stats.Round(raw/10, 0))

	var tags []FeedbackTag
	if slouchPct > th.SlouchFeedback {
		tags = append(tags, negative(CategoryPosture, SeverityMinor, fbPostureSlouch))
	}
	if tiltPct > th.TiltFeedback {
		tags = append(tags, negative(CategoryPosture, SeverityMinor, fbPostureTilt))
	}
	if angleStd > th.StdFeedbackDeg {
		tags = append(tags, negative(CategoryPosture, SeverityMinor, fbPostureShift))
	}
	if len(tags) == 0 {
		tags = append(tags, positive(CategoryPosture, fbPostureGood))
	}

	return ModalityResult{
		Score:    scorePtr(score),
		Feedback: tagTexts(tags),
		Tags:     tags,
		PostureMetrics: &PostureMetrics{
			MeanTorsoAngleDeg: stats.Round(meanAngle, 2),
			AngleStdDeg:       stats.Round(angleStd, 2),
			SlouchedPercent:   stats.Round(slouchPct*100, 1),
			TiltedPercent:     stats.Round(tiltPct*100, 1),
			ValidFrames:       len(angles),
			BadFrames:         badFrames,
		},
	}
}

// normalizeAngle maps degrees into (-180, 180].
// torsoLean is the angle in degrees between the hip-to-nose line and the
// upright axis: 0 when the nose sits straight above the hip midpoint,
// positive when it leans toward larger x.
func torsoLean(p *Pose, w, h float64) float64 {
	hipX := (p.LeftHip.X + p.RightHip.X) / 2 * w
	hipY := (p.LeftHip.Y + p.RightHip.Y) / 2 * h
	dx := p.Nose.X*w - hipX
	up := hipY - p.Nose.Y*h
	return normalizeAngle(math.Atan2(dx, up) * 180 / math.Pi)
}

func normalizeAngle(deg float64) float64 {
	for deg <= -180 {
		deg += 360
	}
	for deg > 180 {
		deg -= 360
	}
	return deg
}
