package video

import (
	"fmt"
	"math"
	"strings"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/stats"
)

// Validate decides whether the frame stream carries enough signal to score
// and which modalities may run. Metrics are attached on every path.
func Validate(frames []Frame, meta VideoMeta, th config.CoverageThresholds) Validation {
	processed := meta.ProcessedFrames
	total := meta.TotalFrames
	usable := meta.UsableFrames

	m := ValidationMetrics{
		TotalFrames:     total,
		ProcessedFrames: processed,
		UsableFrames:    usable,
	}

	if processed <= 0 {
		return rejected("No frames were processed or no landmarks extracted.", "No usable frames", m)
	}

	if total > 0 {
		floor := int(float64(total) * th.MinProcessedRatio)
		if floor < 1 {
			floor = 1
		}
		if processed < floor {
			return rejected("Insufficient processed frames (video likely irrelevant or unreadable).", "Too few processed frames", m)
		}
	}

	usableRatio := float64(usable) / float64(processed)
	m.UsableRatio = stats.Round(usableRatio, 3)
	if usableRatio < th.MinUsableRatio {
		return rejected(
			fmt.Sprintf("Subject is out of frame or obscured for too many frames (usable ratio=%.2f).", usableRatio),
			"Subject out of frame", m)
	}

	for _, w := range meta.Warnings {
		if strings.Contains(w, "facing away") {
			m.FacingAwayCount++
		}
	}

	for _, f := range frames {
		if f.Face.present() {
			m.FaceFrames++
			bboxH, mouthH, hasMouth := faceHeights(f.Face)
			if bboxH > 0 && bboxH < th.SmallFaceHeight {
				m.FaceSmallCount++
			}
			if hasMouth && mouthH > 0 && mouthH < th.SmallMouthHeight {
				m.MouthSmallCount++
			}
		}
		if f.Pose.hasShoulders() {
			m.PoseFrames++
		}
		if f.Hands.present() {
			m.HandsFrames++
		}
	}

	facingAway := float64(m.FacingAwayCount) / float64(processed)
	m.FacingAwayRatio = stats.Round(facingAway, 3)
	if facingAway > th.MaxFacingAwayRatio {
		return rejected("Person facing away in too many frames—please face the camera.", "Facing away detected", m)
	}

	var flags []string
	faceDisabled := false
	if m.FaceFrames > 0 {
		smallRatio := float64(m.FaceSmallCount) / float64(m.FaceFrames)
		m.FaceCoverageRatio = scorePtr(stats.Round(1-smallRatio, 3))
		m.MouthCoverageRatio = scorePtr(stats.Round(1-float64(m.MouthSmallCount)/float64(m.FaceFrames), 3))
		if smallRatio >= th.SmallFaceDisable {
			flags = append(flags, "Face too small or occluded—expression scoring disabled.")
			faceDisabled = true
		}
	}

	ratio := func(n int) float64 { return float64(n) / float64(processed) }
	mode := AnalysisMode{
		UsePose:  ratio(m.PoseFrames) >= th.MinModalityRatio,
		UseFace:  ratio(m.FaceFrames) >= th.MinModalityRatio && !faceDisabled,
		UseHands: ratio(m.HandsFrames) >= th.MinModalityRatio,
	}

	if !mode.UsePose {
		flags = append(flags, fmt.Sprintf("Pose landmarks insufficient (%d/%d). Posture scoring disabled.", m.PoseFrames, processed))
	}
	if !mode.UseFace {
		flags = append(flags, fmt.Sprintf("Face landmarks insufficient (%d/%d). Expression scoring disabled.", m.FaceFrames, processed))
	}
	if !mode.UseHands {
		flags = append(flags, fmt.Sprintf("Hand landmarks insufficient (%d/%d). Gesture scoring disabled.", m.HandsFrames, processed))
	}

	if !mode.UsePose && !mode.UseFace && !mode.UseHands {
		return rejected("Insufficient detectable landmarks for analysis.", "Insufficient landmark coverage", m)
	}

	if flags == nil {
		flags = []string{}
	}
	return Validation{
		Valid:        true,
		Reason:       "Video validated for analysis.",
		Flags:        flags,
		AnalysisMode: mode,
		Metrics:      m,
	}
}

func rejected(reason, flag string, m ValidationMetrics) Validation {
	return Validation{
		Valid:   false,
		Reason:  reason,
		Flags:   []string{flag},
		Metrics: m,
	}
}

// faceHeights returns the normalized landmark bounding-box height and the
// mouth opening. hasMouth is false when either mouth point is missing.
func faceHeights(f *Face) (bboxH, mouthH float64, hasMouth bool) {
	pts := f.points()
	if len(pts) == 0 {
		return 0, 0, false
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		lo = math.Min(lo, p.Y)
		hi = math.Max(hi, p.Y)
	}
	bboxH = hi - lo
	if f.MouthTop != nil && f.MouthBottom != nil {
		return bboxH, math.Abs(f.MouthTop.Y - f.MouthBottom.Y), true
	}
	return bboxH, 0, false
}
