package video

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/config"
)

func TestValidateRejections(t *testing.T) {
	th := config.DefaultThresholds().Coverage
	full := framesOf(20, func(int) Frame { return Frame{Pose: uprightPose(), Face: steadyFace()} })

	facingAway := metaFor(full)
	for i := 0; i < 11; i++ {
		facingAway.Warnings = append(facingAway.Warnings, fmt.Sprintf("⚠️ Possible facing away at frame %d", i))
	}

	tests := []struct {
		name   string
		frames []Frame
		meta   VideoMeta
		reason string
		flag   string
	}{
		{
			name:   "no processed frames",
			frames: full,
			meta:   VideoMeta{TotalFrames: 60, UsableFrames: 20},
			reason: "No frames were processed or no landmarks extracted.",
			flag:   "No usable frames",
		},
		{
			name:   "too few processed frames",
			frames: full,
			meta:   VideoMeta{TotalFrames: 1000, ProcessedFrames: 20, UsableFrames: 20},
			reason: "Insufficient processed frames (video likely irrelevant or unreadable).",
			flag:   "Too few processed frames",
		},
		{
			name:   "subject out of frame",
			frames: full,
			meta:   VideoMeta{TotalFrames: 60, ProcessedFrames: 20, UsableFrames: 4},
			reason: "Subject is out of frame or obscured for too many frames (usable ratio=0.20).",
			flag:   "Subject out of frame",
		},
		{
			name:   "facing away",
			frames: full,
			meta:   facingAway,
			reason: "Person facing away in too many frames—please face the camera.",
			flag:   "Facing away detected",
		},
		{
			name:   "no landmarks",
			frames: framesOf(20, func(int) Frame { return Frame{} }),
			meta:   VideoMeta{TotalFrames: 60, ProcessedFrames: 20, UsableFrames: 20},
			reason: "Insufficient detectable landmarks for analysis.",
			flag:   "Insufficient landmark coverage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate(tt.frames, tt.meta, th)
			assert.False(t, v.Valid)
			assert.Equal(t, tt.reason, v.Reason)
			assert.Equal(t, []string{tt.flag}, v.Flags)
			assert.Equal(t, AnalysisMode{}, v.AnalysisMode)
			assert.Equal(t, tt.meta.ProcessedFrames, v.Metrics.ProcessedFrames)
		})
	}
}

func TestValidateEnablesCoveredModalities(t *testing.T) {
	th := config.DefaultThresholds().Coverage
	frames := framesOf(20, func(i int) Frame {
		f := Frame{Pose: uprightPose(), Face: steadyFace()}
		if i < 4 {
			f.Hands = &Hands{LeftWrist: pt(0.3, 0.6)}
		}
		return f
	})

	v := Validate(frames, metaFor(frames), th)
	require.True(t, v.Valid)
	assert.Equal(t, "Video validated for analysis.", v.Reason)
	assert.Equal(t, AnalysisMode{UsePose: true, UseFace: true, UseHands: false}, v.AnalysisMode)
	assert.Equal(t, []string{"Hand landmarks insufficient (4/20). Gesture scoring disabled."}, v.Flags)
	assert.Equal(t, 20, v.Metrics.PoseFrames)
	assert.Equal(t, 20, v.Metrics.FaceFrames)
	assert.Equal(t, 4, v.Metrics.HandsFrames)
	require.NotNil(t, v.Metrics.FaceCoverageRatio)
	assert.Equal(t, 1.0, *v.Metrics.FaceCoverageRatio)
}

func TestValidateDisablesSmallFaces(t *testing.T) {
	th := config.DefaultThresholds().Coverage
	tiny := &Face{
		MouthLeft:   pt(0.49, 0.50),
		MouthRight:  pt(0.51, 0.50),
		MouthTop:    pt(0.50, 0.495),
		MouthBottom: pt(0.50, 0.505),
		LeftEye:     pt(0.48, 0.48),
		RightEye:    pt(0.52, 0.48),
	}
	frames := framesOf(20, func(int) Frame { return Frame{Pose: uprightPose(), Face: tiny} })

	v := Validate(frames, metaFor(frames), th)
	require.True(t, v.Valid)
	assert.False(t, v.AnalysisMode.UseFace)
	assert.True(t, v.AnalysisMode.UsePose)
	assert.Contains(t, v.Flags, "Face too small or occluded—expression scoring disabled.")
	assert.Equal(t, 20, v.Metrics.FaceSmallCount)
	assert.Equal(t, 20, v.Metrics.MouthSmallCount)
}

func TestPointDecodesPairsAndObjects(t *testing.T) {
	var f Frame
	raw := `{"frame_idx": 6, "pose": {"nose": [0.5, 0.2], "left_shoulder": {"x": 0.4, "y": 0.35}}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	assert.Equal(t, 6, f.Index)
	assert.Equal(t, &Point{X: 0.5, Y: 0.2}, f.Pose.Nose)
	assert.Equal(t, &Point{X: 0.4, Y: 0.35}, f.Pose.LeftShoulder)
	assert.Nil(t, f.Pose.RightShoulder)
	assert.Nil(t, f.Face)

	var p Point
	assert.Error(t, json.Unmarshal([]byte(`[0.1]`), &p))
}
