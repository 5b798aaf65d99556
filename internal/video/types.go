package video

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	DefaultWidth     = 640
	DefaultHeight    = 480
	DefaultFPS       = 10.0
	DefaultFrameSkip = 3
)

// Point is a landmark in normalized image coordinates. It decodes from either
// an [x, y] pair or an {"x":..,"y":..} object.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p *Point) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var pair []float64
		if err := json.Unmarshal(b, &pair); err != nil {
			return err
		}
		if len(pair) < 2 {
			return fmt.Errorf("point needs two coordinates, got %d", len(pair))
		}
		p.X, p.Y = pair[0], pair[1]
		return nil
	}
	type plain Point
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Point(v)
	return nil
}

type Pose struct {
	Nose          *Point `json:"nose,omitempty"`
	LeftShoulder  *Point `json:"left_shoulder,omitempty"`
	RightShoulder *Point `json:"right_shoulder,omitempty"`
	LeftHip       *Point `json:"left_hip,omitempty"`
	RightHip      *Point `json:"right_hip,omitempty"`
}

func (p *Pose) present() bool {
	return p != nil && (p.Nose != nil || p.LeftShoulder != nil || p.RightShoulder != nil ||
		p.LeftHip != nil || p.RightHip != nil)
}

// hasShoulders is the pose-frame criterion used for coverage.
func (p *Pose) hasShoulders() bool {
	return p.present() && p.LeftShoulder != nil && p.RightShoulder != nil
}

func (p *Pose) complete() bool {
	return p != nil && p.Nose != nil && p.LeftShoulder != nil && p.RightShoulder != nil &&
		p.LeftHip != nil && p.RightHip != nil
}

type Hands struct {
	LeftWrist  *Point `json:"left_wrist,omitempty"`
	RightWrist *Point `json:"right_wrist,omitempty"`
}

func (h *Hands) present() bool {
	return h != nil && (h.LeftWrist != nil || h.RightWrist != nil)
}

type Face struct {
	MouthLeft   *Point `json:"mouth_left,omitempty"`
	MouthRight  *Point `json:"mouth_right,omitempty"`
	MouthTop    *Point `json:"mouth_top,omitempty"`
	MouthBottom *Point `json:"mouth_bottom,omitempty"`
	LeftEye     *Point `json:"left_eye,omitempty"`
	RightEye    *Point `json:"right_eye,omitempty"`
}

func (f *Face) points() []*Point {
	if f == nil {
		return nil
	}
	out := make([]*Point, 0, 6)
	for _, p := range []*Point{f.MouthLeft, f.MouthRight, f.MouthTop, f.MouthBottom, f.LeftEye, f.RightEye} {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (f *Face) present() bool { return len(f.points()) > 0 }

func (f *Face) complete() bool { return len(f.points()) == 6 }

// Frame is one sampled video frame. Any landmark group may be missing.
type Frame struct {
	Index int    `json:"frame_idx"`
	Pose  *Pose  `json:"pose,omitempty"`
	Hands *Hands `json:"hands,omitempty"`
	Face  *Face  `json:"face,omitempty"`
}

type VideoMeta struct {
	Width           int         `json:"width"`
	Height          int         `json:"height"`
	FPS             float64     `json:"fps"`
	DurationSec     float64     `json:"duration_sec,omitempty"`
	TotalFrames     int         `json:"total_frames"`
	ProcessedFrames int         `json:"processed_frames"`
	UsableFrames    int         `json:"usable_frames"`
	FrameSkip       int         `json:"frame_skip,omitempty"`
	Warnings        []string    `json:"warnings,omitempty"`
	Validation      *Validation `json:"validation,omitempty"`
}

func (m VideoMeta) width() float64 {
	if m.Width <= 0 {
		return DefaultWidth
	}
	return float64(m.Width)
}

func (m VideoMeta) height() float64 {
	if m.Height <= 0 {
		return DefaultHeight
	}
	return float64(m.Height)
}

func (m VideoMeta) fps() float64 {
	if m.FPS <= 0 {
		return DefaultFPS
	}
	return m.FPS
}

// ProcessedVideo is the perception extractor's output.
type ProcessedVideo struct {
	Frames []Frame   `json:"frames"`
	Meta   VideoMeta `json:"meta"`
}

type AnalysisMode struct {
	UsePose  bool `json:"use_pose"`
	UseFace  bool `json:"use_face"`
	UseHands bool `json:"use_hands"`
}

type ValidationMetrics struct {
	TotalFrames        int      `json:"total_frames"`
	ProcessedFrames    int      `json:"processed_frames"`
	UsableFrames       int      `json:"usable_frames"`
	UsableRatio        float64  `json:"usable_ratio"`
	FaceFrames         int      `json:"face_frames"`
	PoseFrames         int      `json:"pose_frames"`
	HandsFrames        int      `json:"hands_frames"`
	FaceSmallCount     int      `json:"face_small_count"`
	MouthSmallCount    int      `json:"mouth_small_count"`
	FacingAwayCount    int      `json:"facing_away_count"`
	FacingAwayRatio    float64  `json:"facing_away_ratio"`
	FaceCoverageRatio  *float64 `json:"face_coverage_ratio,omitempty"`
	MouthCoverageRatio *float64 `json:"mouth_coverage_ratio,omitempty"`
}

// Validation is the coverage gate consulted before any modality is scored.
type Validation struct {
	Valid        bool              `json:"valid"`
	Reason       string            `json:"reason"`
	Flags        []string          `json:"flags"`
	AnalysisMode AnalysisMode      `json:"analysis_mode"`
	Metrics      ValidationMetrics `json:"metrics"`
}

// Feedback tag vocabulary.
const (
	CategoryPosture     = "posture"
	CategoryGestures    = "gestures"
	CategoryExpressions = "expressions"
	CategoryNervousness = "nervousness"

	PolarityPositive = "positive"
	PolarityNegative = "negative"

	SeverityInfo  = "info"
	SeverityMinor = "minor"
	SeverityMajor = "major"
)

// FeedbackTag classifies one feedback string at the point it is produced.
type FeedbackTag struct {
	Category string `json:"category"`
	Polarity string `json:"polarity"`
	Severity string `json:"severity"`
	Text     string `json:"text"`
}

type BadFrame struct {
	FrameIndex int    `json:"frame_idx"`
	Issue      string `json:"issue"`
}

type PostureMetrics struct {
	MeanTorsoAngleDeg float64    `json:"mean_torso_angle_deg"`
	AngleStdDeg       float64    `json:"angle_std_deg"`
	SlouchedPercent   float64    `json:"slouched_percent"`
	TiltedPercent     float64    `json:"tilted_percent"`
	ValidFrames       int        `json:"valid_frames"`
	BadFrames         []BadFrame `json:"bad_frames"`
}

type GestureMetrics struct {
	VisibleHandsPercent float64 `json:"visible_hands_percent"`
	GestureRatePer10s   float64 `json:"gesture_rate_per_10s"`
	JitterRatePerSec    float64 `json:"jitter_rate_per_s"`
	GestureCount        int     `json:"gesture_count"`
	JitterEvents        int     `json:"jitter_events"`
}

type ExpressionMetrics struct {
	SmilePercent               float64 `json:"smile_percent"`
	EyeContactPercent          float64 `json:"eye_contact_percent"`
	ExpressionTransitionsPer10 float64 `json:"expression_transitions_per_10s"`
	NervousPercent             float64 `json:"nervous_percent"`
	EyeOffsetStd               float64 `json:"eye_offset_std"`
	NervousEye                 bool    `json:"nervous_eye"`
}

// ModalityResult is the outcome of one scorer. A nil Score means the modality
// was disabled or lacked data; Reason and Message say why. Exactly one of the
// metric blocks is set on a scored result.
type ModalityResult struct {
	Score    *float64      `json:"score"`
	Reason   string        `json:"reason,omitempty"`
	Message  []string      `json:"message,omitempty"`
	Feedback []string      `json:"feedback,omitempty"`
	Tags     []FeedbackTag `json:"tags,omitempty"`

	*PostureMetrics
	*GestureMetrics
	*ExpressionMetrics
}

// Scored reports whether the result carries a score.
func (r ModalityResult) Scored() bool { return r.Score != nil }

type FeedbackSummary struct {
	Strengths  []string `json:"Strengths"`
	Weaknesses []string `json:"Weaknesses"`
	Tips       []string `json:"Summary of Tips"`
}

type Overall struct {
	AverageScore float64         `json:"average_score"`
	Feedback     FeedbackSummary `json:"feedback"`
}

type VideoResult struct {
	Posture     ModalityResult `json:"posture"`
	Gestures    ModalityResult `json:"gestures"`
	Expressions ModalityResult `json:"expressions"`
	Overall     Overall        `json:"overall"`
	Validation  *Validation    `json:"validation,omitempty"`
}

func scorePtr(v float64) *float64 { return &v }
