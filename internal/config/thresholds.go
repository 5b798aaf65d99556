package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CoverageThresholds gate which video modalities are scored at all.
type CoverageThresholds struct {
	MinProcessedRatio  float64 `yaml:"min_processed_ratio" json:"min_processed_ratio"`
	MinUsableRatio     float64 `yaml:"min_usable_ratio" json:"min_usable_ratio"`
	MinModalityRatio   float64 `yaml:"min_modality_ratio" json:"min_modality_ratio"`
	SmallFaceHeight    float64 `yaml:"small_face_height" json:"small_face_height"`
	SmallMouthHeight   float64 `yaml:"small_mouth_height" json:"small_mouth_height"`
	SmallFaceDisable   float64 `yaml:"small_face_disable_ratio" json:"small_face_disable_ratio"`
	MaxFacingAwayRatio float64 `yaml:"max_facing_away_ratio" json:"max_facing_away_ratio"`
}

type PostureThresholds struct {
	MinFrames          int     `yaml:"min_frames" json:"min_frames"`
	SlouchAngleDeg     float64 `yaml:"slouch_angle_deg" json:"slouch_angle_deg"`
	TiltHeightFraction float64 `yaml:"tilt_height_fraction" json:"tilt_height_fraction"`
	SlouchFeedback     float64 `yaml:"slouch_feedback" json:"slouch_feedback"`
	TiltFeedback       float64 `yaml:"tilt_feedback" json:"tilt_feedback"`
	StdFeedbackDeg     float64 `yaml:"std_feedback_deg" json:"std_feedback_deg"`
}

type GestureThresholds struct {
	MinFrames          int     `yaml:"min_frames" json:"min_frames"`
	GestureWidthFrac   float64 `yaml:"gesture_width_fraction" json:"gesture_width_fraction"`
	JitterMinWidthFrac float64 `yaml:"jitter_min_width_fraction" json:"jitter_min_width_fraction"`
	JitterMaxWidthFrac float64 `yaml:"jitter_max_width_fraction" json:"jitter_max_width_fraction"`
	IdealRateMin       float64 `yaml:"ideal_rate_min" json:"ideal_rate_min"`
	IdealRateMax       float64 `yaml:"ideal_rate_max" json:"ideal_rate_max"`
	VisibilityFeedback float64 `yaml:"visibility_feedback" json:"visibility_feedback"`
	JitterFeedback     float64 `yaml:"jitter_feedback" json:"jitter_feedback"`
}

type ExpressionThresholds struct {
	MinFrames           int     `yaml:"min_frames" json:"min_frames"`
	SmileRatio          float64 `yaml:"smile_ratio" json:"smile_ratio"`
	SmileMedianFactor   float64 `yaml:"smile_median_factor" json:"smile_median_factor"`
	EyeContactOffset    float64 `yaml:"eye_contact_offset" json:"eye_contact_offset"`
	NervousMouthFrac    float64 `yaml:"nervous_mouth_fraction" json:"nervous_mouth_fraction"`
	IdealSmileMin       float64 `yaml:"ideal_smile_min" json:"ideal_smile_min"`
	IdealSmileMax       float64 `yaml:"ideal_smile_max" json:"ideal_smile_max"`
	EyeContactMin       float64 `yaml:"eye_contact_min" json:"eye_contact_min"`
	TransitionsFeedback float64 `yaml:"transitions_feedback" json:"transitions_feedback"`
	NervousPctMax       float64 `yaml:"nervous_pct_max" json:"nervous_pct_max"`
	NervousEyeStd       float64 `yaml:"nervous_eye_std" json:"nervous_eye_std"`
	NervousPenalty      float64 `yaml:"nervous_penalty" json:"nervous_penalty"`
}

type VideoWeights struct {
	Posture     float64 `yaml:"posture" json:"posture"`
	Gestures    float64 `yaml:"gestures" json:"gestures"`
	Expressions float64 `yaml:"expressions" json:"expressions"`
}

type FluencyThresholds struct {
	PauseSeconds     float64 `yaml:"pause_seconds" json:"pause_seconds"`
	SlowWPM          float64 `yaml:"slow_wpm" json:"slow_wpm"`
	FastWPM          float64 `yaml:"fast_wpm" json:"fast_wpm"`
	FillerPenaltyCap float64 `yaml:"filler_penalty_cap" json:"filler_penalty_cap"`
	PausePenaltyCap  float64 `yaml:"pause_penalty_cap" json:"pause_penalty_cap"`
	PausePenalty     float64 `yaml:"pause_penalty" json:"pause_penalty"`
}

type SpeechThresholds struct {
	Fluency              FluencyThresholds `yaml:"fluency" json:"fluency"`
	CloseMatchSimilarity float64           `yaml:"close_match_similarity" json:"close_match_similarity"`
	MonotoneThreshold    float64           `yaml:"monotone_threshold" json:"monotone_threshold"`
	MinAudioSeconds      float64           `yaml:"min_audio_seconds" json:"min_audio_seconds"`
	MaxAudioSeconds      float64           `yaml:"max_audio_seconds" json:"max_audio_seconds"`
	ChunkSeconds         float64           `yaml:"chunk_seconds" json:"chunk_seconds"`
}

type TextWeights struct {
	Grammar     float64 `yaml:"grammar" json:"grammar"`
	Readability float64 `yaml:"readability" json:"readability"`
	Coherence   float64 `yaml:"coherence" json:"coherence"`
	Structure   float64 `yaml:"structure" json:"structure"`
}

// Thresholds are the empirically tuned scoring constants. Every field can be
// overridden from YAML; anything left out keeps its default.
type Thresholds struct {
	Coverage     CoverageThresholds   `yaml:"coverage" json:"coverage"`
	Posture      PostureThresholds    `yaml:"posture" json:"posture"`
	Gestures     GestureThresholds    `yaml:"gestures" json:"gestures"`
	Expressions  ExpressionThresholds `yaml:"expressions" json:"expressions"`
	VideoWeights VideoWeights         `yaml:"video_weights" json:"video_weights"`
	Speech       SpeechThresholds     `yaml:"speech" json:"speech"`
	TextWeights  TextWeights          `yaml:"text_weights" json:"text_weights"`
}

// DefaultThresholds returns the documented scoring constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Coverage: CoverageThresholds{
			MinProcessedRatio:  0.05,
			MinUsableRatio:     0.30,
			MinModalityRatio:   0.30,
			SmallFaceHeight:    0.06,
			SmallMouthHeight:   0.02,
			SmallFaceDisable:   0.5,
			MaxFacingAwayRatio: 0.5,
		},
		Posture: PostureThresholds{
			MinFrames:          8,
			SlouchAngleDeg:     12,
			TiltHeightFraction: 0.05,
			SlouchFeedback:     0.25,
			TiltFeedback:       0.15,
			StdFeedbackDeg:     10,
		},
		Gestures: GestureThresholds{
			MinFrames:          8,
			GestureWidthFrac:   0.05,
			JitterMinWidthFrac: 0.012,
			JitterMaxWidthFrac: 0.048,
			IdealRateMin:       1,
			IdealRateMax:       3,
			VisibilityFeedback: 0.7,
			JitterFeedback:     0.5,
		},
		Expressions: ExpressionThresholds{
			MinFrames:           8,
			SmileRatio:          1.8,
			SmileMedianFactor:   1.35,
			EyeContactOffset:    0.08,
			NervousMouthFrac:    0.04,
			IdealSmileMin:       0.2,
			IdealSmileMax:       0.6,
			EyeContactMin:       0.7,
			TransitionsFeedback: 3,
			NervousPctMax:       0.2,
			NervousEyeStd:       0.02,
			NervousPenalty:      12.5,
		},
		VideoWeights: VideoWeights{Posture: 0.3, Gestures: 0.3, Expressions: 0.4},
		Speech: SpeechThresholds{
			Fluency: FluencyThresholds{
				PauseSeconds:     0.7,
				SlowWPM:          80,
				FastWPM:          180,
				FillerPenaltyCap: 50,
				PausePenaltyCap:  30,
				PausePenalty:     5,
			},
			CloseMatchSimilarity: 0.70,
			MonotoneThreshold:    0.15,
			MinAudioSeconds:      2,
			MaxAudioSeconds:      120,
			ChunkSeconds:         5,
		},
		TextWeights: TextWeights{Grammar: 0.35, Readability: 0.20, Coherence: 0.25, Structure: 0.20},
	}
}

// LoadThresholds overlays the YAML file at path on the defaults. An empty
// path returns the defaults unchanged.
func LoadThresholds(path string) (Thresholds, error) {
	th := DefaultThresholds()
	if path == "" {
		return th, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return th, fmt.Errorf("read thresholds %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &th); err != nil {
		return th, fmt.Errorf("parse thresholds %s: %w", path, err)
	}
	if err := th.Validate(); err != nil {
		return th, fmt.Errorf("invalid thresholds %s: %w", path, err)
	}
	return th, nil
}

// Validate rejects overrides that would break scoring invariants.
func (t Thresholds) Validate() error {
	if t.Posture.MinFrames < 1 || t.Gestures.MinFrames < 1 || t.Expressions.MinFrames < 1 {
		return fmt.Errorf("min_frames must be at least 1")
	}
	if t.Speech.MonotoneThreshold <= 0 {
		return fmt.Errorf("speech.monotone_threshold must be positive")
	}
	if t.Gestures.JitterMinWidthFrac >= t.Gestures.JitterMaxWidthFrac {
		return fmt.Errorf("gestures jitter band is empty")
	}
	vw := t.VideoWeights
	if vw.Posture < 0 || vw.Gestures < 0 || vw.Expressions < 0 {
		return fmt.Errorf("video_weights must be non-negative")
	}
	tw := t.TextWeights
	if tw.Grammar < 0 || tw.Readability < 0 || tw.Coherence < 0 || tw.Structure < 0 {
		return fmt.Errorf("text_weights must be non-negative")
	}
	return nil
}
