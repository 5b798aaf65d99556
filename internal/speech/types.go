// Package speech scores spoken delivery from a transcript and per-chunk audio
// features: fluency, pacing, pronunciation, pitch variation and tone.
package speech

// WordTimestamp is one recognized word with its timing in seconds.
type WordTimestamp struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type Segment struct {
	Start float64         `json:"start"`
	End   float64         `json:"end"`
	Text  string          `json:"text"`
	Words []WordTimestamp `json:"words,omitempty"`
}

// TranscriptionResult is what a transcription backend returns for one clip.
type TranscriptionResult struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language,omitempty"`
	Backend  string    `json:"backend,omitempty"`
}

// AudioChunkFeatures are the acoustic features of one fixed-length slice.
type AudioChunkFeatures struct {
	ChunkIndex    int       `json:"chunk_index"`
	StartTime     float64   `json:"start_time"`
	EndTime       float64   `json:"end_time"`
	Duration      float64   `json:"duration"`
	RMSMean       float64   `json:"rms_mean"`
	RMSVar        float64   `json:"rms_var"`
	ZCR           float64   `json:"zcr"`
	MFCCMeans     []float64 `json:"mfccs_mean"`
	PitchMean     float64   `json:"pitch_mean"`
	PitchVariance float64   `json:"pitch_variance"`
	PitchMax      float64   `json:"pitch_max"`
	PitchMin      float64   `json:"pitch_min"`
	PitchRange    float64   `json:"pitch_range"`
	Tempo         float64   `json:"tempo"`
	SilenceRatio  float64   `json:"silence_ratio"`
}
