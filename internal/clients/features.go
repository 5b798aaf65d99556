package clients

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/speech"
)

// DefaultChunkSeconds is the feature window length.
const DefaultChunkSeconds = 5

// AudioFeatures is the extractor's answer for one clip. Chunks shorter than
// 100ms are dropped by the extractor.
type AudioFeatures struct {
	DurationSeconds float64                     `json:"duration_seconds"`
	Chunks          []speech.AudioChunkFeatures `json:"chunks"`
}

// FeatureExtractor computes per-chunk acoustic features.
type FeatureExtractor struct {
	base
}

func NewFeatureExtractor(opts Options) *FeatureExtractor {
	return &FeatureExtractor{base: newBase(NameAudioFeatures, opts)}
}

// Extract uploads the audio at path to /features.
func (fe *FeatureExtractor) Extract(ctx context.Context, path string, chunkSeconds float64) (AudioFeatures, error) {
	if chunkSeconds <= 0 {
		chunkSeconds = DefaultChunkSeconds
	}

	var res AudioFeatures
	target := fmt.Sprintf("/features?chunk_seconds=%g", chunkSeconds)
	if err := fe.postFile(ctx, target, "audio", path, &res); err != nil {
		return AudioFeatures{}, err
	}
	return res, nil
}

func (fe *FeatureExtractor) HealthCheck(ctx context.Context) error {
	return fe.Ping(ctx, "/health")
}
