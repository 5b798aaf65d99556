package clients

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/video"
)

// DefaultFrameSkip keeps every third frame, matching the scorers' default.
const DefaultFrameSkip = video.DefaultFrameSkip

// Perception uploads video to the landmark extractor.
type Perception struct {
	base
}

func NewPerception(opts Options) *Perception {
	return &Perception{base: newBase(NamePerception, opts)}
}

// Extract posts the video at path to /extract and returns per-frame
// landmarks. frameSkip below 1 selects DefaultFrameSkip.
func (p *Perception) Extract(ctx context.Context, path string, frameSkip int) (video.ProcessedVideo, error) {
	if frameSkip < 1 {
		frameSkip = DefaultFrameSkip
	}

	var pv video.ProcessedVideo
	target := fmt.Sprintf("/extract?frame_skip=%d", frameSkip)
	if err := p.postFile(ctx, target, "video", path, &pv); err != nil {
		return video.ProcessedVideo{}, err
	}
	return pv, nil
}

func (p *Perception) HealthCheck(ctx context.Context) error {
	return p.Ping(ctx, "/health")
}
