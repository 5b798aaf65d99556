package speech

import (
	"math"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/stats"
)

// DefaultMonotonyVariance is the raw pitch-variance floor used by
// DetectMonotony.
const DefaultMonotonyVariance = 100.0

type ChunkPitch struct {
	ChunkIndex        int     `json:"chunk_index"`
	StartTime         float64 `json:"start_time"`
	EndTime           float64 `json:"end_time"`
	MeanPitch         float64 `json:"mean_pitch"`
	PitchStd          float64 `json:"pitch_std"`
	PitchRange        float64 `json:"pitch_range"`
	RelativeVariation float64 `json:"relative_variation"`
	IsMonotone        bool    `json:"is_monotone"`
}

type PitchOverall struct {
	AvgMeanPitch         float64 `json:"avg_mean_pitch"`
	AvgPitchStd          float64 `json:"avg_pitch_std"`
	AvgRelativeVariation float64 `json:"avg_relative_variation"`
	MonotoneChunks       int     `json:"monotone_chunks"`
	TotalChunks          int     `json:"total_chunks"`
}

type PitchResult struct {
	Overall             PitchOverall `json:"overall"`
	Chunks              []ChunkPitch `json:"chunks"`
	TotalPitchVariation float64      `json:"total_pitch_variation"`
}

// MonotoneRatio is the share of chunks flagged monotone, 0 without chunks.
func (p PitchResult) MonotoneRatio() float64 {
	return float64(p.Overall.MonotoneChunks) / math.Max(float64(p.Overall.TotalChunks), 1)
}

// AnalyzePitch measures pitch spread per chunk relative to the chunk's own
// range, so low and high voices are compared on the same footing.
func AnalyzePitch(chunks []AudioChunkFeatures, threshold float64) PitchResult {
	res := PitchResult{Chunks: make([]ChunkPitch, 0, len(chunks))}
	var means, stds, rels []float64

	for _, ch := range chunks {
		std := 0.0
		if ch.PitchVariance > 0 {
			std = math.Sqrt(ch.PitchVariance)
		}
		hi, lo := ch.PitchMax, ch.PitchMin
		if hi == 0 {
			hi = ch.PitchMean
		}
		if lo == 0 {
			lo = ch.PitchMean
		}
		rng := 1.0
		if hi > lo {
			rng = hi - lo
		}
		rel := std / rng
		mono := rel < threshold
		if mono {
			res.Overall.MonotoneChunks++
		}

		res.Chunks = append(res.Chunks, ChunkPitch{
			ChunkIndex:        ch.ChunkIndex,
			StartTime:         ch.StartTime,
			EndTime:           ch.EndTime,
			MeanPitch:         ch.PitchMean,
			PitchStd:          std,
			PitchRange:        rng,
			RelativeVariation: rel,
			IsMonotone:        mono,
		})
		means = append(means, ch.PitchMean)
		stds = append(stds, std)
		rels = append(rels, rel)
	}

	res.TotalPitchVariation = stats.Mean(rels)
	res.Overall.AvgMeanPitch = stats.Mean(means)
	res.Overall.AvgPitchStd = stats.Mean(stds)
	res.Overall.AvgRelativeVariation = res.TotalPitchVariation
	res.Overall.TotalChunks = len(res.Chunks)
	return res
}

type MonotoneSection struct {
	ChunkIndex    int     `json:"chunk_index"`
	StartTime     float64 `json:"start_time"`
	EndTime       float64 `json:"end_time"`
	PitchVariance float64 `json:"pitch_variance"`
}

type MonotonyResult struct {
	MonotonousSections []MonotoneSection `json:"monotonous_sections"`
	TotalMonotonous    int               `json:"total_monotonous"`
	TotalChunks        int               `json:"total_chunks"`
	MonotonyScore      float64           `json:"monotony_score"`
}

// DetectMonotony flags chunks whose raw pitch variance falls below
// varianceThreshold. MonotonyScore is the flagged share; higher is flatter.
func DetectMonotony(chunks []AudioChunkFeatures, varianceThreshold float64) MonotonyResult {
	res := MonotonyResult{MonotonousSections: []MonotoneSection{}, TotalChunks: len(chunks)}
	for _, ch := range chunks {
		if ch.PitchVariance < varianceThreshold {
			res.MonotonousSections = append(res.MonotonousSections, MonotoneSection{
				ChunkIndex:    ch.ChunkIndex,
				StartTime:     ch.StartTime,
				EndTime:       ch.EndTime,
				PitchVariance: ch.PitchVariance,
			})
		}
	}
	res.TotalMonotonous = len(res.MonotonousSections)
	if res.TotalChunks > 0 {
		res.MonotonyScore = stats.Round(float64(res.TotalMonotonous)/float64(res.TotalChunks), 2)
	}
	return res
}
