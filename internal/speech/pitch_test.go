package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatChunk(i int) AudioChunkFeatures {
	return AudioChunkFeatures{ChunkIndex: i, StartTime: float64(i * 5), EndTime: float64(i*5 + 5), PitchMean: 200}
}

func livelyChunk(i int) AudioChunkFeatures {
	return AudioChunkFeatures{
		ChunkIndex:    i,
		StartTime:     float64(i * 5),
		EndTime:       float64(i*5 + 5),
		PitchMean:     200,
		PitchVariance: 400,
		PitchMax:      250,
		PitchMin:      150,
	}
}

func TestAnalyzePitch(t *testing.T) {
	res := AnalyzePitch([]AudioChunkFeatures{flatChunk(0), livelyChunk(1)}, 0.15)
	require.Len(t, res.Chunks, 2)

	flat := res.Chunks[0]
	assert.True(t, flat.IsMonotone)
	assert.Equal(t, 1.0, flat.PitchRange)
	assert.Zero(t, flat.RelativeVariation)

	lively := res.Chunks[1]
	assert.False(t, lively.IsMonotone)
	assert.Equal(t, 20.0, lively.PitchStd)
	assert.Equal(t, 100.0, lively.PitchRange)
	assert.InDelta(t, 0.2, lively.RelativeVariation, 1e-9)

	assert.Equal(t, 1, res.Overall.MonotoneChunks)
	assert.Equal(t, 2, res.Overall.TotalChunks)
	assert.InDelta(t, 0.1, res.TotalPitchVariation, 1e-9)
	assert.Equal(t, res.TotalPitchVariation, res.Overall.AvgRelativeVariation)
	assert.Equal(t, 200.0, res.Overall.AvgMeanPitch)
	assert.Equal(t, 0.5, res.MonotoneRatio())
}

func TestAnalyzePitchEmpty(t *testing.T) {
	res := AnalyzePitch(nil, 0.15)
	assert.Empty(t, res.Chunks)
	assert.Zero(t, res.TotalPitchVariation)
	assert.Zero(t, res.MonotoneRatio())
}

func TestDetectMonotony(t *testing.T) {
	chunks := []AudioChunkFeatures{livelyChunk(0), flatChunk(1), {ChunkIndex: 2, PitchVariance: 50}}

	res := DetectMonotony(chunks, DefaultMonotonyVariance)
	assert.Equal(t, 2, res.TotalMonotonous)
	assert.Equal(t, 3, res.TotalChunks)
	assert.Equal(t, 0.67, res.MonotonyScore)
	assert.Equal(t, 1, res.MonotonousSections[0].ChunkIndex)

	empty := DetectMonotony(nil, DefaultMonotonyVariance)
	assert.Zero(t, empty.MonotonyScore)
	assert.NotNil(t, empty.MonotonousSections)
}
