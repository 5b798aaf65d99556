package main

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/speech"
	"github.com/ZanzyTHEbar/expressly-scorer/internal/video"
)

func TestScoringEndpoints_ConcurrentRequests(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping thread safety test in short mode")
	}

	app, _ := newTestApp(t)
	r := app.Router()

	const numGoroutines = 20
	const requestsPerGoroutine = 5

	requests := []struct {
		path string
		body interface{}
	}{
		{"/text/analyze", gin.H{"text": sampleEssay}},
		{"/video/score", uprightVideo(30)},
		{"/speech/score", speech.Input{Transcription: sampleTranscription(), Chunks: sampleFeatures(10).Chunks}},
	}

	// the scorers are pure, so every response for a route must be identical
	var mu sync.Mutex
	bodies := make(map[string]map[string]int)
	var errorCount int

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < requestsPerGoroutine; j++ {
				rq := requests[(i+j)%len(requests)]
				w := doJSON(r, http.MethodPost, rq.path, rq.body)

				mu.Lock()
				if w.Code != http.StatusOK {
					errorCount++
				} else {
					if bodies[rq.path] == nil {
						bodies[rq.path] = make(map[string]int)
					}
					bodies[rq.path][stripVolatile(t, rq.path, w.Body.Bytes())]++
				}
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	t.Logf("Thread safety test completed: %d requests, %d errors", numGoroutines*requestsPerGoroutine, errorCount)
	assert.Equal(t, 0, errorCount, "No errors should occur in concurrent requests")
	for path, distinct := range bodies {
		assert.Len(t, distinct, 1, "responses for %s differ", path)
	}
}

// stripVolatile drops the fields that legitimately change between calls.
func stripVolatile(t *testing.T, path string, body []byte) string {
	switch path {
	case "/text/analyze":
		var m map[string]interface{}
		assert.NoError(t, json.Unmarshal(body, &m))
		delete(m, "metadata")
		return mustJSON(t, m)
	case "/speech/score":
		var rep speech.Report
		assert.NoError(t, json.Unmarshal(body, &rep))
		rep.RecordingInfo = nil
		return mustJSON(t, rep)
	default:
		var res video.VideoResult
		assert.NoError(t, json.Unmarshal(body, &res))
		return mustJSON(t, res)
	}
}

func mustJSON(t *testing.T, v interface{}) string {
	data, err := json.Marshal(v)
	assert.NoError(t, err)
	return string(data)
}

func TestVideoScore_ResponseTimeDistribution(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping response time distribution test in short mode")
	}

	app, _ := newTestApp(t)
	r := app.Router()

	const numRequests = 100
	durations := make([]time.Duration, numRequests)
	pv := uprightVideo(300)

	for i := 0; i < numRequests; i++ {
		start := time.Now()
		w := doJSON(r, http.MethodPost, "/video/score", pv)
		durations[i] = time.Since(start)
		require.Equal(t, http.StatusOK, w.Code)
	}

	var totalDuration time.Duration
	for _, d := range durations {
		totalDuration += d
	}
	averageDuration := totalDuration / time.Duration(numRequests)

	percentiles := calculatePercentiles(durations, 0.5, 0.95, 0.99)
	p50, p95, p99 := percentiles[0], percentiles[1], percentiles[2]

	t.Logf("Response time distribution:")
	t.Logf("  Requests: %d", numRequests)
	t.Logf("  Average: %v", averageDuration)
	t.Logf("  P50: %v", p50)
	t.Logf("  P95: %v", p95)
	t.Logf("  P99: %v", p99)

	assert.True(t, averageDuration < 500*time.Millisecond, "Average response time should be under 500ms")
	assert.True(t, p95 < 1*time.Second, "95th percentile should be under 1 second")
	assert.True(t, p99 < 2*time.Second, "99th percentile should be under 2 seconds")
}

func TestErrorRecovery_Performance(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping error recovery performance test in short mode")
	}

	app, _ := newTestApp(t)
	r := app.Router()

	// malformed requests must not slow down or break the valid ones after them
	for i := 0; i < 20; i++ {
		w := doJSON(r, http.MethodPost, "/text/analyze", `{"text": `)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	start := time.Now()
	for i := 0; i < 20; i++ {
		w := doJSON(r, http.MethodPost, "/text/analyze", gin.H{"text": sampleEssay})
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCalculatePercentiles(t *testing.T) {
	durations := []time.Duration{5, 1, 4, 2, 3}
	got := calculatePercentiles(durations, 0, 0.5, 1)
	assert.Equal(t, []time.Duration{1, 3, 5}, got)
	assert.Equal(t, []time.Duration{5, 1, 4, 2, 3}, durations)

	assert.Empty(t, calculatePercentiles(durations))
	assert.Equal(t, []time.Duration{0}, calculatePercentiles(nil, 0.5))
}

// calculatePercentiles returns nearest-rank percentiles of durations without
// reordering the input.
func calculatePercentiles(durations []time.Duration, percentiles ...float64) []time.Duration {
	results := make([]time.Duration, len(percentiles))
	if len(durations) == 0 {
		return results
	}

	sorted := append([]time.Duration(nil), durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for i, p := range percentiles {
		index := int(float64(len(sorted)-1) * p)
		if index >= len(sorted) {
			index = len(sorted) - 1
		}
		results[i] = sorted[index]
	}
	return results
}
