package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds in-process counters reported on /health
type Metrics struct {
	RequestCount        int64
	ErrorCount          int64
	AverageResponseTime int64 // in nanoseconds
	StartTime           time.Time

	ResponseTimes      []time.Duration
	ResponseTimesMutex sync.RWMutex

	RequestCountByStatus map[int]int64
	StatusMutex          sync.RWMutex

	// Scoring pipelines (video, speech, text) and their null outcomes per modality
	ScoreRuns      map[string]int64
	NullScores     map[string]int64
	ScoreRunsMutex sync.RWMutex

	CircuitBreakerOpens  int64
	CircuitBreakerCloses int64

	CollaboratorRequests   map[string]int64
	CollaboratorErrorCount map[string]int64
	CollaboratorMutex      sync.RWMutex

	GCCount        int64
	GCPauseTotalNs int64
	HeapAlloc      int64
	HeapSys        int64

	RateLimitIPBlocks    int64
	RateLimitStoreErrors int64
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:              time.Now(),
		ResponseTimes:          make([]time.Duration, 0, 1000),
		RequestCountByStatus:   make(map[int]int64),
		ScoreRuns:              make(map[string]int64),
		NullScores:             make(map[string]int64),
		CollaboratorRequests:   make(map[string]int64),
		CollaboratorErrorCount: make(map[string]int64),
	}
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// RecordResponseTime records response time for averaging and percentiles
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	current := atomic.LoadInt64(&m.AverageResponseTime)
	atomic.StoreInt64(&m.AverageResponseTime, (current+duration.Nanoseconds())/2)

	// keep the last 1000 samples
	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = append(m.ResponseTimes, duration)
	if len(m.ResponseTimes) > 1000 {
		m.ResponseTimes = m.ResponseTimes[1:]
	}
	m.ResponseTimesMutex.Unlock()
}

// RecordRequestByStatus records request count by HTTP status code
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.StatusMutex.Lock()
	defer m.StatusMutex.Unlock()
	m.RequestCountByStatus[statusCode]++
}

// RecordScoreRun counts one pipeline run and the modalities that came back null
func (m *Metrics) RecordScoreRun(pipeline string, nullModalities ...string) {
	m.ScoreRunsMutex.Lock()
	defer m.ScoreRunsMutex.Unlock()
	m.ScoreRuns[pipeline]++
	for _, mod := range nullModalities {
		m.NullScores[pipeline+"."+mod]++
	}
}

// IncrementCircuitBreakerOpen increments circuit breaker open count
func (m *Metrics) IncrementCircuitBreakerOpen() {
	atomic.AddInt64(&m.CircuitBreakerOpens, 1)
}

// IncrementCircuitBreakerClose increments circuit breaker close count
func (m *Metrics) IncrementCircuitBreakerClose() {
	atomic.AddInt64(&m.CircuitBreakerCloses, 1)
}

// IncrementRateLimitIPBlock increments IP-based rate limit blocks
func (m *Metrics) IncrementRateLimitIPBlock() {
	atomic.AddInt64(&m.RateLimitIPBlocks, 1)
}

// IncrementRateLimitStoreError counts shared-store failures that fell back to
// the in-process limiter
func (m *Metrics) IncrementRateLimitStoreError() {
	atomic.AddInt64(&m.RateLimitStoreErrors, 1)
}

// RecordCollaboratorRequest records a call to an upstream collaborator
func (m *Metrics) RecordCollaboratorRequest(name string, success bool) {
	m.CollaboratorMutex.Lock()
	defer m.CollaboratorMutex.Unlock()

	m.CollaboratorRequests[name]++
	if !success {
		m.CollaboratorErrorCount[name]++
	}
}

// RecordGCMetrics records Go garbage collector metrics
func (m *Metrics) RecordGCMetrics(gcCount int64, gcPauseTotalNs int64, heapAlloc, heapSys int64) {
	atomic.StoreInt64(&m.GCCount, gcCount)
	atomic.StoreInt64(&m.GCPauseTotalNs, gcPauseTotalNs)
	atomic.StoreInt64(&m.HeapAlloc, heapAlloc)
	atomic.StoreInt64(&m.HeapSys, heapSys)
}

// GetPercentileResponseTime calculates percentile response time
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.ResponseTimesMutex.RLock()
	times := make([]time.Duration, len(m.ResponseTimes))
	copy(times, m.ResponseTimes)
	m.ResponseTimesMutex.RUnlock()

	if len(times) == 0 {
		return 0
	}

	sort.Slice(times, func(i, j int) bool {
		return times[i] < times[j]
	})

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

// GetStatusCodeDistribution returns request count by status code
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.StatusMutex.RLock()
	defer m.StatusMutex.RUnlock()

	distribution := make(map[int]int64, len(m.RequestCountByStatus))
	for code, count := range m.RequestCountByStatus {
		distribution[code] = count
	}
	return distribution
}

// GetScoreStats returns run and null counts per pipeline
func (m *Metrics) GetScoreStats() map[string]interface{} {
	m.ScoreRunsMutex.RLock()
	defer m.ScoreRunsMutex.RUnlock()

	runs := make(map[string]int64, len(m.ScoreRuns))
	for k, v := range m.ScoreRuns {
		runs[k] = v
	}
	nulls := make(map[string]int64, len(m.NullScores))
	for k, v := range m.NullScores {
		nulls[k] = v
	}
	return map[string]interface{}{
		"runs":        runs,
		"null_scores": nulls,
	}
}

// GetCollaboratorStats returns per-collaborator request and error counts
func (m *Metrics) GetCollaboratorStats() map[string]interface{} {
	m.CollaboratorMutex.RLock()
	defer m.CollaboratorMutex.RUnlock()

	stats := make(map[string]interface{})
	for name, requests := range m.CollaboratorRequests {
		errs := m.CollaboratorErrorCount[name]
		errorRate := float64(0)
		if requests > 0 {
			errorRate = float64(errs) / float64(requests) * 100
		}

		stats[name] = map[string]interface{}{
			"requests":   requests,
			"errors":     errs,
			"error_rate": errorRate,
		}
	}
	return stats
}

// GetStats returns current metrics statistics
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errs := atomic.LoadInt64(&m.ErrorCount)
	avgResponseTime := atomic.LoadInt64(&m.AverageResponseTime)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errs) / float64(requests) * 100
	}

	heapAlloc := atomic.LoadInt64(&m.HeapAlloc)
	heapSys := atomic.LoadInt64(&m.HeapSys)
	heapUsage := float64(0)
	if heapSys > 0 {
		heapUsage = float64(heapAlloc) / float64(heapSys) * 100
	}

	return map[string]interface{}{
		"uptime_seconds":       time.Since(m.StartTime).Seconds(),
		"total_requests":       requests,
		"error_count":          errs,
		"error_rate_percent":   errorRate,
		"avg_response_time_ms": float64(avgResponseTime) / 1000000,
		"start_time":           m.StartTime.Format(time.RFC3339),

		"p50_response_time_ms":     float64(m.GetPercentileResponseTime(50)) / 1000000,
		"p95_response_time_ms":     float64(m.GetPercentileResponseTime(95)) / 1000000,
		"p99_response_time_ms":     float64(m.GetPercentileResponseTime(99)) / 1000000,
		"status_code_distribution": m.GetStatusCodeDistribution(),
		"scoring":                  m.GetScoreStats(),
		"collaborators":            m.GetCollaboratorStats(),

		"circuit_breaker_opens":   atomic.LoadInt64(&m.CircuitBreakerOpens),
		"circuit_breaker_closes":  atomic.LoadInt64(&m.CircuitBreakerCloses),
		"rate_limit_ip_blocks":    atomic.LoadInt64(&m.RateLimitIPBlocks),
		"rate_limit_store_errors": atomic.LoadInt64(&m.RateLimitStoreErrors),

		"go_gc_count":           atomic.LoadInt64(&m.GCCount),
		"go_gc_pause_total_ns":  atomic.LoadInt64(&m.GCPauseTotalNs),
		"go_heap_alloc_bytes":   heapAlloc,
		"go_heap_sys_bytes":     heapSys,
		"go_heap_usage_percent": heapUsage,
	}
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.RequestCount, 0)
	atomic.StoreInt64(&m.ErrorCount, 0)
	atomic.StoreInt64(&m.AverageResponseTime, 0)
	atomic.StoreInt64(&m.CircuitBreakerOpens, 0)
	atomic.StoreInt64(&m.CircuitBreakerCloses, 0)
	atomic.StoreInt64(&m.RateLimitIPBlocks, 0)
	atomic.StoreInt64(&m.RateLimitStoreErrors, 0)
	atomic.StoreInt64(&m.GCCount, 0)
	atomic.StoreInt64(&m.GCPauseTotalNs, 0)
	atomic.StoreInt64(&m.HeapAlloc, 0)
	atomic.StoreInt64(&m.HeapSys, 0)

	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = m.ResponseTimes[:0]
	m.ResponseTimesMutex.Unlock()

	m.StatusMutex.Lock()
	m.RequestCountByStatus = make(map[int]int64)
	m.StatusMutex.Unlock()

	m.ScoreRunsMutex.Lock()
	m.ScoreRuns = make(map[string]int64)
	m.NullScores = make(map[string]int64)
	m.ScoreRunsMutex.Unlock()

	m.CollaboratorMutex.Lock()
	m.CollaboratorRequests = make(map[string]int64)
	m.CollaboratorErrorCount = make(map[string]int64)
	m.CollaboratorMutex.Unlock()

	m.StartTime = time.Now()
}
