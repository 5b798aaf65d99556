package resilience

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// PoolConfig sizes the shared transport behind a collaborator
type PoolConfig struct {
	MaxIdle     int
	MaxActive   int
	IdleTimeout time.Duration
}

// DefaultPoolConfig suits a single upstream host
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxIdle:     16,
		MaxActive:   32,
		IdleTimeout: 90 * time.Second,
	}
}

// CallObserver is told about every completed collaborator call
type CallObserver func(name string, statusCode int, duration time.Duration, err error)

// ConnectionPool is an HTTP client for one collaborator: a pooled transport
// bounded to MaxActive in-flight requests, guarded by a circuit breaker.
type ConnectionPool struct {
	name      string
	config    PoolConfig
	client    *http.Client
	transport *http.Transport
	slots     chan struct{}

	circuitBreaker *CircuitBreaker
	health         *DegradationManager
	observer       CallObserver

	active int64
	total  int64
	failed int64
}

// NewConnectionPool creates a pool; timeout bounds each request end to end
func NewConnectionPool(name string, config PoolConfig, timeout time.Duration, cb *CircuitBreaker) *ConnectionPool {
	if config.MaxActive <= 0 {
		config.MaxActive = DefaultPoolConfig().MaxActive
	}
	if config.MaxIdle <= 0 {
		config.MaxIdle = DefaultPoolConfig().MaxIdle
	}
	if cb == nil {
		cb = NewCircuitBreaker(name, CircuitBreakerConfig{})
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          config.MaxIdle,
		MaxConnsPerHost:       config.MaxActive,
		MaxIdleConnsPerHost:   config.MaxIdle,
		IdleConnTimeout:       config.IdleTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &ConnectionPool{
		name:           name,
		config:         config,
		transport:      transport,
		client:         &http.Client{Transport: transport, Timeout: timeout},
		slots:          make(chan struct{}, config.MaxActive),
		circuitBreaker: cb,
	}
}

// WithHealth reports every call outcome to dm under the pool's name
func (cp *ConnectionPool) WithHealth(dm *DegradationManager) *ConnectionPool {
	cp.health = dm
	return cp
}

// WithObserver installs a per-call hook for logging and metrics
func (cp *ConnectionPool) WithObserver(fn CallObserver) *ConnectionPool {
	cp.observer = fn
	return cp
}

// Name returns the collaborator name
func (cp *ConnectionPool) Name() string {
	return cp.name
}

// Breaker returns the guarding circuit breaker
func (cp *ConnectionPool) Breaker() *CircuitBreaker {
	return cp.circuitBreaker
}

// Do sends req through the breaker. Transport errors and retryable
// statuses (5xx, 408, 429) count as failures and come back as errors with
// the body closed; other statuses are returned for the caller to handle.
func (cp *ConnectionPool) Do(req *http.Request) (*http.Response, error) {
	select {
	case cp.slots <- struct{}{}:
	case <-req.Context().Done():
		return nil, req.Context().Err()
	}
	defer func() { <-cp.slots }()

	var resp *http.Response
	start := time.Now()
	atomic.AddInt64(&cp.active, 1)
	atomic.AddInt64(&cp.total, 1)

	err := cp.circuitBreaker.Call(func() error {
		r, err := cp.client.Do(req)
		if err != nil {
			return err
		}
		if IsRetryableHTTPStatus(r.StatusCode) {
			_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, 64<<10))
			r.Body.Close()
			return NewHTTPError(r.StatusCode, fmt.Sprintf("%s returned %s", cp.name, r.Status))
		}
		resp = r
		return nil
	})
	atomic.AddInt64(&cp.active, -1)
	duration := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	} else if httpErr, ok := err.(*HTTPError); ok {
		status = httpErr.StatusCode
	}

	if err != nil {
		atomic.AddInt64(&cp.failed, 1)
		slog.Warn("Collaborator request failed",
			"collaborator", cp.name,
			"url", req.URL.Redacted(),
			"error", err,
			"duration_ms", duration.Milliseconds())
	}
	if cp.health != nil {
		if _, open := err.(*CircuitBreakerError); !open {
			cp.health.RecordRequest(cp.name, err == nil)
		}
	}
	if cp.observer != nil {
		cp.observer(cp.name, status, duration, err)
	}

	return resp, err
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"active_requests":       atomic.LoadInt64(&cp.active),
		"total_requests":        atomic.LoadInt64(&cp.total),
		"failed_requests":       atomic.LoadInt64(&cp.failed),
		"max_idle":              cp.config.MaxIdle,
		"max_active":            cp.config.MaxActive,
		"idle_timeout_ms":       cp.config.IdleTimeout.Milliseconds(),
		"circuit_breaker_state": cp.circuitBreaker.State().String(),
	}
}

// Close releases idle connections
func (cp *ConnectionPool) Close() error {
	cp.transport.CloseIdleConnections()
	slog.Info("Connection pool closed", "collaborator", cp.name)
	return nil
}
