package resilience

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/errors"
)

// DegradationLevel represents the current degradation state
type DegradationLevel int

const (
	LevelNormal DegradationLevel = iota
	LevelDegraded
	LevelCritical
	LevelEmergency
)

func (l DegradationLevel) String() string {
	switch l {
	case LevelNormal:
		return "normal"
	case LevelDegraded:
		return "degraded"
	case LevelCritical:
		return "critical"
	case LevelEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// MarshalText renders the level by name in JSON
func (l DegradationLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// DegradationConfig holds configuration for graceful degradation
type DegradationConfig struct {
	HealthCheckInterval time.Duration `json:"health_check_interval"`
	DegradedThreshold   float64       `json:"degraded_threshold"`   // Error rate threshold (0.0-1.0)
	CriticalThreshold   float64       `json:"critical_threshold"`   // Error rate threshold (0.0-1.0)
	EmergencyThreshold  float64       `json:"emergency_threshold"`  // Error rate threshold (0.0-1.0)
	RecoveryTimeWindow  time.Duration `json:"recovery_time_window"` // Counters reset after this window
	HealthCheckTimeout  time.Duration `json:"health_check_timeout"`
	MinRequests         int64         `json:"min_requests"` // Below this the level stays normal
}

// DefaultDegradationConfig returns sensible defaults
func DefaultDegradationConfig() DegradationConfig {
	return DegradationConfig{
		HealthCheckInterval: 30 * time.Second,
		DegradedThreshold:   0.1,
		CriticalThreshold:   0.25,
		EmergencyThreshold:  0.5,
		RecoveryTimeWindow:  5 * time.Minute,
		HealthCheckTimeout:  5 * time.Second,
		MinRequests:         3,
	}
}

// ServiceHealth represents the health status of one collaborator
type ServiceHealth struct {
	ServiceName   string           `json:"service_name"`
	Level         DegradationLevel `json:"level"`
	ErrorRate     float64          `json:"error_rate"`
	TotalRequests int64            `json:"total_requests"`
	ErrorCount    int64            `json:"error_count"`
	LastError     string           `json:"last_error,omitempty"`
	LastErrorTime time.Time        `json:"last_error_time,omitempty"`
	LastCheck     time.Time        `json:"last_check,omitempty"`
	StatusMessage string           `json:"status_message"`

	windowStart time.Time
}

// HealthCheckFunc represents a function that checks service health
type HealthCheckFunc func(ctx context.Context) error

// DegradationManager tracks collaborator health from live traffic and probes
type DegradationManager struct {
	config       DegradationConfig
	services     map[string]*ServiceHealth
	healthChecks map[string]HealthCheckFunc
	mutex        sync.RWMutex
}

// NewDegradationManager creates a new degradation manager
func NewDegradationManager(config DegradationConfig) *DegradationManager {
	return &DegradationManager{
		config:       config,
		services:     make(map[string]*ServiceHealth),
		healthChecks: make(map[string]HealthCheckFunc),
	}
}

// RegisterService registers a collaborator with an optional health check
func (dm *DegradationManager) RegisterService(serviceName string, healthCheck HealthCheckFunc) {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	dm.services[serviceName] = &ServiceHealth{
		ServiceName:   serviceName,
		Level:         LevelNormal,
		StatusMessage: "Service is healthy",
		windowStart:   time.Now(),
	}

	if healthCheck != nil {
		dm.healthChecks[serviceName] = healthCheck
	}

	slog.Info("Registered service for degradation management", "service", serviceName)
}

// RecordRequest records a request and its success/failure
func (dm *DegradationManager) RecordRequest(serviceName string, success bool) {
	if success {
		dm.record(serviceName, nil)
		return
	}
	dm.record(serviceName, errors.NewExternalAPIError(serviceName, nil))
}

// RecordError records an error for a service
func (dm *DegradationManager) RecordError(serviceName string, err error) {
	if err == nil {
		err = errors.NewExternalAPIError(serviceName, nil)
	}
	dm.record(serviceName, err)
}

func (dm *DegradationManager) record(serviceName string, err error) {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	service, exists := dm.services[serviceName]
	if !exists {
		return
	}

	now := time.Now()
	if dm.config.RecoveryTimeWindow > 0 && now.Sub(service.windowStart) > dm.config.RecoveryTimeWindow {
		service.TotalRequests = 0
		service.ErrorCount = 0
		service.windowStart = now
	}

	service.TotalRequests++
	if err != nil {
		service.ErrorCount++
		service.LastError = err.Error()
		service.LastErrorTime = now
	}
	service.ErrorRate = float64(service.ErrorCount) / float64(service.TotalRequests)

	dm.updateDegradationLevel(service)
}

func (dm *DegradationManager) updateDegradationLevel(service *ServiceHealth) {
	oldLevel := service.Level

	var newLevel DegradationLevel
	var statusMessage string

	switch {
	case service.TotalRequests < dm.config.MinRequests && service.ErrorCount < service.TotalRequests:
		newLevel = LevelNormal
		statusMessage = "Service is healthy"
	case service.ErrorRate >= dm.config.EmergencyThreshold:
		newLevel = LevelEmergency
		statusMessage = "Service is unavailable - high error rate"
	case service.ErrorRate >= dm.config.CriticalThreshold:
		newLevel = LevelCritical
		statusMessage = "Service is in critical state - elevated error rate"
	case service.ErrorRate >= dm.config.DegradedThreshold:
		newLevel = LevelDegraded
		statusMessage = "Service is degraded - moderate error rate"
	default:
		newLevel = LevelNormal
		statusMessage = "Service is healthy"
	}

	service.Level = newLevel
	service.StatusMessage = statusMessage

	if oldLevel != newLevel {
		slog.Warn("Service degradation level changed",
			"service", service.ServiceName,
			"old_level", oldLevel.String(),
			"new_level", newLevel.String(),
			"error_rate", service.ErrorRate,
			"total_requests", service.TotalRequests,
			"error_count", service.ErrorCount)
	}
}

// GetServiceHealth returns a copy of one service's health
func (dm *DegradationManager) GetServiceHealth(serviceName string) (ServiceHealth, bool) {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	service, exists := dm.services[serviceName]
	if !exists {
		return ServiceHealth{}, false
	}
	return *service, true
}

// GetAllServiceHealth returns health status for all services
func (dm *DegradationManager) GetAllServiceHealth() map[string]ServiceHealth {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	result := make(map[string]ServiceHealth, len(dm.services))
	for name, service := range dm.services {
		result[name] = *service
	}
	return result
}

// IsServiceAvailable is false only for unknown services and the emergency level
func (dm *DegradationManager) IsServiceAvailable(serviceName string) bool {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	service, exists := dm.services[serviceName]
	if !exists {
		return false
	}
	return service.Level != LevelEmergency
}

// StartHealthChecks runs the registered checks every interval until ctx is done
func (dm *DegradationManager) StartHealthChecks(ctx context.Context) {
	ticker := time.NewTicker(dm.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dm.CheckNow(ctx)
		}
	}
}

// CheckNow runs every registered health check concurrently and waits for them
func (dm *DegradationManager) CheckNow(ctx context.Context) map[string]error {
	dm.mutex.RLock()
	names := make([]string, 0, len(dm.healthChecks))
	for name := range dm.healthChecks {
		names = append(names, name)
	}
	dm.mutex.RUnlock()
	sort.Strings(names)

	results := make(map[string]error, len(names))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, name := range names {
		dm.mutex.RLock()
		check := dm.healthChecks[name]
		dm.mutex.RUnlock()

		wg.Add(1)
		go func(name string, check HealthCheckFunc) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, dm.config.HealthCheckTimeout)
			defer cancel()

			err := check(checkCtx)
			if err != nil {
				dm.RecordError(name, errors.WrapError(err, "health check failed for service %s", name))
			} else {
				dm.RecordRequest(name, true)
			}
			dm.markChecked(name)

			mu.Lock()
			results[name] = err
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()
	return results
}

func (dm *DegradationManager) markChecked(name string) {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()
	if service, ok := dm.services[name]; ok {
		service.LastCheck = time.Now()
	}
}

// ResetService resets a service's health status
func (dm *DegradationManager) ResetService(serviceName string) {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	if service, exists := dm.services[serviceName]; exists {
		*service = ServiceHealth{
			ServiceName:   serviceName,
			Level:         LevelNormal,
			StatusMessage: "Service is healthy",
			windowStart:   time.Now(),
		}
		slog.Info("Service health reset", "service", serviceName)
	}
}
