package resilience

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/expressly-scorer/internal/errors"
)

// RetryConfig holds configuration for retry behavior
type RetryConfig struct {
	MaxAttempts     int              `json:"max_attempts"`
	InitialDelay    time.Duration    `json:"initial_delay"`
	MaxDelay        time.Duration    `json:"max_delay"`
	BackoffFactor   float64          `json:"backoff_factor"`
	JitterEnabled   bool             `json:"jitter_enabled"`
	RetryableErrors func(error) bool `json:"-"`
}

// DefaultRetryConfig returns the defaults used by startup readiness probes
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    250 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		BackoffFactor:   2.0,
		JitterEnabled:   true,
		RetryableErrors: errors.IsRetryableError,
	}
}

// RetryableFunc represents a function that can be retried
type RetryableFunc func() error

// RetryWithConfig executes a function with retry logic using custom configuration
func RetryWithConfig(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.RetryableErrors == nil {
		config.RetryableErrors = errors.IsRetryableError
	}

	var lastErr error
	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !config.RetryableErrors(err) || attempt == config.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(calculateDelay(config, attempt)):
		}
	}

	return lastErr
}

// RetryWithBackoff executes a function with exponential backoff retry
func RetryWithBackoff(ctx context.Context, maxAttempts int, initialDelay time.Duration, fn RetryableFunc) error {
	config := DefaultRetryConfig()
	config.MaxAttempts = maxAttempts
	config.InitialDelay = initialDelay
	return RetryWithConfig(ctx, config, fn)
}

func calculateDelay(config RetryConfig, attempt int) time.Duration {
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt)))
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	// up to 10% jitter
	if config.JitterEnabled && delay >= 10 {
		delay += time.Duration(rand.Int63n(int64(delay / 10)))
	}
	return delay
}

// IsRetryableHTTPStatus reports whether a collaborator status is transient
func IsRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// HTTPError represents a non-2xx collaborator response
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, status string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Status:     status,
		Message:    status,
	}
}
