package resilience

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// CircuitBreakerState represents the state of the circuit breaker
type CircuitBreakerState int32

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker
type CircuitBreakerConfig struct {
	FailureThreshold int           `json:"failure_threshold"` // Number of failures before opening
	RecoveryTimeout  time.Duration `json:"recovery_timeout"`  // Time to wait before attempting recovery
	SuccessThreshold int           `json:"success_threshold"` // Number of successes needed to close circuit

	// OnStateChange is called after every transition
	OnStateChange func(name string, from, to CircuitBreakerState) `json:"-"`
}

// CircuitBreaker guards calls to one collaborator
type CircuitBreaker struct {
	name        string
	config      CircuitBreakerConfig
	state       int32
	failures    int32
	successes   int32
	nextAttempt int64 // unix nanos
}

// NewCircuitBreaker creates a new circuit breaker, filling unset config with defaults
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 1
	}

	return &CircuitBreaker{
		name:   name,
		config: config,
		state:  int32(StateClosed),
	}
}

// Name returns the guarded collaborator name
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Call executes a function with circuit breaker protection
func (cb *CircuitBreaker) Call(fn func() error) error {
	state := CircuitBreakerState(atomic.LoadInt32(&cb.state))

	switch state {
	case StateOpen:
		if time.Now().UnixNano() < atomic.LoadInt64(&cb.nextAttempt) {
			return NewCircuitBreakerError(cb.name+" circuit breaker is open", state)
		}
		if cb.transition(StateOpen, StateHalfOpen) {
			atomic.StoreInt32(&cb.successes, 0)
		}
		fallthrough

	case StateHalfOpen, StateClosed:
		if err := fn(); err != nil {
			cb.onFailure()
			return err
		}
		cb.onSuccess()
		return nil

	default:
		return NewCircuitBreakerError("unknown circuit breaker state", state)
	}
}

// Allow reports whether a call would currently be attempted
func (cb *CircuitBreaker) Allow() bool {
	if cb.State() != StateOpen {
		return true
	}
	return time.Now().UnixNano() >= atomic.LoadInt64(&cb.nextAttempt)
}

func (cb *CircuitBreaker) transition(from, to CircuitBreakerState) bool {
	if !atomic.CompareAndSwapInt32(&cb.state, int32(from), int32(to)) {
		return false
	}
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.name, from, to)
	}
	return true
}

func (cb *CircuitBreaker) onFailure() {
	failures := atomic.AddInt32(&cb.failures, 1)
	atomic.StoreInt32(&cb.successes, 0)

	state := cb.State()
	// a failed probe in half-open reopens immediately
	if state == StateHalfOpen || (state == StateClosed && failures >= int32(cb.config.FailureThreshold)) {
		atomic.StoreInt64(&cb.nextAttempt, time.Now().Add(cb.config.RecoveryTimeout).UnixNano())
		cb.transition(state, StateOpen)
	}
}

func (cb *CircuitBreaker) onSuccess() {
	atomic.StoreInt32(&cb.failures, 0)

	if cb.State() == StateHalfOpen {
		successes := atomic.AddInt32(&cb.successes, 1)
		if successes >= int32(cb.config.SuccessThreshold) {
			cb.transition(StateHalfOpen, StateClosed)
		}
	}
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() CircuitBreakerState {
	return CircuitBreakerState(atomic.LoadInt32(&cb.state))
}

// Failures returns the current consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	return int(atomic.LoadInt32(&cb.failures))
}

// Reset resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	from := cb.State()
	atomic.StoreInt32(&cb.failures, 0)
	atomic.StoreInt32(&cb.successes, 0)
	if from != StateClosed {
		cb.transition(from, StateClosed)
	}
}

// CircuitBreakerError is returned without calling fn while the breaker is open
type CircuitBreakerError struct {
	Message string
	State   CircuitBreakerState
}

func (e *CircuitBreakerError) Error() string {
	return e.Message
}

// NewCircuitBreakerError creates a new circuit breaker error
func NewCircuitBreakerError(message string, state CircuitBreakerState) *CircuitBreakerError {
	return &CircuitBreakerError{
		Message: message,
		State:   state,
	}
}

// CircuitBreakerRegistry manages one breaker per collaborator
type CircuitBreakerRegistry struct {
	mutex    sync.RWMutex
	breakers map[string]*CircuitBreaker
}

// NewCircuitBreakerRegistry creates a new registry
func NewCircuitBreakerRegistry() *CircuitBreakerRegistry {
	return &CircuitBreakerRegistry{
		breakers: make(map[string]*CircuitBreaker),
	}
}

// GetOrCreate gets an existing circuit breaker or creates a new one
func (r *CircuitBreakerRegistry) GetOrCreate(name string, config CircuitBreakerConfig) *CircuitBreaker {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if breaker, exists := r.breakers[name]; exists {
		return breaker
	}

	breaker := NewCircuitBreaker(name, config)
	r.breakers[name] = breaker
	return breaker
}

// Get returns a circuit breaker by name
func (r *CircuitBreakerRegistry) Get(name string) (*CircuitBreaker, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	breaker, exists := r.breakers[name]
	return breaker, exists
}

// ResetAll resets all circuit breakers
func (r *CircuitBreakerRegistry) ResetAll() {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	for _, breaker := range r.breakers {
		breaker.Reset()
	}
}

// Names returns the registered breaker names in sorted order
func (r *CircuitBreakerRegistry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetStats returns statistics for all circuit breakers
func (r *CircuitBreakerRegistry) GetStats() map[string]interface{} {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := make(map[string]interface{}, len(r.breakers))
	for name, breaker := range r.breakers {
		stats[name] = map[string]interface{}{
			"state":    breaker.State().String(),
			"failures": breaker.Failures(),
		}
	}
	return stats
}
