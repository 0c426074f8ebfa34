package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tmsflow/fleettrack/internal/pkg/logger"
)

// State represents the circuit breaker state
type State int

const (
	// StateClosed allows requests to pass through
	StateClosed State = iota
	// StateOpen blocks requests and returns immediately
	StateOpen
	// StateHalfOpen allows a limited number of requests to test the service
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config holds circuit breaker configuration
type Config struct {
	Name             string        // Name of the circuit breaker for logging
	MaxRequests      uint32        // Max requests allowed in half-open state
	Interval         time.Duration // Interval to clear counters in closed state
	Timeout          time.Duration // Timeout to switch from open to half-open
	FailureThreshold uint32        // Number of failures to trigger open state
	SuccessThreshold uint32        // Number of successes in half-open to close
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 1,
	}
}

// CircuitBreaker implements the circuit breaker pattern
type CircuitBreaker struct {
	config Config
	logger *logger.ZapLogger

	mutex  sync.RWMutex
	state  State
	counts counts
	expiry time.Time
}

type counts struct {
	requests             uint32
	consecutiveSuccesses uint32
	consecutiveFailures  uint32
}

// Errors
var (
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
	ErrTooManyRequests    = errors.New("too many requests in half-open state")
)

// New creates a new circuit breaker
func New(config Config, l *logger.ZapLogger) *CircuitBreaker {
	if l == nil {
		l = logger.GetGlobalLogger()
	}
	return &CircuitBreaker{
		config: config,
		logger: l,
		state:  StateClosed,
		expiry: time.Now().Add(config.Interval),
	}
}

// Execute executes the given function with circuit breaker protection
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.afterRequest(err)
	return err
}

// beforeRequest checks if the request should be allowed
func (cb *CircuitBreaker) beforeRequest() error {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	now := time.Now()

	switch cb.state {
	case StateClosed:
		if cb.expiry.Before(now) {
			cb.counts = counts{}
			cb.expiry = now.Add(cb.config.Interval)
		}

	case StateOpen:
		if cb.expiry.Before(now) {
			cb.setState(StateHalfOpen)
			cb.counts = counts{}
		} else {
			return ErrCircuitBreakerOpen
		}

	case StateHalfOpen:
		if cb.counts.requests >= cb.config.MaxRequests {
			return ErrTooManyRequests
		}
	}

	cb.counts.requests++
	return nil
}

// afterRequest handles the result of the request
func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if err != nil {
		cb.counts.consecutiveFailures++
		cb.counts.consecutiveSuccesses = 0

		if cb.state == StateHalfOpen ||
			(cb.state == StateClosed && cb.counts.consecutiveFailures >= cb.config.FailureThreshold) {
			cb.setState(StateOpen)
			cb.expiry = time.Now().Add(cb.config.Timeout)
		}
		return
	}

	cb.counts.consecutiveSuccesses++
	cb.counts.consecutiveFailures = 0

	if cb.state == StateHalfOpen && cb.counts.consecutiveSuccesses >= cb.config.SuccessThreshold {
		cb.setState(StateClosed)
		cb.expiry = time.Now().Add(cb.config.Interval)
	}
}

// setState changes the state; the caller holds the mutex.
func (cb *CircuitBreaker) setState(state State) {
	if cb.state == state {
		return
	}

	prev := cb.state
	cb.state = state

	cb.logger.Info("Circuit breaker state changed",
		logger.String("name", cb.config.Name),
		logger.String("from", prev.String()),
		logger.String("to", state.String()),
		logger.Int("consecutive_failures", int(cb.counts.consecutiveFailures)))
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() State {
	cb.mutex.RLock()
	defer cb.mutex.RUnlock()
	return cb.state
}
