package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrOpen     = errors.New("circuit breaker is open")
	ErrHalfOpen = errors.New("circuit breaker is half-open (probe in flight)")
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreaker stops calling a failing dependency for timeout after
// threshold consecutive failures, then lets a single probe through.
type CircuitBreaker struct {
	mu            sync.Mutex
	name          string
	state         State
	failureCount  int
	lastErrorTime time.Time
	threshold     int
	timeout       time.Duration
	now           func() time.Time
}

func NewCircuitBreaker(name string, threshold int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:      name,
		state:     StateClosed,
		threshold: threshold,
		timeout:   timeout,
		now:       time.Now,
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Execute(action func() error) error {
	cb.mu.Lock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastErrorTime) > cb.timeout {
			cb.state = StateHalfOpen
		} else {
			cb.mu.Unlock()
			return ErrOpen
		}
	case StateHalfOpen:
		cb.mu.Unlock()
		return ErrHalfOpen
	}

	cb.mu.Unlock()

	err := action()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failureCount++
		cb.lastErrorTime = cb.now()

		if cb.failureCount >= cb.threshold || cb.state == StateHalfOpen {
			cb.state = StateOpen
			slog.Warn("Circuit Breaker OPENED", "name", cb.name, "failures", cb.failureCount)
		}
		return err
	}

	if cb.state == StateHalfOpen {
		slog.Info("Circuit Breaker RECOVERED", "name", cb.name)
	}
	cb.failureCount = 0
	cb.state = StateClosed

	return nil
}
