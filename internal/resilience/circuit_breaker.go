package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CircuitBreaker guards calls to the churn model service. Only errors the
// IsFailure classifier accepts count toward opening the circuit, so a
// rejected customer record does not take the upstream offline.
type CircuitBreaker struct {
	name          string
	maxFailures   int
	timeout       time.Duration
	halfOpenMax   int
	isFailure     func(error) bool
	onStateChange func(name string, from, to State)

	mu           sync.RWMutex
	state        State
	failures     int
	successes    int
	probes       int
	rejected     uint64
	lastFailTime time.Time
	lastErr      string
}

type CircuitBreakerConfig struct {
	Name          string
	MaxFailures   int
	Timeout       time.Duration
	HalfOpenMax   int
	IsFailure     func(error) bool
	OnStateChange func(name string, from, to State)
}

// Snapshot is a point-in-time view of the breaker for status endpoints.
type Snapshot struct {
	Name        string    `json:"name"`
	State       State     `json:"state"`
	Failures    int       `json:"failures"`
	Rejected    uint64    `json:"rejected"`
	LastFailure time.Time `json:"last_failure,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 1
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}

	return &CircuitBreaker{
		name:          cfg.Name,
		maxFailures:   cfg.MaxFailures,
		timeout:       cfg.Timeout,
		halfOpenMax:   cfg.HalfOpenMax,
		isFailure:     cfg.IsFailure,
		onStateChange: cfg.OnStateChange,
		state:         StateClosed,
	}
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	admitted, probe := cb.canExecute()
	if !admitted {
		return ErrCircuitOpen
	}

	err := fn()
	if err != nil && cb.isFailure(err) {
		cb.recordFailure(err, probe)
		return err
	}

	cb.recordSuccess(probe)
	return err
}

// canExecute reports whether a call may proceed and whether it runs as one
// of the at most halfOpenMax concurrent half-open probes.
func (cb *CircuitBreaker) canExecute() (admitted, probe bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true, false
	case StateOpen:
		if time.Since(cb.lastFailTime) <= cb.timeout {
			break
		}
		cb.transitionTo(StateHalfOpen)
		fallthrough
	case StateHalfOpen:
		if cb.probes < cb.halfOpenMax {
			cb.probes++
			return true, true
		}
	}

	cb.rejected++
	return false, false
}

// releaseProbe must be called with mu held.
func (cb *CircuitBreaker) releaseProbe(probe bool) {
	if probe && cb.state == StateHalfOpen && cb.probes > 0 {
		cb.probes--
	}
}

func (cb *CircuitBreaker) recordSuccess(probe bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.releaseProbe(probe)
	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.halfOpenMax {
			cb.transitionTo(StateClosed)
		}
	}
}

func (cb *CircuitBreaker) recordFailure(err error, probe bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.releaseProbe(probe)
	cb.lastFailTime = time.Now()
	cb.lastErr = err.Error()

	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.maxFailures {
			cb.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		cb.transitionTo(StateOpen)
	}
}

// transitionTo must be called with mu held.
func (cb *CircuitBreaker) transitionTo(newState State) {
	oldState := cb.state
	cb.state = newState
	cb.failures = 0
	cb.successes = 0
	cb.probes = 0

	if cb.onStateChange != nil && oldState != newState {
		go cb.onStateChange(cb.name, oldState, newState)
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionTo(StateClosed)
	cb.lastErr = ""
}

func (cb *CircuitBreaker) Snapshot() Snapshot {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return Snapshot{
		Name:        cb.name,
		State:       cb.state,
		Failures:    cb.failures,
		Rejected:    cb.rejected,
		LastFailure: cb.lastFailTime,
		LastError:   cb.lastErr,
	}
}
