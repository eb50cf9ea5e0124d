package llm

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CircuitState is one of the three states in the breaker's state machine.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig tunes when a breaker trips and how it recovers.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures in Closed that
	// trips the breaker to Open.
	FailureThreshold int
	// OpenTimeout is how long the breaker stays Open before allowing a single
	// HalfOpen probe.
	OpenTimeout time.Duration
	// OnStateChange, if set, is notified of every transition.
	OnStateChange func(from, to CircuitState)
}

// DefaultCircuitBreakerConfig mirrors the pack's breaker defaults: five
// consecutive failures trips the breaker, which reopens to a single probe
// after thirty seconds.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// circuitBreaker guards one adapter instance. Only Provider/Network/RateLimit
// category failures count against the threshold; Validation and
// Configuration errors never do, since they indicate a bad request rather
// than a failing provider.
type circuitBreaker struct {
	mu     sync.Mutex
	cfg    CircuitBreakerConfig
	state  CircuitState
	fails  int
	openedAt time.Time

	probe singleflight.Group
}

func newCircuitBreaker(cfg CircuitBreakerConfig) *circuitBreaker {
	return &circuitBreaker{cfg: cfg, state: CircuitClosed}
}

func (b *circuitBreaker) setState(to CircuitState) {
	from := b.state
	b.state = to
	if from != to && b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}

// allow reports whether a call may proceed right now, and if the breaker is
// Open but its timeout has elapsed, flips it to HalfOpen and returns true for
// exactly one caller (the probe). The transition happens under the mutex, so
// concurrent callers don't all become probes at once.
func (b *circuitBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitClosed:
		return true
	case CircuitHalfOpen:
		// A probe is already in flight; everyone else is rejected.
		return false
	case CircuitOpen:
		if time.Since(b.openedAt) < b.cfg.OpenTimeout {
			return false
		}
		b.setState(CircuitHalfOpen)
		return true
	default:
		return false
	}
}

// recordSuccess closes the breaker and resets the failure count.
func (b *circuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.fails = 0
	if b.state != CircuitClosed {
		b.setState(CircuitClosed)
	}
}

// recordFailure registers a failing call. category gates whether it counts
// at all: only Network/RateLimit/Provider failures move the breaker toward
// Open.
func (b *circuitBreaker) recordFailure(category Category) {
	if category != CategoryNetwork && category != CategoryRateLimit && category != CategoryProvider {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitHalfOpen {
		b.setState(CircuitOpen)
		b.openedAt = time.Now()
		b.fails = b.cfg.FailureThreshold
		return
	}

	b.fails++
	if b.fails >= b.cfg.FailureThreshold {
		b.setState(CircuitOpen)
		b.openedAt = time.Now()
	}
}

func (b *circuitBreaker) currentState() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// errCircuitOpen builds the error returned by a dispatcher call blocked by an
// open breaker.
func errCircuitOpen(provider string) *Error {
	return &Error{
		category: CategoryProvider,
		message:  "circuit breaker is open for this provider",
		provider: provider,
	}
}

// runGuarded executes fn under the breaker: rejects immediately if closed-out
// calls aren't allowed, otherwise runs fn and records the outcome. While the
// breaker is HalfOpen, allow admits only the single probe caller and rejects
// every other caller with errCircuitOpen; the probe itself runs through the
// singleflight group.
func runGuarded[T any](b *circuitBreaker, provider string, fn func() (T, error)) (T, error) {
	var zero T

	if !b.allow() {
		return zero, errCircuitOpen(provider)
	}

	if b.currentState() == CircuitHalfOpen {
		v, err, _ := b.probe.Do("probe", func() (any, error) {
			res, err := fn()
			return res, err
		})
		if err != nil {
			if llmErr, ok := AsError(err); ok {
				b.recordFailure(llmErr.Category())
			} else {
				b.recordFailure(CategoryNetwork)
			}
			return zero, err
		}
		b.recordSuccess()
		return v.(T), nil
	}

	res, err := fn()
	if err != nil {
		if llmErr, ok := AsError(err); ok {
			b.recordFailure(llmErr.Category())
		} else {
			b.recordFailure(CategoryNetwork)
		}
		return zero, err
	}
	b.recordSuccess()
	return res, nil
}
