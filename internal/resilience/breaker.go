package resilience

import (
	"sync"
	"time"
)

// BreakerState enumerates circuit breaker states.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateHalfOpen
	StateOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateHalfOpen:
		return "HALF_OPEN"
	case StateOpen:
		return "OPEN"
	}
	return "UNKNOWN"
}

// CircuitBreaker guards a single named operation. It opens when the
// failure ratio over a rolling window of recorded outcomes crosses the
// configured threshold, fails fast for the cooldown period, then admits
// a single trial call in half-open.
type CircuitBreaker struct {
	mu sync.Mutex

	state         BreakerState
	outcomes      []bool // rolling window, true marks a failure
	next          int
	filled        int
	failureRatio  float64
	minCalls      int
	cooldown      time.Duration
	openedAt      time.Time
	trialInFlight bool

	now           func() time.Time
	onStateChange func(state BreakerState)
}

type BreakerConfig struct {
	FailureRatio float64
	WindowSize   int
	MinCalls     int
	Cooldown     time.Duration
}

func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureRatio <= 0 || cfg.FailureRatio > 1 {
		cfg.FailureRatio = 0.5
	}
	if cfg.WindowSize < 1 {
		cfg.WindowSize = 10
	}
	if cfg.MinCalls < 1 {
		cfg.MinCalls = cfg.WindowSize / 2
		if cfg.MinCalls < 1 {
			cfg.MinCalls = 1
		}
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 10 * time.Second
	}

	return &CircuitBreaker{
		state:        StateClosed,
		outcomes:     make([]bool, cfg.WindowSize),
		failureRatio: cfg.FailureRatio,
		minCalls:     cfg.MinCalls,
		cooldown:     cfg.Cooldown,
		now:          time.Now,
	}
}

func (b *CircuitBreaker) SetStateListener(fn func(state BreakerState)) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStateChange = fn
}

func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a call may proceed. While open it returns
// ErrCircuitOpen without touching the underlying operation; after the
// cooldown it transitions to half-open and admits one trial.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return ErrCircuitOpen
		}
		b.transition(StateHalfOpen)
		b.trialInFlight = true
		return nil
	case StateHalfOpen:
		if b.trialInFlight {
			return ErrCircuitOpen
		}
		b.trialInFlight = true
		return nil
	}

	return nil
}

// Record feeds an operation outcome into the window and drives state
// transitions. Callers must pair every successful Allow with exactly one
// Record or Cancel.
func (b *CircuitBreaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.trialInFlight = false
		if success {
			b.resetWindow()
			b.transition(StateClosed)
			return
		}
		b.openedAt = b.now()
		b.transition(StateOpen)
	case StateClosed:
		b.outcomes[b.next] = !success
		b.next = (b.next + 1) % len(b.outcomes)
		if b.filled < len(b.outcomes) {
			b.filled++
		}
		if b.filled >= b.minCalls && b.currentFailureRatio() >= b.failureRatio {
			b.resetWindow()
			b.openedAt = b.now()
			b.transition(StateOpen)
		}
	case StateOpen:
		// Late result from a call admitted before the breaker opened.
	}
}

// Cancel releases a half-open trial slot without recording an outcome,
// used when a later policy stage rejected the call.
func (b *CircuitBreaker) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trialInFlight = false
}

func (b *CircuitBreaker) currentFailureRatio() float64 {
	failures := 0
	for i := 0; i < b.filled; i++ {
		if b.outcomes[i] {
			failures++
		}
	}
	return float64(failures) / float64(b.filled)
}

func (b *CircuitBreaker) resetWindow() {
	for i := range b.outcomes {
		b.outcomes[i] = false
	}
	b.next = 0
	b.filled = 0
}

func (b *CircuitBreaker) transition(state BreakerState) {
	if b.state == state {
		return
	}
	b.state = state
	if b.onStateChange != nil {
		b.onStateChange(state)
	}
}
