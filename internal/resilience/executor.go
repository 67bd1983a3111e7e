package resilience

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ordercore/notification-orchestrator/internal/channel"
	"github.com/ordercore/notification-orchestrator/internal/observability"
	"github.com/ordercore/notification-orchestrator/internal/ratelimit"
	"go.uber.org/zap"
)

var (
	// ErrCircuitOpen is raised while the breaker fails fast; it routes
	// the call straight to fallback without touching the operation.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrBulkheadFull marks a call rejected by the concurrency cap.
	ErrBulkheadFull = errors.New("bulkhead capacity exhausted")
	// ErrRateLimited marks a call rejected by the rate limiter.
	ErrRateLimited = errors.New("rate limit exceeded")
)

const (
	defaultMaxAttempts   = 3
	baseRetryDelay       = time.Second
	maxRetryDelay        = 30 * time.Second
	maxRetryJitterMillis = 250
)

// Operation is a unit of work wrapped by the policy chain.
type Operation func(ctx context.Context) error

// FallbackFunc produces the deterministic terminal outcome when the
// chain cannot complete. It must not fail.
type FallbackFunc func(cause error)

// Config sets the policy chain parameters for one named operation.
type Config struct {
	MaxAttempts      int
	FailureRatio     float64
	WindowSize       int
	MinCalls         int
	Cooldown         time.Duration
	BulkheadCapacity int
	BulkheadWait     time.Duration

	// Sleep overrides the retry delay wait. Leave nil outside tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Executor applies rate limiting, circuit breaking, bulkheading and
// bounded retry around an operation, degrading to the supplied fallback
// when none of the attempts can succeed. One Executor guards one logical
// operation name; breaker and limiter state are never shared across
// names.
type Executor struct {
	name        string
	limiter     ratelimit.RateLimiter
	breaker     *CircuitBreaker
	bulkhead    *Bulkhead
	maxAttempts int
	logger      *zap.Logger
	metrics     *observability.Metrics

	sleep    func(ctx context.Context, d time.Duration) error
	randIntn func(n int) int
}

func NewExecutor(name string, cfg Config, limiter ratelimit.RateLimiter, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}

	breaker := NewCircuitBreaker(BreakerConfig{
		FailureRatio: cfg.FailureRatio,
		WindowSize:   cfg.WindowSize,
		MinCalls:     cfg.MinCalls,
		Cooldown:     cfg.Cooldown,
	})

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepWithContext
	}

	return &Executor{
		name:        name,
		limiter:     limiter,
		breaker:     breaker,
		bulkhead:    NewBulkhead(cfg.BulkheadCapacity, cfg.BulkheadWait),
		maxAttempts: maxAttempts,
		logger:      logger,
		sleep:       sleep,
		randIntn:    rand.Intn,
	}
}

func (e *Executor) SetMetrics(metrics *observability.Metrics) {
	if e == nil {
		return
	}
	e.metrics = metrics
	e.breaker.SetStateListener(func(state BreakerState) {
		metrics.SetBreakerState(e.name, int(state))
	})
}

// BreakerState exposes the current breaker state for health reporting.
func (e *Executor) BreakerState() BreakerState {
	return e.breaker.State()
}

// Execute runs op through the policy chain. It returns nil after a
// successful attempt or after the fallback has been invoked; the only
// errors it surfaces are context cancellation and a nil operation.
func (e *Executor) Execute(ctx context.Context, op Operation, fallback FallbackFunc) error {
	if op == nil {
		return fmt.Errorf("operation is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if fallback == nil {
		fallback = func(error) {}
	}

	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if attempt > 1 {
			if e.metrics != nil {
				e.metrics.IncRetry(e.name)
			}
			if err := e.sleep(ctx, e.retryDelay(attempt-1)); err != nil {
				return err
			}
		}

		err := e.attempt(ctx, op)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err

		if errors.Is(err, ErrCircuitOpen) {
			e.logger.Warn("circuit open, falling back without attempting operation",
				zap.String("operation", e.name),
			)
			fallback(err)
			return nil
		}
		if !isRetryable(err) {
			break
		}

		e.logger.Warn("operation attempt failed",
			zap.String("operation", e.name),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	e.logger.Error("operation exhausted resilience budget, falling back",
		zap.String("operation", e.name),
		zap.Error(lastErr),
	)
	fallback(lastErr)
	return nil
}

// attempt applies the policy stages in their fixed order: rate limiter,
// circuit breaker, bulkhead, then the operation itself.
func (e *Executor) attempt(ctx context.Context, op Operation) error {
	if e.limiter != nil {
		allowed, err := e.limiter.Allow(ctx, e.name)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrRateLimited, err.Error())
		}
		if !allowed {
			return ErrRateLimited
		}
	}

	if err := e.breaker.Allow(); err != nil {
		return err
	}

	if err := e.bulkhead.Acquire(ctx); err != nil {
		e.breaker.Cancel()
		return err
	}
	defer e.bulkhead.Release()

	if e.metrics != nil {
		e.metrics.IncSendInflight(e.name)
		defer e.metrics.DecSendInflight(e.name)
	}

	err := op(ctx)
	e.breaker.Record(err == nil)
	return err
}

func (e *Executor) retryDelay(retryNumber int) time.Duration {
	if retryNumber < 1 {
		retryNumber = 1
	}

	delay := baseRetryDelay
	for i := 1; i < retryNumber; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			delay = maxRetryDelay
			break
		}
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	jitterMillis := 0
	if e.randIntn != nil && maxRetryJitterMillis > 0 {
		jitterMillis = e.randIntn(maxRetryJitterMillis + 1)
	}

	return delay + time.Duration(jitterMillis)*time.Millisecond
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrBulkheadFull) {
		return true
	}
	return channel.IsTransient(err)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
