package resilience

import (
	"errors"
	"testing"
	"time"
)

func newTestBreaker(cfg BreakerConfig, now func() time.Time) *CircuitBreaker {
	b := NewCircuitBreaker(cfg)
	if now != nil {
		b.now = now
	}
	return b
}

func TestBreakerOpensOnFailureRatio(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker(BreakerConfig{
		FailureRatio: 0.5,
		WindowSize:   4,
		MinCalls:     4,
		Cooldown:     time.Minute,
	})

	outcomes := []bool{true, false, true, false}
	for _, success := range outcomes {
		if err := b.Allow(); err != nil {
			t.Fatalf("Allow() error = %v before window filled", err)
		}
		b.Record(success)
	}

	if got := b.State(); got != StateOpen {
		t.Fatalf("state = %s, want OPEN", got)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Allow() while open = %v, want ErrCircuitOpen", err)
	}
}

func TestBreakerStaysClosedBelowMinCalls(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker(BreakerConfig{
		FailureRatio: 0.5,
		WindowSize:   10,
		MinCalls:     5,
		Cooldown:     time.Minute,
	})

	for i := 0; i < 4; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		b.Record(false)
	}

	if got := b.State(); got != StateClosed {
		t.Fatalf("state = %s, want CLOSED below min calls", got)
	}
}

func TestBreakerFailsFastDuringCooldown(t *testing.T) {
	t.Parallel()

	current := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	b := newTestBreaker(BreakerConfig{
		FailureRatio: 0.5,
		WindowSize:   2,
		MinCalls:     2,
		Cooldown:     10 * time.Second,
	}, func() time.Time { return current })

	for i := 0; i < 2; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		b.Record(false)
	}
	if got := b.State(); got != StateOpen {
		t.Fatalf("state = %s, want OPEN", got)
	}

	current = current.Add(5 * time.Second)
	for i := 0; i < 20; i++ {
		if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("Allow() during cooldown = %v, want ErrCircuitOpen", err)
		}
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	t.Parallel()

	current := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	b := newTestBreaker(BreakerConfig{
		FailureRatio: 0.5,
		WindowSize:   2,
		MinCalls:     2,
		Cooldown:     10 * time.Second,
	}, func() time.Time { return current })

	for i := 0; i < 2; i++ {
		_ = b.Allow()
		b.Record(false)
	}

	current = current.Add(11 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() after cooldown error = %v", err)
	}
	if got := b.State(); got != StateHalfOpen {
		t.Fatalf("state = %s, want HALF_OPEN", got)
	}

	// Second concurrent probe is rejected while the trial is in flight.
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("second Allow() in half-open = %v, want ErrCircuitOpen", err)
	}

	b.Record(true)
	if got := b.State(); got != StateClosed {
		t.Fatalf("state after trial success = %s, want CLOSED", got)
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	current := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	b := newTestBreaker(BreakerConfig{
		FailureRatio: 0.5,
		WindowSize:   2,
		MinCalls:     2,
		Cooldown:     10 * time.Second,
	}, func() time.Time { return current })

	for i := 0; i < 2; i++ {
		_ = b.Allow()
		b.Record(false)
	}

	current = current.Add(11 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() after cooldown error = %v", err)
	}
	b.Record(false)

	if got := b.State(); got != StateOpen {
		t.Fatalf("state after trial failure = %s, want OPEN", got)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Allow() after reopen = %v, want ErrCircuitOpen", err)
	}
}

func TestBreakerCancelReleasesTrialSlot(t *testing.T) {
	t.Parallel()

	current := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	b := newTestBreaker(BreakerConfig{
		FailureRatio: 0.5,
		WindowSize:   2,
		MinCalls:     2,
		Cooldown:     10 * time.Second,
	}, func() time.Time { return current })

	for i := 0; i < 2; i++ {
		_ = b.Allow()
		b.Record(false)
	}

	current = current.Add(11 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() after cooldown error = %v", err)
	}

	// The admitted trial never ran, a later stage rejected it.
	b.Cancel()

	if err := b.Allow(); err != nil {
		t.Fatalf("Allow() after Cancel() error = %v, trial slot should be free", err)
	}
}

func TestBreakerStateListener(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker(BreakerConfig{
		FailureRatio: 0.5,
		WindowSize:   2,
		MinCalls:     2,
		Cooldown:     time.Minute,
	})

	var states []BreakerState
	b.SetStateListener(func(state BreakerState) {
		states = append(states, state)
	})

	for i := 0; i < 2; i++ {
		_ = b.Allow()
		b.Record(false)
	}

	if len(states) != 1 || states[0] != StateOpen {
		t.Fatalf("listener states = %v, want [OPEN]", states)
	}
}
