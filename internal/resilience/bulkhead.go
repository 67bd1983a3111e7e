package resilience

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
)

// Bulkhead bounds concurrent in-flight calls for one operation. With a
// zero maxWait, calls beyond capacity are rejected immediately; otherwise
// they block up to maxWait for a slot.
type Bulkhead struct {
	sem     *semaphore.Weighted
	maxWait time.Duration
}

func NewBulkhead(capacity int, maxWait time.Duration) *Bulkhead {
	if capacity < 1 {
		capacity = 1
	}
	if maxWait < 0 {
		maxWait = 0
	}
	return &Bulkhead{
		sem:     semaphore.NewWeighted(int64(capacity)),
		maxWait: maxWait,
	}
}

func (b *Bulkhead) Acquire(ctx context.Context) error {
	if b == nil || b.sem == nil {
		return nil
	}

	if b.maxWait == 0 {
		if !b.sem.TryAcquire(1) {
			return ErrBulkheadFull
		}
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, b.maxWait)
	defer cancel()

	if err := b.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrBulkheadFull
	}
	return nil
}

func (b *Bulkhead) Release() {
	if b == nil || b.sem == nil {
		return
	}
	b.sem.Release(1)
}
