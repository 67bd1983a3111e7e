package resilience

import (
	"strings"
	"sync"

	"github.com/ordercore/notification-orchestrator/internal/observability"
	"github.com/ordercore/notification-orchestrator/internal/ratelimit"
	"go.uber.org/zap"
)

// Registry hands out one Executor per logical operation name, so every
// operation carries independent breaker and bulkhead state.
type Registry struct {
	mu        sync.Mutex
	executors map[string]*Executor

	cfg     Config
	limiter ratelimit.RateLimiter
	logger  *zap.Logger
	metrics *observability.Metrics
}

func NewRegistry(cfg Config, limiter ratelimit.RateLimiter, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		executors: make(map[string]*Executor),
		cfg:       cfg,
		limiter:   limiter,
		logger:    logger,
	}
}

func (r *Registry) SetMetrics(metrics *observability.Metrics) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = metrics
	for _, executor := range r.executors {
		executor.SetMetrics(metrics)
	}
}

// Get returns the executor for the operation name, creating it on first
// use.
func (r *Registry) Get(name string) *Executor {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		normalized = "default"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if executor, ok := r.executors[normalized]; ok {
		return executor
	}

	executor := NewExecutor(normalized, r.cfg, r.limiter, r.logger)
	if r.metrics != nil {
		executor.SetMetrics(r.metrics)
	}
	r.executors[normalized] = executor
	return executor
}
