package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors for the API and dispatch flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal       *prometheus.CounterVec
	httpRequestDuration     *prometheus.HistogramVec
	dispatchesTotal         *prometheus.CounterVec
	channelSendDuration     *prometheus.HistogramVec
	enrichmentFailuresTotal *prometheus.CounterVec
	breakerState            *prometheus.GaugeVec
	sendInflight            *prometheus.GaugeVec
	retriesTotal            *prometheus.CounterVec
	ingestMessagesTotal     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notification_orchestrator",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "notification_orchestrator",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		dispatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notification_orchestrator",
				Name:      "dispatches_total",
				Help:      "Total dispatch attempts grouped by channel and terminal outcome.",
			},
			[]string{"channel", "outcome"},
		),
		channelSendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "notification_orchestrator",
				Name:      "channel_send_duration_seconds",
				Help:      "Channel sender call duration in seconds grouped by channel.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"channel"},
		),
		enrichmentFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notification_orchestrator",
				Name:      "enrichment_failures_total",
				Help:      "Total soft-failed enrichment lookups grouped by source.",
			},
			[]string{"source"},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "notification_orchestrator",
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state per operation (0=closed, 1=half-open, 2=open).",
			},
			[]string{"operation"},
		),
		sendInflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "notification_orchestrator",
				Name:      "send_inflight",
				Help:      "Current number of in-flight channel sends grouped by operation.",
			},
			[]string{"operation"},
		),
		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notification_orchestrator",
				Name:      "send_retries_total",
				Help:      "Total retried send attempts grouped by operation.",
			},
			[]string{"operation"},
		),
		ingestMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "notification_orchestrator",
				Name:      "ingest_messages_total",
				Help:      "Total ingested broker messages grouped by topic and result.",
			},
			[]string{"topic", "result"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.dispatchesTotal,
		m.channelSendDuration,
		m.enrichmentFailuresTotal,
		m.breakerState,
		m.sendInflight,
		m.retriesTotal,
		m.ingestMessagesTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncDispatch(channel string, outcome string) {
	if m == nil {
		return
	}
	outcomeLabel := strings.TrimSpace(strings.ToLower(outcome))
	if outcomeLabel == "" {
		outcomeLabel = "unknown"
	}
	m.dispatchesTotal.WithLabelValues(normalizeLabel(channel), outcomeLabel).Inc()
}

func (m *Metrics) ObserveChannelSendDuration(channel string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.channelSendDuration.WithLabelValues(normalizeLabel(channel)).Observe(seconds)
}

func (m *Metrics) IncEnrichmentFailure(source string) {
	if m == nil {
		return
	}
	m.enrichmentFailuresTotal.WithLabelValues(normalizeLabel(source)).Inc()
}

func (m *Metrics) SetBreakerState(operation string, state int) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(normalizeLabel(operation)).Set(float64(state))
}

func (m *Metrics) IncSendInflight(operation string) {
	if m == nil {
		return
	}
	m.sendInflight.WithLabelValues(normalizeLabel(operation)).Inc()
}

func (m *Metrics) DecSendInflight(operation string) {
	if m == nil {
		return
	}
	m.sendInflight.WithLabelValues(normalizeLabel(operation)).Dec()
}

func (m *Metrics) IncRetry(operation string) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(normalizeLabel(operation)).Inc()
}

func (m *Metrics) IncIngestMessage(topic string, result string) {
	if m == nil {
		return
	}
	resultLabel := strings.TrimSpace(strings.ToLower(result))
	if resultLabel == "" {
		resultLabel = "unknown"
	}
	m.ingestMessagesTotal.WithLabelValues(normalizeLabel(topic), resultLabel).Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
