package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing, which keeps tests free of registry setup.
type Metrics struct {
	registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	custodyBalance    *prometheus.GaugeVec
	reconcileMismatch *prometheus.CounterVec
	outboxPublished   *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dailytrack",
				Subsystem: "service",
				Name:      "operations_total",
				Help:      "Operations handled, by component, operation and result.",
			},
			[]string{"component", "operation", "result"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dailytrack",
				Subsystem: "service",
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations including lock wait.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"component", "operation"},
		),
		custodyBalance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "dailytrack",
				Subsystem: "custody",
				Name:      "balance_tokens",
				Help:      "Custody balance of a component in whole tokens (lossy).",
			},
			[]string{"component", "token"},
		),
		reconcileMismatch: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dailytrack",
				Subsystem: "custody",
				Name:      "reconcile_mismatch_total",
				Help:      "Reconciliation runs where the balance disagreed with the journal.",
			},
			[]string{"component"},
		),
		outboxPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dailytrack",
				Subsystem: "outbox",
				Name:      "published_total",
				Help:      "Outbox messages processed, by result.",
			},
			[]string{"result"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dailytrack",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests handled.",
			},
			[]string{"method", "path", "status"},
		),
	}
	m.registry.MustRegister(
		m.operations,
		m.operationDuration,
		m.custodyBalance,
		m.reconcileMismatch,
		m.outboxPublished,
		m.httpRequests,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveOperation(component, operation, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(component, operation, result).Inc()
	m.operationDuration.WithLabelValues(component, operation).Observe(elapsed.Seconds())
}

func (m *Metrics) SetCustodyBalance(component, token string, tokens float64) {
	if m == nil {
		return
	}
	m.custodyBalance.WithLabelValues(component, token).Set(tokens)
}

func (m *Metrics) IncReconcileMismatch(component string) {
	if m == nil {
		return
	}
	m.reconcileMismatch.WithLabelValues(component).Inc()
}

func (m *Metrics) IncOutbox(result string) {
	if m == nil {
		return
	}
	m.outboxPublished.WithLabelValues(result).Inc()
}

func (m *Metrics) IncHTTPRequest(method, path, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, status).Inc()
}
