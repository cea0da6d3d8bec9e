package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InfraMetrics covers the stores and outbound dependencies.
type InfraMetrics struct {
	DBQueryDuration     *prometheus.HistogramVec
	DBErrorsTotal       *prometheus.CounterVec
	RedisOpsTotal       *prometheus.CounterVec
	RedisOpDuration     *prometheus.HistogramVec
	RedisDialErrors     prometheus.Counter
	BreakerStateChanges *prometheus.CounterVec
}

func NewInfraMetrics(reg prometheus.Registerer) *InfraMetrics {
	m := &InfraMetrics{
		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries, by SQL verb.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		DBErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "errors_total",
			Help:      "Failed database queries, by SQL verb.",
		}, []string{"operation"}),
		RedisOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "operations_total",
			Help:      "Redis commands, by command and status.",
		}, []string{"operation", "status"}),
		RedisOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "operation_duration_seconds",
			Help:      "Duration of Redis commands.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
		}, []string{"operation"}),
		RedisDialErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "connection_errors_total",
			Help:      "Failed Redis connection attempts.",
		}),
		BreakerStateChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "circuit_breaker",
			Name:      "state_changes_total",
			Help:      "Circuit breaker transitions, by component and new state.",
		}, []string{"component", "state"}),
	}

	reg.MustRegister(m.DBQueryDuration, m.DBErrorsTotal, m.RedisOpsTotal, m.RedisOpDuration, m.RedisDialErrors, m.BreakerStateChanges)
	return m
}

func (m *InfraMetrics) ObserveQuery(operation string, duration time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.DBErrorsTotal.WithLabelValues(operation).Inc()
	}
}

func (m *InfraMetrics) ObserveRedis(operation, status string, duration time.Duration) {
	m.RedisOpsTotal.WithLabelValues(operation, status).Inc()
	m.RedisOpDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *InfraMetrics) RedisDialError() {
	m.RedisDialErrors.Inc()
}

func (m *InfraMetrics) BreakerTransition(component, state string) {
	m.BreakerStateChanges.WithLabelValues(component, state).Inc()
}
