package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconcileMetrics records outcomes of the inventory/trade/cargo operations.
type ReconcileMetrics struct {
	operations    *prometheus.CounterVec
	lockWait      *prometheus.HistogramVec
	compensations *prometheus.CounterVec
	retries       *prometheus.CounterVec
}

// NewReconcileMetrics registers the reconciliation metrics on the provided registerer.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	if reg == nil {
		return &ReconcileMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_operations_total",
		Help: "Reconciliation operations by outcome.",
	}, []string{"operation", "result"})
	lockWait := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reconcile_lock_wait_seconds",
		Help:    "Time spent waiting for aggregate locks.",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
	}, []string{"scope"})
	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_compensations_total",
		Help: "Compensating writes applied after a partial failure.",
	}, []string{"operation"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_retries_total",
		Help: "Operations re-run after a stale version was detected.",
	}, []string{"operation"})
	reg.MustRegister(operations, lockWait, compensations, retries)
	return &ReconcileMetrics{
		operations:    operations,
		lockWait:      lockWait,
		compensations: compensations,
		retries:       retries,
	}
}

// ObserveOperation counts one finished operation; result is usually an error code or "ok".
func (m *ReconcileMetrics) ObserveOperation(operation, result string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(operation), normalizeLabel(result)).Inc()
}

// ObserveLockWait records how long acquiring a scope's lock took.
func (m *ReconcileMetrics) ObserveLockWait(scope string, wait time.Duration) {
	if m == nil || m.lockWait == nil {
		return
	}
	m.lockWait.WithLabelValues(normalizeLabel(scope)).Observe(wait.Seconds())
}

// IncCompensation counts a compensating write.
func (m *ReconcileMetrics) IncCompensation(operation string) {
	if m == nil || m.compensations == nil {
		return
	}
	m.compensations.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncRetry counts a stale-version retry.
func (m *ReconcileMetrics) IncRetry(operation string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
