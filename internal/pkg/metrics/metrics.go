package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	reconcileRows     *prometheus.CounterVec
	reconcileRuns     *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	idleEmployees     *prometheus.GaugeVec
	idlePeriodsOpened prometheus.Counter
	scoresComputed    prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reconcileRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reconcile_rows_total",
			Help: "Ledger rows processed by reconciliation, by outcome.",
		}, []string{"outcome"}),
		reconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reconcile_runs_total",
			Help: "Reconciliation runs by result.",
		}, []string{"result"}),
		reconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reconcile_run_duration_seconds",
			Help:    "Histogram of reconciliation run durations.",
			Buckets: prometheus.DefBuckets,
		}),
		idleEmployees: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "idle_employees",
			Help: "Clocked-in employees currently idle, by severity.",
		}, []string{"severity"}),
		idlePeriodsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "idle_periods_opened_total",
			Help: "Idle episodes recorded.",
		}),
		scoresComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "daily_scores_computed_total",
			Help: "Daily scores written to the cache.",
		}),
	}

	reg.MustRegister(
		m.reconcileRows,
		m.reconcileRuns,
		m.reconcileDuration,
		m.idleEmployees,
		m.idlePeriodsOpened,
		m.scoresComputed,
	)

	return m
}

// ObserveReconcile records one run's row outcomes and duration.
func (m *Metrics) ObserveReconcile(result string, created, updated, unchanged, errs int, took time.Duration) {
	if m == nil {
		return
	}
	m.reconcileRuns.WithLabelValues(result).Inc()
	m.reconcileRows.WithLabelValues("created").Add(float64(created))
	m.reconcileRows.WithLabelValues("updated").Add(float64(updated))
	m.reconcileRows.WithLabelValues("unchanged").Add(float64(unchanged))
	m.reconcileRows.WithLabelValues("error").Add(float64(errs))
	m.reconcileDuration.Observe(took.Seconds())
}

func (m *Metrics) ReconcileSkipped() {
	if m == nil {
		return
	}
	m.reconcileRuns.WithLabelValues("lock_contention").Inc()
}

func (m *Metrics) SetIdle(warning, critical int) {
	if m == nil {
		return
	}
	m.idleEmployees.WithLabelValues("warning").Set(float64(warning))
	m.idleEmployees.WithLabelValues("critical").Set(float64(critical))
}

func (m *Metrics) IdlePeriodOpened() {
	if m == nil {
		return
	}
	m.idlePeriodsOpened.Inc()
}

func (m *Metrics) ScoresComputed(n int) {
	if m == nil {
		return
	}
	m.scoresComputed.Add(float64(n))
}
