package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cartfee"

// ReconcileMetrics records fee reconciliation activity. A nil value is a no-op.
type ReconcileMetrics struct {
	duration   *prometheus.HistogramVec
	actions    *prometheus.CounterVec
	failures   *prometheus.CounterVec
	superseded prometheus.Counter
	coalesced  prometheus.Counter
}

// NewReconcileMetrics registers the reconciliation metrics on the provided registerer.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	if reg == nil {
		return &ReconcileMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pass_duration_seconds",
		Help:      "Duration of reconciliation passes in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"trigger"})
	actions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actions_total",
		Help:      "Reconciliation decisions by action.",
	}, []string{"action", "applied"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "failures_total",
		Help:      "Reconciliation failures by stage and error code.",
	}, []string{"stage", "code"})
	superseded := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "debounce_superseded_total",
		Help:      "Debounced triggers replaced by a newer trigger.",
	})
	coalesced := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pass_coalesced_total",
		Help:      "Triggers folded into a pending re-run of an in-flight pass.",
	})
	reg.MustRegister(duration, actions, failures, superseded, coalesced)
	return &ReconcileMetrics{
		duration:   duration,
		actions:    actions,
		failures:   failures,
		superseded: superseded,
		coalesced:  coalesced,
	}
}

// ObservePass records the duration of one pass.
func (m *ReconcileMetrics) ObservePass(trigger string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(trigger)).Observe(d.Seconds())
}

// IncAction counts a decided action and whether it reached the cart.
func (m *ReconcileMetrics) IncAction(action string, applied bool) {
	if m == nil || m.actions == nil {
		return
	}
	flag := "false"
	if applied {
		flag = "true"
	}
	m.actions.WithLabelValues(normalizeLabel(action), flag).Inc()
}

// IncFailure counts a failed pass stage.
func (m *ReconcileMetrics) IncFailure(stage, code string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(stage), normalizeLabel(code)).Inc()
}

// IncSuperseded counts a debounced trigger that was replaced.
func (m *ReconcileMetrics) IncSuperseded() {
	if m == nil || m.superseded == nil {
		return
	}
	m.superseded.Inc()
}

// IncCoalesced counts a trigger folded into a pending re-run.
func (m *ReconcileMetrics) IncCoalesced() {
	if m == nil || m.coalesced == nil {
		return
	}
	m.coalesced.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
