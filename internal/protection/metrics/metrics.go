package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"edgeguard/internal/protection/store/expiring"
)

// Block sources recorded on BlocksTotal.
const (
	SourceManual         = "manual"
	SourceAuthFailure    = "auth_failure"
	SourceRateEscalation = "rate_escalation"
)

type Metrics struct {
	DecisionsTotal         *prometheus.CounterVec
	BlocksTotal            *prometheus.CounterVec
	AuthFailuresTotal      *prometheus.CounterVec
	StoreEvictionsTotal    *prometheus.CounterVec
	BlockedClients         prometheus.Gauge
	CleanupRunsTotal       *prometheus.CounterVec
	CleanupEvictedTotal    *prometheus.CounterVec
	CleanupDurationSeconds prometheus.Histogram
}

// New registers the protection metrics with reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DecisionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edgeguard_protection_decisions_total",
			Help: "Total number of protection decisions by verdict",
		}, []string{"verdict"}),
		BlocksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edgeguard_protection_blocks_total",
			Help: "Total number of client blocks imposed, by source",
		}, []string{"source"}),
		AuthFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edgeguard_protection_auth_failures_total",
			Help: "Total number of failed credential checks, by kind",
		}, []string{"kind"}),
		StoreEvictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edgeguard_protection_store_evictions_total",
			Help: "Total number of store entries evicted, by store and reason",
		}, []string{"store", "reason"}),
		BlockedClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "edgeguard_protection_blocked_clients",
			Help: "Number of block entries held after the last sweep",
		}),
		CleanupRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edgeguard_protection_cleanup_runs_total",
			Help: "Total number of cleanup runs",
		}, []string{"status"}),
		CleanupEvictedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edgeguard_protection_cleanup_evicted_total",
			Help: "Total number of expired entries removed by the cleanup worker",
		}, []string{"store"}),
		CleanupDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name: "edgeguard_protection_cleanup_duration_seconds",
			Help: "Duration of cleanup runs in seconds",
		}),
	}
}

func (m *Metrics) IncrementDecision(verdict string) {
	m.DecisionsTotal.WithLabelValues(verdict).Inc()
}

func (m *Metrics) IncrementBlocks(source string) {
	m.BlocksTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) IncrementAuthFailures(kind string) {
	m.AuthFailuresTotal.WithLabelValues(kind).Inc()
}

// EvictionHook returns a callback suitable for expiring.WithEvictionHook.
func (m *Metrics) EvictionHook(store string) func(expiring.EvictReason) {
	return func(reason expiring.EvictReason) {
		m.StoreEvictionsTotal.WithLabelValues(store, string(reason)).Inc()
	}
}

func (m *Metrics) SetBlockedClients(count int) {
	m.BlockedClients.Set(float64(count))
}

func (m *Metrics) IncrementCleanupRuns(status string) {
	m.CleanupRunsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) AddCleanupEvicted(store string, n int) {
	m.CleanupEvictedTotal.WithLabelValues(store).Add(float64(n))
}

func (m *Metrics) ObserveCleanupDuration(seconds float64) {
	m.CleanupDurationSeconds.Observe(seconds)
}
