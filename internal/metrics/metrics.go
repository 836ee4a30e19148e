package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Skip reasons recorded for bets that were fetched but not reported.
const (
	ReasonSeen      = "seen"
	ReasonNoRate    = "no_rate"
	ReasonBelowMin  = "below_threshold"
	ReasonNoLegs    = "no_legs"
	ReasonMalformed = "malformed"
)

// Cycle outcomes.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Metrics holds the watcher's Prometheus collectors.
type Metrics struct {
	Cycles   *prometheus.CounterVec
	Fetched  *prometheus.CounterVec
	Reported prometheus.Counter
	Skipped  *prometheus.CounterVec
	Tracked  prometheus.Gauge
}

// New registers the collectors on reg. A nil reg leaves them unregistered,
// which tests use to avoid clashing with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stakewatch_cycles_total",
			Help: "poll cycles by result",
		}, []string{"result"}),
		Fetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stakewatch_bets_fetched_total",
			Help: "bets returned by the feed",
		}, []string{"feed"}),
		Reported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stakewatch_bets_reported_total",
			Help: "bets written to the report output",
		}),
		Skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stakewatch_bets_skipped_total",
			Help: "fetched bets not reported, by reason",
		}, []string{"reason"}),
		Tracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stakewatch_seen_bets",
			Help: "bet ids held by the seen tracker after the last cycle",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Cycles, m.Fetched, m.Reported, m.Skipped, m.Tracked)
	}
	return m
}

// CycleDone records a finished cycle.
func (m *Metrics) CycleDone(result string) {
	if m == nil {
		return
	}
	m.Cycles.WithLabelValues(result).Inc()
}

// BetsFetched adds n bets returned by feed.
func (m *Metrics) BetsFetched(feed string, n int) {
	if m == nil {
		return
	}
	m.Fetched.WithLabelValues(feed).Add(float64(n))
}

// BetReported counts one report line.
func (m *Metrics) BetReported() {
	if m == nil {
		return
	}
	m.Reported.Inc()
}

// BetSkipped counts one dropped bet.
func (m *Metrics) BetSkipped(reason string) {
	if m == nil {
		return
	}
	m.Skipped.WithLabelValues(reason).Inc()
}

// SetTracked records the tracker size.
func (m *Metrics) SetTracked(n int) {
	if m == nil {
		return
	}
	m.Tracked.Set(float64(n))
}
