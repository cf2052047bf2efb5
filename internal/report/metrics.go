package report

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records report pipeline activity.
type Metrics struct {
	reports   *prometheus.CounterVec
	units     *prometheus.CounterVec
	unmatched *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics registers the report metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		reports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "election_reports_total",
				Help: "Reports built, by election kind.",
			},
			[]string{"kind"},
		),
		units: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "election_report_units_total",
				Help: "Geographic units rated, by election kind and level.",
			},
			[]string{"kind", "level"},
		),
		unmatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "election_unmatched_identifiers_total",
				Help: "Identifiers left out of a color map, by level.",
			},
			[]string{"level"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "election_report_duration_seconds",
				Help:    "Time to build one report.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}
}

func (m *Metrics) observe(r *Report, d time.Duration) {
	if m == nil {
		return
	}
	kind := string(r.Kind)
	m.reports.WithLabelValues(kind).Inc()
	m.units.WithLabelValues(kind, string(r.Level)).Add(float64(len(r.Ratings)))
	m.unmatched.WithLabelValues(string(r.Level)).Add(float64(len(r.ColorMap.Unmatched)))
	for _, c := range r.Counties {
		m.units.WithLabelValues(kind, string(c.ColorMap.Level)).Add(float64(len(c.Ratings)))
		m.unmatched.WithLabelValues(string(c.ColorMap.Level)).Add(float64(len(c.ColorMap.Unmatched)))
	}
	m.duration.WithLabelValues(kind).Observe(d.Seconds())
}
