package reminder

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeCompleted = "completed"
	outcomeAborted   = "aborted"
	outcomeSkipped   = "skipped"
)

// Metrics exposes the pipeline's counters to Prometheus.
//
// A nil *Metrics is valid and records nothing, so the Runner can be built
// without a registry (the one-shot CLI, most tests).
type Metrics struct {
	cycles        *prometheus.CounterVec
	emails        *prometheus.CounterVec
	flagFailures  prometheus.Counter
	cycleDuration prometheus.Histogram
	lastSuccess   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jobtracker",
			Subsystem: "reminder",
			Name:      "cycles_total",
			Help:      "Reminder cycles by outcome (completed, aborted, skipped).",
		}, []string{"outcome"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jobtracker",
			Subsystem: "reminder",
			Name:      "emails_total",
			Help:      "Reminder emails by delivery result (sent, failed).",
		}, []string{"result"}),
		flagFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jobtracker",
			Subsystem: "reminder",
			Name:      "flag_failures_total",
			Help:      "Reminders delivered whose reminder_sent flag could not be saved.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jobtracker",
			Subsystem: "reminder",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of reminder cycles that ran.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "jobtracker",
			Subsystem: "reminder",
			Name:      "last_completed_timestamp_seconds",
			Help:      "Unix time of the last completed reminder cycle.",
		}),
	}

	for _, c := range []prometheus.Collector{m.cycles, m.emails, m.flagFailures, m.cycleDuration, m.lastSuccess} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeCycle(outcome string, report CycleReport) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(outcome).Inc()
	if outcome == outcomeSkipped {
		return
	}
	m.cycleDuration.Observe(report.Duration.Seconds())
	if outcome == outcomeCompleted {
		m.lastSuccess.Set(float64(report.StartedAt.Add(report.Duration).Unix()))
	}
}

func (m *Metrics) observeSend(ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.emails.WithLabelValues(result).Inc()
}

func (m *Metrics) observeFlagFailure() {
	if m == nil {
		return
	}
	m.flagFailures.Inc()
}
