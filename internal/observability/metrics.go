package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "solicitudes"

// Metrics holds the service counters. It also receives the workflow core's
// recoverable anomalies. A nil *Metrics is a valid no-op.
type Metrics struct {
	transitions          *prometheus.CounterVec
	rejections           *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
	historyParseWarnings prometheus.Counter
	pauseInconsistencies *prometheus.CounterVec
	httpErrors           *prometheus.CounterVec
	overduePauses        prometheus.Gauge
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Accepted request state transitions",
		}, []string{"from", "to"}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transition_rejections_total",
			Help:      "Refused request updates by reason",
		}, []string{"reason"}),
		notificationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Notifications that could not be delivered",
		}, []string{"event_type"}),
		historyParseWarnings: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_parse_warnings_total",
			Help:      "Malformed state history entries dropped while parsing",
		}),
		pauseInconsistencies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pause_inconsistencies_total",
			Help:      "Pause boundaries ignored because stored pause fields disagreed",
		}, []string{"kind"}),
		httpErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Error responses by route and error code",
		}, []string{"method", "route", "code"}),
		overduePauses: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overdue_paused_requests",
			Help:      "Incomplete requests paused past the threshold at the last scan",
		}),
	}
}

// RecordTransition counts an accepted state change.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// RecordRejection counts a refused update.
func (m *Metrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

// RecordNotificationFailure counts an undelivered notification.
func (m *Metrics) RecordNotificationFailure(eventType string) {
	if m == nil {
		return
	}
	m.notificationFailures.WithLabelValues(eventType).Inc()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(method, route, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(method, route, code).Inc()
}

// SetOverduePauses publishes the result of the last long-pause scan.
func (m *Metrics) SetOverduePauses(n int) {
	if m == nil {
		return
	}
	m.overduePauses.Set(float64(n))
}

func (m *Metrics) HistoryParseWarning() {
	if m == nil {
		return
	}
	m.historyParseWarnings.Inc()
}

func (m *Metrics) PauseInconsistency(kind string) {
	if m == nil {
		return
	}
	m.pauseInconsistencies.WithLabelValues(kind).Inc()
}
