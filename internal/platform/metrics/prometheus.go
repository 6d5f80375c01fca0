package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ContestsCreated      prometheus.Counter
	ContestStatusChanges *prometheus.CounterVec
	Payments             *prometheus.CounterVec
	SubmissionsCreated   prometheus.Counter
	WinnersDeclared      prometheus.Counter
	DomainErrors         *prometheus.CounterVec
	EventsPublished      *prometheus.CounterVec
	SweptPayments        prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
	LiveConnections      prometheus.Gauge
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ContestsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "contests_created_total",
			Help: "Total number of contests created",
		}),
		ContestStatusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "contest_status_changes_total",
			Help: "Contest status transitions by target status",
		}, []string{"status"}),
		Payments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by lifecycle stage",
		}, []string{"status"}),
		SubmissionsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "submissions_created_total",
			Help: "Total number of contest submissions",
		}),
		WinnersDeclared: f.NewCounter(prometheus.CounterOpts{
			Name: "winners_declared_total",
			Help: "Total number of winners declared",
		}),
		DomainErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "domain_errors_total",
			Help: "Errors returned to clients by code",
		}, []string{"code"}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Domain events published by sink and status",
		}, []string{"sink", "status"}),
		SweptPayments: f.NewCounter(prometheus.CounterOpts{
			Name: "payments_swept_total",
			Help: "Stale initiated payments marked failed by the sweeper",
		}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		LiveConnections: f.NewGauge(prometheus.GaugeOpts{
			Name: "live_feed_connections",
			Help: "Number of open live feed websocket connections",
		}),
	}
}

// Nil-safe helpers; services accept a nil *Metrics.

func (m *Metrics) IncContestsCreated() {
	if m != nil {
		m.ContestsCreated.Inc()
	}
}

func (m *Metrics) IncStatusChange(status string) {
	if m != nil {
		m.ContestStatusChanges.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncPayment(status string) {
	if m != nil {
		m.Payments.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncSubmissions() {
	if m != nil {
		m.SubmissionsCreated.Inc()
	}
}

func (m *Metrics) IncWinners() {
	if m != nil {
		m.WinnersDeclared.Inc()
	}
}

func (m *Metrics) IncDomainError(code string) {
	if m != nil {
		m.DomainErrors.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) IncEvent(sink, status string) {
	if m != nil {
		m.EventsPublished.WithLabelValues(sink, status).Inc()
	}
}

func (m *Metrics) AddSwept(n int) {
	if m != nil {
		m.SweptPayments.Add(float64(n))
	}
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m != nil {
		m.RequestDuration.WithLabelValues(method, route, status).Observe(seconds)
	}
}

func (m *Metrics) IncLiveConnections() {
	if m != nil {
		m.LiveConnections.Inc()
	}
}

func (m *Metrics) DecLiveConnections() {
	if m != nil {
		m.LiveConnections.Dec()
	}
}
