package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeBooked     = "booked"
	OutcomeNoCapacity = "no_capacity"
	OutcomeRejected   = "rejected"
	OutcomeError      = "error"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry       *prometheus.Registry
	bookings       *prometheus.CounterVec
	releases       *prometheus.CounterVec
	revenue        *prometheus.CounterVec
	claimConflicts prometheus.Counter
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_bookings_total",
			Help: "Booking attempts by outcome.",
		}, []string{"outcome"}),
		releases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_releases_total",
			Help: "Finalized releases per lot.",
		}, []string{"lot_id"}),
		revenue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_revenue_cents_total",
			Help: "Revenue accrued per lot in cents.",
		}, []string{"lot_id"}),
		claimConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parking_claim_conflicts_total",
			Help: "Spot claims lost to a concurrent booking.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "parking_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	registry.MustRegister(m.bookings, m.releases, m.revenue, m.claimConflicts, m.httpRequests, m.httpDuration)
	return m
}

func (m *Metrics) BookingAttempt(outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(sanitizeLabel(outcome)).Inc()
}

func (m *Metrics) ClaimConflict() {
	if m == nil {
		return
	}
	m.claimConflicts.Inc()
}

func (m *Metrics) Released(lotID int64, costCents int64) {
	if m == nil {
		return
	}
	lot := strconv.FormatInt(lotID, 10)
	m.releases.WithLabelValues(lot).Inc()
	if costCents > 0 {
		m.revenue.WithLabelValues(lot).Add(float64(costCents))
	}
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	route = sanitizeLabel(route)
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func sanitizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
