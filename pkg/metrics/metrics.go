package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tuma", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tuma", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tuma", Name: "http_requests_total", Help: "HTTP requests by method, route and status."},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "tuma", Name: "http_request_duration_seconds", Help: "HTTP request latency by route.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
	// QuoteConversions counts quote acceptance side-effects: created|existing|failed.
	QuoteConversions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tuma", Name: "quote_mission_conversions_total", Help: "Mission generation outcomes for accepted quotes."},
		[]string{"outcome"},
	)
	// Verifications counts mission verification requests: validated|refused.
	Verifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tuma", Name: "mission_verifications_total", Help: "Mission verification request outcomes."},
		[]string{"outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(HTTPDuration)
	reg.MustRegister(QuoteConversions)
	reg.MustRegister(Verifications)
}
