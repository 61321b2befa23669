package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memeshare_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "memeshare_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memeshare_rate_limited_total",
			Help: "Requests refused by the rate limiter",
		},
		[]string{"rule"},
	)

	BreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "memeshare_store_breaker_state",
			Help: "Store circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)

	UploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "memeshare_upload_bytes",
			Help:    "Size of accepted template uploads",
			Buckets: prometheus.ExponentialBuckets(16<<10, 2, 10),
		},
	)

	ResourceMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memeshare_mutations_total",
			Help: "Successful mutations by resource and action",
		},
		[]string{"resource", "action"},
	)

	UserCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memeshare_user_cache_lookups_total",
			Help: "Authenticated user cache lookups",
		},
		[]string{"result"},
	)
)
