package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Gateway HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdk_http_requests_total",
			Help: "Total number of requests sent to the gateway",
		},
		[]string{"host_kind", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sdk_http_request_duration_seconds",
			Help:    "Duration of gateway requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host_kind"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sdk_http_requests_in_flight",
			Help: "Number of gateway requests currently awaiting a response",
		},
	)
)

// TrackHTTPRequest marks a request as in flight and returns a func that records its outcome.
// statusCode 0 means no response was received; errorClass names why.
func TrackHTTPRequest(hostKind string) func(statusCode int, errorClass string) {
	start := time.Now()
	httpRequestsInFlight.Inc()

	return func(statusCode int, errorClass string) {
		httpRequestsInFlight.Dec()
		httpRequestDuration.WithLabelValues(hostKind).Observe(time.Since(start).Seconds())

		status := errorClass
		if statusCode > 0 {
			status = strconv.Itoa(statusCode)
		}
		httpRequestsTotal.WithLabelValues(hostKind, status).Inc()
	}
}
