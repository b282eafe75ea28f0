package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analyticsEventsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sdk_analytics_events_enqueued_total",
		Help: "Total number of analytics events accepted by the queue",
	})

	analyticsEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sdk_analytics_events_dropped_total",
		Help: "Analytics events dropped because the queue was closed or full",
	})

	analyticsBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sdk_analytics_batches_total",
		Help: "Analytics batches posted, by result",
	}, []string{"result"})

	analyticsPendingEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sdk_analytics_pending_events",
		Help: "Analytics events persisted and awaiting acknowledgement",
	})

	configurationCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sdk_configuration_cache_total",
		Help: "Remote configuration lookups, by cache result",
	}, []string{"result"})

	redirectResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sdk_redirect_results_total",
		Help: "Terminal browser switch outcomes by payment method",
	}, []string{"method", "result"})

	tokenizationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sdk_tokenizations_total",
		Help: "Payment methods tokenized, by type and transport",
	}, []string{"payment_type", "api"})
)

// RecordAnalyticsEnqueued counts an event accepted by the queue
func RecordAnalyticsEnqueued() {
	analyticsEventsEnqueued.Inc()
}

// RecordAnalyticsDropped counts an event that could not be queued
func RecordAnalyticsDropped() {
	analyticsEventsDropped.Inc()
}

// RecordAnalyticsBatch records one posted batch; result is "success" or "failure"
func RecordAnalyticsBatch(result string) {
	analyticsBatchesTotal.WithLabelValues(result).Inc()
}

// SetAnalyticsPending publishes the current queue depth
func SetAnalyticsPending(count int64) {
	analyticsPendingEvents.Set(float64(count))
}

// RecordConfigurationCache records a configuration lookup; result is "hit" or "miss"
func RecordConfigurationCache(result string) {
	configurationCacheTotal.WithLabelValues(result).Inc()
}

// RecordRedirectResult records a terminal redirect outcome
func RecordRedirectResult(method, result string) {
	redirectResultsTotal.WithLabelValues(method, result).Inc()
}

// RecordTokenization records a nonce returned to the host; api is "rest" or "graphql"
func RecordTokenization(paymentType, api string) {
	tokenizationsTotal.WithLabelValues(paymentType, api).Inc()
}
