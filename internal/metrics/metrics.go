package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
	)

	// Pipeline Metrics
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rules_stage_duration_seconds",
			Help:    "Duration of each rule generation stage in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"}, // "load", "basket", "mine", "rules"
	)

	PipelineErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rules_pipeline_errors_total",
			Help: "Total number of failed rule generation requests by error kind",
		},
		[]string{"kind"},
	)

	BasketSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rules_basket_dimension",
			Help:    "Basket matrix dimensions per request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"axis"}, // "invoices", "items"
	)

	ItemsetsFound = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rules_frequent_itemsets",
			Help:    "Number of frequent itemsets per request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	RulesGenerated = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rules_generated",
			Help:    "Number of association rules returned per request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)
)

func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func RecordStage(stage string, duration time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

func RecordPipelineError(kind string) {
	PipelineErrors.WithLabelValues(kind).Inc()
}

func RecordBasket(invoices, items int) {
	BasketSize.WithLabelValues("invoices").Observe(float64(invoices))
	BasketSize.WithLabelValues("items").Observe(float64(items))
}

func RecordMiningOutput(itemsets, rules int) {
	ItemsetsFound.Observe(float64(itemsets))
	RulesGenerated.Observe(float64(rules))
}
