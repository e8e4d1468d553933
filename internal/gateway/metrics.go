package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_gateway_requests_total",
			Help: "Calls made to the ticketing API",
		},
		[]string{"route", "method", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_gateway_request_duration_seconds",
			Help:    "Latency of calls made to the ticketing API",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

const (
	outcomeOK        = "ok"
	outcomeAPIError  = "api_error"
	outcomeTransport = "transport_error"
)

func observe(route, method, outcome string, seconds float64) {
	requestsTotal.WithLabelValues(route, method, outcome).Inc()
	requestDuration.WithLabelValues(route).Observe(seconds)
}
