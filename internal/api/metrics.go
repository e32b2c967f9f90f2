package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attenddesk_upstream_requests_total",
		Help: "Requests issued to the attendance backend by route and status.",
	}, []string{"method", "route", "status"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attenddesk_upstream_request_seconds",
		Help:    "Latency of attendance backend requests by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func observeRequest(method, route, status string, elapsed time.Duration) {
	upstreamRequests.WithLabelValues(method, route, status).Inc()
	upstreamDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
