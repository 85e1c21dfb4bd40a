package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesHostedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridehub", Name: "rides_hosted_total", Help: "Total rides created"})
	JoinsTotal       = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridehub", Name: "joins_total", Help: "Total successful ride joins"})

	JoinRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridehub", Name: "join_rejections_total", Help: "Join attempts rejected, by reason"},
		[]string{"reason"},
	)

	LocationReportsTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridehub", Name: "location_reports_total", Help: "Total accepted location reports"})
	TrackingSubscribers  = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "ridehub", Name: "tracking_subscribers", Help: "Connected live tracking websocket clients"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridehub", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ridehub",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
