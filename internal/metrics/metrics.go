// Package metrics holds the console's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "threatconsole"

// Gateway outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeNetwork      = "network"
	OutcomeUnauthorized = "unauthorized"
	OutcomeForbidden    = "forbidden"
	OutcomeNotFound     = "not_found"
	OutcomeServer       = "server"
	OutcomeDecode       = "decode"
)

var (
	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Upstream API calls by api, endpoint and outcome.",
		},
		[]string{"api", "endpoint", "outcome"},
	)

	GatewayRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Upstream API call latency in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2.5, 9), // 5ms to ~7.6s
		},
		[]string{"api", "endpoint"},
	)

	// GatewayFallbackTotal counts reads served by a fallback endpoint.
	GatewayFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_fallback_total",
			Help:      "Reads answered by a fallback endpoint after the primary failed.",
		},
		[]string{"endpoint"},
	)

	AICacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_cache_hits_total",
			Help:      "AI status/insights reads served from cache.",
		},
		[]string{"endpoint"},
	)

	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Console HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Console HTTP request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
		},
		[]string{"method", "route"},
	)

	StaleResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Partial responses discarded because a newer request superseded them.",
		},
		[]string{"view"},
	)
)
