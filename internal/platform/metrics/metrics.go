// Package metrics declares the Prometheus collectors exported by chatfeed.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Feed read outcomes.
const (
	FeedOutcomeCached  = "cached"
	FeedOutcomeFetched = "fetched"
	FeedOutcomeFailed  = "failed"
)

// Tag touch triggers.
const (
	TouchTriggerPoll   = "poll"
	TouchTriggerSend   = "send"
	TouchTriggerManual = "manual"
)

// Send outcomes.
const (
	SendOutcomeOK        = "ok"
	SendOutcomeInvalid   = "invalid"
	SendOutcomeTransport = "transport"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatfeed_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatfeed_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	// Feed metrics
	FeedReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatfeed_feed_reads_total",
			Help: "Feed reads by outcome",
		},
		[]string{"outcome"},
	)

	SourceLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatfeed_source_request_duration_seconds",
			Help:    "Message backend request latency",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// Invalidation metrics
	TagTouches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatfeed_tag_touches_total",
			Help: "Invalidation tag touches by trigger",
		},
		[]string{"tag", "trigger"},
	)

	TagTouchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatfeed_tag_touch_failures_total",
			Help: "Invalidation tag touches that could not be recorded",
		},
		[]string{"tag"},
	)

	// Mutation metrics
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatfeed_messages_sent_total",
			Help: "Send attempts by outcome",
		},
		[]string{"outcome"},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatfeed_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)
)
