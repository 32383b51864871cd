package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutsInitiatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkouts_initiated_total",
		Help: "Total number of checkout sessions initiated",
	})

	CheckoutsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_failed_total",
		Help: "Total number of failed checkout initiations",
	}, []string{"reason"})

	PurchasesCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchases_completed_total",
		Help: "Total number of purchases confirmed as completed",
	})

	PurchasesFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchases_failed_total",
		Help: "Total number of purchases reported as unpaid",
	})

	ConfirmationsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confirmations_rejected_total",
		Help: "Total number of rejected payment confirmations",
	}, []string{"reason"})

	ConfirmationsReplayedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "confirmations_replayed_total",
		Help: "Total number of idempotent replays of payment confirmations",
	})

	LecturesCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lectures_completed_total",
		Help: "Total number of lectures marked complete",
	})

	AccessChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "access_checks_total",
		Help: "Total number of access guard decisions",
	}, []string{"level"})

	AccessCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "access_cache_hits_total",
		Help: "Total number of access decisions served from cache",
	})

	PaymentSessionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_session_latency_seconds",
		Help:    "Latency of payment session creation calls",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
