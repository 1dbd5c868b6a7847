package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PurchasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchases_total",
		Help: "Total number of completed purchases",
	})

	PurchasesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchases_failed_total",
		Help: "Total number of failed purchase attempts",
	}, []string{"reason"})

	PurchaseRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchase_retries_total",
		Help: "Total number of purchase transactions retried after transient conflicts",
	})

	TicketsIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tickets_issued_total",
		Help: "Total number of tickets issued",
	})

	PurchaseLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "purchase_latency_seconds",
		Help:    "End-to-end latency of purchase requests",
		Buckets: prometheus.DefBuckets,
	})

	TicketVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ticket_verifications_total",
		Help: "Total number of ticket verification lookups",
	}, []string{"result"})

	SalesEventsConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_events_consumed_total",
		Help: "Total number of broker events consumed by the sales worker",
	}, []string{"result"})

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
