package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdebug_events_received_total",
		Help: "The total number of host events received, by event kind and source",
	}, []string{"kind", "source"})

	EventsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdebug_events_rejected_total",
		Help: "Host events that could not be decoded, by source",
	}, []string{"source"})

	EventsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdebug_events_skipped_total",
		Help: "Events dropped because their category is disabled",
	}, []string{"category"})

	EntriesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderdebug_entries_written_total",
		Help: "Log blocks appended to the debug log, by severity",
	}, []string{"severity"})

	WriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderdebug_write_failures_total",
		Help: "Failed appends to the debug log",
	})

	DuplicateOrders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderdebug_duplicate_orders_total",
		Help: "New-order events seen more than once in this process",
	})
)

var ConsumerLag = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "orderdebug_kafka_consumer_lag",
	Help: "The current lag of the host event consumer group",
})

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "orderdebug_http_requests_total",
	Help: "Admin HTTP requests, by method, route and status code",
}, []string{"method", "route", "status"})
