package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "likefeed",
		Name:      "dispatch_events_total",
		Help:      "Dispatch events processed, partitioned by terminal outcome",
	}, []string{"outcome"})

	enqueuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "likefeed",
		Name:      "dispatch_enqueued_total",
		Help:      "Dispatch events accepted onto the queue",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "likefeed",
		Name:      "dispatch_queue_depth",
		Help:      "Pending dispatch events",
	})

	dispatchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "likefeed",
		Name:      "dispatch_latency_seconds",
		Help:      "Time from like accepted to event fully processed",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms -> ~4s
	})

	loopRestarts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "likefeed",
		Name:      "dispatch_loop_restarts_total",
		Help:      "Dispatch loop restarts after an unexpected failure",
	})

	bindings = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "likefeed",
		Name:      "realtime_bindings",
		Help:      "Users with a live connection binding",
	})
)
