package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "likefeed",
		Subsystem: "realtime",
		Name:      "connections",
		Help:      "Open websocket connections.",
	})

	handshakesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "likefeed",
		Subsystem: "realtime",
		Name:      "handshakes_total",
		Help:      "Auth handshakes by result.",
	}, []string{"result"})

	pushedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "likefeed",
		Subsystem: "realtime",
		Name:      "messages_pushed_total",
		Help:      "Messages written to websocket clients.",
	})

	droppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "likefeed",
		Subsystem: "realtime",
		Name:      "messages_dropped_total",
		Help:      "Messages not written, by reason.",
	}, []string{"reason"})
)
