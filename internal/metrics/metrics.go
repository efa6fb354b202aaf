package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WSConnections tracks the number of live WebSocket sessions.
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "uniconnect",
		Subsystem: "ws",
		Name:      "connections",
		Help:      "Current number of registered WebSocket clients.",
	})

	// NotificationsDelivered counts real-time pushes accepted by a client
	// send queue.
	NotificationsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "uniconnect",
		Subsystem: "notifications",
		Name:      "delivered_total",
		Help:      "Notifications pushed to connected recipients.",
	})

	// NotificationsDropped counts pushes skipped because the recipient was
	// offline or its send queue was full.
	NotificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "uniconnect",
		Subsystem: "notifications",
		Name:      "dropped_total",
		Help:      "Notification pushes skipped for offline or backlogged recipients.",
	})

	// CacheHits and CacheMisses track the response cache middleware.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "uniconnect",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Response cache hits.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "uniconnect",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Response cache misses.",
	})

	// LoginFailures counts rejected credential checks, labelled by reason.
	LoginFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "uniconnect",
		Subsystem: "auth",
		Name:      "login_failures_total",
		Help:      "Failed login attempts by reason.",
	}, []string{"reason"})
)
