package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_realtime_published_events_total",
		Help: "Row-change events published on realtime channels.",
	}, []string{"type"})

	droppedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_realtime_dropped_events_total",
		Help: "Events dropped because a subscriber buffer was full.",
	})

	activeSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portal_realtime_active_subscribers",
		Help: "Currently open realtime subscriptions.",
	})

	suppressedDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_realtime_suppressed_duplicates_total",
		Help: "INSERT events merged into an existing entry instead of appended.",
	})
)
