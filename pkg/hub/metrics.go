package hub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "noticeboard_hub_sessions",
		Help: "Currently subscribed live sessions.",
	})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noticeboard_hub_events_published_total",
		Help: "Events handed to the hub for fan-out, by type.",
	}, []string{"type"})

	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "noticeboard_hub_events_dropped_total",
		Help: "Per-session deliveries skipped because a send buffer was full.",
	})
)
