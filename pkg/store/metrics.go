package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messageOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noticeboard_store_message_ops_total",
		Help: "Completed message store operations by kind.",
	}, []string{"op"})

	pollOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noticeboard_store_poll_ops_total",
		Help: "Completed poll store operations by kind.",
	}, []string{"op"})
)
