// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueueJoins counts successful queue joins (including re-joins).
	QueueJoins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matchmaking_queue_joins_total",
		Help: "Number of successful queue join operations.",
	})

	// QueueSize tracks the current number of waiting queue entries,
	// updated after every batcher pass.
	QueueSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "matchmaking_queue_size",
		Help: "Current number of entries waiting in the matchmaking queue.",
	})

	// GroupsCreated counts groups materialized by the batcher.
	GroupsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matchmaking_groups_created_total",
		Help: "Number of groups created by the matchmaking batcher.",
	})

	// RemindersSent counts queue reminders by stage.
	RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matchmaking_reminders_sent_total",
		Help: "Number of queue wait reminders sent, by reminder stage.",
	}, []string{"stage"})

	// GroupTransitions counts lifecycle transitions by target status.
	GroupTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "group_lifecycle_transitions_total",
		Help: "Number of group lifecycle transitions, by target status.",
	}, []string{"to"})
)
