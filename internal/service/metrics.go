package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quest_sessions_started_total",
		Help: "Total number of started playing sessions.",
	})

	answersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quest_answers_total",
			Help: "Total number of submitted answers by correctness and level.",
		},
		[]string{"result", "level"},
	)

	sessionsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quest_sessions_failed_total",
		Help: "Total number of sessions ended early by an incorrect answer at the lowest level.",
	})

	endingsReachedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quest_endings_reached_total",
			Help: "Total number of sessions positioned at an ending scene by ending type.",
		},
		[]string{"ending"},
	)

	sessionsFinishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quest_sessions_finished_total",
		Help: "Total number of sessions finished through an acknowledged ending.",
	})
)
