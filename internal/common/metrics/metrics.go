package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_sessions_started_total",
			Help: "Total number of assessment sessions started",
		},
		[]string{"mode"}, // fresh | resumed
	)

	SessionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_sessions_completed_total",
			Help: "Total number of sessions that reached the terminal state",
		},
		[]string{"result"}, // server | fallback
	)

	SessionsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assessment_sessions_cancelled_total",
			Help: "Total number of cancelled sessions",
		},
	)

	AnswersRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_answers_recorded_total",
			Help: "Total number of answer submissions recorded",
		},
		[]string{"instrument"},
	)

	CheckpointSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_checkpoint_saves_total",
			Help: "Total number of checkpoint save attempts",
		},
		[]string{"outcome"}, // ok | error
	)

	CheckpointLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_checkpoint_loads_total",
			Help: "Total number of checkpoint load attempts",
		},
		[]string{"outcome"}, // hit | miss | stale | invalid
	)

	SessionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assessment_session_duration_seconds",
			Help:    "Duration of completed sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(30, 2, 10),
		},
	)
)
