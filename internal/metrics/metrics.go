package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "interview_active_rooms",
		Help: "Number of interview rooms with at least one connection.",
	})

	OpenConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "interview_open_connections",
		Help: "Number of open websocket connections across all rooms.",
	})

	BroadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "interview_broadcasts_total",
		Help: "Events fanned out to room members.",
	})

	JudgeCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_judge_calls_total",
		Help: "Execution gateway calls by outcome.",
	}, []string{"outcome"})

	JudgeCallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "interview_judge_call_duration_seconds",
		Help:    "Wall time of a single judge round trip.",
		Buckets: prometheus.DefBuckets,
	})
)
