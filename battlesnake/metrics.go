package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	movesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "goalsnek",
		Name:      "moves_total",
		Help:      "Moves returned, by direction.",
	}, []string{"direction"})

	moveErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "goalsnek",
		Name:      "move_errors_total",
		Help:      "Turns that fell back to a legal move, by error kind.",
	}, []string{"kind"})

	moveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "goalsnek",
		Name:      "move_duration_seconds",
		Help:      "Time spent deciding a move.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
	})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "goalsnek",
		Name:      "sessions_active",
		Help:      "Games currently in progress.",
	})
)
