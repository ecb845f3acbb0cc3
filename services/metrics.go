package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	xpAwardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bread_daily",
		Name:      "xp_awarded_total",
		Help:      "XP awarded, by reason.",
	}, []string{"reason"})

	persistenceFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bread_daily",
		Name:      "persistence_failures_total",
		Help:      "Failed or corrupt progress store operations.",
	}, []string{"op"})

	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bread_daily",
		Name:      "community_submissions_total",
		Help:      "Community post submissions by terminal state.",
	}, []string{"state"})

	moderationFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bread_daily",
		Name:      "moderation_fail_open_total",
		Help:      "Moderation calls that failed and were treated as safe.",
	}, []string{"cause"})

	scriptureFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bread_daily",
		Name:      "scripture_fetches_total",
		Help:      "Mood-based scripture fetches by result.",
	}, []string{"result"})
)
