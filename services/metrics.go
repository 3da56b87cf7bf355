package services

import "github.com/prometheus/client_golang/prometheus"

var (
	checkinsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkins_total",
			Help: "Check-in attempts by outcome",
		},
		[]string{"outcome"},
	)
	milestonesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_milestones_total",
			Help: "Streak milestone bonuses paid",
		},
		[]string{"milestone"},
	)
	questCompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quest_completions_total",
			Help: "Quest completion attempts by quest and outcome",
		},
		[]string{"quest", "outcome"},
	)
	leaderboardCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_cache_requests_total",
			Help: "Leaderboard cache lookups by result",
		},
		[]string{"result"},
	)
)

// InitMetrics registers the domain metrics. Call this from main.go
func InitMetrics() {
	prometheus.MustRegister(checkinsTotal)
	prometheus.MustRegister(milestonesTotal)
	prometheus.MustRegister(questCompletionsTotal)
	prometheus.MustRegister(leaderboardCacheTotal)
}
