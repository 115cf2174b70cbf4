package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_sessions_started_total",
			Help: "Sessions created, by mode",
		},
		[]string{"mode"},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "memory_sessions_active",
			Help: "Sessions currently held in memory",
		},
	)
	Clicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_clicks_total",
			Help: "Tile clicks offered to the input gate, by verdict",
		},
		[]string{"verdict"},
	)
	Restarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "memory_restarts_total",
			Help: "Explicit restarts of an existing session",
		},
	)
	GamesWon = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "memory_games_won_total",
			Help: "Sessions that reached the won phase, by mode",
		},
		[]string{"mode"},
	)
	MovesToWin = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "memory_moves_to_win",
			Help:    "Moves needed to clear a board",
			Buckets: prometheus.LinearBuckets(8, 4, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(SessionsStarted)
	prometheus.MustRegister(ActiveSessions)
	prometheus.MustRegister(Clicks)
	prometheus.MustRegister(Restarts)
	prometheus.MustRegister(GamesWon)
	prometheus.MustRegister(MovesToWin)
}
