package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/brinkhaven/brinksmanship-server/internal/game"
)

// Metrics holds the server's prometheus collectors.
type Metrics struct {
	GamesCreated  prometheus.Counter
	GamesEnded    *prometheus.CounterVec
	TurnsResolved *prometheus.CounterVec
	VPMargin      prometheus.Histogram
}

// NewMetrics creates and registers the collectors on the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GamesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "brinksmanship_games_created_total",
			Help: "Games created on this server",
		}),
		GamesEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brinksmanship_games_ended_total",
			Help: "Games ended, by ending type",
		}, []string{"ending_type"}),
		TurnsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "brinksmanship_turns_resolved_total",
			Help: "Turns resolved, by resolution mode",
		}, []string{"mode"}),
		VPMargin: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "brinksmanship_vp_margin",
			Help:    "Absolute final VP margin between the two players",
			Buckets: prometheus.LinearBuckets(0, 10, 10),
		}),
	}
	reg.MustRegister(m.GamesCreated, m.GamesEnded, m.TurnsResolved, m.VPMargin)
	return m
}

// observeTurn records one resolved turn and, if it ended the game, the
// ending and final margin.
func (m *Metrics) observeTurn(result game.TurnResult) {
	if !result.Success {
		return
	}
	if result.Result != nil {
		m.TurnsResolved.WithLabelValues(string(result.Result.Mode)).Inc()
	}
	if result.Ending != nil {
		m.GamesEnded.WithLabelValues(string(result.Ending.Type)).Inc()
		margin := result.Ending.VPA - result.Ending.VPB
		if margin < 0 {
			margin = -margin
		}
		m.VPMargin.Observe(margin)
	}
}
