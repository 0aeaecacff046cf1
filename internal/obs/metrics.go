package obs

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	MineOutcomes *prometheus.CounterVec // outcome=success|token_taken|...

	MomentsPosted    prometheus.Counter
	ChallengesPassed prometheus.Counter
	ChallengesFailed prometheus.Counter

	WorkersRunning prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		MineOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clawfarm_mine_outcomes_total",
				Help: "Total mining round trips by classified outcome",
			},
			[]string{"outcome"},
		),
		MomentsPosted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "clawfarm_moments_posted_total",
				Help: "Total confirmed moment posts across all accounts",
			},
		),
		ChallengesPassed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "clawfarm_challenges_passed_total",
				Help: "Total challenges answered correctly",
			},
		),
		ChallengesFailed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "clawfarm_challenges_failed_total",
				Help: "Total challenge answers the server rejected",
			},
		),
		WorkersRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "clawfarm_workers_running",
				Help: "Number of account workers currently farming",
			},
		),
	}
}

func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		m.MineOutcomes,
		m.MomentsPosted,
		m.ChallengesPassed,
		m.ChallengesFailed,
		m.WorkersRunning,
	)
}
