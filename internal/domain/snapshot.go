package domain

import (
	"math"
	"time"
)

// FleetSummary aggregates every account snapshot for the dashboard.
type FleetSummary struct {
	TotalAccounts          int     `json:"total_accounts"`
	Completed              int     `json:"completed"`
	TotalCW                int64   `json:"total_cw"`
	TotalStaked            int64   `json:"total_staked"`
	TotalMines             int     `json:"total_mines"`
	AvgTrust               float64 `json:"avg_trust"`
	TotalMoments           int     `json:"total_moments"`
	TotalChallengesPassed  int     `json:"total_challenges_passed"`
	TotalChallengesFailed  int     `json:"total_challenges_failed"`
	Running                int     `json:"running"`
}

// FleetSnapshot is the full dashboard payload: one stats object per worker
// plus the aggregate summary. It is also what the periodic stats file holds.
type FleetSnapshot struct {
	RunID      string          `json:"run_id"`
	Accounts   []StatsSnapshot `json:"accounts"`
	Summary    FleetSummary    `json:"summary"`
	LastUpdate time.Time       `json:"last_update"`
}

// NewFleetSnapshot assembles the dashboard payload. AvgTrust is rounded to
// two decimals.
func NewFleetSnapshot(runID string, accounts []StatsSnapshot, running int, now time.Time) FleetSnapshot {
	summary := FleetSummary{
		TotalAccounts: len(accounts),
		Running:       running,
	}

	trustSum := 0
	for _, account := range accounts {
		if account.TargetReached {
			summary.Completed++
		}
		summary.TotalCW += account.CWBalance
		summary.TotalStaked += account.CWStaked
		summary.TotalMines += account.TotalMines
		summary.TotalMoments += account.MomentsPosted
		summary.TotalChallengesPassed += account.ChallengesPassed
		summary.TotalChallengesFailed += account.ChallengesFailed
		trustSum += account.TrustScore
	}

	if len(accounts) > 0 {
		avg := float64(trustSum) / float64(len(accounts))
		summary.AvgTrust = math.Round(avg*100) / 100
	}

	return FleetSnapshot{
		RunID:      runID,
		Accounts:   accounts,
		Summary:    summary,
		LastUpdate: now,
	}
}
