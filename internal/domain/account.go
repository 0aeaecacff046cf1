package domain

import (
	"fmt"
	"time"
)

type AccountID string

type WorkerStatus string

const (
	WorkerIdle      WorkerStatus = "idle"
	WorkerFarming   WorkerStatus = "farming"
	WorkerStopped   WorkerStatus = "stopped"
	WorkerCompleted WorkerStatus = "completed"
)

// AccountStats is the mutable per-worker counter set. The owning worker
// guards access; everyone else sees read-only StatsSnapshot copies.
type AccountStats struct {
	ID               AccountID
	TrustScore       int
	CWBalance        int64
	CWStaked         int64
	TotalMines       int
	MomentsPosted    int
	ChallengesPassed int
	ChallengesFailed int
	TokensTaken      int
	Status           WorkerStatus
	LastMoment       time.Time
	NextMoment       time.Time
	StartTime        time.Time
}

// StatsSnapshot is the wire shape served by the dashboard and written to the
// stats file. Derived fields are computed at snapshot time, never stored.
type StatsSnapshot struct {
	ID               AccountID    `json:"id"`
	TrustScore       int          `json:"trust_score"`
	CWBalance        int64        `json:"cw_balance"`
	CWStaked         int64        `json:"cw_staked"`
	StakeOK          bool         `json:"stake_ok"`
	TotalMines       int          `json:"total_mines"`
	MomentsPosted    int          `json:"moments_posted"`
	MomentsRemaining int          `json:"moments_remaining"`
	ChallengesPassed int          `json:"challenges_passed"`
	ChallengesFailed int          `json:"challenges_failed"`
	TokensTaken      int          `json:"tokens_taken"`
	Status           WorkerStatus `json:"status"`
	LastMoment       *time.Time   `json:"last_moment,omitempty"`
	NextMoment       *time.Time   `json:"next_moment,omitempty"`
	Runtime          string       `json:"runtime"`
	TargetReached    bool         `json:"target_reached"`
	TrustNeeded      int          `json:"trust_needed"`
}

// SnapshotParams carries the tuning values derived snapshot fields depend on.
type SnapshotParams struct {
	TrustTarget int
	MaxMoments  int
	StakeFloor  int64
}

func (s AccountStats) Snapshot(now time.Time, params SnapshotParams) StatsSnapshot {
	snap := StatsSnapshot{
		ID:               s.ID,
		TrustScore:       s.TrustScore,
		CWBalance:        s.CWBalance,
		CWStaked:         s.CWStaked,
		StakeOK:          s.CWStaked >= params.StakeFloor,
		TotalMines:       s.TotalMines,
		MomentsPosted:    s.MomentsPosted,
		MomentsRemaining: max(0, params.MaxMoments-s.MomentsPosted),
		ChallengesPassed: s.ChallengesPassed,
		ChallengesFailed: s.ChallengesFailed,
		TokensTaken:      s.TokensTaken,
		Status:           s.Status,
		Runtime:          formatRuntime(now.Sub(s.StartTime)),
		TargetReached:    s.TrustScore >= params.TrustTarget,
		TrustNeeded:      max(0, params.TrustTarget-s.TrustScore),
	}

	if !s.LastMoment.IsZero() {
		last := s.LastMoment
		snap.LastMoment = &last
	}
	if !s.NextMoment.IsZero() {
		next := s.NextMoment
		snap.NextMoment = &next
	}

	return snap
}

func formatRuntime(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = 0
	}

	total := int(elapsed.Seconds())
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
