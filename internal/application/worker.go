package application

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bnema/clawfarm/internal/domain"
	"github.com/bnema/clawfarm/internal/obs"
	"github.com/bnema/clawfarm/internal/ports"
)

// WorkerConfig carries every tuning knob for one account worker. All
// durations are wall-clock; min/max pairs bound randomized sleeps.
type WorkerConfig struct {
	TrustTarget    int
	MaxMoments     int
	MomentCooldown time.Duration
	TrustPerMoment int
	StakeFloor     int64
	Style          string

	ChallengeDepth   int
	TakenStreakLimit int

	TakenBackoffMin      time.Duration
	TakenBackoffMax      time.Duration
	RateLimitJitterMin   time.Duration
	RateLimitJitterMax   time.Duration
	ChallengeCooldownMin time.Duration
	ChallengeCooldownMax time.Duration
	CycleDelayMin        time.Duration
	CycleDelayMax        time.Duration
	MomentPause          time.Duration
	FaultPause           time.Duration
}

// WorkerDeps bundles the collaborators a worker needs. Registry and Solver
// are shared across the fleet; Gateway is exclusively owned.
type WorkerDeps struct {
	Gateway  ports.Gateway
	Solver   ports.ChallengeSolver
	Registry *domain.TokenRegistry
	Clock    ports.Clock
	Logger   *zap.Logger
	Metrics  *obs.Metrics
}

// Worker drives one account through idle, farming, and a terminal state.
// Stats are guarded by a mutex so the status server can snapshot them
// while the run loop is mid-cycle.
type Worker struct {
	id       domain.AccountID
	cfg      WorkerConfig
	gateway  ports.Gateway
	solver   ports.ChallengeSolver
	registry *domain.TokenRegistry
	moments  *MomentScheduler
	clock    ports.Clock
	logger   *zap.Logger
	metrics  *obs.Metrics

	mu    sync.Mutex
	stats domain.AccountStats
}

// mineResult pairs a classified outcome with whether it was reached through
// a challenge round trip, which selects the long post-challenge cooldown.
type mineResult struct {
	outcome      domain.Outcome
	viaChallenge bool
}

func NewWorker(id domain.AccountID, cfg WorkerConfig, deps WorkerDeps) *Worker {
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Worker{
		id:       id,
		cfg:      cfg,
		gateway:  deps.Gateway,
		solver:   deps.Solver,
		registry: deps.Registry,
		moments: NewMomentScheduler(deps.Gateway, deps.Clock, MomentConfig{
			MaxPosts:     cfg.MaxMoments,
			Cooldown:     cfg.MomentCooldown,
			TrustPerPost: cfg.TrustPerMoment,
		}),
		clock:   deps.Clock,
		logger:  deps.Logger.With(zap.String("account", string(id))),
		metrics: deps.Metrics,
		stats: domain.AccountStats{
			ID:     id,
			Status: domain.WorkerIdle,
		},
	}
}

func (w *Worker) ID() domain.AccountID {
	return w.id
}

// Snapshot copies the current stats under the lock and computes the derived
// fields against the current clock.
func (w *Worker) Snapshot() domain.StatsSnapshot {
	w.mu.Lock()
	stats := w.stats
	w.mu.Unlock()

	return stats.Snapshot(w.clock.Now(), domain.SnapshotParams{
		TrustTarget: w.cfg.TrustTarget,
		MaxMoments:  w.cfg.MaxMoments,
		StakeFloor:  w.cfg.StakeFloor,
	})
}

func (w *Worker) Status() domain.WorkerStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.stats.Status
}

// Run farms until the trust target is reached or ctx is cancelled. Faults
// inside an iteration pause the loop but never end it; the returned error
// is always nil so one account cannot tear down the fleet.
func (w *Worker) Run(ctx context.Context) error {
	w.start(ctx)
	if w.metrics != nil {
		w.metrics.WorkersRunning.Inc()
		defer w.metrics.WorkersRunning.Dec()
	}

	w.logger.Info("worker started",
		zap.Int("trust_target", w.cfg.TrustTarget),
		zap.Int("moments_posted", w.moments.Posted()),
		zap.Int("trust_score", w.trustScore()))

	takenStreak := 0

	for {
		if ctx.Err() != nil {
			return w.finish(domain.WorkerStopped)
		}
		if w.trustScore() >= w.cfg.TrustTarget {
			return w.finish(domain.WorkerCompleted)
		}

		w.maybePostMoment(ctx)

		result, err := w.mine(ctx)
		if err != nil {
			w.logger.Warn("mine cycle fault", zap.Error(err))
			if !w.sleepCtx(ctx, w.cfg.FaultPause) {
				return w.finish(domain.WorkerStopped)
			}
			continue
		}

		outcome := result.outcome
		w.recordOutcome(outcome.Kind)

		switch outcome.Kind {
		case domain.OutcomeTokenTaken:
			takenStreak++
			w.logger.Debug("token taken",
				zap.Int("token_id", outcome.TokenID),
				zap.String("taken_by", outcome.TakenBy),
				zap.Int("streak", takenStreak))
			if takenStreak > w.cfg.TakenStreakLimit {
				backoff := randBetween(w.cfg.TakenBackoffMin, w.cfg.TakenBackoffMax)
				w.logger.Info("taken streak backoff", zap.Duration("backoff", backoff))
				takenStreak = 0
				if !w.sleepCtx(ctx, backoff) {
					return w.finish(domain.WorkerStopped)
				}
			}

		case domain.OutcomeRateLimited:
			wait := outcome.RetryAfter + randBetween(w.cfg.RateLimitJitterMin, w.cfg.RateLimitJitterMax)
			w.logger.Info("rate limited", zap.Duration("wait", wait))
			if !w.sleepCtx(ctx, wait) {
				return w.finish(domain.WorkerStopped)
			}
			continue

		case domain.OutcomeServerError:
			w.logger.Warn("server error",
				zap.String("message", outcome.Message),
				zap.Duration("retry_after", outcome.RetryAfter))
			if !w.sleepCtx(ctx, outcome.RetryAfter) {
				return w.finish(domain.WorkerStopped)
			}
			continue

		case domain.OutcomeSuccess:
			takenStreak = 0
			w.logger.Info("mine success",
				zap.Int("token_id", outcome.TokenID),
				zap.Int64("earned", outcome.Earned),
				zap.Int("trust_score", w.trustScore()),
				zap.Bool("nft_hit", outcome.NFTHit))

		case domain.OutcomeChallengeFailed:
			w.logger.Info("challenge failed",
				zap.Int("token_id", outcome.TokenID),
				zap.String("message", outcome.Message))

		case domain.OutcomeChallengeUsed:
			w.logger.Info("challenge already used",
				zap.Int("token_id", outcome.TokenID))

		default:
			w.logger.Warn("unclassified outcome",
				zap.String("kind", string(outcome.Kind)),
				zap.String("message", outcome.Message))
		}

		if w.trustScore() >= w.cfg.TrustTarget {
			return w.finish(domain.WorkerCompleted)
		}

		var delay time.Duration
		if result.viaChallenge && outcome.Kind == domain.OutcomeSuccess {
			delay = randBetween(w.cfg.ChallengeCooldownMin, w.cfg.ChallengeCooldownMax)
			w.logger.Info("challenge cooldown", zap.Duration("delay", delay))
		} else {
			delay = randBetween(w.cfg.CycleDelayMin, w.cfg.CycleDelayMax)
		}
		if !w.sleepCtx(ctx, delay) {
			return w.finish(domain.WorkerStopped)
		}
	}
}

func (w *Worker) start(ctx context.Context) {
	now := w.clock.Now()

	if state, ok := w.registry.MomentState(w.id); ok {
		w.moments.Restore(state)
	}

	w.mu.Lock()
	w.stats.Status = domain.WorkerFarming
	w.stats.StartTime = now
	w.stats.MomentsPosted = w.moments.Posted()
	w.stats.LastMoment = w.moments.LastPost()
	if next, ok := w.moments.NextPostTime(); ok {
		w.stats.NextMoment = next
	}
	w.mu.Unlock()

	balanceCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	info, err := w.gateway.Balance(balanceCtx)
	if err != nil {
		w.logger.Warn("initial balance fetch failed", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.stats.TrustScore = info.TrustScore
	w.stats.CWBalance = info.CWBalance
	w.stats.CWStaked = info.CWStaked
	w.mu.Unlock()
}

func (w *Worker) finish(status domain.WorkerStatus) error {
	w.mu.Lock()
	w.stats.Status = status
	trust := w.stats.TrustScore
	w.mu.Unlock()

	w.logger.Info("worker finished",
		zap.String("status", string(status)),
		zap.Int("trust_score", trust))

	return nil
}

// maybePostMoment attempts one post when the quota and cooldown gates are
// open, then pauses briefly regardless of outcome.
func (w *Worker) maybePostMoment(ctx context.Context) {
	ok, _ := w.moments.CanPost()
	if !ok {
		return
	}

	receipt, err := w.moments.Post(ctx)
	if err != nil {
		w.logger.Warn("moment post failed", zap.Error(err))
	} else {
		now := w.clock.Now()
		w.mu.Lock()
		w.stats.MomentsPosted++
		w.stats.LastMoment = now
		if next, okNext := w.moments.NextPostTime(); okNext {
			w.stats.NextMoment = next
		} else {
			w.stats.NextMoment = time.Time{}
		}
		w.mu.Unlock()

		w.registry.SaveMomentState(w.id, w.moments.State())
		if w.metrics != nil {
			w.metrics.MomentsPosted.Inc()
		}

		w.logger.Info("moment posted",
			zap.String("content", receipt.Content),
			zap.Int("trust_earned", receipt.TrustEarned),
			zap.Int("remaining", receipt.Remaining))
	}

	w.sleepCtx(ctx, w.cfg.MomentPause)
}

// mine runs one inscription attempt against a registry candidate.
func (w *Worker) mine(ctx context.Context) (mineResult, error) {
	tokenID, ok := w.registry.NextCandidate()
	if !ok {
		return mineResult{}, domain.ErrNoTokensAvailable
	}

	outcome, err := w.gateway.Inscribe(ctx, tokenID)
	if err != nil {
		return mineResult{}, fmt.Errorf("inscribe token %d: %w", tokenID, err)
	}

	switch outcome.Kind {
	case domain.OutcomeTokenTaken:
		w.registry.MarkTaken(tokenID)
		w.mu.Lock()
		w.stats.TokensTaken++
		w.mu.Unlock()

	case domain.OutcomeChallengeRequired:
		if outcome.Challenge == nil {
			return mineResult{outcome: domain.Outcome{
				Kind:    domain.OutcomeUnknown,
				TokenID: tokenID,
				Message: "invalid_challenge",
			}}, nil
		}
		return w.resolveChallenge(ctx, tokenID, *outcome.Challenge)

	case domain.OutcomeSuccess:
		w.registry.MarkFree(tokenID)
		w.applySuccess(outcome)
	}

	return mineResult{outcome: outcome}, nil
}

// resolveChallenge answers a server challenge, following replacement
// challenges up to ChallengeDepth before giving up on this token for now.
func (w *Worker) resolveChallenge(ctx context.Context, tokenID int, challenge domain.Challenge) (mineResult, error) {
	for depth := 0; ; depth++ {
		if !challenge.Valid() {
			return mineResult{outcome: domain.Outcome{
				Kind:    domain.OutcomeUnknown,
				TokenID: tokenID,
				Message: "invalid_challenge",
			}}, nil
		}

		w.logger.Info("solving challenge",
			zap.Int("token_id", tokenID),
			zap.String("challenge_id", challenge.ID),
			zap.Int("depth", depth))

		answer := domain.SanitizeAnswer(w.solver.Solve(ctx, challenge.Prompt, w.cfg.Style))

		outcome, err := w.gateway.AnswerChallenge(ctx, tokenID, challenge.ID, answer)
		if err != nil {
			return mineResult{}, fmt.Errorf("answer challenge %s: %w", challenge.ID, err)
		}

		switch outcome.Kind {
		case domain.OutcomeSuccess:
			w.registry.MarkFree(tokenID)
			w.applySuccess(outcome)
			w.mu.Lock()
			w.stats.ChallengesPassed++
			w.mu.Unlock()
			if w.metrics != nil {
				w.metrics.ChallengesPassed.Inc()
			}
			return mineResult{outcome: outcome, viaChallenge: true}, nil

		case domain.OutcomeChallengeFailed:
			w.mu.Lock()
			w.stats.ChallengesFailed++
			w.mu.Unlock()
			if w.metrics != nil {
				w.metrics.ChallengesFailed.Inc()
			}
			if outcome.Challenge != nil && outcome.Challenge.Valid() && depth < w.cfg.ChallengeDepth {
				challenge = *outcome.Challenge
				continue
			}
			return mineResult{outcome: outcome}, nil

		default:
			return mineResult{outcome: outcome}, nil
		}
	}
}

// applySuccess folds a successful outcome into the cached stats. Balance
// and trust update only when the response carried them.
func (w *Worker) applySuccess(outcome domain.Outcome) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stats.TotalMines++
	if outcome.Balance != nil {
		w.stats.CWBalance = *outcome.Balance
	}
	if outcome.Trust != nil {
		w.stats.TrustScore = *outcome.Trust
	}
}

func (w *Worker) trustScore() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.stats.TrustScore
}

func (w *Worker) recordOutcome(kind domain.OutcomeKind) {
	if w.metrics == nil {
		return
	}
	w.metrics.MineOutcomes.WithLabelValues(string(kind)).Inc()
}

// sleepCtx sleeps for d, waking early on cancellation. Returns false when
// the context ended the sleep.
func (w *Worker) sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// randBetween picks a uniform duration in [min, max].
func randBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min)
}
