package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bnema/clawfarm/internal/domain"
	"github.com/bnema/clawfarm/internal/ports"
)

// FleetConfig tunes how workers are launched and how often shared state is
// flushed to disk.
type FleetConfig struct {
	StaggerInterval time.Duration
	PersistInterval time.Duration
}

// Fleet runs a set of account workers concurrently, staggering their start
// times and persisting the registry and aggregate stats while any worker is
// still farming. One final persist always runs on the way out, even when
// the run was cancelled.
type Fleet struct {
	runID    string
	cfg      FleetConfig
	workers  []*Worker
	registry *domain.TokenRegistry
	store    ports.StateStore
	stats    ports.StatsWriter
	clock    ports.Clock
	logger   *zap.Logger
}

// FleetDeps bundles the fleet's collaborators. Store and Stats may be nil
// when persistence is disabled, for example under test.
type FleetDeps struct {
	Registry *domain.TokenRegistry
	Store    ports.StateStore
	Stats    ports.StatsWriter
	Clock    ports.Clock
	Logger   *zap.Logger
}

func NewFleet(runID string, cfg FleetConfig, workers []*Worker, deps FleetDeps) *Fleet {
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Fleet{
		runID:    runID,
		cfg:      cfg,
		workers:  workers,
		registry: deps.Registry,
		store:    deps.Store,
		stats:    deps.Stats,
		clock:    deps.Clock,
		logger:   deps.Logger.With(zap.String("run_id", runID)),
	}
}

func (f *Fleet) RunID() string {
	return f.runID
}

// Snapshot assembles the current dashboard payload by copying every
// worker's stats. Partial staleness across workers is acceptable; each
// individual stat set is copied atomically.
func (f *Fleet) Snapshot() domain.FleetSnapshot {
	accounts := make([]domain.StatsSnapshot, 0, len(f.workers))
	running := 0
	for _, worker := range f.workers {
		snap := worker.Snapshot()
		if snap.Status == domain.WorkerFarming {
			running++
		}
		accounts = append(accounts, snap)
	}

	return domain.NewFleetSnapshot(f.runID, accounts, running, f.clock.Now())
}

// Run farms every account until all reach their target or ctx is cancelled.
func (f *Fleet) Run(ctx context.Context) error {
	if len(f.workers) == 0 {
		return fmt.Errorf("run fleet: %w", domain.ErrNoAPIKeys)
	}

	f.logger.Info("fleet starting",
		zap.Int("workers", len(f.workers)),
		zap.Duration("stagger", f.cfg.StaggerInterval))

	runCtx, stopPersist := context.WithCancel(ctx)
	defer stopPersist()

	group, groupCtx := errgroup.WithContext(runCtx)

	for i, worker := range f.workers {
		delay := time.Duration(i) * f.cfg.StaggerInterval
		group.Go(func() error {
			if delay > 0 {
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-groupCtx.Done():
					return nil
				case <-timer.C:
				}
			}
			return worker.Run(groupCtx)
		})
	}

	persistDone := make(chan struct{})
	go func() {
		defer close(persistDone)
		f.persistLoop(runCtx)
	}()

	err := group.Wait()
	stopPersist()
	<-persistDone

	// Final persist runs on a fresh context so cancellation cannot skip it.
	f.persist(context.Background())

	if err != nil {
		return fmt.Errorf("run fleet: %w", err)
	}
	return nil
}

func (f *Fleet) persistLoop(ctx context.Context) {
	if f.cfg.PersistInterval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(f.cfg.PersistInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.persist(ctx)
		}
	}
}

// persist flushes the registry snapshot and the stats file. Failures are
// logged and swallowed; persistence never takes down a run.
func (f *Fleet) persist(ctx context.Context) {
	now := f.clock.Now()

	if f.store != nil && f.registry != nil {
		if err := f.store.Save(ctx, f.registry.Snapshot(now)); err != nil {
			f.logger.Warn("persist registry failed", zap.Error(err))
		}
	}
	if f.stats != nil {
		if err := f.stats.WriteStats(ctx, f.Snapshot()); err != nil {
			f.logger.Warn("persist stats failed", zap.Error(err))
		}
	}
}
