package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/clawfarm/internal/domain"
)

type persistRecorder struct {
	mu        sync.Mutex
	snapshots []domain.RegistrySnapshot
	stats     []domain.FleetSnapshot
}

func (p *persistRecorder) Load(context.Context) (domain.RegistrySnapshot, error) {
	return domain.RegistrySnapshot{}, nil
}

func (p *persistRecorder) Save(_ context.Context, snap domain.RegistrySnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.snapshots = append(p.snapshots, snap)
	return nil
}

func (p *persistRecorder) WriteStats(_ context.Context, snap domain.FleetSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats = append(p.stats, snap)
	return nil
}

func (p *persistRecorder) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.snapshots), len(p.stats)
}

func newFleetWorkers(t *testing.T, registry *domain.TokenRegistry, trusts ...int) []*Worker {
	t.Helper()

	cfg := fastConfig()
	cfg.MaxMoments = 0

	workers := make([]*Worker, 0, len(trusts))
	for i, trust := range trusts {
		id := domain.AccountID([]string{"acc_01", "acc_02", "acc_03"}[i])
		gateway := &gatewayStub{balance: domain.BalanceInfo{TrustScore: trust, CWBalance: 100, CWStaked: 25000}}
		workers = append(workers, NewWorker(id, cfg, WorkerDeps{
			Gateway:  gateway,
			Solver:   &solverStub{},
			Registry: registry,
		}))
	}
	return workers
}

func TestFleetRunsAllWorkersToCompletion(t *testing.T) {
	t.Parallel()

	registry := domain.NewTokenRegistry(1, 100)
	workers := newFleetWorkers(t, registry, 80, 90)
	recorder := &persistRecorder{}

	fleet := NewFleet("run-1", FleetConfig{PersistInterval: time.Hour}, workers, FleetDeps{
		Registry: registry,
		Store:    recorder,
		Stats:    recorder,
	})

	require.NoError(t, fleet.Run(context.Background()))

	for _, worker := range workers {
		assert.Equal(t, domain.WorkerCompleted, worker.Status())
	}

	// The final persist always fires even without a tick.
	saves, stats := recorder.counts()
	assert.GreaterOrEqual(t, saves, 1)
	assert.GreaterOrEqual(t, stats, 1)
}

func TestFleetPersistsPeriodicallyWhileRunning(t *testing.T) {
	t.Parallel()

	registry := domain.NewTokenRegistry(1, 2)
	registry.MarkTaken(1)
	registry.MarkTaken(2)

	cfg := fastConfig()
	cfg.MaxMoments = 0
	cfg.FaultPause = 5 * time.Millisecond

	// Exhausted registry keeps the worker looping until cancellation.
	worker := NewWorker("acc_01", cfg, WorkerDeps{
		Gateway:  &gatewayStub{},
		Solver:   &solverStub{},
		Registry: registry,
	})
	recorder := &persistRecorder{}

	fleet := NewFleet("run-2", FleetConfig{PersistInterval: 5 * time.Millisecond}, []*Worker{worker}, FleetDeps{
		Registry: registry,
		Store:    recorder,
		Stats:    recorder,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	require.NoError(t, fleet.Run(ctx))

	saves, _ := recorder.counts()
	assert.GreaterOrEqual(t, saves, 2)
	assert.Equal(t, domain.WorkerStopped, worker.Status())
}

func TestFleetWithoutWorkersFails(t *testing.T) {
	t.Parallel()

	fleet := NewFleet("run-3", FleetConfig{}, nil, FleetDeps{})

	err := fleet.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoAPIKeys)
}

func TestFleetSnapshotAggregates(t *testing.T) {
	t.Parallel()

	registry := domain.NewTokenRegistry(1, 100)
	workers := newFleetWorkers(t, registry, 80, 90)
	fleet := NewFleet("run-4", FleetConfig{}, workers, FleetDeps{Registry: registry})

	snap := fleet.Snapshot()
	assert.Equal(t, "run-4", snap.RunID)
	require.Len(t, snap.Accounts, 2)
	assert.Equal(t, 2, snap.Summary.TotalAccounts)
	assert.Equal(t, 0, snap.Summary.Running)
	assert.Equal(t, "acc_01", string(snap.Accounts[0].ID))
}
