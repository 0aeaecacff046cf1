package ports

import (
	"context"

	"github.com/bnema/clawfarm/internal/domain"
)

// StateStore persists the token registry snapshot across restarts.
// Load returns an empty snapshot when no state file exists yet.
type StateStore interface {
	Load(ctx context.Context) (domain.RegistrySnapshot, error)
	Save(ctx context.Context, snap domain.RegistrySnapshot) error
}

// StatsWriter persists the periodic full dashboard payload.
type StatsWriter interface {
	WriteStats(ctx context.Context, snap domain.FleetSnapshot) error
}
