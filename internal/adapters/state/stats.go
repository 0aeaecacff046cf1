package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bnema/clawfarm/internal/domain"
	"github.com/bnema/clawfarm/internal/ports"
)

const statsTempPattern = ".clawfarm-stats-*.json.tmp"

// StatsFile writes the full dashboard payload as indented JSON, replaced
// wholesale on every write.
type StatsFile struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.StatsWriter = (*StatsFile)(nil)

func NewStatsFile(path string) (*StatsFile, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve stats path: %w", err)
	}
	absPath = filepath.Clean(absPath)

	return &StatsFile{path: absPath, mu: lockForPath(absPath)}, nil
}

func (f *StatsFile) WriteStats(ctx context.Context, snap domain.FleetSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stats file: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return writeFileAtomic(f.path, data, statsTempPattern)
}

// ReadStats loads the last written dashboard payload, for the one-shot
// status command.
func ReadStats(path string) (domain.FleetSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.FleetSnapshot{}, fmt.Errorf("read stats file: %w", err)
	}

	var snap domain.FleetSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.FleetSnapshot{}, fmt.Errorf("decode stats file: %w", err)
	}

	return snap, nil
}
