// Package state persists the token registry and the periodic stats snapshot
// to process-local files. Writes go through a temp-file rename so a crash
// mid-write never leaves a truncated state file.
package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bnema/clawfarm/internal/domain"
	"github.com/bnema/clawfarm/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	stateFileMode    = 0o600
	stateDirMode     = 0o700
	stateTempPattern = ".clawfarm-state-*.toml.tmp"
)

type Store struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.StateStore = (*Store)(nil)

func NewStore(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve state path: %w", err)
	}
	absPath = filepath.Clean(absPath)

	return &Store{path: absPath, mu: lockForPath(absPath)}, nil
}

// Load reads the persisted registry snapshot. A missing file yields an
// empty snapshot; a corrupt one yields an error the caller may log and
// ignore — restart state is best-effort.
func (s *Store) Load(ctx context.Context) (domain.RegistrySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.RegistrySnapshot{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.RegistrySnapshot{}, nil
		}
		return domain.RegistrySnapshot{}, fmt.Errorf("read state file: %w", err)
	}

	var file stateSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return domain.RegistrySnapshot{}, fmt.Errorf("decode state file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return domain.RegistrySnapshot{}, err
	}
	file.applyDefaults()

	return file.toDomain(), nil
}

func (s *Store) Save(ctx context.Context, snap domain.RegistrySnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := toml.Marshal(toSchema(snap))
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeFileAtomic(s.path, data, stateTempPattern)
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func writeFileAtomic(path string, data []byte, tempPattern string) error {
	if err := os.MkdirAll(filepath.Dir(path), stateDirMode); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempPattern)
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}

	if err := tempFile.Chmod(stateFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp state file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	cleanup = false
	return nil
}
