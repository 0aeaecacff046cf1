package state

import (
	"fmt"
	"time"

	"github.com/bnema/clawfarm/internal/domain"
)

const currentSchemaVersion = 1

type stateSchema struct {
	Version     int            `toml:"version"`
	SavedAt     time.Time      `toml:"saved_at"`
	TakenTokens []int          `toml:"taken_tokens"`
	FreeTokens  []int          `toml:"free_tokens"`
	Moments     []momentSchema `toml:"moments"`
}

type momentSchema struct {
	AccountID string    `toml:"account_id"`
	Posted    int       `toml:"posted"`
	LastPost  time.Time `toml:"last_post"`
}

func (s *stateSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s stateSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported state schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

func toSchema(snap domain.RegistrySnapshot) stateSchema {
	encoded := stateSchema{
		Version:     currentSchemaVersion,
		SavedAt:     snap.SavedAt,
		TakenTokens: snap.Taken,
		FreeTokens:  snap.Free,
		Moments:     make([]momentSchema, 0, len(snap.Moments)),
	}
	for id, state := range snap.Moments {
		encoded.Moments = append(encoded.Moments, momentSchema{
			AccountID: string(id),
			Posted:    state.Posted,
			LastPost:  state.LastPost,
		})
	}

	return encoded
}

func (s stateSchema) toDomain() domain.RegistrySnapshot {
	snap := domain.RegistrySnapshot{
		Taken:   s.TakenTokens,
		Free:    s.FreeTokens,
		Moments: make(map[domain.AccountID]domain.MomentState, len(s.Moments)),
		SavedAt: s.SavedAt,
	}
	for _, moment := range s.Moments {
		snap.Moments[domain.AccountID(moment.AccountID)] = domain.MomentState{
			Posted:   moment.Posted,
			LastPost: moment.LastPost,
		}
	}

	return snap
}
