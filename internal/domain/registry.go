package domain

import (
	"math/rand/v2"
	"sync"
	"time"
)

// MomentState is the per-account moment progress persisted across restarts.
type MomentState struct {
	Posted   int
	LastPost time.Time
}

// RegistrySnapshot is the serializable view of a TokenRegistry.
type RegistrySnapshot struct {
	Taken   []int
	Free    []int
	Moments map[AccountID]MomentState
	SavedAt time.Time
}

// TokenRegistry tracks which slot IDs are known taken versus known free
// across every worker in the process. Workers run as separate goroutines,
// so every method holds the registry mutex for its full critical section.
//
// Invariant: taken and free are disjoint, and an ID marked taken stays
// taken for the rest of the process lifetime.
type TokenRegistry struct {
	mu      sync.Mutex
	min     int
	max     int
	taken   map[int]struct{}
	free    []int
	moments map[AccountID]MomentState
}

func NewTokenRegistry(minID, maxID int) *TokenRegistry {
	if maxID < minID {
		minID, maxID = maxID, minID
	}

	return &TokenRegistry{
		min:     minID,
		max:     maxID,
		taken:   make(map[int]struct{}),
		moments: make(map[AccountID]MomentState),
	}
}

// MarkTaken records id as durably claimed. Idempotent.
func (r *TokenRegistry) MarkTaken(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.taken[id] = struct{}{}
	for i, free := range r.free {
		if free == id {
			r.free = append(r.free[:i], r.free[i+1:]...)
			break
		}
	}
}

// MarkFree records id as confirmed minable, front of the reuse queue.
// An ID already known taken or already queued is left alone.
func (r *TokenRegistry) MarkFree(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.taken[id]; ok {
		return
	}
	for _, free := range r.free {
		if free == id {
			return
		}
	}

	r.free = append([]int{id}, r.free...)
}

// NextCandidate returns the most recently confirmed free ID when one is
// known, otherwise a uniform random pick from the valid range excluding
// every taken ID. The second return is false once the range is exhausted.
func (r *TokenRegistry) NextCandidate() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.free) > 0 {
		return r.free[0], true
	}

	available := make([]int, 0, r.max-r.min+1-len(r.taken))
	for id := r.min; id <= r.max; id++ {
		if _, ok := r.taken[id]; !ok {
			available = append(available, id)
		}
	}
	if len(available) == 0 {
		return 0, false
	}

	return available[rand.IntN(len(available))], true
}

func (r *TokenRegistry) SaveMomentState(id AccountID, state MomentState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.moments[id] = state
}

func (r *TokenRegistry) MomentState(id AccountID) (MomentState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.moments[id]
	return state, ok
}

// Counts reports the taken and free set sizes.
func (r *TokenRegistry) Counts() (taken int, free int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.taken), len(r.free)
}

func (r *TokenRegistry) Snapshot(now time.Time) RegistrySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := RegistrySnapshot{
		Taken:   make([]int, 0, len(r.taken)),
		Free:    append([]int(nil), r.free...),
		Moments: make(map[AccountID]MomentState, len(r.moments)),
		SavedAt: now,
	}
	for id := range r.taken {
		snap.Taken = append(snap.Taken, id)
	}
	for id, state := range r.moments {
		snap.Moments[id] = state
	}

	return snap
}

// Restore replaces registry contents with a persisted snapshot. IDs that
// appear in both lists resolve to taken, preserving the disjoint invariant.
func (r *TokenRegistry) Restore(snap RegistrySnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.taken = make(map[int]struct{}, len(snap.Taken))
	for _, id := range snap.Taken {
		r.taken[id] = struct{}{}
	}

	r.free = r.free[:0]
	seen := make(map[int]struct{}, len(snap.Free))
	for _, id := range snap.Free {
		if _, ok := r.taken[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		r.free = append(r.free, id)
	}

	r.moments = make(map[AccountID]MomentState, len(snap.Moments))
	for id, state := range snap.Moments {
		r.moments[id] = state
	}
}
