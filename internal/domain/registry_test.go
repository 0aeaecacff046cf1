package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryTakenAndFreeStayDisjoint(t *testing.T) {
	t.Parallel()

	registry := NewTokenRegistry(1, 100)

	registry.MarkFree(40)
	registry.MarkFree(41)
	registry.MarkTaken(40)
	registry.MarkTaken(40)
	registry.MarkFree(40)

	taken, free := registry.Counts()
	assert.Equal(t, 1, taken)
	assert.Equal(t, 1, free)

	id, ok := registry.NextCandidate()
	require.True(t, ok)
	assert.Equal(t, 41, id)
}

func TestRegistryMarkFreeIsFrontPriorityAndIdempotent(t *testing.T) {
	t.Parallel()

	registry := NewTokenRegistry(1, 100)

	registry.MarkFree(10)
	registry.MarkFree(20)
	registry.MarkFree(20)

	id, ok := registry.NextCandidate()
	require.True(t, ok)
	assert.Equal(t, 20, id, "most recently confirmed free ID wins")

	_, free := registry.Counts()
	assert.Equal(t, 2, free)
}

func TestRegistryNextCandidateNeverReturnsTaken(t *testing.T) {
	t.Parallel()

	registry := NewTokenRegistry(1, 10)
	for id := 1; id <= 10; id++ {
		if id != 7 {
			registry.MarkTaken(id)
		}
	}

	for i := 0; i < 20; i++ {
		id, ok := registry.NextCandidate()
		require.True(t, ok)
		assert.Equal(t, 7, id)
	}
}

func TestRegistryNextCandidateExhaustedRange(t *testing.T) {
	t.Parallel()

	registry := NewTokenRegistry(5, 8)
	for id := 5; id <= 8; id++ {
		registry.MarkTaken(id)
	}

	_, ok := registry.NextCandidate()
	assert.False(t, ok)
}

func TestRegistryMomentStateRoundTrip(t *testing.T) {
	t.Parallel()

	registry := NewTokenRegistry(1, 10)

	_, ok := registry.MomentState("acc_01")
	assert.False(t, ok)

	lastPost := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	registry.SaveMomentState("acc_01", MomentState{Posted: 3, LastPost: lastPost})

	state, ok := registry.MomentState("acc_01")
	require.True(t, ok)
	assert.Equal(t, 3, state.Posted)
	assert.Equal(t, lastPost, state.LastPost)
}

func TestRegistrySnapshotRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	registry := NewTokenRegistry(1, 100)
	registry.MarkTaken(40)
	registry.MarkTaken(55)
	registry.MarkFree(77)
	registry.SaveMomentState("acc_01", MomentState{Posted: 2})

	savedAt := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	snap := registry.Snapshot(savedAt)
	assert.ElementsMatch(t, []int{40, 55}, snap.Taken)
	assert.Equal(t, []int{77}, snap.Free)
	assert.Equal(t, savedAt, snap.SavedAt)

	restored := NewTokenRegistry(1, 100)
	restored.Restore(snap)

	taken, free := restored.Counts()
	assert.Equal(t, 2, taken)
	assert.Equal(t, 1, free)

	state, ok := restored.MomentState("acc_01")
	require.True(t, ok)
	assert.Equal(t, 2, state.Posted)
}

func TestRegistryRestoreDropsFreeIDsAlreadyTaken(t *testing.T) {
	t.Parallel()

	registry := NewTokenRegistry(1, 100)
	registry.Restore(RegistrySnapshot{
		Taken: []int{40},
		Free:  []int{40, 41, 41},
	})

	taken, free := registry.Counts()
	assert.Equal(t, 1, taken)
	assert.Equal(t, 1, free)

	id, ok := registry.NextCandidate()
	require.True(t, ok)
	assert.Equal(t, 41, id)
}
