package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTripsLosslessly(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, false), 55)
	for i := 0; i < 3; i++ {
		result := e.SubmitActions(actionCatalog["escalate"], actionCatalog["accommodate"])
		require.True(t, result.Success, result.Error)
		if result.Ending != nil {
			break
		}
	}

	snap := e.Snapshot()
	require.NoError(t, ValidateRoundtrip(snap))

	data, err := snap.Marshal()
	require.NoError(t, err)
	restored, err := UnmarshalSnapshot(data)
	require.NoError(t, err)

	assert.Equal(t, snap.GameID, restored.GameID)
	assert.Equal(t, snap.Seed, restored.Seed)
	assert.Equal(t, snap.Draws, restored.Draws)
	assert.Equal(t, snap.State, restored.State)
	assert.Equal(t, snap.History, restored.History)
}

func TestUnmarshalSnapshot_RejectsUnknownVersion(t *testing.T) {
	_, err := UnmarshalSnapshot([]byte(`{"version": 99}`))
	assert.Error(t, err)
}

func TestRestore_ContinuesTheExactRandomStream(t *testing.T) {
	turns := pdTurns(t, false)
	play := func(e *Engine) *GameEnding {
		for !e.IsOver() {
			result := e.SubmitActions(actionCatalog["escalate"], actionCatalog["escalate"])
			require.True(t, result.Success, result.Error)
			if result.Ending != nil {
				return result.Ending
			}
		}
		return e.Ending()
	}

	// Uninterrupted reference run.
	reference, err := NewEngine(Config{GameID: "ref", Turns: turns, StartKey: "1", Seed: 909})
	require.NoError(t, err)
	want := play(reference)
	require.NotNil(t, want)

	// Interrupted run: stop after two turns, snapshot, restore, finish.
	interrupted, err := NewEngine(Config{GameID: "ref", Turns: turns, StartKey: "1", Seed: 909})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		result := interrupted.SubmitActions(actionCatalog["escalate"], actionCatalog["escalate"])
		require.True(t, result.Success, result.Error)
		require.Nil(t, result.Ending)
	}

	snap := interrupted.Snapshot()
	resumed, err := Restore(snap, turns, nil)
	require.NoError(t, err)
	assert.Equal(t, interrupted.CurrentState(), resumed.CurrentState())

	got := play(resumed)
	require.NotNil(t, got)
	assert.Equal(t, *want, *got, "a restored game must finish exactly like the uninterrupted one")
}

func TestRestore_RejectsMissingTurnKey(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, false), 2)
	snap := e.Snapshot()
	snap.CurrentKey = "missing"
	_, err := Restore(snap, pdTurns(t, false), nil)
	assert.Error(t, err)
}

func TestRestore_FinishedGameStaysFinished(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, true), 2)
	result := e.SubmitActions(actionCatalog["settle"], actionCatalog["settle"])
	require.True(t, result.Success)
	require.True(t, e.IsOver())

	resumed, err := Restore(e.Snapshot(), pdTurns(t, true), nil)
	require.NoError(t, err)
	assert.True(t, resumed.IsOver())
	require.NotNil(t, resumed.Ending())
	assert.Equal(t, *e.Ending(), *resumed.Ending())

	after := resumed.SubmitActions(actionCatalog["accommodate"], actionCatalog["accommodate"])
	assert.False(t, after.Success)
}
