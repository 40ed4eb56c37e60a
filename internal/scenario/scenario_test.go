package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinkhaven/brinksmanship-server/internal/game"
	"github.com/brinkhaven/brinksmanship-server/internal/game/matrix"
)

func TestDefault_CoversEveryMatrixType(t *testing.T) {
	s := Default()
	require.Len(t, s.Turns, 14)

	seen := make(map[matrix.GameType]bool)
	for _, tc := range s.Turns {
		gt, err := matrix.Resolve(tc.MatrixType)
		require.NoError(t, err, "turn %s", tc.Key)
		assert.False(t, seen[gt], "matrix type %s appears twice", gt)
		seen[gt] = true
	}
	assert.Len(t, seen, 14)
}

func TestDefault_PlayableByEngine(t *testing.T) {
	s := Default()
	engine, err := game.NewEngine(game.Config{
		GameID:   "scenario-default",
		Turns:    s.TurnMap(),
		StartKey: s.StartKey,
		Seed:     7,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, engine.Briefing())
}

func TestValidate_RejectsUnknownMatrixType(t *testing.T) {
	s := &Scenario{
		Name:     "bad",
		StartKey: "1",
		Turns: []game.TurnConfiguration{
			{Key: "1", MatrixType: "calvinball"},
		},
	}
	err := Validate(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calvinball")
	assert.Contains(t, err.Error(), "prisoners_dilemma", "error must enumerate valid tags")
}

func TestValidate_RejectsConstraintViolation(t *testing.T) {
	params := matrix.Parameters{
		Scale:   1.0,
		Weights: matrix.DefaultWeights(),
		// Reward above temptation breaks the dilemma's ordering.
		Payoffs: map[string]float64{"temptation": 1.0, "reward": 2.0, "punishment": 0.0, "sucker": -1.0},
	}
	s := &Scenario{
		Name:     "bad",
		StartKey: "1",
		Turns: []game.TurnConfiguration{
			{Key: "1", MatrixType: "pd", MatrixParams: params},
		},
	}
	err := Validate(s)
	require.Error(t, err)
	var cerr *matrix.ConstraintError
	assert.ErrorAs(t, err, &cerr)
}

func TestValidate_RejectsDanglingBranchTarget(t *testing.T) {
	s := &Scenario{
		Name:     "bad",
		StartKey: "1",
		Turns: []game.TurnConfiguration{
			{Key: "1", MatrixType: "pd", BranchTargets: map[string]string{"DD": "99"}},
		},
	}
	err := Validate(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined turn")
}

func TestValidate_CanonicalizesOutcomeCodeKeys(t *testing.T) {
	s := &Scenario{
		Name:     "lowercased",
		StartKey: "1",
		Turns: []game.TurnConfiguration{
			{
				Key:               "1",
				MatrixType:        "pd",
				BranchTargets:     map[string]string{"dd": "2"},
				OutcomeNarratives: map[string]string{"cc": "Held."},
			},
			{Key: "2", MatrixType: "chicken"},
		},
	}
	require.NoError(t, Validate(s))
	assert.Equal(t, "2", s.Turns[0].BranchTargets["DD"])
	assert.Equal(t, "Held.", s.Turns[0].OutcomeNarratives["CC"])
}

func TestValidate_RejectsUnknownBranchCode(t *testing.T) {
	s := &Scenario{
		Name:     "bad",
		StartKey: "1",
		Turns: []game.TurnConfiguration{
			{Key: "1", MatrixType: "pd", BranchTargets: map[string]string{"XX": "1"}},
		},
	}
	err := Validate(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an outcome code")
}

func TestValidate_FillsDefaultsAndStartKey(t *testing.T) {
	s := &Scenario{
		Name: "minimal",
		Turns: []game.TurnConfiguration{
			{Key: "open", MatrixType: "trust"},
		},
	}
	require.NoError(t, Validate(s))
	assert.Equal(t, "open", s.StartKey)
	assert.Equal(t, 1.0, s.Turns[0].MatrixParams.Scale)
	assert.NotEmpty(t, s.Turns[0].MatrixParams.Payoffs)
}

func TestLoad_RoundTripsYAML(t *testing.T) {
	doc := `
name: two-step
description: minimal loadable scenario
start_key: "1"
turns:
  - key: "1"
    turn_number: 1
    narrative: "Opening."
    matrix_type: pd
    settlement_available: false
    outcome_narratives:
      CC: "The accommodation held."
    branch_targets:
      DD: "2"
    default_next: "2"
  - key: "2"
    turn_number: 2
    narrative: "Closing."
    matrix_type: chicken
    settlement_available: true
`
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "two-step", s.Name)
	require.Len(t, s.Turns, 2)
	// Viper lowercases map keys; loaded maps must come back keyed by the
	// uppercase codes the engine resolves.
	assert.Equal(t, "2", s.Turns[0].BranchTargets["DD"])
	assert.Equal(t, "The accommodation held.", s.Turns[0].OutcomeNarratives["CC"])
	assert.True(t, s.Turns[1].SettlementAvailable)

	// Loaded scenarios must be engine-ready.
	_, err = game.NewEngine(game.Config{
		GameID:   "loaded",
		Turns:    s.TurnMap(),
		StartKey: s.StartKey,
		Seed:     1,
	})
	require.NoError(t, err)
}
