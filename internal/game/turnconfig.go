package game

import (
	"fmt"
	"strconv"

	"github.com/brinkhaven/brinksmanship-server/internal/game/matrix"
)

// TurnConfiguration is the externally supplied description of one turn:
// its narrative, the matrix to play, outcome narratives, and the branch map
// from outcome code to the next turn key. The core consumes these; it never
// authors them.
type TurnConfiguration struct {
	Key                 string            `json:"key" mapstructure:"key"`
	TurnNumber          int               `json:"turn_number" mapstructure:"turn_number"`
	Narrative           string            `json:"narrative" mapstructure:"narrative"`
	MatrixType          string            `json:"matrix_type" mapstructure:"matrix_type"`
	MatrixParams        matrix.Parameters `json:"matrix_params" mapstructure:"matrix_params"`
	OutcomeNarratives   map[string]string `json:"outcome_narratives,omitempty" mapstructure:"outcome_narratives"`
	BranchTargets       map[string]string `json:"branch_targets,omitempty" mapstructure:"branch_targets"`
	DefaultNext         string            `json:"default_next,omitempty" mapstructure:"default_next"`
	SettlementAvailable bool              `json:"settlement_available" mapstructure:"settlement_available"`
}

// buildMatrix resolves the configured tag and constructs the payoff matrix.
// Scenario loading validates this up front, so a failure here means the
// engine was handed an unvalidated configuration.
func (c TurnConfiguration) buildMatrix() (matrix.Matrix, error) {
	gt, err := matrix.Resolve(c.MatrixType)
	if err != nil {
		return matrix.Matrix{}, fmt.Errorf("turn %q: %w", c.Key, err)
	}
	m, err := matrix.Build(gt, c.MatrixParams)
	if err != nil {
		return matrix.Matrix{}, fmt.Errorf("turn %q: %w", c.Key, err)
	}
	return m, nil
}

// outcomeNarrative picks the configured narrative for an outcome code,
// falling back to a generated default.
func (c TurnConfiguration) outcomeNarrative(code string) string {
	if n, ok := c.OutcomeNarratives[code]; ok && n != "" {
		return n
	}
	switch code {
	case "CC":
		return "Both sides held to the accommodation."
	case "DD":
		return "Both sides escalated; the situation hardened."
	case "CD":
		return "One side conceded while the other pressed its advantage."
	case "DC":
		return "One side pressed its advantage while the other conceded."
	default:
		return "The turn resolved without incident."
	}
}

// nextKey resolves the next turn key: the branch target for the outcome
// code, else the configured default, else the sequential increment of a
// numeric key.
func (c TurnConfiguration) nextKey(code string) string {
	if target, ok := c.BranchTargets[code]; ok && target != "" {
		return target
	}
	if c.DefaultNext != "" {
		return c.DefaultNext
	}
	if n, err := strconv.Atoi(c.Key); err == nil {
		return strconv.Itoa(n + 1)
	}
	return ""
}
