// Package matrix implements the payoff matrix constructor registry.
//
// Each supported game type maps a parameter record to a 2x2 payoff matrix
// whose Nash-equilibrium structure is guaranteed by an ordinal constraint
// on the raw payoff parameters. No equilibrium solver runs at game time:
// validation proves the structure once, at construction.
package matrix

import (
	"fmt"
	"math"
)

// StateDeltas bounds. Construction outside these ranges is an error, never
// a silent clamp: clamping is reserved for game-state updates.
const (
	MaxPositionDelta = 1.5
	MaxResourceCost  = 1.0
	MinRiskDelta     = -1.0
	MaxRiskDelta     = 2.0

	// maxPositionSum is the near-zero-sum tolerance on PosA+PosB.
	maxPositionSum = 0.5
)

// StateDeltas describes how one outcome cell moves the shared game state.
type StateDeltas struct {
	PosA      float64 `json:"pos_a"`
	PosB      float64 `json:"pos_b"`
	ResCostA  float64 `json:"res_cost_a"`
	ResCostB  float64 `json:"res_cost_b"`
	RiskDelta float64 `json:"risk_delta"`
}

// RangeError reports a StateDeltas field outside its documented bounds.
type RangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("state delta %s=%.3f outside [%.2f, %.2f]", e.Field, e.Value, e.Min, e.Max)
}

// NewStateDeltas builds a StateDeltas, rejecting any field outside its
// documented range and any pair of position deltas that is not near-zero-sum.
func NewStateDeltas(posA, posB, resCostA, resCostB, riskDelta float64) (StateDeltas, error) {
	checks := []struct {
		field    string
		value    float64
		min, max float64
	}{
		{"pos_a", posA, -MaxPositionDelta, MaxPositionDelta},
		{"pos_b", posB, -MaxPositionDelta, MaxPositionDelta},
		{"res_cost_a", resCostA, 0, MaxResourceCost},
		{"res_cost_b", resCostB, 0, MaxResourceCost},
		{"risk_delta", riskDelta, MinRiskDelta, MaxRiskDelta},
	}
	for _, c := range checks {
		if c.value < c.min || c.value > c.max {
			return StateDeltas{}, &RangeError{Field: c.field, Value: c.value, Min: c.min, Max: c.max}
		}
	}
	if sum := math.Abs(posA + posB); sum > maxPositionSum {
		return StateDeltas{}, fmt.Errorf("position deltas not near-zero-sum: |%.3f + %.3f| = %.3f > %.2f",
			posA, posB, sum, maxPositionSum)
	}
	return StateDeltas{PosA: posA, PosB: posB, ResCostA: resCostA, ResCostB: resCostB, RiskDelta: riskDelta}, nil
}

// Outcome holds the payoffs and state movement for one matrix cell.
type Outcome struct {
	PayoffA float64     `json:"payoff_a"`
	PayoffB float64     `json:"payoff_b"`
	Deltas  StateDeltas `json:"deltas"`
}

// Matrix is an immutable 2x2 payoff matrix. Row index selects player A's
// move, column index player B's; index 0 is cooperative, 1 is competitive.
type Matrix struct {
	Type GameType `json:"type"`
	CC   Outcome  `json:"cc"`
	CD   Outcome  `json:"cd"`
	DC   Outcome  `json:"dc"`
	DD   Outcome  `json:"dd"`
}

// Cell returns the outcome for the given row/column pair.
// Indexes outside {0,1} are treated as competitive.
func (m Matrix) Cell(row, col int) Outcome {
	switch {
	case row == 0 && col == 0:
		return m.CC
	case row == 0:
		return m.CD
	case col == 0:
		return m.DC
	default:
		return m.DD
	}
}

// OutcomeCode returns the two-character code ("CC", "CD", "DC" or "DD")
// for the given row/column pair.
func OutcomeCode(row, col int) string {
	code := func(i int) byte {
		if i == 0 {
			return 'C'
		}
		return 'D'
	}
	return string([]byte{code(row), code(col)})
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
