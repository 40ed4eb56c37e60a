package matrix

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// weightTolerance is the permitted deviation of the weight sum from 1.0.
const weightTolerance = 1e-6

// Weights controls how raw payoffs decompose into state deltas.
type Weights struct {
	Position float64 `json:"position" mapstructure:"position"`
	Resource float64 `json:"resource" mapstructure:"resource"`
	Risk     float64 `json:"risk" mapstructure:"risk"`
}

// DefaultWeights is the decomposition used when a scenario supplies none.
func DefaultWeights() Weights {
	return Weights{Position: 0.5, Resource: 0.3, Risk: 0.2}
}

// Parameters is the record a constructor consumes: a positive payoff scale,
// a decomposition weight triple summing to 1, and the variant's named raw
// payoff values.
type Parameters struct {
	Scale   float64            `json:"scale" mapstructure:"scale"`
	Weights Weights            `json:"weights" mapstructure:"weights"`
	Payoffs map[string]float64 `json:"payoffs" mapstructure:"payoffs"`
}

// Validate checks the shared numeric contract: scale strictly positive,
// weights non-negative and summing to 1 within tolerance.
func (p Parameters) Validate() error {
	if p.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %.4f", p.Scale)
	}
	if p.Weights.Position < 0 || p.Weights.Resource < 0 || p.Weights.Risk < 0 {
		return fmt.Errorf("weights must be non-negative, got position=%.4f resource=%.4f risk=%.4f",
			p.Weights.Position, p.Weights.Resource, p.Weights.Risk)
	}
	sum := p.Weights.Position + p.Weights.Resource + p.Weights.Risk
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %.6f", sum)
	}
	return nil
}

// payoff returns a named payoff value, or an error naming the missing key
// and the keys that are present.
func (p Parameters) payoff(key string) (float64, error) {
	v, ok := p.Payoffs[key]
	if !ok {
		present := make([]string, 0, len(p.Payoffs))
		for k := range p.Payoffs {
			present = append(present, k)
		}
		sort.Strings(present)
		return 0, fmt.Errorf("missing payoff parameter %q (have: %s)", key, strings.Join(present, ", "))
	}
	return v, nil
}

// ConstraintError reports a violated ordinal constraint, carrying the
// offending values so authoring tools can show exactly what failed.
type ConstraintError struct {
	Type        GameType
	Requirement string
	Values      map[string]float64
}

func (e *ConstraintError) Error() string {
	keys := make([]string, 0, len(e.Values))
	for k := range e.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%.3f", k, e.Values[k]))
	}
	return fmt.Sprintf("%s: requires %s (got %s)", e.Type, e.Requirement, strings.Join(parts, ", "))
}

// requireDescending checks a strict descending order over the named payoffs
// and returns a ConstraintError describing the full chain on violation.
func requireDescending(t GameType, p Parameters, keys ...string) error {
	values := make(map[string]float64, len(keys))
	for _, k := range keys {
		v, err := p.payoff(k)
		if err != nil {
			return err
		}
		values[k] = v
	}
	for i := 0; i < len(keys)-1; i++ {
		if values[keys[i]] <= values[keys[i+1]] {
			return &ConstraintError{
				Type:        t,
				Requirement: strings.Join(keys, " > "),
				Values:      values,
			}
		}
	}
	return nil
}

// requirePositive checks that the named payoff is strictly positive.
func requirePositive(t GameType, p Parameters, key string) error {
	v, err := p.payoff(key)
	if err != nil {
		return err
	}
	if v <= 0 {
		return &ConstraintError{
			Type:        t,
			Requirement: key + " > 0",
			Values:      map[string]float64{key: v},
		}
	}
	return nil
}
