// Package scenario loads and validates turn configurations for the
// Brinksmanship engine. Scenarios are authored content: every matrix tag,
// parameter set and branch target is checked at load time, so constraint
// and tag errors surface during authoring rather than mid-game.
package scenario

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/brinkhaven/brinksmanship-server/internal/game"
	"github.com/brinkhaven/brinksmanship-server/internal/game/matrix"
)

// Scenario is a complete authored game: metadata plus the turn set the
// engine plays through.
type Scenario struct {
	Name        string                   `mapstructure:"name"`
	Description string                   `mapstructure:"description"`
	StartKey    string                   `mapstructure:"start_key"`
	Turns       []game.TurnConfiguration `mapstructure:"turns"`
}

// TurnMap returns the turn set keyed the way the engine consumes it.
func (s *Scenario) TurnMap() map[string]game.TurnConfiguration {
	out := make(map[string]game.TurnConfiguration, len(s.Turns))
	for _, tc := range s.Turns {
		out[tc.Key] = tc
	}
	return out
}

// Load reads a scenario from a YAML file and validates it fully.
func Load(path string) (*Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal scenario %s: %w", path, err)
	}
	if err := Validate(&s); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks the whole scenario: unique keys, a defined start key,
// every matrix tag resolvable, every parameter set satisfying its variant's
// ordinal constraint, and every branch target pointing at a defined turn.
// Parameter records with no payoffs are filled in from the variant's
// documented defaults before checking.
func Validate(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if len(s.Turns) == 0 {
		return fmt.Errorf("scenario has no turns")
	}

	keys := make(map[string]bool, len(s.Turns))
	for i := range s.Turns {
		tc := &s.Turns[i]
		if tc.Key == "" {
			return fmt.Errorf("turn %d has no key", i)
		}
		if keys[tc.Key] {
			return fmt.Errorf("duplicate turn key %q", tc.Key)
		}
		keys[tc.Key] = true

		// Viper lowercases map keys on unmarshal, so YAML-authored outcome
		// codes arrive as "dd". The engine resolves codes uppercase.
		tc.BranchTargets = canonicalOutcomeKeys(tc.BranchTargets)
		tc.OutcomeNarratives = canonicalOutcomeKeys(tc.OutcomeNarratives)

		gt, err := matrix.Resolve(tc.MatrixType)
		if err != nil {
			return fmt.Errorf("turn %q: %w", tc.Key, err)
		}
		if len(tc.MatrixParams.Payoffs) == 0 {
			defaults, err := matrix.DefaultParameters(gt)
			if err != nil {
				return fmt.Errorf("turn %q: %w", tc.Key, err)
			}
			tc.MatrixParams = defaults
		}
		fillParamDefaults(&tc.MatrixParams)
		if err := matrix.Validate(gt, tc.MatrixParams); err != nil {
			return fmt.Errorf("turn %q: %w", tc.Key, err)
		}
	}

	if s.StartKey == "" {
		s.StartKey = s.Turns[0].Key
	}
	if !keys[s.StartKey] {
		return fmt.Errorf("start key %q is not a defined turn", s.StartKey)
	}

	for _, tc := range s.Turns {
		for code, target := range tc.BranchTargets {
			if !outcomeCodes[code] {
				return fmt.Errorf("turn %q: branch key %q is not an outcome code (CC, CD, DC, DD)", tc.Key, code)
			}
			if !keys[target] {
				return fmt.Errorf("turn %q: branch %s targets undefined turn %q", tc.Key, code, target)
			}
		}
		if tc.DefaultNext != "" && !keys[tc.DefaultNext] {
			return fmt.Errorf("turn %q: default next targets undefined turn %q", tc.Key, tc.DefaultNext)
		}
	}
	return nil
}

var outcomeCodes = map[string]bool{"CC": true, "CD": true, "DC": true, "DD": true}

// canonicalOutcomeKeys uppercases the outcome-code keys of a branch or
// narrative map.
func canonicalOutcomeKeys(m map[string]string) map[string]string {
	if len(m) == 0 {
		return m
	}
	out := make(map[string]string, len(m))
	for code, v := range m {
		out[strings.ToUpper(code)] = v
	}
	return out
}

// fillParamDefaults supplies the shared numeric defaults for fields a
// scenario author left zero.
func fillParamDefaults(p *matrix.Parameters) {
	if p.Scale == 0 {
		p.Scale = 1.0
	}
	if p.Weights == (matrix.Weights{}) {
		p.Weights = matrix.DefaultWeights()
	}
}
