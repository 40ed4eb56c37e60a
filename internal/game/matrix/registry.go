package matrix

import (
	"fmt"
	"sort"
	"strings"
)

// GameType tags the closed set of supported matrix variants.
type GameType string

// The fourteen supported variants. The set is closed: dispatch is by tag
// through the registry, never by open-ended subtyping.
const (
	TypePrisonersDilemma  GameType = "prisoners_dilemma"
	TypeDeadlock          GameType = "deadlock"
	TypeHarmony           GameType = "harmony"
	TypeChicken           GameType = "chicken"
	TypeVolunteersDilemma GameType = "volunteers_dilemma"
	TypeWarOfAttrition    GameType = "war_of_attrition"
	TypePureCoordination  GameType = "pure_coordination"
	TypeStagHunt          GameType = "stag_hunt"
	TypeBattleOfTheSexes  GameType = "battle_of_the_sexes"
	TypeLeader            GameType = "leader"
	TypeMatchingPennies   GameType = "matching_pennies"
	TypeInspectionGame    GameType = "inspection_game"
	TypeReconnaissance    GameType = "reconnaissance"
	TypeSecurityDilemma   GameType = "security_dilemma"
)

// aliases is the documented alias table for scenario authors. Anything not
// in this table and not a canonical tag is rejected.
var aliases = map[string]GameType{
	"pd":           TypePrisonersDilemma,
	"prisoners":    TypePrisonersDilemma,
	"trust":        TypeStagHunt,
	"stag":         TypeStagHunt,
	"hawk_dove":    TypeChicken,
	"snowdrift":    TypeChicken,
	"brinkmanship": TypeChicken,
	"volunteer":    TypeVolunteersDilemma,
	"attrition":    TypeWarOfAttrition,
	"coordination": TypePureCoordination,
	"bos":          TypeBattleOfTheSexes,
	"pennies":      TypeMatchingPennies,
	"inspection":   TypeInspectionGame,
	"recon":        TypeReconnaissance,
	"arms_race":    TypeSecurityDilemma,
}

// constructor is one (validate, cells) pair. build is shared: every variant
// decomposes its cells through the same weighted rule.
type constructor struct {
	validate func(Parameters) error
	cells    func(Parameters) cellGrid
	defaults func() Parameters
}

// cellSpec holds one cell's raw payoffs plus its risk contribution.
// Risk is supplied per-cell by the constructor, not derived from payoffs.
type cellSpec struct {
	a, b float64
	risk float64
}

// cellGrid orders cells cc, cd, dc, dd.
type cellGrid [4]cellSpec

// UnknownTypeError reports an unrecognized tag together with every valid
// canonical tag and alias, so authoring failures are self-describing.
type UnknownTypeError struct {
	Tag string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown matrix type %q; valid types: %s; aliases: %s",
		e.Tag, strings.Join(ValidTags(), ", "), strings.Join(validAliases(), ", "))
}

// Resolve maps a tag or documented alias to its canonical GameType.
func Resolve(tag string) (GameType, error) {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	if _, ok := registry[GameType(normalized)]; ok {
		return GameType(normalized), nil
	}
	if t, ok := aliases[normalized]; ok {
		return t, nil
	}
	return "", &UnknownTypeError{Tag: tag}
}

// ValidTags returns the sorted canonical tag list.
func ValidTags() []string {
	tags := make([]string, 0, len(registry))
	for t := range registry {
		tags = append(tags, string(t))
	}
	sort.Strings(tags)
	return tags
}

func validAliases() []string {
	out := make([]string, 0, len(aliases))
	for a, t := range aliases {
		out = append(out, fmt.Sprintf("%s->%s", a, t))
	}
	sort.Strings(out)
	return out
}

// Validate checks the shared numeric contract and the variant's ordinal
// constraint. It never coerces: violations are reported with the offending
// values.
func Validate(t GameType, p Parameters) error {
	c, ok := registry[t]
	if !ok {
		return &UnknownTypeError{Tag: string(t)}
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%s: %w", t, err)
	}
	return c.validate(p)
}

// Build validates and constructs the matrix for the given type. Each raw
// payoff decomposes into a StateDeltas by the shared weighted rule:
// position delta is half the payoff differential scaled by the position
// weight (clamped to the delta range), resource cost is the negative
// portion of a payoff scaled by the resource weight, and the risk delta is
// the cell's risk contribution scaled by the risk weight. Only the position
// delta clamps; a resource cost or risk delta outside its documented range
// fails the build.
func Build(t GameType, p Parameters) (Matrix, error) {
	c, ok := registry[t]
	if !ok {
		return Matrix{}, &UnknownTypeError{Tag: string(t)}
	}
	if err := Validate(t, p); err != nil {
		return Matrix{}, err
	}

	grid := c.cells(p)
	outcomes := [4]Outcome{}
	for i, cell := range grid {
		o, err := decompose(p, cell)
		if err != nil {
			return Matrix{}, fmt.Errorf("%s cell %s: %w", t, OutcomeCode(i/2, i%2), err)
		}
		outcomes[i] = o
	}
	return Matrix{Type: t, CC: outcomes[0], CD: outcomes[1], DC: outcomes[2], DD: outcomes[3]}, nil
}

// DefaultParameters returns the documented default parameter set for a type.
func DefaultParameters(t GameType) (Parameters, error) {
	c, ok := registry[t]
	if !ok {
		return Parameters{}, &UnknownTypeError{Tag: string(t)}
	}
	return c.defaults(), nil
}

// decompose applies the weighted decomposition to one cell.
func decompose(p Parameters, cell cellSpec) (Outcome, error) {
	a := cell.a * p.Scale
	b := cell.b * p.Scale

	posA := clamp((a-b)/2*p.Weights.Position, -MaxPositionDelta, MaxPositionDelta)
	posB := clamp((b-a)/2*p.Weights.Position, -MaxPositionDelta, MaxPositionDelta)

	resA := negativePortion(a) * p.Weights.Resource
	resB := negativePortion(b) * p.Weights.Resource

	risk := cell.risk * p.Weights.Risk

	deltas, err := NewStateDeltas(posA, posB, resA, resB, risk)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{PayoffA: a, PayoffB: b, Deltas: deltas}, nil
}

func negativePortion(v float64) float64 {
	if v < 0 {
		return -v
	}
	return 0
}
