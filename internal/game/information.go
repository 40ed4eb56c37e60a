package game

// Information decay constants: uncertainty about an observed value grows
// linearly with turns since the observation, capped at the full half-range.
const (
	decayPerTurn   = 0.8
	maxUncertainty = 5.0
	unknownCenter  = 5.0
)

// Observation records an observed opponent value with its provenance.
// A nil Observation means the value was never observed.
type Observation struct {
	Value        float64 `json:"value"`
	ObservedTurn int     `json:"observed_turn"`
}

// InformationState is one player's belief about the opponent: what they
// have observed of the opponent's position (via reconnaissance) and
// resources (via inspection), and when.
type InformationState struct {
	Position  *Observation `json:"position,omitempty"`
	Resources *Observation `json:"resources,omitempty"`
}

// Estimate describes a belief as a center and an uncertainty radius.
type Estimate struct {
	Center float64 `json:"center"`
	Radius float64 `json:"radius"`
}

// EstimatePosition returns the belief about the opponent's position at the
// given turn. Unknown values estimate to the midpoint of the range with the
// maximum radius; known values decay toward it as turns pass.
func (s InformationState) EstimatePosition(currentTurn int) Estimate {
	return estimate(s.Position, currentTurn)
}

// EstimateResources returns the belief about the opponent's resources.
func (s InformationState) EstimateResources(currentTurn int) Estimate {
	return estimate(s.Resources, currentTurn)
}

func estimate(obs *Observation, currentTurn int) Estimate {
	if obs == nil {
		return Estimate{Center: unknownCenter, Radius: maxUncertainty}
	}
	age := currentTurn - obs.ObservedTurn
	if age < 0 {
		age = 0
	}
	radius := float64(age) * decayPerTurn
	if radius > maxUncertainty {
		radius = maxUncertainty
	}
	return Estimate{Center: obs.Value, Radius: radius}
}

// observePosition records a fresh position observation, replacing any
// stale one.
func (s *InformationState) observePosition(value float64, turn int) {
	s.Position = &Observation{Value: value, ObservedTurn: turn}
}

// observeResources records a fresh resources observation.
func (s *InformationState) observeResources(value float64, turn int) {
	s.Resources = &Observation{Value: value, ObservedTurn: turn}
}

func (s InformationState) clone() InformationState {
	out := InformationState{}
	if s.Position != nil {
		p := *s.Position
		out.Position = &p
	}
	if s.Resources != nil {
		r := *s.Resources
		out.Resources = &r
	}
	return out
}
