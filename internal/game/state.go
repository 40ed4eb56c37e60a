// Package game implements the Brinksmanship core: the state model, the
// turn resolution engine and the variance-based final resolution. The
// package is a pure state-transition layer: it consumes opaque action
// choices and produces state snapshots and endings, deciding nothing on a
// player's behalf and persisting nothing itself.
package game

import "fmt"

// Seat identifies one of the two players.
type Seat string

const (
	SeatA Seat = "A"
	SeatB Seat = "B"
)

// Opponent returns the other seat.
func (s Seat) Opponent() Seat {
	if s == SeatA {
		return SeatB
	}
	return SeatA
}

// Shared scalar bounds and defaults. Game-state fields saturate on write;
// saturation here is deliberate and distinct from matrix construction,
// where out-of-range values are hard errors.
const (
	minPosition  = 0.0
	maxPosition  = 10.0
	minResources = 0.0
	maxResources = 10.0
	minCoop      = 0.0
	maxCoop      = 10.0
	minStability = 1.0
	maxStability = 10.0
	minRisk      = 0.0
	maxRisk      = 10.0

	defaultPosition  = 5.0
	defaultResources = 5.0
	defaultCoop      = 5.0
	defaultStability = 5.0
	defaultRisk      = 2.0

	// MinMaxTurns and MaxMaxTurns bound the hidden game length.
	MinMaxTurns = 12
	MaxMaxTurns = 16
)

// PlayerState holds one player's scalars plus their belief about the
// opponent. Mutated only by the engine's apply step; callers always see
// copies.
type PlayerState struct {
	Position       float64          `json:"position"`
	Resources      float64          `json:"resources"`
	PreviousAction ActionClass      `json:"previous_action,omitempty"`
	Information    InformationState `json:"information"`
}

func (p *PlayerState) setPosition(v float64) {
	p.Position = clampFloat(v, minPosition, maxPosition)
}

func (p *PlayerState) setResources(v float64) {
	p.Resources = clampFloat(v, minResources, maxResources)
}

// clone deep-copies the player state, including observation pointers.
func (p PlayerState) clone() PlayerState {
	out := p
	out.Information = p.Information.clone()
	return out
}

// GameState owns both player states plus the shared scalars. It is a value
// type: each resolved turn produces a new state from the previous one, so
// snapshots handed out mid-game stay valid.
type GameState struct {
	PlayerA PlayerState `json:"player_a"`
	PlayerB PlayerState `json:"player_b"`

	CooperationScore float64 `json:"cooperation_score"`
	Stability        float64 `json:"stability"`
	RiskLevel        float64 `json:"risk_level"`
	Turn             int     `json:"turn"`
	MaxTurns         int     `json:"max_turns"`

	// CooperationSurplus is the shared pool grown by mutual cooperation.
	// It converts to permanent VP only when captured; whatever remains at
	// game end is forfeited.
	CooperationSurplus float64 `json:"cooperation_surplus"`
	SurplusCapturedA   float64 `json:"surplus_captured_a"`
	SurplusCapturedB   float64 `json:"surplus_captured_b"`
}

// NewGameState returns the canonical opening state. maxTurns must be in
// [MinMaxTurns, MaxMaxTurns]; it is fixed for the life of the game and not
// revealed to players.
func NewGameState(maxTurns int) (GameState, error) {
	if maxTurns < MinMaxTurns || maxTurns > MaxMaxTurns {
		return GameState{}, fmt.Errorf("max turns must be in [%d, %d], got %d", MinMaxTurns, MaxMaxTurns, maxTurns)
	}
	player := PlayerState{Position: defaultPosition, Resources: defaultResources}
	return GameState{
		PlayerA:          player,
		PlayerB:          player,
		CooperationScore: defaultCoop,
		Stability:        defaultStability,
		RiskLevel:        defaultRisk,
		Turn:             1,
		MaxTurns:         maxTurns,
	}, nil
}

// Player returns the state for a seat.
func (s GameState) Player(seat Seat) PlayerState {
	if seat == SeatA {
		return s.PlayerA
	}
	return s.PlayerB
}

func (s *GameState) player(seat Seat) *PlayerState {
	if seat == SeatA {
		return &s.PlayerA
	}
	return &s.PlayerB
}

func (s *GameState) setCooperationScore(v float64) {
	s.CooperationScore = clampFloat(v, minCoop, maxCoop)
}

func (s *GameState) setStability(v float64) {
	s.Stability = clampFloat(v, minStability, maxStability)
}

func (s *GameState) setRiskLevel(v float64) {
	s.RiskLevel = clampFloat(v, minRisk, maxRisk)
}

// Act returns the coarse phase of the game: I for turns 1-4, II for 5-8,
// III from turn 9 on.
func (s GameState) Act() int {
	switch {
	case s.Turn <= 4:
		return 1
	case s.Turn <= 8:
		return 2
	default:
		return 3
	}
}

// ActMultiplier scales both payoff deltas and resolution variance by act.
func (s GameState) ActMultiplier() float64 {
	switch s.Act() {
	case 1:
		return 0.7
	case 2:
		return 1.0
	default:
		return 1.3
	}
}

// BaseSigma is the risk-driven component of the resolution noise.
func (s GameState) BaseSigma() float64 {
	return 8 + s.RiskLevel*1.2
}

// ChaosFactor shrinks noise as cooperation grows.
func (s GameState) ChaosFactor() float64 {
	return 1.2 - s.CooperationScore/50
}

// InstabilityFactor grows noise as stability decays.
func (s GameState) InstabilityFactor() float64 {
	return 1 + (10-s.Stability)/20
}

// SharedSigma is the standard deviation of the single shared noise draw
// used by the final resolution. Design target is roughly 10-40 in normal
// play.
func (s GameState) SharedSigma() float64 {
	return s.BaseSigma() * s.ChaosFactor() * s.InstabilityFactor() * s.ActMultiplier()
}

// Clone deep-copies the state.
func (s GameState) Clone() GameState {
	out := s
	out.PlayerA = s.PlayerA.clone()
	out.PlayerB = s.PlayerB.clone()
	return out
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
