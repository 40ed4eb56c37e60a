package game

import "fmt"

// EndingType tags how a game concluded.
type EndingType string

const (
	EndingMutualDestruction  EndingType = "mutual_destruction"
	EndingPositionCollapse   EndingType = "position_collapse"
	EndingResourceExhaustion EndingType = "resource_exhaustion"
	EndingCrisisTermination  EndingType = "crisis_termination"
	EndingNatural            EndingType = "natural"
	EndingSettlement         EndingType = "settlement"
)

// GameEnding is the terminal record of a game. Base VP always splits 100
// points except mutual destruction, where both sides take exactly 20.
// Captured surplus rides on top of base VP, so totals can exceed 100.
type GameEnding struct {
	Type        EndingType `json:"ending_type"`
	VPA         float64    `json:"vp_a"`
	VPB         float64    `json:"vp_b"`
	Turn        int        `json:"turn"`
	Description string     `json:"description"`
}

// checkDeterministicEnding evaluates the hard thresholds in fixed priority:
// mutual destruction, then player A's collapse before player B's, then
// resource exhaustion in the same order. When both positions hit zero on
// the same turn, A's collapse resolves first purely by this check order;
// the order is part of the contract and must not be re-balanced.
func checkDeterministicEnding(s GameState) *GameEnding {
	switch {
	case s.RiskLevel >= maxRisk:
		return &GameEnding{
			Type: EndingMutualDestruction, VPA: 20, VPB: 20, Turn: s.Turn,
			Description: "Risk reached the ceiling: mutual destruction.",
		}
	case s.PlayerA.Position <= minPosition:
		return &GameEnding{
			Type: EndingPositionCollapse, VPA: 10, VPB: 90, Turn: s.Turn,
			Description: "Player A's position collapsed.",
		}
	case s.PlayerB.Position <= minPosition:
		return &GameEnding{
			Type: EndingPositionCollapse, VPA: 90, VPB: 10, Turn: s.Turn,
			Description: "Player B's position collapsed.",
		}
	case s.PlayerA.Resources <= minResources:
		return &GameEnding{
			Type: EndingResourceExhaustion, VPA: 15, VPB: 85, Turn: s.Turn,
			Description: "Player A exhausted their resources.",
		}
	case s.PlayerB.Resources <= minResources:
		return &GameEnding{
			Type: EndingResourceExhaustion, VPA: 85, VPB: 15, Turn: s.Turn,
			Description: "Player B exhausted their resources.",
		}
	}
	return nil
}

// Crisis termination thresholds: only live once both the turn count and
// the risk level clear their floors.
const (
	crisisMinTurn     = 10
	crisisRiskFloor   = 7.0
	crisisProbPerRisk = 0.08
)

// crisisProbability is the closed-form trigger chance for the current
// state; zero below the thresholds.
func crisisProbability(s GameState) float64 {
	if s.Turn < crisisMinTurn || s.RiskLevel <= crisisRiskFloor {
		return 0
	}
	return (s.RiskLevel - crisisRiskFloor) * crisisProbPerRisk
}

func endingDescription(t EndingType, turn int) string {
	switch t {
	case EndingCrisisTermination:
		return fmt.Sprintf("The crisis boiled over on turn %d.", turn)
	case EndingNatural:
		return "The confrontation ran its course."
	default:
		return ""
	}
}
