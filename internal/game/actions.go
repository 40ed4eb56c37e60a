package game

import "github.com/brinkhaven/brinksmanship-server/internal/game/matrix"

// ActionClass is the cooperative/competitive classification that maps an
// action to a matrix row or column. The zero value means "no prior action".
type ActionClass string

const (
	ClassNone        ActionClass = ""
	ClassCooperative ActionClass = "cooperative"
	ClassCompetitive ActionClass = "competitive"
)

// matrixIndex maps a classification to a matrix row/column index.
func (c ActionClass) matrixIndex() int {
	if c == ClassCooperative {
		return 0
	}
	return 1
}

// ActionCategory selects the resolution mode for a submitted action.
// Dispatch priority is settlement, then reconnaissance, then inspection,
// then the standard matrix.
type ActionCategory string

const (
	CategoryStandard       ActionCategory = "standard"
	CategorySettlement     ActionCategory = "settlement"
	CategoryReconnaissance ActionCategory = "reconnaissance"
	CategoryInspection     ActionCategory = "inspection"
)

// Fixed costs and penalties of the information sub-games and failed
// negotiation.
const (
	reconCost            = 0.5
	inspectionCost       = 0.3
	reconDetectedRisk    = 0.5
	cheatPositionPenalty = 0.5
	cheatRiskIncrease    = 1.0
	failedSettlementRisk = 1.0

	// Settlement negotiation requires a minimally stable table.
	minSettlementStability = 2.0

	// Information plays make no sense before there is anything to observe.
	minInformationTurn = 2
)

// Action is one entry of a player's menu. Players are opaque deciders to
// the core: they pick an Action, the engine does the rest.
type Action struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Category ActionCategory `json:"category"`
	Class    ActionClass    `json:"class"`

	// ResourceCost is the upfront cost of information plays, paid by the
	// initiator regardless of outcome.
	ResourceCost float64 `json:"resource_cost,omitempty"`

	// SurplusShare is a settlement proposal: the fraction of the uncaptured
	// cooperation surplus the proposer requests for themselves. Nil reads
	// as an even-split proposal; an explicit zero is a real proposal.
	SurplusShare *float64 `json:"surplus_share,omitempty"`
}

// ResolutionMode names which of the four resolution paths a turn took.
type ResolutionMode string

const (
	ModeStandard       ResolutionMode = "standard"
	ModeSettlement     ResolutionMode = "settlement"
	ModeReconnaissance ResolutionMode = "reconnaissance"
	ModeInspection     ResolutionMode = "inspection"
)

// ActionResult describes how one turn resolved: the mode taken, the
// outcome code, the raw payoffs and the state deltas that were applied,
// plus any information events (who learned what).
type ActionResult struct {
	Mode        ResolutionMode     `json:"mode"`
	OutcomeCode string             `json:"outcome_code"`
	PayoffA     float64            `json:"payoff_a"`
	PayoffB     float64            `json:"payoff_b"`
	Deltas      matrix.StateDeltas `json:"deltas"`
	Events      []string           `json:"events,omitempty"`
}

// TurnResult is the typed result of one submit call. Failures are
// descriptive and non-fatal: on Success == false nothing was mutated.
type TurnResult struct {
	Success   bool          `json:"success"`
	Result    *ActionResult `json:"result,omitempty"`
	Ending    *GameEnding   `json:"ending,omitempty"`
	Narrative string        `json:"narrative,omitempty"`
	Error     string        `json:"error,omitempty"`
}

func failedTurn(msg string) TurnResult {
	return TurnResult{Success: false, Error: msg}
}
