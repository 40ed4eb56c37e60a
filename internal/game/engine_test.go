package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinkhaven/brinksmanship-server/internal/game/matrix"
)

// pdTurns builds a minimal looping turn set around the Prisoner's Dilemma
// defaults, with settlement optionally on the table.
func pdTurns(t *testing.T, settlement bool) map[string]TurnConfiguration {
	t.Helper()
	params, err := matrix.DefaultParameters(matrix.TypePrisonersDilemma)
	require.NoError(t, err)
	return map[string]TurnConfiguration{
		"1": {
			Key:                 "1",
			TurnNumber:          1,
			Narrative:           "Talks open under pressure.",
			MatrixType:          "pd",
			MatrixParams:        params,
			DefaultNext:         "1",
			SettlementAvailable: settlement,
		},
	}
}

func newTestEngine(t *testing.T, turns map[string]TurnConfiguration, seed int64) *Engine {
	t.Helper()
	e, err := NewEngine(Config{
		GameID:   "test",
		Turns:    turns,
		StartKey: "1",
		Seed:     seed,
		MaxTurns: 14,
	})
	require.NoError(t, err)
	return e
}

func TestNewEngine_ValidatesMatricesUpFront(t *testing.T) {
	turns := pdTurns(t, false)
	tc := turns["1"]
	tc.MatrixParams.Payoffs["reward"] = 99 // breaks temptation > reward
	turns["1"] = tc

	_, err := NewEngine(Config{GameID: "bad", Turns: turns, StartKey: "1", Seed: 1})
	require.Error(t, err)
	var cerr *matrix.ConstraintError
	assert.ErrorAs(t, err, &cerr)
}

func TestSubmitActions_MutualCooperationEndToEnd(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, false), 11)

	result := e.SubmitActions(actionCatalog["accommodate"], actionCatalog["accommodate"])
	require.True(t, result.Success, result.Error)
	require.NotNil(t, result.Result)

	assert.Equal(t, ModeStandard, result.Result.Mode)
	assert.Equal(t, "CC", result.Result.OutcomeCode)
	assert.Nil(t, result.Ending)

	state := e.CurrentState()
	assert.InDelta(t, 6.0, state.CooperationScore, 1e-9)
	assert.Equal(t, 2, state.Turn)
	assert.False(t, e.IsOver())
	assert.Len(t, e.History(), 1)
}

func TestSubmitActions_RejectedAfterGameOver(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, true), 3)
	settle := actionCatalog["settle"]

	result := e.SubmitActions(settle, settle)
	require.True(t, result.Success)
	require.NotNil(t, result.Ending)
	require.True(t, e.IsOver())

	after := e.SubmitActions(actionCatalog["accommodate"], actionCatalog["accommodate"])
	assert.False(t, after.Success)
	assert.Contains(t, after.Error, "already over")
	assert.Len(t, e.History(), 1, "no turn may resolve after the ending")
}

func TestSubmitActions_ValidationFailureMutatesNothing(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, false), 5)
	before := e.CurrentState()

	result := e.SubmitActions(Action{ID: "bribe"}, actionCatalog["escalate"])
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "unknown action")

	after := e.CurrentState()
	assert.Equal(t, before, after, "failed validation must not touch state")
	assert.Empty(t, e.History())
	assert.Equal(t, PhaseBriefing, e.Phase())
}

func TestSubmitActions_BothFailuresReported(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, false), 5)

	result := e.SubmitActions(Action{ID: "bribe"}, Action{ID: "settle"})
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "player A")
	assert.Contains(t, result.Error, "player B")
}

func TestSubmitActions_UnaffordableInformationPlay(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, false), 5)
	e.state.Turn = 3
	e.state.PlayerA.Resources = 0.2 // below the recon cost

	result := e.SubmitActions(actionCatalog["recon_probe"], actionCatalog["accommodate"])
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "cannot afford")
}

func TestSettlement_BothProposeEndsGame(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, true), 9)
	e.state.PlayerA.Position = 6
	e.state.PlayerB.Position = 4
	e.state.CooperationScore = 7
	e.state.CooperationSurplus = 8

	shareA, shareB := 0.75, 0.25
	proposalA := actionCatalog["settle"]
	proposalA.SurplusShare = &shareA
	proposalB := actionCatalog["settle"]
	proposalB.SurplusShare = &shareB

	result := e.SubmitActions(proposalA, proposalB)
	require.True(t, result.Success, result.Error)
	require.NotNil(t, result.Ending)
	assert.Equal(t, EndingSettlement, result.Ending.Type)

	// Base 60/40 narrowed by the cooperation bonus (7-5)*2 = 4 on the
	// disadvantaged side, then the 75/25 surplus split on top.
	assert.InDelta(t, 56.0+6.0, result.Ending.VPA, 1e-9)
	assert.InDelta(t, 44.0+2.0, result.Ending.VPB, 1e-9)
	assert.Equal(t, 0.0, e.CurrentState().CooperationSurplus, "the pool is spent")
}

func TestSettlement_ZeroShareProposalIsHonored(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, true), 9)
	e.state.CooperationSurplus = 8

	zero, all := 0.0, 1.0
	proposalA := actionCatalog["settle"]
	proposalA.SurplusShare = &zero
	proposalB := actionCatalog["settle"]
	proposalB.SurplusShare = &all

	result := e.SubmitActions(proposalA, proposalB)
	require.True(t, result.Success, result.Error)
	require.NotNil(t, result.Ending)

	// A asked for none of the pool and B asked for all of it. A zero
	// proposal must stand on its own, not fall back to the even split.
	assert.InDelta(t, 50.0, result.Ending.VPA, 1e-9)
	assert.InDelta(t, 58.0, result.Ending.VPB, 1e-9)
}

func TestSettlement_OneSidedRaisesRisk(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, true), 9)
	riskBefore := e.CurrentState().RiskLevel

	result := e.SubmitActions(actionCatalog["settle"], actionCatalog["escalate"])
	require.True(t, result.Success, result.Error)
	assert.Nil(t, result.Ending, "a failed negotiation does not end the game")

	state := e.CurrentState()
	mult := 0.7 // turn 1, act I
	assert.InDelta(t, riskBefore+failedSettlementRisk*mult, state.RiskLevel, 1e-9)
	assert.Equal(t, 2, state.Turn)
}

func TestSettlement_UnavailableThisTurn(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, false), 9)
	result := e.SubmitActions(actionCatalog["settle"], actionCatalog["settle"])
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "not on the table")
}

func TestReconnaissance_ProbeVersusProject(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, false), 9)
	e.state.Turn = 3
	e.state.PlayerB.Position = 7.3
	resourcesBefore := e.state.PlayerA.Resources

	// Probe against a cooperative (projecting) responder: A learns B's
	// exact position, stamped with the turn it was observed.
	result := e.SubmitActions(actionCatalog["recon_probe"], actionCatalog["accommodate"])
	require.True(t, result.Success, result.Error)
	assert.Equal(t, ModeReconnaissance, result.Result.Mode)

	info := e.Information(SeatA)
	require.NotNil(t, info.Position)
	assert.Equal(t, 7.3, info.Position.Value)
	assert.Equal(t, 3, info.Position.ObservedTurn)

	// The initiator pays the fixed cost regardless of outcome.
	assert.InDelta(t, resourcesBefore-reconCost, e.CurrentState().PlayerA.Resources, 1e-9)
}

func TestReconnaissance_ProbeDetectedByVigilance(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, false), 9)
	e.state.Turn = 3
	riskBefore := e.state.RiskLevel

	// A competitive responder is vigilant: the probe burns, risk rises,
	// and nobody gains position intelligence.
	result := e.SubmitActions(actionCatalog["recon_probe"], actionCatalog["escalate"])
	require.True(t, result.Success, result.Error)

	assert.Nil(t, e.Information(SeatA).Position)
	assert.Nil(t, e.Information(SeatB).Position)
	mult := 0.7 // turn 3, act I
	assert.InDelta(t, riskBefore+reconDetectedRisk*mult, e.CurrentState().RiskLevel, 1e-9)
}

func TestReconnaissance_MaskReadByProjection(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, false), 9)
	e.state.Turn = 3
	e.state.PlayerA.Position = 6.1

	// Mask against a projecting responder: the feint leaks, and the
	// responder learns the initiator's position instead.
	result := e.SubmitActions(actionCatalog["recon_mask"], actionCatalog["accommodate"])
	require.True(t, result.Success, result.Error)

	assert.Nil(t, e.Information(SeatA).Position)
	info := e.Information(SeatB)
	require.NotNil(t, info.Position)
	assert.Equal(t, 6.1, info.Position.Value)
}

func TestInspection_ComplyAndCheat(t *testing.T) {
	// Comply: the inspector learns resources, nothing else moves.
	e := newTestEngine(t, pdTurns(t, false), 9)
	e.state.Turn = 3
	e.state.PlayerB.Resources = 4.4

	result := e.SubmitActions(actionCatalog["inspect"], actionCatalog["accommodate"])
	require.True(t, result.Success, result.Error)
	assert.Equal(t, ModeInspection, result.Result.Mode)

	info := e.Information(SeatA)
	require.NotNil(t, info.Resources)
	assert.Equal(t, 4.4, info.Resources.Value)
	assert.Nil(t, info.Position, "inspection reveals resources, not position")

	// Cheat: the inspector still learns resources; the target takes the
	// position penalty and the shared risk increase.
	e = newTestEngine(t, pdTurns(t, false), 9)
	e.state.Turn = 3
	positionBefore := e.state.PlayerB.Position
	riskBefore := e.state.RiskLevel

	result = e.SubmitActions(actionCatalog["inspect"], actionCatalog["escalate"])
	require.True(t, result.Success, result.Error)
	require.NotNil(t, e.Information(SeatA).Resources)

	state := e.CurrentState()
	mult := 0.7
	assert.InDelta(t, positionBefore-cheatPositionPenalty*mult, state.PlayerB.Position, 1e-9)
	assert.InDelta(t, riskBefore+cheatRiskIncrease*mult, state.RiskLevel, 1e-9)
}

func TestDeterministicEndings_PriorityOrder(t *testing.T) {
	s, err := NewGameState(12)
	require.NoError(t, err)

	// Mutual destruction outranks everything, even a simultaneous collapse.
	s.RiskLevel = 10
	s.PlayerA.Position = 0
	ending := checkDeterministicEnding(s)
	require.NotNil(t, ending)
	assert.Equal(t, EndingMutualDestruction, ending.Type)
	assert.Equal(t, 20.0, ending.VPA)
	assert.Equal(t, 20.0, ending.VPB)

	// Both positions at zero: A's collapse resolves first by check order.
	s.RiskLevel = 5
	s.PlayerA.Position = 0
	s.PlayerB.Position = 0
	ending = checkDeterministicEnding(s)
	require.NotNil(t, ending)
	assert.Equal(t, EndingPositionCollapse, ending.Type)
	assert.Equal(t, 10.0, ending.VPA)
	assert.Equal(t, 90.0, ending.VPB)

	// Position collapse outranks resource exhaustion.
	s.PlayerA.Position = 5
	s.PlayerB.Position = 0
	s.PlayerA.Resources = 0
	ending = checkDeterministicEnding(s)
	require.NotNil(t, ending)
	assert.Equal(t, EndingPositionCollapse, ending.Type)
	assert.Equal(t, 90.0, ending.VPA)

	// Resource exhaustion, A before B.
	s.PlayerB.Position = 5
	s.PlayerB.Resources = 0
	ending = checkDeterministicEnding(s)
	require.NotNil(t, ending)
	assert.Equal(t, EndingResourceExhaustion, ending.Type)
	assert.Equal(t, 15.0, ending.VPA)
	assert.Equal(t, 85.0, ending.VPB)

	// A healthy state has no deterministic ending.
	healthy, err := NewGameState(12)
	require.NoError(t, err)
	assert.Nil(t, checkDeterministicEnding(healthy))
}

func TestNaturalEnding_AfterMaxTurns(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, false), 21)
	require.Equal(t, 14, e.CurrentState().MaxTurns)

	var ending *GameEnding
	for i := 0; i < 14; i++ {
		result := e.SubmitActions(actionCatalog["accommodate"], actionCatalog["accommodate"])
		require.True(t, result.Success, result.Error)
		if result.Ending != nil {
			ending = result.Ending
			break
		}
	}
	require.NotNil(t, ending, "game must end once turn exceeds max turns")
	assert.Equal(t, EndingNatural, ending.Type)
	assert.True(t, e.IsOver())

	// Mutual cooperators never captured the pool: base VP still sums to
	// 100 and the grown surplus is forfeited.
	assert.InDelta(t, 100.0, ending.VPA+ending.VPB, 1e-9)
	assert.Greater(t, e.CurrentState().CooperationSurplus, 0.0)
}

func TestEngine_DeterministicReplay(t *testing.T) {
	run := func() *GameEnding {
		e := newTestEngine(t, pdTurns(t, false), 777)
		for !e.IsOver() {
			result := e.SubmitActions(actionCatalog["escalate"], actionCatalog["accommodate"])
			require.True(t, result.Success, result.Error)
			if result.Ending != nil {
				return result.Ending
			}
		}
		return e.Ending()
	}
	first := run()
	second := run()
	require.NotNil(t, first)
	assert.Equal(t, *first, *second, "identical seed and actions must replay identically")
}

func TestBranchTargets_SelectNextTurn(t *testing.T) {
	params, err := matrix.DefaultParameters(matrix.TypePrisonersDilemma)
	require.NoError(t, err)
	turns := map[string]TurnConfiguration{
		"open": {
			Key: "open", MatrixType: "pd", MatrixParams: params,
			Narrative:     "Opening.",
			BranchTargets: map[string]string{"DD": "crisis"},
			DefaultNext:   "calm",
		},
		"crisis": {Key: "crisis", MatrixType: "chicken", MatrixParams: mustDefaults(t, matrix.TypeChicken), Narrative: "Crisis track."},
		"calm":   {Key: "calm", MatrixType: "stag_hunt", MatrixParams: mustDefaults(t, matrix.TypeStagHunt), Narrative: "Calm track."},
	}

	e, err := NewEngine(Config{GameID: "branch", Turns: turns, StartKey: "open", Seed: 1, MaxTurns: 12})
	require.NoError(t, err)
	result := e.SubmitActions(actionCatalog["escalate"], actionCatalog["escalate"])
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "Crisis track.", e.Briefing())

	e, err = NewEngine(Config{GameID: "branch2", Turns: turns, StartKey: "open", Seed: 1, MaxTurns: 12})
	require.NoError(t, err)
	result = e.SubmitActions(actionCatalog["accommodate"], actionCatalog["accommodate"])
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "Calm track.", e.Briefing())
}

func mustDefaults(t *testing.T, gt matrix.GameType) matrix.Parameters {
	t.Helper()
	p, err := matrix.DefaultParameters(gt)
	require.NoError(t, err)
	return p
}

func TestAvailableActions_FiltersByTurnAndAffordability(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, false), 9)

	ids := func(actions []Action) []string {
		out := make([]string, len(actions))
		for i, a := range actions {
			out[i] = a.ID
		}
		return out
	}

	// Opening turn: no information plays yet.
	menu := ids(e.AvailableActions(SeatA))
	assert.NotContains(t, menu, "recon_probe")
	assert.NotContains(t, menu, "inspect")
	assert.NotContains(t, menu, "settle")

	e.state.Turn = 3
	menu = ids(e.AvailableActions(SeatA))
	assert.Contains(t, menu, "recon_probe")
	assert.Contains(t, menu, "inspect")

	// Broke players lose the information plays.
	e.state.PlayerA.Resources = 0.1
	menu = ids(e.AvailableActions(SeatA))
	assert.NotContains(t, menu, "recon_probe")
	assert.NotContains(t, menu, "inspect")
	assert.Contains(t, menu, "accommodate")
	assert.Contains(t, menu, "escalate")
}

func TestHistorySnapshots_StayValid(t *testing.T) {
	e := newTestEngine(t, pdTurns(t, false), 9)
	result := e.SubmitActions(actionCatalog["accommodate"], actionCatalog["accommodate"])
	require.True(t, result.Success)

	history := e.History()
	require.Len(t, history, 1)
	recorded := history[0].StateAfter.CooperationScore

	// Later turns must not reach back into earlier snapshots.
	result = e.SubmitActions(actionCatalog["escalate"], actionCatalog["escalate"])
	require.True(t, result.Success)
	assert.Equal(t, recorded, history[0].StateAfter.CooperationScore)
}
