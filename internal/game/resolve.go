package game

import (
	"fmt"
	"strings"

	"github.com/brinkhaven/brinksmanship-server/internal/game/matrix"
	"go.uber.org/zap"
)

// Surplus mechanics: mutual cooperation grows the shared pool; a unilateral
// defection lets the defector capture half of it.
const (
	surplusGrowth          = 2.0
	exploitCaptureFraction = 0.5
)

// resolution is the outcome of dispatching one pair of actions, before any
// state has been touched. SubmitActions commits it in a single step.
type resolution struct {
	mode    ResolutionMode
	code    string
	payoffA float64
	payoffB float64
	deltas  matrix.StateDeltas
	classA  ActionClass
	classB  ActionClass

	// learnPosition/learnResources name the seats that gain a fresh
	// observation of their opponent during the apply step.
	learnPosition  []Seat
	learnResources []Seat

	events    []string
	narrative string

	// settlement is non-nil when both players proposed and the game ends
	// now. shareA is the negotiated fraction of the uncaptured surplus
	// going to player A.
	settlement bool
	shareA     float64
}

// SubmitActions resolves one full turn: validation, dispatch to exactly one
// resolution mode, atomic state update, ending checks in strict priority,
// and advancement. On any validation failure neither action is applied.
func (e *Engine) SubmitActions(actionA, actionB Action) TurnResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase == PhaseGameOver {
		return failedTurn("game is already over")
	}

	e.phase = PhaseDecision
	aA, errA := e.validateAction(SeatA, actionA)
	aB, errB := e.validateAction(SeatB, actionB)
	if errA != nil || errB != nil {
		e.phase = PhaseBriefing
		msgs := make([]string, 0, 2)
		if errA != nil {
			msgs = append(msgs, errA.Error())
		}
		if errB != nil {
			msgs = append(msgs, errB.Error())
		}
		return failedTurn(strings.Join(msgs, "; "))
	}

	cfg := e.turns[e.currentKey]

	e.phase = PhaseResolution
	res, err := e.dispatch(cfg, aA, aB)
	if err != nil {
		e.phase = PhaseBriefing
		return failedTurn(err.Error())
	}

	if res.settlement {
		return e.commitSettlement(cfg, aA, aB, res)
	}

	e.phase = PhaseStateUpdate
	next := applyResolution(e.state, res)

	e.phase = PhaseCheckDeterministic
	ending := checkDeterministicEnding(next)

	if ending == nil {
		e.phase = PhaseCheckCrisis
		if p := crisisProbability(next); p > 0 && e.rng.Float64() < p {
			vpA, vpB := FinalResolution(next, e.rng)
			ending = &GameEnding{
				Type: EndingCrisisTermination, VPA: vpA, VPB: vpB, Turn: next.Turn,
				Description: endingDescription(EndingCrisisTermination, next.Turn),
			}
		}
	}

	if ending == nil {
		e.phase = PhaseCheckNatural
		if next.Turn > next.MaxTurns {
			vpA, vpB := FinalResolution(next, e.rng)
			ending = &GameEnding{
				Type: EndingNatural, VPA: vpA, VPB: vpB, Turn: next.Turn,
				Description: endingDescription(EndingNatural, next.Turn),
			}
		}
	}

	// Commit: one atomic swap of the state plus history append.
	e.state = next
	e.history = append(e.history, TurnRecord{
		Turn:        next.Turn - 1,
		Key:         e.currentKey,
		ActionA:     aA,
		ActionB:     aB,
		Mode:        res.mode,
		OutcomeCode: res.code,
		Narrative:   res.narrative,
		StateAfter:  next.Clone(),
	})

	result := &ActionResult{
		Mode:        res.mode,
		OutcomeCode: res.code,
		PayoffA:     res.payoffA,
		PayoffB:     res.payoffB,
		Deltas:      res.deltas,
		Events:      res.events,
	}

	e.logger.Debug("turn resolved",
		zap.String("game_id", e.id),
		zap.String("mode", string(res.mode)),
		zap.String("outcome", res.code),
		zap.Int("turn", next.Turn),
		zap.Float64("risk", next.RiskLevel),
		zap.Float64("stability", next.Stability),
	)

	if ending != nil {
		e.ending = ending
		e.phase = PhaseGameOver
		endingCopy := *ending
		e.logger.Info("game ended",
			zap.String("game_id", e.id),
			zap.String("ending", string(ending.Type)),
			zap.Float64("vp_a", ending.VPA),
			zap.Float64("vp_b", ending.VPB),
		)
		return TurnResult{Success: true, Result: result, Ending: &endingCopy, Narrative: res.narrative}
	}

	e.phase = PhaseAdvance
	if nk := cfg.nextKey(res.code); nk != "" {
		if _, ok := e.turns[nk]; ok {
			e.currentKey = nk
		} else {
			e.logger.Warn("branch target missing, holding current turn key",
				zap.String("game_id", e.id),
				zap.String("target", nk),
			)
		}
	}
	e.phase = PhaseBriefing

	return TurnResult{Success: true, Result: result, Narrative: res.narrative}
}

// dispatch selects exactly one resolution mode for the action pair, in the
// documented priority: settlement, reconnaissance, inspection, standard.
func (e *Engine) dispatch(cfg TurnConfiguration, aA, aB Action) (resolution, error) {
	switch {
	case aA.Category == CategorySettlement && aB.Category == CategorySettlement:
		return resolution{
			mode: ModeSettlement, settlement: true,
			classA: aA.Class, classB: aB.Class,
			shareA: negotiatedShare(aA.SurplusShare, aB.SurplusShare),
		}, nil
	case aA.Category == CategorySettlement || aB.Category == CategorySettlement:
		return failedNegotiation(aA, aB), nil
	case aA.Category == CategoryReconnaissance || aB.Category == CategoryReconnaissance:
		return resolveReconnaissance(aA, aB), nil
	case aA.Category == CategoryInspection || aB.Category == CategoryInspection:
		return resolveInspection(aA, aB), nil
	default:
		return resolveStandard(cfg, aA, aB)
	}
}

// resolveStandard plays the turn's configured matrix.
func resolveStandard(cfg TurnConfiguration, aA, aB Action) (resolution, error) {
	m, err := cfg.buildMatrix()
	if err != nil {
		return resolution{}, err
	}
	row := aA.Class.matrixIndex()
	col := aB.Class.matrixIndex()
	cell := m.Cell(row, col)
	code := matrix.OutcomeCode(row, col)
	return resolution{
		mode:      ModeStandard,
		code:      code,
		payoffA:   cell.PayoffA,
		payoffB:   cell.PayoffB,
		deltas:    cell.Deltas,
		classA:    aA.Class,
		classB:    aB.Class,
		narrative: cfg.outcomeNarrative(code),
	}, nil
}

// failedNegotiation handles a one-sided settlement proposal: the table
// reads it as weakness, risk rises, and the game continues.
func failedNegotiation(aA, aB Action) resolution {
	deltas, err := matrix.NewStateDeltas(0, 0, 0, 0, failedSettlementRisk)
	if err != nil {
		panic(err) // fixed literal inside documented bounds
	}
	proposer := SeatA
	if aB.Category == CategorySettlement {
		proposer = SeatB
	}
	return resolution{
		mode:      ModeSettlement,
		code:      matrix.OutcomeCode(aA.Class.matrixIndex(), aB.Class.matrixIndex()),
		deltas:    deltas,
		classA:    aA.Class,
		classB:    aB.Class,
		events:    []string{fmt.Sprintf("player %s proposed a settlement; the proposal died on the table", proposer)},
		narrative: "A settlement was floated and rejected. Positions hardened.",
	}
}

// resolveReconnaissance plays the fixed Probe/Mask vs Vigilant/Project
// information game. The initiator is whichever seat submitted the
// reconnaissance action; if both did, player A initiates. The initiator
// pays the fixed cost regardless of outcome.
func resolveReconnaissance(aA, aB Action) resolution {
	initiator := SeatA
	if aA.Category != CategoryReconnaissance {
		initiator = SeatB
	}
	responder := initiator.Opponent()

	initiatorAct, responderAct := aA, aB
	if initiator == SeatB {
		initiatorAct, responderAct = aB, aA
	}

	probing := initiatorAct.Class == ClassCompetitive
	vigilant := responderAct.Class == ClassCompetitive

	var resCostA, resCostB float64
	if initiator == SeatA {
		resCostA = reconCost
	} else {
		resCostB = reconCost
	}

	res := resolution{
		mode:   ModeReconnaissance,
		code:   matrix.OutcomeCode(aA.Class.matrixIndex(), aB.Class.matrixIndex()),
		classA: aA.Class,
		classB: aB.Class,
	}

	var risk float64
	switch {
	case probing && vigilant:
		risk = reconDetectedRisk
		res.events = []string{
			fmt.Sprintf("player %s's probe was detected", initiator),
			fmt.Sprintf("player %s knows they were probed", responder),
		}
		res.narrative = "The probe ran into a prepared screen and was burned."
	case probing && !vigilant:
		res.learnPosition = []Seat{initiator}
		res.events = []string{fmt.Sprintf("player %s learned player %s's exact position", initiator, responder)}
		res.narrative = "The probe slipped through and came back with a clear picture."
	case !probing && vigilant:
		res.narrative = "Both sides kept their cards close. Nothing moved."
	default: // mask + project
		res.learnPosition = []Seat{responder}
		res.events = []string{fmt.Sprintf("player %s read player %s's posture through the feint", responder, initiator)}
		res.narrative = "The feint told the other side more than it hid."
	}

	deltas, err := matrix.NewStateDeltas(0, 0, resCostA, resCostB, risk)
	if err != nil {
		panic(err) // fixed literals inside documented bounds
	}
	res.deltas = deltas
	return res
}

// resolveInspection plays the inspection sub-game: the initiator always
// inspects, the target complies or cheats by classification. Either way
// the inspector learns the target's exact resources.
func resolveInspection(aA, aB Action) resolution {
	inspector := SeatA
	if aA.Category != CategoryInspection {
		inspector = SeatB
	}
	target := inspector.Opponent()

	targetAct := aB
	if target == SeatA {
		targetAct = aA
	}
	cheating := targetAct.Class == ClassCompetitive

	var resCostA, resCostB, posA, posB, risk float64
	if inspector == SeatA {
		resCostA = inspectionCost
	} else {
		resCostB = inspectionCost
	}

	res := resolution{
		mode:           ModeInspection,
		code:           matrix.OutcomeCode(aA.Class.matrixIndex(), aB.Class.matrixIndex()),
		classA:         aA.Class,
		classB:         aB.Class,
		learnResources: []Seat{inspector},
		events:         []string{fmt.Sprintf("player %s learned player %s's exact resources", inspector, target)},
	}

	if cheating {
		risk = cheatRiskIncrease
		if target == SeatA {
			posA = -cheatPositionPenalty
		} else {
			posB = -cheatPositionPenalty
		}
		res.events = append(res.events, fmt.Sprintf("player %s was caught concealing", target))
		res.narrative = "The inspection caught a concealment effort red-handed."
	} else {
		res.narrative = "The inspection went through cleanly; the books were open."
	}

	deltas, err := matrix.NewStateDeltas(posA, posB, resCostA, resCostB, risk)
	if err != nil {
		panic(err) // fixed literals inside documented bounds
	}
	res.deltas = deltas
	return res
}

// negotiatedShare combines two settlement proposals into player A's share
// of the uncaptured surplus pool. Each proposal is the proposer's own
// requested share; the midpoint of the two implied splits is used. A nil
// proposal reads as an even split, an explicit zero is honored as given.
func negotiatedShare(proposalA, proposalB *float64) float64 {
	requestA, requestB := 0.5, 0.5
	if proposalA != nil {
		requestA = *proposalA
	}
	if proposalB != nil {
		requestB = *proposalB
	}
	return clampFloat((requestA+(1-requestB))/2, 0, 1)
}

// commitSettlement ends the game by negotiation. The VP split follows
// relative position, adjusted by the cooperation bonus, clamped to [5,95];
// the surplus pool is divided by the negotiated share independently of the
// VP split and locked in on top.
func (e *Engine) commitSettlement(cfg TurnConfiguration, aA, aB Action, res resolution) TurnResult {
	next := e.state.Clone()

	baseA, _ := ExpectedVP(next)
	bonus := (next.CooperationScore - defaultCoop) * 2

	// The bonus narrows the gap when cooperation ran high and widens it
	// when it ran low, applied to the disadvantaged side.
	var vpA, vpB float64
	if baseA <= 50 {
		vpA = clampFloat(baseA+bonus, vpFloor, vpCeil)
		vpB = 100 - vpA
	} else {
		vpB = clampFloat((100-baseA)+bonus, vpFloor, vpCeil)
		vpA = 100 - vpB
	}

	pool := next.CooperationSurplus
	next.SurplusCapturedA += pool * res.shareA
	next.SurplusCapturedB += pool * (1 - res.shareA)
	next.CooperationSurplus = 0

	ending := &GameEnding{
		Type: EndingSettlement,
		VPA:  vpA + next.SurplusCapturedA,
		VPB:  vpB + next.SurplusCapturedB,
		Turn: next.Turn,
		Description: fmt.Sprintf("Settled on turn %d: %.0f/%.0f split of the table, %.0f%% of the surplus to A.",
			next.Turn, vpA, vpB, res.shareA*100),
	}

	narrative := "Both sides came to the table and a settlement held."
	e.state = next
	e.ending = ending
	e.phase = PhaseGameOver
	e.history = append(e.history, TurnRecord{
		Turn:        next.Turn,
		Key:         e.currentKey,
		ActionA:     aA,
		ActionB:     aB,
		Mode:        ModeSettlement,
		OutcomeCode: "CC",
		Narrative:   narrative,
		StateAfter:  next.Clone(),
	})

	e.logger.Info("game settled",
		zap.String("game_id", e.id),
		zap.Float64("vp_a", ending.VPA),
		zap.Float64("vp_b", ending.VPB),
		zap.Float64("surplus_share_a", res.shareA),
	)

	endingCopy := *ending
	result := &ActionResult{Mode: ModeSettlement, OutcomeCode: "CC", Events: res.events}
	return TurnResult{Success: true, Result: result, Ending: &endingCopy, Narrative: narrative}
}

// applyResolution produces the successor state from the previous one plus
// a resolution: deltas scaled and clamped, shared scores adjusted,
// observations recorded, turn advanced. The input state is not mutated.
func applyResolution(prev GameState, res resolution) GameState {
	next := prev.Clone()
	mult := next.ActMultiplier()

	pa := next.player(SeatA)
	pb := next.player(SeatB)

	// Position deltas scale with the act; resource costs do not.
	pa.setPosition(pa.Position + res.deltas.PosA*mult)
	pb.setPosition(pb.Position + res.deltas.PosB*mult)
	pa.setResources(pa.Resources - res.deltas.ResCostA)
	pb.setResources(pb.Resources - res.deltas.ResCostB)
	next.setRiskLevel(next.RiskLevel + res.deltas.RiskDelta*mult)

	switch res.code {
	case "CC":
		next.setCooperationScore(next.CooperationScore + 1)
	case "DD":
		next.setCooperationScore(next.CooperationScore - 1)
	}

	// Surplus only moves through the standard matrix: mutual cooperation
	// feeds the pool, a unilateral defection raids it.
	if res.mode == ModeStandard {
		switch res.code {
		case "CC":
			next.CooperationSurplus += surplusGrowth
		case "DC":
			captured := next.CooperationSurplus * exploitCaptureFraction
			next.SurplusCapturedA += captured
			next.CooperationSurplus -= captured
		case "CD":
			captured := next.CooperationSurplus * exploitCaptureFraction
			next.SurplusCapturedB += captured
			next.CooperationSurplus -= captured
		}
	}

	// Stability: decay toward the midpoint, then adjust by how many
	// players changed their stripes this turn.
	switches := 0
	if pa.PreviousAction != ClassNone && pa.PreviousAction != res.classA {
		switches++
	}
	if pb.PreviousAction != ClassNone && pb.PreviousAction != res.classB {
		switches++
	}
	stability := next.Stability*0.8 + 1.0
	switch switches {
	case 0:
		stability += 1.5
	case 1:
		stability -= 3.5
	default:
		stability -= 5.5
	}
	next.setStability(stability)

	// Fresh observations are stamped with the turn they were made on,
	// before the turn counter advances.
	for _, observer := range res.learnPosition {
		opp := next.Player(observer.Opponent())
		next.player(observer).Information.observePosition(opp.Position, next.Turn)
	}
	for _, observer := range res.learnResources {
		opp := next.Player(observer.Opponent())
		next.player(observer).Information.observeResources(opp.Resources, next.Turn)
	}

	next.Turn++
	pa.PreviousAction = res.classA
	pb.PreviousAction = res.classB

	return next
}
