package scenario

import (
	"strconv"

	"github.com/brinkhaven/brinksmanship-server/internal/game"
	"github.com/brinkhaven/brinksmanship-server/internal/game/matrix"
)

// defaultTurnOrder plays every supported matrix type exactly once, escalating
// from coordination toward brinkmanship as the acts advance.
var defaultTurnOrder = []struct {
	matrixType matrix.GameType
	narrative  string
}{
	{matrix.TypeHarmony, "Opening overtures. Both capitals signal room for agreement."},
	{matrix.TypePureCoordination, "Working groups meet to fix a common protocol."},
	{matrix.TypeStagHunt, "A joint initiative is on the table, if both sides commit."},
	{matrix.TypeBattleOfTheSexes, "Two venues, one summit. Someone has to travel."},
	{matrix.TypeLeader, "A window opens for one side to move first."},
	{matrix.TypePrisonersDilemma, "Quiet incentives to defect creep into the talks."},
	{matrix.TypeSecurityDilemma, "Defensive preparations read as mobilization."},
	{matrix.TypeReconnaissance, "Intelligence services press for a clearer picture."},
	{matrix.TypeInspectionGame, "A verification regime is proposed, and resented."},
	{matrix.TypeMatchingPennies, "Feint and counter-feint over the next move."},
	{matrix.TypeVolunteersDilemma, "Someone must absorb the cost of de-escalating."},
	{matrix.TypeDeadlock, "Neither side sees anything left to trade."},
	{matrix.TypeWarOfAttrition, "Both sides dig in and start burning reserves."},
	{matrix.TypeChicken, "Final positioning. The first to blink concedes the table."},
}

// Default returns the built-in scenario: fourteen sequential turns covering
// all fourteen matrix types with their documented default parameters.
// Settlement comes on the table from the second act onward.
func Default() *Scenario {
	turns := make([]game.TurnConfiguration, 0, len(defaultTurnOrder))
	for i, t := range defaultTurnOrder {
		params, err := matrix.DefaultParameters(t.matrixType)
		if err != nil {
			// The order table only names registered types.
			panic(err)
		}
		turns = append(turns, game.TurnConfiguration{
			Key:                 strconv.Itoa(i + 1),
			TurnNumber:          i + 1,
			Narrative:           t.narrative,
			MatrixType:          string(t.matrixType),
			MatrixParams:        params,
			SettlementAvailable: i+1 >= 5,
		})
	}
	s := &Scenario{
		Name:        "default",
		Description: "Built-in fourteen-turn confrontation covering every matrix type.",
		StartKey:    "1",
		Turns:       turns,
	}
	if err := Validate(s); err != nil {
		panic(err)
	}
	return s
}
