package matrix

// registry holds the closed set of (validate, cells, defaults) triples.
// Adding a variant is a local change here plus its alias table entries.
var registry = map[GameType]constructor{
	TypePrisonersDilemma:  pdConstructor(TypePrisonersDilemma, pdDefaults),
	TypeSecurityDilemma:   pdConstructor(TypeSecurityDilemma, securityDefaults),
	TypeDeadlock:          {validate: deadlockValidate, cells: pdCells, defaults: deadlockDefaults},
	TypeHarmony:           {validate: harmonyValidate, cells: pdCells, defaults: harmonyDefaults},
	TypeChicken:           {validate: chickenValidate, cells: pdCells, defaults: chickenDefaults},
	TypeVolunteersDilemma: {validate: volunteerValidate, cells: volunteerCells, defaults: volunteerDefaults},
	TypeWarOfAttrition:    {validate: attritionValidate, cells: attritionCells, defaults: attritionDefaults},
	TypePureCoordination:  {validate: coordinationValidate, cells: coordinationCells, defaults: coordinationDefaults},
	TypeStagHunt:          {validate: stagHuntValidate, cells: stagHuntCells, defaults: stagHuntDefaults},
	TypeBattleOfTheSexes:  {validate: bosValidate, cells: bosCells, defaults: bosDefaults},
	TypeLeader:            {validate: leaderValidate, cells: leaderCells, defaults: leaderDefaults},
	TypeMatchingPennies:   {validate: penniesValidate, cells: penniesCells, defaults: penniesDefaults},
	TypeInspectionGame:    {validate: inspectionValidate, cells: inspectionCells, defaults: inspectionDefaults},
	TypeReconnaissance:    {validate: reconValidate, cells: reconCells, defaults: reconDefaults},
}

// params is shorthand for building a default Parameters record.
func params(payoffs map[string]float64) Parameters {
	return Parameters{Scale: 1.0, Weights: DefaultWeights(), Payoffs: payoffs}
}

// mustPayoff reads a payoff that validate has already proven present.
func mustPayoff(p Parameters, key string) float64 {
	v, err := p.payoff(key)
	if err != nil {
		// Unreachable after validate; cells is only called post-validation.
		panic(err)
	}
	return v
}

// ---- Dominant-strategy family: Prisoner's Dilemma, Security Dilemma,
// ---- Deadlock, Harmony. All share the temptation/reward/punishment/sucker
// ---- cell layout and differ only in the required ordering.

// pdCells lays out the symmetric T/R/P/S grid. Risk contributions reward
// mutual cooperation and punish mutual defection.
func pdCells(p Parameters) cellGrid {
	t := mustPayoff(p, "temptation")
	r := mustPayoff(p, "reward")
	pu := mustPayoff(p, "punishment")
	s := mustPayoff(p, "sucker")
	return cellGrid{
		{a: r, b: r, risk: -0.5},
		{a: s, b: t, risk: 0.8},
		{a: t, b: s, risk: 0.8},
		{a: pu, b: pu, risk: 1.6},
	}
}

func pdConstructor(t GameType, defaults func() Parameters) constructor {
	return constructor{
		validate: func(p Parameters) error {
			// Defection strictly dominant, mutual cooperation efficient.
			return requireDescending(t, p, "temptation", "reward", "punishment", "sucker")
		},
		cells:    pdCells,
		defaults: defaults,
	}
}

func pdDefaults() Parameters {
	return params(map[string]float64{"temptation": 4.0, "reward": 2.4, "punishment": 0.0, "sucker": -1.6})
}

// securityDefaults mirrors the Prisoner's Dilemma with an arms-race flavor:
// same ordinal structure, hotter payoff spread.
func securityDefaults() Parameters {
	return params(map[string]float64{"temptation": 3.6, "reward": 2.0, "punishment": -0.4, "sucker": -2.0})
}

func deadlockValidate(p Parameters) error {
	// Mutual defection preferred to mutual cooperation: DD is the unique
	// dominant-strategy equilibrium and it is efficient.
	return requireDescending(TypeDeadlock, p, "temptation", "punishment", "reward", "sucker")
}

func deadlockDefaults() Parameters {
	return params(map[string]float64{"temptation": 3.0, "punishment": 2.0, "reward": 1.0, "sucker": -1.0})
}

func harmonyValidate(p Parameters) error {
	// Cooperation strictly dominant: CC is the unique equilibrium.
	return requireDescending(TypeHarmony, p, "reward", "temptation", "sucker", "punishment")
}

func harmonyDefaults() Parameters {
	return params(map[string]float64{"reward": 3.0, "temptation": 2.0, "sucker": 0.5, "punishment": -0.5})
}

// ---- Anti-coordination family: Chicken, Volunteer's Dilemma,
// ---- War of Attrition. Pure equilibria sit off the diagonal.

func chickenValidate(p Parameters) error {
	// Mutual defection is the worst cell, so each player wants to defect
	// exactly when the other swerves: CD and DC are the pure equilibria.
	return requireDescending(TypeChicken, p, "temptation", "reward", "sucker", "punishment")
}

func chickenDefaults() Parameters {
	return params(map[string]float64{"temptation": 3.2, "reward": 1.6, "sucker": -0.8, "punishment": -3.0})
}

func volunteerValidate(p Parameters) error {
	benefit, err := p.payoff("benefit")
	if err != nil {
		return err
	}
	cost, err := p.payoff("cost")
	if err != nil {
		return err
	}
	disaster, err := p.payoff("disaster")
	if err != nil {
		return err
	}
	// Volunteering must be costly but still better than nobody acting.
	if cost <= 0 || benefit-cost <= disaster {
		return &ConstraintError{
			Type:        TypeVolunteersDilemma,
			Requirement: "cost > 0 and benefit - cost > disaster",
			Values:      map[string]float64{"benefit": benefit, "cost": cost, "disaster": disaster},
		}
	}
	return nil
}

func volunteerCells(p Parameters) cellGrid {
	benefit := mustPayoff(p, "benefit")
	cost := mustPayoff(p, "cost")
	disaster := mustPayoff(p, "disaster")
	return cellGrid{
		{a: benefit - cost, b: benefit - cost, risk: -0.3},
		{a: benefit - cost, b: benefit, risk: 0.2},
		{a: benefit, b: benefit - cost, risk: 0.2},
		{a: disaster, b: disaster, risk: 2.0},
	}
}

func volunteerDefaults() Parameters {
	return params(map[string]float64{"benefit": 3.0, "cost": 1.2, "disaster": -3.0})
}

func attritionValidate(p Parameters) error {
	if err := requirePositive(TypeWarOfAttrition, p, "prize"); err != nil {
		return err
	}
	prize := mustPayoff(p, "prize")
	cost, err := p.payoff("cost")
	if err != nil {
		return err
	}
	// Attrition must burn more than half the prize, so mutual escalation
	// is strictly worse than conceding.
	if cost <= prize/2 {
		return &ConstraintError{
			Type:        TypeWarOfAttrition,
			Requirement: "cost > prize/2",
			Values:      map[string]float64{"prize": prize, "cost": cost},
		}
	}
	return nil
}

func attritionCells(p Parameters) cellGrid {
	prize := mustPayoff(p, "prize")
	cost := mustPayoff(p, "cost")
	return cellGrid{
		{a: prize / 2, b: prize / 2, risk: -0.4},
		{a: 0, b: prize, risk: 0.4},
		{a: prize, b: 0, risk: 0.4},
		{a: prize/2 - cost, b: prize/2 - cost, risk: 1.8},
	}
}

func attritionDefaults() Parameters {
	return params(map[string]float64{"prize": 4.0, "cost": 3.0})
}

// ---- Coordination family: Pure Coordination, Stag Hunt,
// ---- Battle of the Sexes, Leader.

func coordinationValidate(p Parameters) error {
	return requireDescending(TypePureCoordination, p, "match", "mismatch")
}

func coordinationCells(p Parameters) cellGrid {
	match := mustPayoff(p, "match")
	mismatch := mustPayoff(p, "mismatch")
	return cellGrid{
		{a: match, b: match, risk: -0.3},
		{a: mismatch, b: mismatch, risk: 0.8},
		{a: mismatch, b: mismatch, risk: 0.8},
		{a: match, b: match, risk: 0.2},
	}
}

func coordinationDefaults() Parameters {
	return params(map[string]float64{"match": 2.5, "mismatch": -1.0})
}

func stagHuntValidate(p Parameters) error {
	return requireDescending(TypeStagHunt, p, "stag_payoff", "hare_temptation", "hare_safe", "stag_fail")
}

func stagHuntCells(p Parameters) cellGrid {
	stag := mustPayoff(p, "stag_payoff")
	hareTempt := mustPayoff(p, "hare_temptation")
	hareSafe := mustPayoff(p, "hare_safe")
	stagFail := mustPayoff(p, "stag_fail")
	return cellGrid{
		{a: stag, b: stag, risk: -0.6},
		{a: stagFail, b: hareTempt, risk: 0.6},
		{a: hareTempt, b: stagFail, risk: 0.6},
		{a: hareSafe, b: hareSafe, risk: 0.4},
	}
}

func stagHuntDefaults() Parameters {
	return params(map[string]float64{"stag_payoff": 4.0, "hare_temptation": 2.6, "hare_safe": 1.6, "stag_fail": -1.2})
}

func bosValidate(p Parameters) error {
	favorite, err := p.payoff("favorite")
	if err != nil {
		return err
	}
	accommodate, err := p.payoff("accommodate")
	if err != nil {
		return err
	}
	clash, err := p.payoff("clash")
	if err != nil {
		return err
	}
	miss, err := p.payoff("miss")
	if err != nil {
		return err
	}
	// Two asymmetric pure equilibria: one side insists, the other yields.
	if !(favorite > accommodate && accommodate > clash && accommodate > miss) {
		return &ConstraintError{
			Type:        TypeBattleOfTheSexes,
			Requirement: "favorite > accommodate > max(clash, miss)",
			Values: map[string]float64{
				"favorite": favorite, "accommodate": accommodate, "clash": clash, "miss": miss,
			},
		}
	}
	return nil
}

func bosCells(p Parameters) cellGrid {
	favorite := mustPayoff(p, "favorite")
	accommodate := mustPayoff(p, "accommodate")
	clash := mustPayoff(p, "clash")
	miss := mustPayoff(p, "miss")
	return cellGrid{
		{a: miss, b: miss, risk: 0.3},
		{a: accommodate, b: favorite, risk: -0.2},
		{a: favorite, b: accommodate, risk: -0.2},
		{a: clash, b: clash, risk: 1.2},
	}
}

func bosDefaults() Parameters {
	return params(map[string]float64{"favorite": 3.0, "accommodate": 1.8, "clash": -1.0, "miss": -0.5})
}

func leaderValidate(p Parameters) error {
	// Like Battle of the Sexes, but each player prefers to be the mover.
	return requireDescending(TypeLeader, p, "lead", "follow", "wait", "clash")
}

func leaderCells(p Parameters) cellGrid {
	lead := mustPayoff(p, "lead")
	follow := mustPayoff(p, "follow")
	wait := mustPayoff(p, "wait")
	clash := mustPayoff(p, "clash")
	return cellGrid{
		{a: wait, b: wait, risk: 0.2},
		{a: follow, b: lead, risk: -0.2},
		{a: lead, b: follow, risk: -0.2},
		{a: clash, b: clash, risk: 1.2},
	}
}

func leaderDefaults() Parameters {
	return params(map[string]float64{"lead": 3.0, "follow": 2.0, "wait": 0.8, "clash": -1.5})
}

// ---- Zero-sum / information family: Matching Pennies, Inspection Game,
// ---- Reconnaissance. Only mixed equilibria exist.

func penniesValidate(p Parameters) error {
	return requirePositive(TypeMatchingPennies, p, "stake")
}

func penniesCells(p Parameters) cellGrid {
	stake := mustPayoff(p, "stake")
	return cellGrid{
		{a: stake, b: -stake, risk: 0.5},
		{a: -stake, b: stake, risk: 0.5},
		{a: -stake, b: stake, risk: 0.5},
		{a: stake, b: -stake, risk: 0.5},
	}
}

func penniesDefaults() Parameters {
	return params(map[string]float64{"stake": 2.0})
}

func inspectionValidate(p Parameters) error {
	// The penalty must outweigh the gain from cheating, and inspecting
	// must cost something, or a pure equilibrium would exist.
	if err := requireDescending(TypeInspectionGame, p, "penalty", "violation_gain", "inspection_cost"); err != nil {
		return err
	}
	return requirePositive(TypeInspectionGame, p, "inspection_cost")
}

func inspectionCells(p Parameters) cellGrid {
	penalty := mustPayoff(p, "penalty")
	gain := mustPayoff(p, "violation_gain")
	cost := mustPayoff(p, "inspection_cost")
	return cellGrid{
		{a: 0.4, b: 0.4, risk: -0.3},
		{a: -gain, b: gain, risk: 0.8},
		{a: -cost, b: 0.4, risk: 0.2},
		{a: penalty - cost, b: -penalty, risk: 1.0},
	}
}

func inspectionDefaults() Parameters {
	return params(map[string]float64{"penalty": 3.0, "violation_gain": 2.5, "inspection_cost": 1.0})
}

func reconValidate(p Parameters) error {
	if err := requireDescending(TypeReconnaissance, p, "intel_value", "exposure_cost"); err != nil {
		return err
	}
	if err := requireDescending(TypeReconnaissance, p, "intel_value", "vigilance_cost"); err != nil {
		return err
	}
	if err := requirePositive(TypeReconnaissance, p, "exposure_cost"); err != nil {
		return err
	}
	return requirePositive(TypeReconnaissance, p, "vigilance_cost")
}

func reconCells(p Parameters) cellGrid {
	intel := mustPayoff(p, "intel_value")
	exposure := mustPayoff(p, "exposure_cost")
	vigilance := mustPayoff(p, "vigilance_cost")
	return cellGrid{
		{a: 0, b: 0, risk: 0},
		{a: 0, b: -vigilance, risk: 0.2},
		{a: intel, b: -intel / 2, risk: 0.4},
		{a: -exposure, b: vigilance, risk: 0.8},
	}
}

func reconDefaults() Parameters {
	return params(map[string]float64{"intel_value": 2.8, "exposure_cost": 1.4, "vigilance_cost": 0.6})
}
