package game

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Phase tracks where a game sits in its per-turn state machine. A submit
// call walks the full cycle synchronously; the phase is exposed for
// observability, not for external sequencing.
type Phase int

const (
	PhaseBriefing Phase = iota
	PhaseDecision
	PhaseResolution
	PhaseStateUpdate
	PhaseCheckDeterministic
	PhaseCheckCrisis
	PhaseCheckNatural
	PhaseAdvance
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseBriefing:           "BRIEFING",
	PhaseDecision:           "DECISION",
	PhaseResolution:         "RESOLUTION",
	PhaseStateUpdate:        "STATE_UPDATE",
	PhaseCheckDeterministic: "CHECK_DETERMINISTIC",
	PhaseCheckCrisis:        "CHECK_CRISIS",
	PhaseCheckNatural:       "CHECK_NATURAL",
	PhaseAdvance:            "ADVANCE",
	PhaseGameOver:           "GAME_OVER",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// countedSource wraps a rand.Source and counts raw draws, so a restored
// game can fast-forward its generator to the exact point it left off.
type countedSource struct {
	src   rand.Source
	draws int64
}

func (s *countedSource) Int63() int64 {
	s.draws++
	return s.src.Int63()
}

func (s *countedSource) Seed(seed int64) {
	s.src.Seed(seed)
}

// TurnRecord is one entry of a game's history.
type TurnRecord struct {
	Turn        int            `json:"turn"`
	Key         string         `json:"key"`
	ActionA     Action         `json:"action_a"`
	ActionB     Action         `json:"action_b"`
	Mode        ResolutionMode `json:"mode"`
	OutcomeCode string         `json:"outcome_code"`
	Narrative   string         `json:"narrative"`
	StateAfter  GameState      `json:"state_after"`
}

// Config describes a new game. Seed drives every probabilistic step; two
// games with the same configuration and seed replay identically.
type Config struct {
	GameID   string
	Turns    map[string]TurnConfiguration
	StartKey string
	Seed     int64

	// MaxTurns fixes the hidden game length. Zero draws it from the seeded
	// stream within the documented range.
	MaxTurns int

	Logger *zap.Logger
}

// Engine owns exactly one game's mutable state. It is the single writer:
// all mutation happens inside SubmitActions under the lock, and every
// read-side accessor returns an immutable snapshot, never a live alias.
type Engine struct {
	id     string
	logger *zap.Logger

	mu         sync.RWMutex
	phase      Phase
	state      GameState
	turns      map[string]TurnConfiguration
	currentKey string
	seed       int64
	src        *countedSource
	rng        *rand.Rand
	history    []TurnRecord
	ending     *GameEnding
}

// NewEngine validates the turn set (including building every configured
// matrix, so constraint and tag errors surface now rather than mid-game)
// and returns an engine positioned at the briefing of the start turn.
func NewEngine(cfg Config) (*Engine, error) {
	if len(cfg.Turns) == 0 {
		return nil, fmt.Errorf("game %s: no turns configured", cfg.GameID)
	}
	if _, ok := cfg.Turns[cfg.StartKey]; !ok {
		return nil, fmt.Errorf("game %s: start key %q not in turn set", cfg.GameID, cfg.StartKey)
	}
	for key, tc := range cfg.Turns {
		if _, err := tc.buildMatrix(); err != nil {
			return nil, fmt.Errorf("game %s: turn %q: %w", cfg.GameID, key, err)
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	src := &countedSource{src: rand.NewSource(cfg.Seed)}
	rng := rand.New(src)

	maxTurns := cfg.MaxTurns
	if maxTurns == 0 {
		maxTurns = MinMaxTurns + rng.Intn(MaxMaxTurns-MinMaxTurns+1)
	}
	state, err := NewGameState(maxTurns)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", cfg.GameID, err)
	}

	logger.Info("game created",
		zap.String("game_id", cfg.GameID),
		zap.Int64("seed", cfg.Seed),
		zap.String("start_key", cfg.StartKey),
		zap.Int("turn_count", len(cfg.Turns)),
	)

	return &Engine{
		id:         cfg.GameID,
		logger:     logger,
		phase:      PhaseBriefing,
		state:      state,
		turns:      cfg.Turns,
		currentKey: cfg.StartKey,
		seed:       cfg.Seed,
		src:        src,
		rng:        rng,
	}, nil
}

// ID returns the game identifier.
func (e *Engine) ID() string {
	return e.id
}

// CurrentState returns an immutable snapshot of the game state.
func (e *Engine) CurrentState() GameState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// Phase returns the engine's current phase.
func (e *Engine) Phase() Phase {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.phase
}

// IsOver reports whether the game has ended.
func (e *Engine) IsOver() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.phase == PhaseGameOver
}

// Ending returns a copy of the game's ending, or nil while in progress.
func (e *Engine) Ending() *GameEnding {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.ending == nil {
		return nil
	}
	out := *e.ending
	return &out
}

// Briefing returns the narrative text for the current turn.
func (e *Engine) Briefing() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.turns[e.currentKey].Narrative
}

// History returns a copy of the resolved turn records.
func (e *Engine) History() []TurnRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]TurnRecord, len(e.history))
	for i, r := range e.history {
		r.StateAfter = r.StateAfter.Clone()
		out[i] = r
	}
	return out
}

// Information returns a copy of one player's belief about their opponent.
func (e *Engine) Information(seat Seat) InformationState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Player(seat).Information.clone()
}

// AvailableActions returns the menu a player may choose from this turn,
// filtered by affordability and availability.
func (e *Engine) AvailableActions(seat Seat) []Action {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.phase == PhaseGameOver {
		return nil
	}
	cfg := e.turns[e.currentKey]
	p := e.state.Player(seat)

	actions := []Action{
		actionCatalog["accommodate"],
		actionCatalog["escalate"],
	}
	if e.state.Turn >= minInformationTurn {
		if p.Resources >= reconCost {
			actions = append(actions, actionCatalog["recon_probe"], actionCatalog["recon_mask"])
		}
		if p.Resources >= inspectionCost {
			actions = append(actions, actionCatalog["inspect"])
		}
	}
	if cfg.SettlementAvailable && e.state.Stability >= minSettlementStability {
		actions = append(actions, actionCatalog["settle"])
	}
	return actions
}

// actionCatalog is the closed menu of action templates. Submitted actions
// are matched by ID and canonicalized against this catalog, so callers
// cannot smuggle in a different category or classification.
var actionCatalog = map[string]Action{
	"accommodate": {ID: "accommodate", Label: "Hold to the accommodation", Category: CategoryStandard, Class: ClassCooperative},
	"escalate":    {ID: "escalate", Label: "Escalate", Category: CategoryStandard, Class: ClassCompetitive},
	"recon_probe": {ID: "recon_probe", Label: "Run an active probe", Category: CategoryReconnaissance, Class: ClassCompetitive, ResourceCost: reconCost},
	"recon_mask":  {ID: "recon_mask", Label: "Mask dispositions", Category: CategoryReconnaissance, Class: ClassCooperative, ResourceCost: reconCost},
	"inspect":     {ID: "inspect", Label: "Demand an inspection", Category: CategoryInspection, Class: ClassCompetitive, ResourceCost: inspectionCost},
	"settle":      {ID: "settle", Label: "Propose a settlement", Category: CategorySettlement, Class: ClassCooperative},
}

// validateAction canonicalizes a submitted action against the catalog and
// checks availability and affordability for the seat. It mutates nothing.
func (e *Engine) validateAction(seat Seat, a Action) (Action, error) {
	tmpl, ok := actionCatalog[a.ID]
	if !ok {
		ids := make([]string, 0, len(actionCatalog))
		for id := range actionCatalog {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return Action{}, fmt.Errorf("player %s: unknown action %q (valid: %s)", seat, a.ID, strings.Join(ids, ", "))
	}

	p := e.state.Player(seat)
	cfg := e.turns[e.currentKey]

	switch tmpl.Category {
	case CategorySettlement:
		if !cfg.SettlementAvailable {
			return Action{}, fmt.Errorf("player %s: settlement is not on the table this turn", seat)
		}
		if e.state.Stability < minSettlementStability {
			return Action{}, fmt.Errorf("player %s: the situation is too unstable to negotiate (stability %.1f)", seat, e.state.Stability)
		}
		if a.SurplusShare != nil {
			if *a.SurplusShare < 0 || *a.SurplusShare > 1 {
				return Action{}, fmt.Errorf("player %s: surplus share must be in [0, 1], got %.2f", seat, *a.SurplusShare)
			}
			tmpl.SurplusShare = a.SurplusShare
		}
	case CategoryReconnaissance, CategoryInspection:
		if e.state.Turn < minInformationTurn {
			return Action{}, fmt.Errorf("player %s: %s is unavailable on the opening turn", seat, tmpl.Category)
		}
		if p.Resources < tmpl.ResourceCost {
			return Action{}, fmt.Errorf("player %s: cannot afford %s (cost %.1f, resources %.1f)",
				seat, tmpl.ID, tmpl.ResourceCost, p.Resources)
		}
	}
	return tmpl, nil
}
