// Package sim runs batches of independent Brinksmanship games for balance
// verification. Games share no mutable state: each gets its own engine,
// its own decider pair and its own seed derived from the batch base seed,
// so batches are parallel across workers yet individually reproducible.
package sim

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/brinkhaven/brinksmanship-server/internal/game"
)

// Decider chooses one action from a menu. The core treats players as opaque
// deciders; the simulator plugs in scripted ones.
type Decider interface {
	Decide(seat game.Seat, state game.GameState, menu []game.Action, rng *rand.Rand) game.Action
}

// RandomDecider picks uniformly from the menu. It is the null policy used
// for statistical baselines.
type RandomDecider struct{}

// Decide implements Decider.
func (RandomDecider) Decide(_ game.Seat, _ game.GameState, menu []game.Action, rng *rand.Rand) game.Action {
	return menu[rng.Intn(len(menu))]
}

// FixedDecider always plays the action with the given ID when available,
// falling back to the first menu entry. Useful for forcing pure strategies.
type FixedDecider struct {
	ActionID string
}

// Decide implements Decider.
func (d FixedDecider) Decide(_ game.Seat, _ game.GameState, menu []game.Action, _ *rand.Rand) game.Action {
	for _, a := range menu {
		if a.ID == d.ActionID {
			return a
		}
	}
	return menu[0]
}

// Options configures a batch run.
type Options struct {
	Games    int
	Workers  int
	BaseSeed int64

	Turns    map[string]game.TurnConfiguration
	StartKey string

	DeciderA Decider
	DeciderB Decider

	Logger *zap.Logger
}

// GameOutcome records how one game of the batch concluded.
type GameOutcome struct {
	Index  int             `json:"index"`
	Seed   int64           `json:"seed"`
	Ending game.GameEnding `json:"ending"`
	Turns  int             `json:"turns"`
}

// Report aggregates a finished batch.
type Report struct {
	Games        int                     `json:"games"`
	BaseSeed     int64                   `json:"base_seed"`
	EndingCounts map[game.EndingType]int `json:"ending_counts"`
	MeanVPA      float64                 `json:"mean_vp_a"`
	MeanVPB      float64                 `json:"mean_vp_b"`
	MeanLength   float64                 `json:"mean_length"`
	Outcomes     []GameOutcome           `json:"-"`
	FailedGames  int                     `json:"failed_games"`
}

// String renders the report as a short human-readable summary.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "games=%d base_seed=%d mean_vp=(%.1f, %.1f) mean_length=%.1f\n",
		r.Games, r.BaseSeed, r.MeanVPA, r.MeanVPB, r.MeanLength)
	types := make([]string, 0, len(r.EndingCounts))
	for t := range r.EndingCounts {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		n := r.EndingCounts[game.EndingType(t)]
		fmt.Fprintf(&b, "  %-22s %6d (%.1f%%)\n", t, n, 100*float64(n)/float64(r.Games))
	}
	return b.String()
}

// maxSubmits caps one game's turn submissions against decider pathologies;
// no legal game outlasts its max turn count by more than a settlement turn.
const maxSubmits = 64

// Run plays the batch and aggregates the outcomes. Worker goroutines pull
// game indexes from a shared channel; results are merged after all workers
// finish, so the report is deterministic for a given Options.
func Run(opts Options) (Report, error) {
	if opts.Games <= 0 {
		return Report{}, fmt.Errorf("batch needs at least one game, got %d", opts.Games)
	}
	if len(opts.Turns) == 0 {
		return Report{}, fmt.Errorf("batch has no turn set")
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if opts.DeciderA == nil {
		opts.DeciderA = RandomDecider{}
	}
	if opts.DeciderB == nil {
		opts.DeciderB = RandomDecider{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	indexes := make(chan int)
	outcomes := make([]GameOutcome, opts.Games)
	errs := make([]error, opts.Games)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				outcome, err := playOne(opts, i)
				if err != nil {
					errs[i] = err
					continue
				}
				outcomes[i] = outcome
			}
		}()
	}
	for i := 0; i < opts.Games; i++ {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	report := Report{
		Games:        opts.Games,
		BaseSeed:     opts.BaseSeed,
		EndingCounts: make(map[game.EndingType]int),
		Outcomes:     outcomes,
	}
	var sumA, sumB, sumLen float64
	for i, o := range outcomes {
		if errs[i] != nil {
			report.FailedGames++
			logger.Warn("simulated game failed", zap.Int("index", i), zap.Error(errs[i]))
			continue
		}
		report.EndingCounts[o.Ending.Type]++
		sumA += o.Ending.VPA
		sumB += o.Ending.VPB
		sumLen += float64(o.Turns)
	}
	played := opts.Games - report.FailedGames
	if played > 0 {
		report.MeanVPA = sumA / float64(played)
		report.MeanVPB = sumB / float64(played)
		report.MeanLength = sumLen / float64(played)
	}

	logger.Info("batch complete",
		zap.Int("games", report.Games),
		zap.Int("failed", report.FailedGames),
		zap.Float64("mean_vp_a", report.MeanVPA),
		zap.Float64("mean_length", report.MeanLength),
	)
	return report, nil
}

// playOne runs a single game of the batch to its ending. Decider randomness
// comes from a generator seeded off the game seed, kept separate from the
// engine's own stream so decision policy never perturbs resolution draws.
func playOne(opts Options, i int) (GameOutcome, error) {
	seed := gameSeed(opts.BaseSeed, i)
	engine, err := game.NewEngine(game.Config{
		GameID:   fmt.Sprintf("sim-%d", i),
		Turns:    opts.Turns,
		StartKey: opts.StartKey,
		Seed:     seed,
	})
	if err != nil {
		return GameOutcome{}, fmt.Errorf("game %d: %w", i, err)
	}

	deciderRNG := rand.New(rand.NewSource(seed ^ gamma))

	for submits := 0; !engine.IsOver(); submits++ {
		if submits >= maxSubmits {
			return GameOutcome{}, fmt.Errorf("game %d: no ending after %d submissions", i, maxSubmits)
		}
		state := engine.CurrentState()
		menuA := engine.AvailableActions(game.SeatA)
		menuB := engine.AvailableActions(game.SeatB)
		actionA := opts.DeciderA.Decide(game.SeatA, state, menuA, deciderRNG)
		actionB := opts.DeciderB.Decide(game.SeatB, state, menuB, deciderRNG)
		result := engine.SubmitActions(actionA, actionB)
		if !result.Success {
			return GameOutcome{}, fmt.Errorf("game %d: %s", i, result.Error)
		}
	}

	ending := engine.Ending()
	return GameOutcome{
		Index:  i,
		Seed:   seed,
		Ending: *ending,
		Turns:  len(engine.History()),
	}, nil
}
