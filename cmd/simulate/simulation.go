package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/game/battle"
	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/masterdata"
	"github.com/cory-johannsen/dungeon/internal/observability"
	"github.com/cory-johannsen/dungeon/internal/scripting"
)

// partyFile is the on-disk shape of a party definition.
type partyFile struct {
	Party []character.Record `yaml:"party"`
}

// encounterFile is the on-disk shape of an encounter: enemy IDs in formation order.
type encounterFile struct {
	Enemies []int `yaml:"enemies"`
}

func decodeStrict(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing %q: %w", path, err)
	}
	return nil
}

// loadParty reads the party records at path.
//
// Postcondition: Returns at least one record or an error.
func loadParty(path string) ([]character.Record, error) {
	var f partyFile
	if err := decodeStrict(path, &f); err != nil {
		return nil, err
	}
	if len(f.Party) == 0 {
		return nil, fmt.Errorf("%s: party is empty", path)
	}
	return f.Party, nil
}

// loadEncounter reads the encounter at path and resolves each enemy.
//
// Postcondition: Returns at least one enemy or an error naming the unknown ID.
func loadEncounter(path string, p masterdata.Provider) ([]*masterdata.Enemy, error) {
	var f encounterFile
	if err := decodeStrict(path, &f); err != nil {
		return nil, err
	}
	if len(f.Enemies) == 0 {
		return nil, fmt.Errorf("%s: encounter is empty", path)
	}
	out := make([]*masterdata.Enemy, 0, len(f.Enemies))
	for _, id := range f.Enemies {
		e, ok := p.Enemy(id)
		if !ok {
			return nil, fmt.Errorf("%s: unknown enemy %d", path, id)
		}
		out = append(out, e)
	}
	return out, nil
}

// runResult is the outcome of one seeded battle.
type runResult struct {
	Run     int
	Seed    uint64
	Outcome battle.Outcome
	Turns   int
	Entries []battle.Entry
	// Lines is the narrated log, one line per entry.
	Lines []string
}

// recorder stores finished runs.
type recorder interface {
	Record(ctx context.Context, r runResult) error
}

// simulator runs the same party against the same encounter under consecutive seeds.
type simulator struct {
	provider  masterdata.Provider
	party     []character.Record
	encounter []*masterdata.Enemy
	scripts   *scripting.Manager
	cfg       config.SimulationConfig
	logger    *zap.Logger
	recorder  recorder
}

// runOne builds fresh combatants and fights one battle with seed cfg.Seed+run.
//
// Postcondition: Returns a decided result, or ctx.Err() when cancelled between turns.
func (s *simulator) runOne(ctx context.Context, run int) (runResult, error) {
	seed := s.cfg.Seed + uint64(run)
	src := dice.NewSeededSource(seed)
	logger := observability.RunLogger(s.logger, run, seed)

	factory := character.NewFactory(s.provider, character.WithRandom(src), character.WithLogger(logger))
	players := make([]*character.Character, 0, len(s.party))
	for _, rec := range s.party {
		c, err := factory.Build(rec)
		if err != nil {
			return runResult{}, fmt.Errorf("building %q: %w", rec.Name, err)
		}
		players = append(players, c)
	}
	enemies := make([]*character.Character, 0, len(s.encounter))
	for _, e := range s.encounter {
		c, err := factory.BuildEnemy(e)
		if err != nil {
			return runResult{}, fmt.Errorf("building enemy %q: %w", e.Name, err)
		}
		enemies = append(enemies, c)
	}

	st, err := battle.NewState(s.provider, players, enemies, src, logger)
	if err != nil {
		return runResult{}, err
	}
	opts := []battle.EngineOption{
		battle.WithLogger(logger),
		battle.WithMaxTurns(s.cfg.MaxTurns),
		battle.WithMaxReactionDepth(s.cfg.MaxReactionDepth),
	}
	if s.scripts != nil {
		mgr, err := s.scripts.Fork()
		if err != nil {
			return runResult{}, err
		}
		defer mgr.Close()
		opts = append(opts, battle.WithPolicy(scripting.NewPolicy(mgr)))
	}
	outcome, err := battle.NewEngine(s.provider, opts...).Run(ctx, st)
	if err != nil {
		return runResult{}, err
	}

	entries := st.Log().Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = battle.Describe(st, e)
	}
	logger.Debug("battle finished", zap.Stringer("outcome", outcome), zap.Int("turns", st.Turn))
	return runResult{Run: run, Seed: seed, Outcome: outcome, Turns: st.Turn, Entries: entries, Lines: lines}, nil
}

// runAll fights cfg.Runs battles with at most cfg.Parallelism in flight.
// Each battle owns its State; only the recorder is shared.
//
// Postcondition: Results are ordered by run index; the first error cancels the rest.
func (s *simulator) runAll(ctx context.Context) ([]runResult, error) {
	results := make([]runResult, s.cfg.Runs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for i := range s.cfg.Runs {
		g.Go(func() error {
			r, err := s.runOne(gctx, i)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			if s.recorder != nil {
				if err := s.recorder.Record(gctx, r); err != nil {
					return fmt.Errorf("run %d: recording: %w", i, err)
				}
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// summary tallies outcomes across runs.
type summary struct {
	Runs      int
	Outcomes  map[battle.Outcome]int
	MeanTurns float64
}

func summarize(results []runResult) summary {
	s := summary{Runs: len(results), Outcomes: make(map[battle.Outcome]int)}
	total := 0
	for _, r := range results {
		s.Outcomes[r.Outcome]++
		total += r.Turns
	}
	if len(results) > 0 {
		s.MeanTurns = float64(total) / float64(len(results))
	}
	return s
}

// Write prints the tally in a fixed outcome order.
func (s summary) Write(w io.Writer) {
	fmt.Fprintf(w, "runs: %d  mean turns: %.2f\n", s.Runs, s.MeanTurns)
	for _, o := range []battle.Outcome{battle.Victory, battle.Defeat, battle.Draw} {
		n := s.Outcomes[o]
		pct := 0.0
		if s.Runs > 0 {
			pct = 100 * float64(n) / float64(s.Runs)
		}
		fmt.Fprintf(w, "  %-8s %5d (%5.1f%%)\n", o, n, pct)
	}
}
