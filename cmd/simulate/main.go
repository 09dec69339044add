// Command simulate fights a party against an encounter under consecutive seeds
// and reports the outcome distribution.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/game/battle"
	"github.com/cory-johannsen/dungeon/internal/game/masterdata"
	"github.com/cory-johannsen/dungeon/internal/observability"
	"github.com/cory-johannsen/dungeon/internal/scripting"
	"github.com/cory-johannsen/dungeon/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file (defaults and DUNGEON_* env when empty)")
	runs := flag.Int("runs", 0, "number of battles; overrides simulation.runs when > 0")
	seed := flag.Uint64("seed", 0, "first seed; overrides simulation.seed when > 0")
	replay := flag.Int("replay", -1, "run index whose narrated log is printed; -1 prints none")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *runs > 0 {
		cfg.Simulation.Runs = *runs
	}
	if *seed > 0 {
		cfg.Simulation.Seed = *seed
	}

	logger, err := observability.NewLogger(cfg.Logging, zap.String("cmd", "simulate"))
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg, err := masterdata.LoadDirectory(cfg.Simulation.ContentDir)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	if err := reg.CheckReferences(); err != nil {
		logger.Warn("dangling content references", zap.Error(err))
	}
	party, err := loadParty(cfg.Simulation.PartyFile)
	if err != nil {
		logger.Fatal("loading party", zap.Error(err))
	}
	encounter, err := loadEncounter(cfg.Simulation.EncounterFile, reg)
	if err != nil {
		logger.Fatal("loading encounter", zap.Error(err))
	}

	sim := &simulator{
		provider:  reg,
		party:     party,
		encounter: encounter,
		cfg:       cfg.Simulation,
		logger:    logger,
	}

	if cfg.Scripting.ScriptRoot != "" {
		mgr := scripting.NewManager(cfg.Scripting.ScriptRoot, cfg.Scripting.InstructionLimit, logger)
		defer mgr.Close()
		names, err := mgr.LoadAll()
		if err != nil {
			logger.Fatal("loading scripts", zap.Error(err))
		}
		logger.Info("scripts loaded", zap.Strings("scripts", names))
		sim.scripts = mgr
	}

	if cfg.Simulation.Persist {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		if err := pool.Health(ctx, 5*time.Second); err != nil {
			logger.Fatal("database health check", zap.Error(err))
		}
		sim.party, err = saveParty(ctx, postgres.NewCharacterRepository(pool.DB()), party)
		if err != nil {
			logger.Fatal("storing party", zap.Error(err))
		}
		sim.recorder = &dbRecorder{logs: postgres.NewBattleLogRepository(pool.DB()), logger: logger}
	}

	logger.Info("simulation starting",
		zap.Int("runs", cfg.Simulation.Runs),
		zap.Uint64("seed", cfg.Simulation.Seed),
		zap.Int("parallelism", cfg.Simulation.Parallelism),
		zap.Int("party", len(party)),
		zap.Int("enemies", len(encounter)),
	)
	results, err := sim.runAll(ctx)
	if err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}

	if *replay >= 0 && *replay < len(results) {
		r := results[*replay]
		fmt.Printf("run %d (seed %d): %s\n", r.Run, r.Seed, r.Outcome)
		for _, line := range r.Lines {
			fmt.Println(line)
		}
	}
	s := summarize(results)
	s.Write(os.Stdout)

	logger.Info("simulation complete",
		zap.Int("victories", s.Outcomes[battle.Victory]),
		zap.Int("defeats", s.Outcomes[battle.Defeat]),
		zap.Int("draws", s.Outcomes[battle.Draw]),
		zap.Duration("elapsed", time.Since(start)),
	)
}
