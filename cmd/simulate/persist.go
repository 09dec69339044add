package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/storage/postgres"
)

// dbRecorder writes every finished run to the battle-log tables.
type dbRecorder struct {
	logs   *postgres.BattleLogRepository
	logger *zap.Logger
}

// Record stores r as one battle with its full log.
//
// Postcondition: The battle row is finished only after every entry is appended.
func (d *dbRecorder) Record(ctx context.Context, r runResult) error {
	id, err := d.logs.Create(ctx, r.Seed)
	if err != nil {
		return err
	}
	if err := d.logs.Append(ctx, id, r.Entries); err != nil {
		return err
	}
	if err := d.logs.Finish(ctx, id, r.Outcome, r.Turns); err != nil {
		return err
	}
	d.logger.Debug("battle stored", zap.Stringer("battle_id", id), zap.Int("run", r.Run), zap.Int("entries", len(r.Entries)))
	return nil
}

// saveParty stores every unsaved party record and returns the records with IDs assigned.
func saveParty(ctx context.Context, repo *postgres.CharacterRepository, party []character.Record) ([]character.Record, error) {
	out := make([]character.Record, len(party))
	for i, rec := range party {
		saved, err := repo.Save(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("saving %q: %w", rec.Name, err)
		}
		out[i] = saved
	}
	return out, nil
}
