package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/dungeon/internal/game/battle"
)

// ErrBattleNotFound is returned when a battle ID does not exist.
var ErrBattleNotFound = errors.New("battle not found")

// ErrDuplicateEntry is returned when an entry with the same sequence number is already stored.
var ErrDuplicateEntry = errors.New("battle log entry already stored")

// BattleSummary describes a stored battle.
type BattleSummary struct {
	ID      uuid.UUID
	Seed    uint64
	Outcome string
	Turns   int
}

// BattleLogRepository stores append-only battle logs.
type BattleLogRepository struct {
	db *pgxpool.Pool
}

// NewBattleLogRepository creates a BattleLogRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewBattleLogRepository(db *pgxpool.Pool) *BattleLogRepository {
	return &BattleLogRepository{db: db}
}

// Create registers a new battle run with seed.
//
// Postcondition: Returns the new battle ID.
func (r *BattleLogRepository) Create(ctx context.Context, seed uint64) (uuid.UUID, error) {
	id := uuid.New()
	if _, err := r.db.Exec(ctx, `INSERT INTO battles (id, seed) VALUES ($1, $2)`, id, int64(seed)); err != nil {
		return uuid.Nil, fmt.Errorf("inserting battle: %w", err)
	}
	return id, nil
}

// Append stores entries in one transaction.
//
// Postcondition: Returns ErrBattleNotFound for an unknown id and ErrDuplicateEntry
// if any sequence number is already stored; nothing is written in either case.
func (r *BattleLogRepository) Append(ctx context.Context, id uuid.UUID, entries []battle.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO battle_log_entries
				(battle_id, seq, turn, actor, target, action, effect, value, extra, status_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			id, e.Seq, e.Turn, int(e.Actor), int(e.Target), string(e.Action), string(e.Effect), e.Value, e.Extra, e.StatusID,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		switch {
		case isForeignKeyError(err):
			return ErrBattleNotFound
		case isDuplicateKeyError(err):
			return ErrDuplicateEntry
		}
		return fmt.Errorf("appending battle log: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing battle log: %w", err)
	}
	return nil
}

// Finish records the outcome and length of a battle.
//
// Postcondition: Returns ErrBattleNotFound for an unknown id.
func (r *BattleLogRepository) Finish(ctx context.Context, id uuid.UUID, outcome battle.Outcome, turns int) error {
	tag, err := r.db.Exec(ctx, `UPDATE battles SET outcome = $2, turns = $3 WHERE id = $1`, id, outcome.String(), turns)
	if err != nil {
		return fmt.Errorf("finishing battle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBattleNotFound
	}
	return nil
}

// Summary returns the stored metadata of a battle.
func (r *BattleLogRepository) Summary(ctx context.Context, id uuid.UUID) (BattleSummary, error) {
	var (
		s    BattleSummary
		seed int64
	)
	err := r.db.QueryRow(ctx, `SELECT id, seed, outcome, turns FROM battles WHERE id = $1`, id).
		Scan(&s.ID, &seed, &s.Outcome, &s.Turns)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BattleSummary{}, ErrBattleNotFound
		}
		return BattleSummary{}, fmt.Errorf("querying battle: %w", err)
	}
	s.Seed = uint64(seed)
	return s, nil
}

// Entries returns the stored log of a battle in sequence order.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *BattleLogRepository) Entries(ctx context.Context, id uuid.UUID) ([]battle.Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT seq, turn, actor, target, action, effect, value, extra, status_id
		FROM battle_log_entries WHERE battle_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("listing battle log: %w", err)
	}
	defer rows.Close()

	out := make([]battle.Entry, 0)
	for rows.Next() {
		var (
			e              battle.Entry
			actor, target  int
			action, effect string
		)
		if err := rows.Scan(&e.Seq, &e.Turn, &actor, &target, &action, &effect, &e.Value, &e.Extra, &e.StatusID); err != nil {
			return nil, fmt.Errorf("scanning battle log row: %w", err)
		}
		e.Actor, e.Target = battle.Handle(actor), battle.Handle(target)
		e.Action, e.Effect = battle.Action(action), battle.Effect(effect)
		out = append(out, e)
	}
	return out, rows.Err()
}
