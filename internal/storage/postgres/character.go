package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
)

// ErrCharacterNotFound is returned when a character lookup yields no results.
var ErrCharacterNotFound = errors.New("character not found")

const characterColumns = `id, name, race_id, job_id, previous_job_id, avatar_id, level, experience,
	current_hp, equipment, primary_personality, secondary_personality,
	rate_physical, rate_priest, rate_mage, rate_breath, display_order, updated_at`

// CharacterRepository stores character boundary records.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Save inserts rec when rec.ID is 0 and updates it otherwise.
//
// Precondition: rec.Name must be non-empty; rec.Level >= 1.
// Postcondition: Returns the stored record with ID and UpdatedAt set, or
// ErrCharacterNotFound when updating a missing ID.
func (r *CharacterRepository) Save(ctx context.Context, rec character.Record) (character.Record, error) {
	equipment, err := json.Marshal(nonNilStacks(rec.Equipment))
	if err != nil {
		return character.Record{}, fmt.Errorf("encoding equipment: %w", err)
	}
	args := []any{
		rec.Name, rec.RaceID, rec.JobID, rec.PreviousJobID, rec.AvatarID, rec.Level, rec.Experience,
		rec.CurrentHP, equipment, rec.PrimaryPersonalityID, rec.SecondaryPersonalityID,
		rec.ActionRates.Physical, rec.ActionRates.Priest, rec.ActionRates.Mage, rec.ActionRates.Breath,
		rec.DisplayOrder,
	}

	var row pgx.Row
	if rec.ID == 0 {
		row = r.db.QueryRow(ctx, `
			INSERT INTO character_records
				(name, race_id, job_id, previous_job_id, avatar_id, level, experience,
				 current_hp, equipment, primary_personality, secondary_personality,
				 rate_physical, rate_priest, rate_mage, rate_breath, display_order)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
			RETURNING `+characterColumns, args...)
	} else {
		row = r.db.QueryRow(ctx, `
			UPDATE character_records SET
				name = $2, race_id = $3, job_id = $4, previous_job_id = $5, avatar_id = $6,
				level = $7, experience = $8, current_hp = $9, equipment = $10,
				primary_personality = $11, secondary_personality = $12,
				rate_physical = $13, rate_priest = $14, rate_mage = $15, rate_breath = $16,
				display_order = $17, updated_at = NOW()
			WHERE id = $1
			RETURNING `+characterColumns, append([]any{rec.ID}, args...)...)
	}

	out, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return character.Record{}, ErrCharacterNotFound
		}
		return character.Record{}, fmt.Errorf("saving character: %w", err)
	}
	return out, nil
}

// Get retrieves a record by its primary key.
//
// Precondition: id must be > 0.
// Postcondition: Returns the record or ErrCharacterNotFound.
func (r *CharacterRepository) Get(ctx context.Context, id int64) (character.Record, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx, `SELECT `+characterColumns+` FROM character_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return character.Record{}, ErrCharacterNotFound
		}
		return character.Record{}, fmt.Errorf("querying character: %w", err)
	}
	return rec, nil
}

// List returns every record ordered by display order, then ID.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CharacterRepository) List(ctx context.Context) ([]character.Record, error) {
	rows, err := r.db.Query(ctx, `SELECT `+characterColumns+` FROM character_records ORDER BY display_order, id`)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	out := make([]character.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (character.Record, error) {
	var (
		rec       character.Record
		equipment []byte
	)
	if err := row.Scan(
		&rec.ID, &rec.Name, &rec.RaceID, &rec.JobID, &rec.PreviousJobID, &rec.AvatarID,
		&rec.Level, &rec.Experience, &rec.CurrentHP, &equipment,
		&rec.PrimaryPersonalityID, &rec.SecondaryPersonalityID,
		&rec.ActionRates.Physical, &rec.ActionRates.Priest, &rec.ActionRates.Mage, &rec.ActionRates.Breath,
		&rec.DisplayOrder, &rec.UpdatedAt,
	); err != nil {
		return character.Record{}, err
	}
	if err := json.Unmarshal(equipment, &rec.Equipment); err != nil {
		return character.Record{}, fmt.Errorf("decoding equipment: %w", err)
	}
	return rec, nil
}

func nonNilStacks(s []inventory.Stack) []inventory.Stack {
	if s == nil {
		return []inventory.Stack{}
	}
	return s
}
