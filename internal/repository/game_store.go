package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brinkhaven/brinksmanship-server/internal/game"
)

// ErrNotFound reports a game ID with no stored row.
var ErrNotFound = errors.New("game not found")

// GameStore saves and loads serialized games.
type GameStore struct {
	db *pgxpool.Pool
}

// NewGameStore creates a store over an existing pool.
func NewGameStore(db *pgxpool.Pool) *GameStore {
	return &GameStore{db: db}
}

// StoredGame is one persisted row's metadata; the snapshot itself is
// returned by Load.
type StoredGame struct {
	ID         string           `json:"id"`
	Scenario   string           `json:"scenario"`
	Turn       int              `json:"turn"`
	IsOver     bool             `json:"is_over"`
	EndingType *game.EndingType `json:"ending_type,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Save upserts a game's snapshot. The checksum is stored alongside so a
// corrupted row fails loudly on load rather than resuming a wrong state.
func (s *GameStore) Save(ctx context.Context, scenarioName string, snap game.Snapshot) error {
	data, err := snap.Marshal()
	if err != nil {
		return fmt.Errorf("save game %s: %w", snap.GameID, err)
	}
	checksum, err := snap.Checksum()
	if err != nil {
		return fmt.Errorf("save game %s: %w", snap.GameID, err)
	}

	var endingType *game.EndingType
	var vpA, vpB *float64
	if snap.Ending != nil {
		endingType = &snap.Ending.Type
		vpA = &snap.Ending.VPA
		vpB = &snap.Ending.VPB
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO games (id, scenario, snapshot, checksum, turn, is_over, ending_type, vp_a, vp_b, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		 ON CONFLICT (id) DO UPDATE SET
			snapshot = EXCLUDED.snapshot,
			checksum = EXCLUDED.checksum,
			turn = EXCLUDED.turn,
			is_over = EXCLUDED.is_over,
			ending_type = EXCLUDED.ending_type,
			vp_a = EXCLUDED.vp_a,
			vp_b = EXCLUDED.vp_b,
			updated_at = now()`,
		snap.GameID, scenarioName, data, checksum, snap.State.Turn,
		snap.Ending != nil, endingType, vpA, vpB,
	)
	if err != nil {
		return fmt.Errorf("save game %s: %w", snap.GameID, err)
	}
	return nil
}

// Load fetches and decodes a game's snapshot, verifying its checksum.
func (s *GameStore) Load(ctx context.Context, id string) (game.Snapshot, error) {
	var data []byte
	var storedChecksum string
	err := s.db.QueryRow(ctx,
		`SELECT snapshot, checksum FROM games WHERE id = $1`, id,
	).Scan(&data, &storedChecksum)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Snapshot{}, fmt.Errorf("load game %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("load game %s: %w", id, err)
	}

	snap, err := game.UnmarshalSnapshot(data)
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("load game %s: %w", id, err)
	}
	checksum, err := snap.Checksum()
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("load game %s: %w", id, err)
	}
	if checksum != storedChecksum {
		return game.Snapshot{}, fmt.Errorf("load game %s: checksum mismatch", id)
	}
	return snap, nil
}

// List returns metadata for stored games, most recently updated first.
func (s *GameStore) List(ctx context.Context, limit int) ([]StoredGame, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, scenario, turn, is_over, ending_type, created_at, updated_at
		 FROM games ORDER BY updated_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []StoredGame
	for rows.Next() {
		var g StoredGame
		if err := rows.Scan(&g.ID, &g.Scenario, &g.Turn, &g.IsOver, &g.EndingType, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan game row: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Delete removes a stored game.
func (s *GameStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete game %s: %w", id, ErrNotFound)
	}
	return nil
}
