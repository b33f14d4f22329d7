// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/fourrow/internal/game"
	"github.com/jason-s-yu/fourrow/internal/models"
)

// ErrGameNotFound is returned when no saved game has the requested id.
var ErrGameNotFound = errors.New("saved game not found")

// SaveGame upserts a saved game.
func (s *Store) SaveGame(ctx context.Context, saved game.SavedGame) error {
	rules, err := json.Marshal(saved.Rules)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}
	moves, err := json.Marshal(saved.Moves)
	if err != nil {
		return fmt.Errorf("marshal moves: %w", err)
	}

	q := `
		INSERT INTO saved_games (id, rules, deck, moves, layout, throughs, won, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET rules = $2, deck = $3, moves = $4, layout = $5, throughs = $6, won = $7, saved_at = $8
	`
	_, err = s.pool.Exec(ctx, q, saved.ID, rules, saved.Deck, moves, saved.Layout, saved.Throughs, saved.Won, saved.SavedAt)
	if err != nil {
		return fmt.Errorf("save game %s: %w", saved.ID, err)
	}
	return nil
}

// LoadGame reads a saved game back.
func (s *Store) LoadGame(ctx context.Context, id uuid.UUID) (game.SavedGame, error) {
	saved := game.SavedGame{ID: id}
	var rules, moves []byte
	q := `
		SELECT rules, deck, moves, layout, throughs, won, saved_at
		FROM saved_games WHERE id = $1
	`
	err := s.pool.QueryRow(ctx, q, id).Scan(&rules, &saved.Deck, &moves, &saved.Layout, &saved.Throughs, &saved.Won, &saved.SavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return saved, ErrGameNotFound
	}
	if err != nil {
		return saved, fmt.Errorf("load game %s: %w", id, err)
	}
	if err := json.Unmarshal(rules, &saved.Rules); err != nil {
		return saved, fmt.Errorf("decode rules: %w", err)
	}
	if err := json.Unmarshal(moves, &saved.Moves); err != nil {
		return saved, fmt.Errorf("decode moves: %w", err)
	}
	return saved, nil
}

// RecordFinished marks a game completed with its final layout.
func (s *Store) RecordFinished(ctx context.Context, saved game.SavedGame) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO games (id, status, end_time, won, moves, layout)
			VALUES ($1, 'completed', NOW(), $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET status = 'completed', end_time = NOW(), won = $2, moves = $3, layout = $4
		`
		if _, err := tx.Exec(ctx, q, saved.ID, saved.Won, len(saved.Moves), saved.Layout); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM saved_games WHERE id = $1`, saved.ID)
		return err
	})
	if err != nil {
		return fmt.Errorf("tx record finished game %s: %w", saved.ID, err)
	}
	return nil
}

// InsertActions writes a batch of action records in one transaction,
// creating the game row on first sight.
func (s *Store) InsertActions(ctx context.Context, records []models.GameActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if err := insertGameActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertGameActionTx: %w", err)
			}
		}
		return nil
	})
}

func insertGameActionTx(ctx context.Context, tx pgx.Tx, rec models.GameActionRecord) error {
	upsertGameQ := `
		INSERT INTO games (id, status, start_time)
		VALUES ($1, 'in_progress', NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertGameQ, rec.GameID); err != nil {
		return err
	}

	jsonPayload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	actionInsertQ := `
		INSERT INTO game_actions (game_id, action_index, action_type, action_payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	_, err = tx.Exec(ctx, actionInsertQ, rec.GameID, rec.ActionIndex, rec.ActionType, jsonPayload)
	return err
}

// MarkAbandoned flags a game that stopped receiving actions.
func (s *Store) MarkAbandoned(ctx context.Context, gameID uuid.UUID) error {
	q := `
		UPDATE games
		SET status = 'abandoned', end_time = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`
	if _, err := s.pool.Exec(ctx, q, gameID); err != nil {
		return fmt.Errorf("mark game %s abandoned: %w", gameID, err)
	}
	return nil
}
