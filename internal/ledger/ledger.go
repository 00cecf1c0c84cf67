// Package ledger is the durable, append-only record of every score
// submission. It is the system of record: the ranking index is derived
// from it and can always be rebuilt by replaying a game's records in
// chronological order.
package ledger

import (
	"context"
	"fmt"

	"gamehub/internal/models"

	"gorm.io/gorm"
)

const replayBatchSize = 1000

// Store wraps the score_records table. Individual records are never
// updated or deleted; corrections append new records.
type Store struct {
	db *gorm.DB
}

// New creates a ledger store
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Append durably records one submission. The caller must not apply the
// ranking update if this fails.
func (s *Store) Append(ctx context.Context, userCode, gameID string, score int) (*models.ScoreRecord, error) {
	record := models.ScoreRecord{
		UserCode: userCode,
		GameID:   gameID,
		Score:    score,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to append score record: %w", err)
	}
	return &record, nil
}

// BestScore scans a user's records for one game and returns the
// maximum. Repair path only, never on the hot path.
func (s *Store) BestScore(ctx context.Context, userCode, gameID string) (int, bool, error) {
	var best *int
	err := s.db.WithContext(ctx).
		Model(&models.ScoreRecord{}).
		Where("user_code = ? AND game_id = ?", userCode, gameID).
		Select("MAX(score)").
		Scan(&best).Error
	if err != nil {
		return 0, false, fmt.Errorf("failed to scan best score: %w", err)
	}
	if best == nil {
		return 0, false, nil
	}
	return *best, true, nil
}

// ReplayGame streams all records for a game in submission order,
// batched by id cursor so an arbitrarily long history stays bounded in
// memory. Ids are assigned in append order, so id order is submission
// order. A non-nil error from fn aborts the replay.
func (s *Store) ReplayGame(ctx context.Context, gameID string, fn func(models.ScoreRecord) error) error {
	lastID := uint(0)
	for {
		var batch []models.ScoreRecord
		err := s.db.WithContext(ctx).
			Where("game_id = ? AND id > ?", gameID, lastID).
			Order("id ASC").
			Limit(replayBatchSize).
			Find(&batch).Error
		if err != nil {
			return fmt.Errorf("failed to replay game %s: %w", gameID, err)
		}
		if len(batch) == 0 {
			return nil
		}
		for _, record := range batch {
			if err := fn(record); err != nil {
				return err
			}
		}
		lastID = batch[len(batch)-1].ID
	}
}

// Games returns the distinct game ids present in the ledger
func (s *Store) Games(ctx context.Context) ([]string, error) {
	var games []string
	err := s.db.WithContext(ctx).
		Model(&models.ScoreRecord{}).
		Distinct("game_id").
		Order("game_id ASC").
		Pluck("game_id", &games).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}
