package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"gamehub/internal/models"
	"gamehub/internal/ranking"
	"gamehub/internal/repository"

	"github.com/avast/retry-go/v4"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
	maxGameIDLen    = 50

	appendTimeout  = 5 * time.Second
	appendAttempts = 3
	appendDelay    = 50 * time.Millisecond
)

// AccountStore resolves accounts for submissions and display names for
// leaderboard rendering
type AccountStore interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	UsernamesByCodes(ctx context.Context, codes []string) (map[string]string, error)
}

// LedgerStore is the durable system of record for submissions
type LedgerStore interface {
	Append(ctx context.Context, userCode, gameID string, score int) (*models.ScoreRecord, error)
	ReplayGame(ctx context.Context, gameID string, fn func(models.ScoreRecord) error) error
	Games(ctx context.Context) ([]string, error)
}

// RankIndex is the in-memory ranking structure. Submit may fail per
// the index-store contract; queries are best-effort reads of the
// current (possibly stale) index.
type RankIndex interface {
	Submit(gameID, userID string, score int) (ranking.SubmitResult, error)
	RankOf(gameID, userID string) (rank int, score int, ok bool)
	Top(gameID string, n int) []ranking.Entry
	Replace(gameID string, b *ranking.Board)
	Games() []string
}

// VersionBumper signals leaderboard changes for live clients
type VersionBumper interface {
	BumpGameVersion(ctx context.Context, gameID string) error
}

// LeaderboardService orchestrates the ledger and the ranking index: a
// submission is appended to the ledger first (durability precedes
// visibility), then applied to the index. It also owns the set of
// games whose index drifted and awaits reconciliation.
type LeaderboardService struct {
	accounts AccountStore
	ledger   LedgerStore
	index    RankIndex
	versions VersionBumper

	mu    sync.Mutex
	dirty map[string]struct{}
}

// NewLeaderboardService creates a new leaderboard service. versions
// may be nil when live-update signaling is not wired (tests, seeder).
func NewLeaderboardService(accounts AccountStore, ledger LedgerStore, index RankIndex, versions VersionBumper) *LeaderboardService {
	return &LeaderboardService{
		accounts: accounts,
		ledger:   ledger,
		index:    index,
		versions: versions,
		dirty:    make(map[string]struct{}),
	}
}

// SubmitScore records one submission. On PartialFailure the response
// is still returned alongside ErrPartialFailure: the ledger outcome is
// reported faithfully while the rank fields degrade to unavailable.
func (s *LeaderboardService) SubmitScore(ctx context.Context, accountID uint, gameID string, score int) (*models.SubmitScoreResponse, error) {
	if score < 0 {
		return nil, fmt.Errorf("%w: score must be non-negative", ErrValidation)
	}
	if gameID == "" || len(gameID) > maxGameIDLen {
		return nil, fmt.Errorf("%w: invalid game id", ErrValidation)
	}

	user, err := s.accounts.GetUserByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	// Step 1: durable ledger append, bounded retry, fail fast after that
	appendCtx, cancel := context.WithTimeout(ctx, appendTimeout)
	defer cancel()

	err = retry.Do(
		func() error {
			_, err := s.ledger.Append(appendCtx, user.UserCode, gameID, score)
			return err
		},
		retry.Context(appendCtx),
		retry.Attempts(appendAttempts),
		retry.Delay(appendDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Step 2: apply to the ranking index
	result, err := s.index.Submit(gameID, user.UserCode, score)
	if err != nil {
		s.markDirty(gameID)
		log.Printf("⚠️  Ranking index update failed for game %s: %v (scheduled for reconciliation)", gameID, err)
		return &models.SubmitScoreResponse{
			Message:       "Score submitted successfully.",
			GameID:        gameID,
			Score:         score,
			RankAvailable: false,
		}, ErrPartialFailure
	}

	if result.Applied {
		s.bumpVersion(ctx, gameID)
	}

	return &models.SubmitScoreResponse{
		Message:       "Score submitted successfully.",
		GameID:        gameID,
		Score:         score,
		Improved:      result.Applied,
		PreviousBest:  result.PreviousBest,
		Rank:          result.Rank,
		RankAvailable: true,
	}, nil
}

// GetTop returns the top entries of a game with display names. Entries
// whose account has been deleted keep their rank position but are
// omitted from the listing, matching ledger cascade-delete semantics.
func (s *LeaderboardService) GetTop(ctx context.Context, gameID string, limit int) (*models.LeaderboardResponse, error) {
	if gameID == "" || len(gameID) > maxGameIDLen {
		return nil, fmt.Errorf("%w: invalid game id", ErrValidation)
	}
	if limit <= 0 {
		limit = defaultTopLimit
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}

	entries := s.index.Top(gameID, limit)

	codes := make([]string, len(entries))
	for i, e := range entries {
		codes[i] = e.UserID
	}
	names, err := s.accounts.UsernamesByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve display names: %w", err)
	}

	out := make([]models.LeaderboardEntry, 0, len(entries))
	for i, e := range entries {
		name, ok := names[e.UserID]
		if !ok {
			continue
		}
		out = append(out, models.LeaderboardEntry{
			Rank:     i + 1,
			Username: name,
			Score:    e.Score,
		})
	}

	return &models.LeaderboardResponse{GameID: gameID, Entries: out}, nil
}

// GetUserRank returns one account's rank and best score in a game
func (s *LeaderboardService) GetUserRank(ctx context.Context, accountID uint, gameID string) (*models.UserRankResponse, error) {
	user, err := s.accounts.GetUserByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}

	rank, score, ok := s.index.RankOf(gameID, user.UserCode)
	if !ok {
		return nil, ErrNotRanked
	}
	return &models.UserRankResponse{GameID: gameID, Rank: rank, Score: score}, nil
}

// RanksForUser collects a user's rank in every game they appear in,
// for profile rendering
func (s *LeaderboardService) RanksForUser(userCode string) []models.GameRank {
	games := s.index.Games()
	sort.Strings(games)

	out := make([]models.GameRank, 0, len(games))
	for _, game := range games {
		if rank, score, ok := s.index.RankOf(game, userCode); ok {
			out = append(out, models.GameRank{GameID: game, Rank: rank, Score: score})
		}
	}
	return out
}

// RebuildGame re-derives a game's board by replaying the ledger in
// submission order and swaps it into the index. This is the authority
// for resolving drift: replay applies the same keep-max rule as live
// traffic, so a rebuilt board ranks identically to one built
// incrementally in the same order.
func (s *LeaderboardService) RebuildGame(ctx context.Context, gameID string) error {
	board := ranking.NewBoard()
	err := s.ledger.ReplayGame(ctx, gameID, func(r models.ScoreRecord) error {
		board.Submit(r.UserCode, r.Score)
		return nil
	})
	if err != nil {
		return fmt.Errorf("rebuild of game %s failed: %w", gameID, err)
	}

	s.index.Replace(gameID, board)
	s.clearDirty(gameID)
	s.bumpVersion(ctx, gameID)
	return nil
}

// WarmStart rebuilds every game found in the ledger, so the index is
// populated before traffic is served
func (s *LeaderboardService) WarmStart(ctx context.Context) error {
	games, err := s.ledger.Games(ctx)
	if err != nil {
		return fmt.Errorf("failed to list games for warm start: %w", err)
	}
	for _, game := range games {
		if err := s.RebuildGame(ctx, game); err != nil {
			return err
		}
	}
	log.Printf("✓ Ranking index warmed from ledger (%d games)", len(games))
	return nil
}

// DirtyGames returns the games currently awaiting reconciliation
func (s *LeaderboardService) DirtyGames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.dirty))
	for game := range s.dirty {
		out = append(out, game)
	}
	sort.Strings(out)
	return out
}

func (s *LeaderboardService) markDirty(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty[gameID] = struct{}{}
}

func (s *LeaderboardService) clearDirty(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dirty, gameID)
}

// bumpVersion is best effort: live-update signaling must never fail a
// submission
func (s *LeaderboardService) bumpVersion(ctx context.Context, gameID string) {
	if s.versions == nil {
		return
	}
	if err := s.versions.BumpGameVersion(ctx, gameID); err != nil {
		log.Printf("⚠️  Failed to bump version for game %s: %v", gameID, err)
	}
}
