package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gamehub/internal/models"
	"gamehub/internal/ranking"
	"gamehub/internal/repository"
	"gamehub/internal/service"

	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	users map[uint]*models.User
}

func (f *fakeAccounts) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeAccounts) UsernamesByCodes(_ context.Context, codes []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, code := range codes {
		for _, user := range f.users {
			if user.UserCode == code {
				out[code] = user.Username
			}
		}
	}
	return out, nil
}

type memLedger struct {
	mu          sync.Mutex
	records     []models.ScoreRecord
	appendErr   error
	appendCalls int
	nextID      uint
}

func (l *memLedger) Append(_ context.Context, userCode, gameID string, score int) (*models.ScoreRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appendCalls++
	if l.appendErr != nil {
		return nil, l.appendErr
	}
	l.nextID++
	record := models.ScoreRecord{
		ID:        l.nextID,
		UserCode:  userCode,
		GameID:    gameID,
		Score:     score,
		CreatedAt: time.Now(),
	}
	l.records = append(l.records, record)
	return &record, nil
}

func (l *memLedger) ReplayGame(_ context.Context, gameID string, fn func(models.ScoreRecord) error) error {
	l.mu.Lock()
	records := make([]models.ScoreRecord, len(l.records))
	copy(records, l.records)
	l.mu.Unlock()

	for _, record := range records {
		if record.GameID != gameID {
			continue
		}
		if err := fn(record); err != nil {
			return err
		}
	}
	return nil
}

func (l *memLedger) Games(_ context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[string]bool)
	var games []string
	for _, record := range l.records {
		if !seen[record.GameID] {
			seen[record.GameID] = true
			games = append(games, record.GameID)
		}
	}
	return games, nil
}

// flakyIndex injects index-store failures to exercise the
// partial-failure path
type flakyIndex struct {
	*ranking.Index
	failSubmits bool
}

func (f *flakyIndex) Submit(gameID, userID string, score int) (ranking.SubmitResult, error) {
	if f.failSubmits {
		return ranking.SubmitResult{}, errors.New("index unavailable")
	}
	return f.Index.Submit(gameID, userID, score)
}

func newFixture() (*service.LeaderboardService, *fakeAccounts, *memLedger, *flakyIndex) {
	accounts := &fakeAccounts{users: map[uint]*models.User{
		1: {ID: 1, UserCode: "code-1", Username: "alice", IsActive: true},
		2: {ID: 2, UserCode: "code-2", Username: "bob", IsActive: true},
		3: {ID: 3, UserCode: "code-3", Username: "carol", IsActive: false},
	}}
	ledger := &memLedger{}
	index := &flakyIndex{Index: ranking.NewIndex()}
	svc := service.NewLeaderboardService(accounts, ledger, index, nil)
	return svc, accounts, ledger, index
}

func TestSubmitScore(t *testing.T) {
	svc, _, ledger, _ := newFixture()
	ctx := context.Background()

	resp, err := svc.SubmitScore(ctx, 1, "g1", 50)
	require.NoError(t, err)
	require.True(t, resp.Improved)
	require.True(t, resp.RankAvailable)
	require.Equal(t, 1, resp.Rank)
	require.Equal(t, 0, resp.PreviousBest)
	require.Len(t, ledger.records, 1)
	require.Equal(t, "code-1", ledger.records[0].UserCode)

	// spec scenario: u2 takes the lead, a lower score changes nothing,
	// then u1 retakes the lead
	resp, err = svc.SubmitScore(ctx, 2, "g1", 70)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Rank)

	resp, err = svc.SubmitScore(ctx, 1, "g1", 40)
	require.NoError(t, err)
	require.False(t, resp.Improved)
	require.Equal(t, 50, resp.PreviousBest)
	require.Equal(t, 2, resp.Rank)
	require.Len(t, ledger.records, 3, "every submission must reach the ledger, applied or not")

	resp, err = svc.SubmitScore(ctx, 1, "g1", 90)
	require.NoError(t, err)
	require.True(t, resp.Improved)
	require.Equal(t, 1, resp.Rank)
}

func TestSubmitScoreValidation(t *testing.T) {
	svc, _, ledger, _ := newFixture()
	ctx := context.Background()

	_, err := svc.SubmitScore(ctx, 1, "g1", -5)
	require.ErrorIs(t, err, service.ErrValidation)

	_, err = svc.SubmitScore(ctx, 1, "", 5)
	require.ErrorIs(t, err, service.ErrValidation)

	require.Zero(t, ledger.appendCalls, "validation failures must not reach the ledger")
}

func TestSubmitScoreAccountChecks(t *testing.T) {
	svc, _, ledger, _ := newFixture()
	ctx := context.Background()

	_, err := svc.SubmitScore(ctx, 99, "g1", 5)
	require.ErrorIs(t, err, service.ErrAccountNotFound)

	_, err = svc.SubmitScore(ctx, 3, "g1", 5)
	require.ErrorIs(t, err, service.ErrAccountInactive)

	require.Zero(t, ledger.appendCalls, "account failures must precede any ledger write")
}

func TestSubmitScoreLedgerFailure(t *testing.T) {
	svc, _, ledger, index := newFixture()
	ctx := context.Background()

	ledger.appendErr = errors.New("disk full")

	_, err := svc.SubmitScore(ctx, 1, "g1", 50)
	require.ErrorIs(t, err, service.ErrPersistence)
	require.Equal(t, 3, ledger.appendCalls, "append should be retried a bounded number of times")

	_, _, ok := index.RankOf("g1", "code-1")
	require.False(t, ok, "index must not be touched when the ledger write fails")
}

func TestSubmitScorePartialFailure(t *testing.T) {
	svc, _, ledger, index := newFixture()
	ctx := context.Background()

	index.failSubmits = true

	resp, err := svc.SubmitScore(ctx, 1, "g1", 50)
	require.ErrorIs(t, err, service.ErrPartialFailure)
	require.NotNil(t, resp, "the ledger outcome must still be reported")
	require.False(t, resp.RankAvailable)
	require.Len(t, ledger.records, 1, "the ledger write must survive")
	require.Equal(t, []string{"g1"}, svc.DirtyGames())

	// user stays unranked until reconciliation completes
	_, err = svc.GetUserRank(ctx, 1, "g1")
	require.ErrorIs(t, err, service.ErrNotRanked)

	// reconciliation replays the ledger and repairs the index
	index.failSubmits = false
	require.NoError(t, svc.RebuildGame(ctx, "g1"))
	require.Empty(t, svc.DirtyGames())

	rank, err := svc.GetUserRank(ctx, 1, "g1")
	require.NoError(t, err)
	require.Equal(t, 1, rank.Rank)
	require.Equal(t, 50, rank.Score)
}

func TestRebuildMatchesLiveApplication(t *testing.T) {
	svc, _, _, index := newFixture()
	ctx := context.Background()

	// interleaved submissions, including ties and improvements
	type sub struct {
		account uint
		score   int
	}
	subs := []sub{
		{1, 100}, {2, 100}, {1, 110}, {2, 40}, {1, 90}, {2, 110},
	}
	for _, s := range subs {
		_, err := svc.SubmitScore(ctx, s.account, "g1", s.score)
		require.NoError(t, err)
	}

	liveTop := index.Top("g1", 10)

	// rebuild from the ledger and compare ranking
	require.NoError(t, svc.RebuildGame(ctx, "g1"))
	rebuiltTop := index.Top("g1", 10)

	require.Equal(t, liveTop, rebuiltTop, "replay must reproduce the live ranking exactly")
}

func TestWarmStart(t *testing.T) {
	svc, _, ledger, index := newFixture()
	ctx := context.Background()

	ledger.Append(ctx, "code-1", "g1", 50)
	ledger.Append(ctx, "code-2", "g1", 70)
	ledger.Append(ctx, "code-1", "g2", 10)

	require.NoError(t, svc.WarmStart(ctx))

	rank, _, ok := index.RankOf("g1", "code-2")
	require.True(t, ok)
	require.Equal(t, 1, rank)
	rank, _, ok = index.RankOf("g2", "code-1")
	require.True(t, ok)
	require.Equal(t, 1, rank)
}

func TestGetTop(t *testing.T) {
	svc, accounts, _, _ := newFixture()
	ctx := context.Background()

	svc.SubmitScore(ctx, 1, "g1", 50)
	svc.SubmitScore(ctx, 2, "g1", 70)

	resp, err := svc.GetTop(ctx, "g1", 10)
	require.NoError(t, err)
	require.Equal(t, []models.LeaderboardEntry{
		{Rank: 1, Username: "bob", Score: 70},
		{Rank: 2, Username: "alice", Score: 50},
	}, resp.Entries)

	// a deleted account drops out of the listing but later entries keep
	// their rank positions
	delete(accounts.users, 2)
	resp, err = svc.GetTop(ctx, "g1", 10)
	require.NoError(t, err)
	require.Equal(t, []models.LeaderboardEntry{
		{Rank: 2, Username: "alice", Score: 50},
	}, resp.Entries)
}

func TestGetUserRankNotRanked(t *testing.T) {
	svc, _, _, _ := newFixture()
	ctx := context.Background()

	_, err := svc.GetUserRank(ctx, 1, "g1")
	require.ErrorIs(t, err, service.ErrNotRanked)
}

func TestRanksForUser(t *testing.T) {
	svc, _, _, _ := newFixture()
	ctx := context.Background()

	svc.SubmitScore(ctx, 1, "g1", 50)
	svc.SubmitScore(ctx, 1, "g2", 10)
	svc.SubmitScore(ctx, 2, "g2", 20)

	ranks := svc.RanksForUser("code-1")
	require.Equal(t, []models.GameRank{
		{GameID: "g1", Rank: 1, Score: 50},
		{GameID: "g2", Rank: 2, Score: 10},
	}, ranks)
}

func TestConcurrentSubmissionsAcrossGames(t *testing.T) {
	svc, accounts, _, index := newFixture()
	ctx := context.Background()

	for id := uint(10); id < 20; id++ {
		accounts.users[id] = &models.User{
			ID:       id,
			UserCode: fmt.Sprintf("code-%d", id),
			Username: fmt.Sprintf("user-%d", id),
			IsActive: true,
		}
	}

	var wg sync.WaitGroup
	for id := uint(10); id < 20; id++ {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			game := fmt.Sprintf("game-%d", id%3)
			for score := 0; score < 50; score++ {
				_, err := svc.SubmitScore(ctx, id, game, score)
				require.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	// every user's stored best is their maximum submission
	for id := uint(10); id < 20; id++ {
		game := fmt.Sprintf("game-%d", id%3)
		score, ok := index.ScoreOf(game, fmt.Sprintf("code-%d", id))
		require.True(t, ok)
		require.Equal(t, 49, score)
	}
}
