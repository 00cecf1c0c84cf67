package ledger_test

import (
	"context"
	"errors"
	"testing"

	"gamehub/internal/ledger"
	"gamehub/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *ledger.Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.ScoreRecord{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return ledger.New(db)
}

func TestAppendCreatesImmutableRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Append(ctx, "code-1", "g1", 50)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if first.ID == 0 {
		t.Fatalf("expected record to get an id")
	}

	// a second submission for the same pair appends, never overwrites
	second, err := store.Append(ctx, "code-1", "g1", 40)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("expected a new record, got the same id")
	}
}

func TestBestScore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, found, err := store.BestScore(ctx, "code-1", "g1"); err != nil || found {
		t.Fatalf("expected no best score for empty ledger, found=%v err=%v", found, err)
	}

	for _, s := range []int{30, 90, 60} {
		if _, err := store.Append(ctx, "code-1", "g1", s); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	// other pairs must not leak in
	store.Append(ctx, "code-2", "g1", 500)
	store.Append(ctx, "code-1", "g2", 500)

	best, found, err := store.BestScore(ctx, "code-1", "g1")
	if err != nil {
		t.Fatalf("best score failed: %v", err)
	}
	if !found || best != 90 {
		t.Fatalf("expected best 90, got %d (found=%v)", best, found)
	}
}

func TestReplayGameInSubmissionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	type sub struct {
		user  string
		score int
	}
	subs := []sub{
		{"code-1", 50}, {"code-2", 70}, {"code-1", 40}, {"code-1", 90},
	}
	for _, s := range subs {
		if _, err := store.Append(ctx, s.user, "g1", s.score); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	store.Append(ctx, "code-9", "other-game", 999)

	var replayed []sub
	err := store.ReplayGame(ctx, "g1", func(r models.ScoreRecord) error {
		replayed = append(replayed, sub{r.UserCode, r.Score})
		return nil
	})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	if len(replayed) != len(subs) {
		t.Fatalf("expected %d records, got %d", len(subs), len(replayed))
	}
	for i := range subs {
		if replayed[i] != subs[i] {
			t.Fatalf("position %d: expected %v, got %v", i, subs[i], replayed[i])
		}
	}
}

func TestReplayGameStopsOnCallbackError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.Append(ctx, "code-1", "g1", i)
	}

	boom := errors.New("boom")
	seen := 0
	err := store.ReplayGame(ctx, "g1", func(models.ScoreRecord) error {
		seen++
		if seen == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if seen != 2 {
		t.Fatalf("expected replay to stop at 2 records, saw %d", seen)
	}
}

func TestGames(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Append(ctx, "code-1", "g2", 1)
	store.Append(ctx, "code-1", "g1", 1)
	store.Append(ctx, "code-2", "g1", 2)

	games, err := store.Games(ctx)
	if err != nil {
		t.Fatalf("games failed: %v", err)
	}
	if len(games) != 2 || games[0] != "g1" || games[1] != "g2" {
		t.Fatalf("expected [g1 g2], got %v", games)
	}
}
