package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeRebuilder tracks a dirty set the way the leaderboard service
// does: a successful rebuild clears the game, a failed one leaves it
// dirty for the next pass
type fakeRebuilder struct {
	mu       sync.Mutex
	dirty    map[string]bool
	failures map[string]int
	rebuilds []string
}

func newFakeRebuilder(games ...string) *fakeRebuilder {
	dirty := make(map[string]bool)
	for _, g := range games {
		dirty[g] = true
	}
	return &fakeRebuilder{dirty: dirty, failures: make(map[string]int)}
}

func (f *fakeRebuilder) DirtyGames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var games []string
	for g := range f.dirty {
		games = append(games, g)
	}
	return games
}

func (f *fakeRebuilder) RebuildGame(_ context.Context, gameID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures[gameID] > 0 {
		f.failures[gameID]--
		return errors.New("replay unavailable")
	}
	delete(f.dirty, gameID)
	f.rebuilds = append(f.rebuilds, gameID)
	return nil
}

func (f *fakeRebuilder) dirtyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dirty)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

func TestReconcilerClearsDirtyGames(t *testing.T) {
	rebuilder := newFakeRebuilder("g1", "g2")
	reconciler := NewReconciler(rebuilder, 10*time.Millisecond)

	if err := reconciler.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer reconciler.Stop()

	waitFor(t, func() bool { return rebuilder.dirtyCount() == 0 })

	rebuilt, failed := reconciler.Stats()
	if rebuilt != 2 || failed != 0 {
		t.Fatalf("expected 2 rebuilds and no failures, got %d/%d", rebuilt, failed)
	}
}

func TestReconcilerRetriesFailedRebuilds(t *testing.T) {
	rebuilder := newFakeRebuilder("g1")
	rebuilder.failures["g1"] = 2

	reconciler := NewReconciler(rebuilder, 10*time.Millisecond)
	if err := reconciler.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer reconciler.Stop()

	// the game stays dirty across failed passes and recovers afterwards
	waitFor(t, func() bool { return rebuilder.dirtyCount() == 0 })

	rebuilt, failed := reconciler.Stats()
	if rebuilt != 1 {
		t.Fatalf("expected exactly one successful rebuild, got %d", rebuilt)
	}
	if failed != 2 {
		t.Fatalf("expected two recorded failures, got %d", failed)
	}
}

func TestReconcilerStartIsExclusive(t *testing.T) {
	reconciler := NewReconciler(newFakeRebuilder(), time.Hour)

	if err := reconciler.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := reconciler.Start(context.Background()); err == nil {
		t.Fatalf("second start must be rejected")
	}
	reconciler.Stop()

	// stopping twice is a no-op
	reconciler.Stop()
}

func TestReconcilerStopsOnContextCancel(t *testing.T) {
	rebuilder := newFakeRebuilder("g1")
	reconciler := NewReconciler(rebuilder, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	if err := reconciler.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		reconciler.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("loop did not exit after context cancellation")
	}
}
