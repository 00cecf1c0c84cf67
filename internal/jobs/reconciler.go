// Package jobs holds background managers that run beside the HTTP
// server
package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// RebuildService is the slice of the leaderboard service the
// reconciler drives
type RebuildService interface {
	DirtyGames() []string
	RebuildGame(ctx context.Context, gameID string) error
}

// Reconciler repairs ranking-index drift: every tick it rebuilds each
// game marked dirty by a partial submission failure, replaying the
// ledger as the authority. A failed rebuild is fatal to that pass
// only; the game stays dirty and live reads keep serving the stale
// index.
type Reconciler struct {
	service  RebuildService
	interval time.Duration

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	rebuilt atomic.Int64
	failed  atomic.Int64
}

// NewReconciler creates a reconciler ticking at the given interval
func NewReconciler(service RebuildService, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Reconciler{
		service:  service,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the background loop
func (r *Reconciler) Start(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return fmt.Errorf("reconciler already running")
	}

	log.Printf("🚀 Reconciler started (interval: %v)", r.interval)

	r.wg.Add(1)
	go r.run(ctx)
	return nil
}

// Stop halts the loop and waits for an in-flight pass to finish
func (r *Reconciler) Stop() {
	if !r.running.CompareAndSwap(true, false) {
		return
	}
	close(r.stopCh)
	r.wg.Wait()
	log.Printf("✓ Reconciler stopped (rebuilt: %d, failed: %d)", r.rebuilt.Load(), r.failed.Load())
}

func (r *Reconciler) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.pass(ctx)
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// pass rebuilds every currently dirty game
func (r *Reconciler) pass(ctx context.Context) {
	for _, game := range r.service.DirtyGames() {
		rebuildCtx, cancel := context.WithTimeout(ctx, time.Minute)
		err := r.service.RebuildGame(rebuildCtx, game)
		cancel()

		if err != nil {
			r.failed.Add(1)
			log.Printf("❌ Reconciliation of game %s failed: %v", game, err)
			continue
		}
		r.rebuilt.Add(1)
		log.Printf("✓ Reconciled game %s from ledger", game)
	}
}

// Stats returns lifetime pass counters
func (r *Reconciler) Stats() (rebuilt, failed int64) {
	return r.rebuilt.Load(), r.failed.Load()
}
