// Package ranking holds the in-memory ranking index: one ordered board
// per game, giving logarithmic submit, rank and top-N operations. The
// index is a derived cache; the score ledger is the source of truth
// and any board can be rebuilt from it by chronological replay.
package ranking

import "sync"

// Index shards boards by game id so games never contend on a shared
// lock. Boards are created lazily on first use and never destroyed.
type Index struct {
	mu     sync.RWMutex
	boards map[string]*Board
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{boards: make(map[string]*Board)}
}

// Board returns the board for gameID, creating it if needed
func (ix *Index) Board(gameID string) *Board {
	ix.mu.RLock()
	b, ok := ix.boards[gameID]
	ix.mu.RUnlock()
	if ok {
		return b
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if b, ok = ix.boards[gameID]; ok {
		return b
	}
	b = NewBoard()
	ix.boards[gameID] = b
	return b
}

// Replace atomically swaps in a rebuilt board for gameID. Used by
// reconciliation; in-flight readers finish against the old board.
func (ix *Index) Replace(gameID string, b *Board) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.boards[gameID] = b
}

// Games returns the ids of all games with a board
func (ix *Index) Games() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, 0, len(ix.boards))
	for id := range ix.boards {
		out = append(out, id)
	}
	return out
}

// Submit applies a submission to the game's board. The error return
// satisfies the index-store contract used by the submission
// orchestrator; the in-memory implementation never fails.
func (ix *Index) Submit(gameID, userID string, score int) (SubmitResult, error) {
	return ix.Board(gameID).Submit(userID, score), nil
}

// RankOf returns the user's 1-based rank and best score in a game
func (ix *Index) RankOf(gameID, userID string) (rank int, score int, ok bool) {
	return ix.Board(gameID).RankOf(userID)
}

// ScoreOf returns the user's best score in a game
func (ix *Index) ScoreOf(gameID, userID string) (int, bool) {
	return ix.Board(gameID).ScoreOf(userID)
}

// Top returns the game's top n entries, highest first
func (ix *Index) Top(gameID string, n int) []Entry {
	return ix.Board(gameID).Top(n)
}
