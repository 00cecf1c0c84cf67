package ranking

import "sync"

// Entry is one ranked row: a user's current best score in one game
type Entry struct {
	UserID string `json:"user_id"`
	Score  int    `json:"score"`
}

// SubmitResult reports what a submission did to the board
type SubmitResult struct {
	// Applied is true when the submission improved the user's best
	Applied bool
	// PreviousBest is the stored score before this submission, 0 for a
	// first submission
	PreviousBest int
	// Rank is the user's 1-based rank after the submission (or the
	// unchanged rank when Applied is false)
	Rank int
}

// Board holds the ranking for a single game: each user's best score,
// ordered by score descending with earlier-improvement-first ties.
// All methods are safe for concurrent use; mutations take the write
// lock so readers never observe a half-applied update.
type Board struct {
	mu      sync.RWMutex
	list    *skiplist
	entries map[string]key
	nextSeq uint64
}

// NewBoard creates an empty board
func NewBoard() *Board {
	return &Board{
		list:    newSkiplist(),
		entries: make(map[string]key),
	}
}

// Submit applies the keep-max rule. A score above the user's stored
// best replaces it and re-anchors their tie-break position (the entry
// is re-inserted with a fresh sequence number); an equal or lower
// score changes nothing, including tie order.
func (b *Board) Submit(userID string, score int) SubmitResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	old, exists := b.entries[userID]
	if exists && score <= old.score {
		pos, _ := b.list.rank(old)
		return SubmitResult{
			Applied:      false,
			PreviousBest: old.score,
			Rank:         pos + 1,
		}
	}

	if exists {
		b.list.delete(old)
	}

	k := key{score: score, seq: b.nextSeq}
	b.nextSeq++
	b.list.insert(userID, k)
	b.entries[userID] = k

	previous := 0
	if exists {
		previous = old.score
	}
	pos, _ := b.list.rank(k)
	return SubmitResult{
		Applied:      true,
		PreviousBest: previous,
		Rank:         pos + 1,
	}
}

// RankOf returns the user's 1-based rank and stored best score
func (b *Board) RankOf(userID string) (rank int, score int, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	k, exists := b.entries[userID]
	if !exists {
		return 0, 0, false
	}
	pos, found := b.list.rank(k)
	if !found {
		return 0, 0, false
	}
	return pos + 1, k.score, true
}

// ScoreOf returns the user's stored best score
func (b *Board) ScoreOf(userID string) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	k, exists := b.entries[userID]
	if !exists {
		return 0, false
	}
	return k.score, true
}

// Top returns up to n entries, highest first
func (b *Board) Top(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.list.top(n)
}

// Len returns the number of ranked users
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.list.length
}
