package ranking

import "math/rand"

const (
	maxLevel = 32
	pFactor  = 0.25
)

// key orders the list: higher score first, and on equal scores the
// entry whose best was reached first (lower seq) stays ahead.
type key struct {
	score int
	seq   uint64
}

// before reports whether a sorts ahead of b
func (a key) before(b key) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.seq < b.seq
}

type slNode struct {
	user string
	key  key
	next []*slNode
	// span[i] is the number of ranked positions crossed when following
	// next[i], which is what makes rank lookups logarithmic
	span []int
}

// skiplist is an order-statistics skip list, the same structure that
// backs a Redis sorted set. Not safe for concurrent use; the owning
// Board serializes access.
type skiplist struct {
	head   *slNode
	level  int
	length int
}

func newSkiplist() *skiplist {
	return &skiplist{
		head: &slNode{
			next: make([]*slNode, maxLevel),
			span: make([]int, maxLevel),
		},
		level: 1,
	}
}

func randomLevel() int {
	lvl := 1
	for lvl < maxLevel && rand.Float64() < pFactor {
		lvl++
	}
	return lvl
}

// insert adds a node for user at key k. The caller guarantees k is not
// already present (seq values are never reused).
func (sl *skiplist) insert(user string, k key) {
	var update [maxLevel]*slNode
	var rank [maxLevel]int

	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		if i == sl.level-1 {
			rank[i] = 0
		} else {
			rank[i] = rank[i+1]
		}
		for x.next[i] != nil && x.next[i].key.before(k) {
			rank[i] += x.span[i]
			x = x.next[i]
		}
		update[i] = x
	}

	lvl := randomLevel()
	if lvl > sl.level {
		for i := sl.level; i < lvl; i++ {
			rank[i] = 0
			update[i] = sl.head
			update[i].span[i] = sl.length
		}
		sl.level = lvl
	}

	x = &slNode{
		user: user,
		key:  k,
		next: make([]*slNode, lvl),
		span: make([]int, lvl),
	}
	for i := 0; i < lvl; i++ {
		x.next[i] = update[i].next[i]
		update[i].next[i] = x
		x.span[i] = update[i].span[i] - (rank[0] - rank[i])
		update[i].span[i] = (rank[0] - rank[i]) + 1
	}
	for i := lvl; i < sl.level; i++ {
		update[i].span[i]++
	}
	sl.length++
}

// delete removes the node at key k, if present
func (sl *skiplist) delete(k key) bool {
	var update [maxLevel]*slNode

	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && x.next[i].key.before(k) {
			x = x.next[i]
		}
		update[i] = x
	}

	x = x.next[0]
	if x == nil || x.key != k {
		return false
	}

	for i := 0; i < sl.level; i++ {
		if update[i].next[i] == x {
			update[i].span[i] += x.span[i] - 1
			update[i].next[i] = x.next[i]
		} else {
			update[i].span[i]--
		}
	}
	for sl.level > 1 && sl.head.next[sl.level-1] == nil {
		sl.level--
	}
	sl.length--
	return true
}

// rank returns the 0-based position of key k: the count of entries
// sorting strictly ahead of it
func (sl *skiplist) rank(k key) (int, bool) {
	x := sl.head
	pos := 0
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && x.next[i].key.before(k) {
			pos += x.span[i]
			x = x.next[i]
		}
	}
	x = x.next[0]
	if x == nil || x.key != k {
		return 0, false
	}
	return pos, true
}

// top returns up to n entries from the front of the list
func (sl *skiplist) top(n int) []Entry {
	if n < 0 {
		n = 0
	}
	out := make([]Entry, 0, min(n, sl.length))
	x := sl.head.next[0]
	for x != nil && len(out) < n {
		out = append(out, Entry{UserID: x.user, Score: x.key.score})
		x = x.next[0]
	}
	return out
}
