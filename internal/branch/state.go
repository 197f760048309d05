// ABOUTME: Mutually-exclusive per-branch state record for stock, staff, and sales.
// ABOUTME: All mutations are check-and-apply under a single lock so stock never goes negative.

package branch

import (
	"math/rand"
	"sync"
)

// Item names recognized by a branch.
const (
	ItemShirts = "shirts"
	ItemJeans  = "jeans"
)

// Counters is an immutable copy of a branch's stock, staff, and cumulative
// sales figures. It is the unit persisted by snapshot stores and the shape
// returned by State.Snapshot.
type Counters struct {
	Shirts      int
	Jeans       int
	Staff       int
	SalesShirts int
	SalesJeans  int
}

// DefaultCounters returns the figures a fresh branch opens with when no
// snapshot exists: 20 shirts, 20 jeans, 5 staff, zero sales.
func DefaultCounters() Counters {
	return Counters{Shirts: 20, Jeans: 20, Staff: 5}
}

// State holds one branch's live counters behind a mutex. It is mutated
// concurrently by the command loop and the background sales ticker, and read
// by the autosave ticker; every operation takes the lock for its full
// check-and-apply so no partial mutation is ever observable.
type State struct {
	mu sync.Mutex
	c  Counters
}

// NewState creates a State initialized to the given counters.
func NewState(c Counters) *State {
	return &State{c: c}
}

// Restock adds qty units of the named item. Quantities below zero are
// treated as zero. An unrecognized item is a no-op; callers still report
// success for it, matching the wire protocol's lenient contract.
func (s *State) Restock(item string, qty int) {
	if qty < 0 {
		qty = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch item {
	case ItemShirts:
		s.c.Shirts += qty
	case ItemJeans:
		s.c.Jeans += qty
	}
}

// Sell attempts to sell qty units of the named item. It succeeds only if the
// item is recognized and current stock covers the quantity; on success stock
// decreases and cumulative sales increase by qty in the same critical
// section. On failure the state is unchanged.
func (s *State) Sell(item string, qty int) bool {
	if qty < 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch item {
	case ItemShirts:
		if s.c.Shirts < qty {
			return false
		}
		s.c.Shirts -= qty
		s.c.SalesShirts += qty
	case ItemJeans:
		if s.c.Jeans < qty {
			return false
		}
		s.c.Jeans -= qty
		s.c.SalesJeans += qty
	default:
		return false
	}
	return true
}

// Hire adds one staff member and returns the new headcount.
func (s *State) Hire() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.c.Staff++
	return s.c.Staff
}

// Snapshot returns an atomic copy of all counters. The copy is taken under
// the lock, then the lock is released before the caller does any I/O.
func (s *State) Snapshot() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.c
}

// ApplyRandomSale simulates one tick of walk-in trade. For each item
// independently, with fixed odds (1 in 5 for shirts, 1 in 7 for jeans) and
// only while stock remains, one unit moves from stock to sales.
func (s *State) ApplyRandomSale(rng *rand.Rand) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.c.Shirts > 0 && rng.Intn(5) == 0 {
		s.c.Shirts--
		s.c.SalesShirts++
	}
	if s.c.Jeans > 0 && rng.Intn(7) == 0 {
		s.c.Jeans--
		s.c.SalesJeans++
	}
}
