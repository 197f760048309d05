// ABOUTME: Store interface and shared errors for branch snapshot persistence.
// ABOUTME: Snapshots are overwritten wholesale on each save and read once at branch startup.

package store

import (
	"errors"

	"github.com/retailops/branchsim/internal/branch"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Store persists branch snapshots: a small set of named integer counters
// scoped by branch identity. Implementations must round-trip counters
// exactly; the on-disk encoding is otherwise theirs to choose.
type Store interface {
	// Load returns the persisted counters for the named branch, reporting
	// whether a snapshot existed. A missing snapshot is not an error.
	Load(name string) (branch.Counters, bool, error)

	// Save overwrites the named branch's snapshot wholesale.
	Save(name string, c branch.Counters) error

	// Close releases the store.
	Close() error
}
