// ABOUTME: Tests for the SQLite snapshot store: round-trips, overwrites, persistence on disk.
// ABOUTME: Uses in-memory databases except where reopen behavior is under test.

package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/branchsim/internal/branch"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := newSQLiteStore(t)

	want := branch.Counters{Shirts: 12, Jeans: 0, Staff: 8, SalesShirts: 41, SalesJeans: 7}
	require.NoError(t, s.Save("Surat", want))

	got, ok, err := s.Load("Surat")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestSQLiteStoreMissingBranch(t *testing.T) {
	s := newSQLiteStore(t)

	_, ok, err := s.Load("Nowhere")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreOverwritesWholesale(t *testing.T) {
	s := newSQLiteStore(t)

	require.NoError(t, s.Save("Surat", branch.Counters{Shirts: 100, Jeans: 50, Staff: 9}))
	want := branch.Counters{Shirts: 1, Jeans: 2, Staff: 3, SalesShirts: 4, SalesJeans: 5}
	require.NoError(t, s.Save("Surat", want))

	got, ok, err := s.Load("Surat")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestSQLiteStoreBranchesAreIndependent(t *testing.T) {
	s := newSQLiteStore(t)

	require.NoError(t, s.Save("A", branch.Counters{Staff: 1}))
	require.NoError(t, s.Save("B", branch.Counters{Staff: 2}))

	a, _, err := s.Load("A")
	require.NoError(t, err)
	b, _, err := s.Load("B")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Staff)
	assert.Equal(t, 2, b.Staff)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	want := branch.Counters{Shirts: 6, Jeans: 7, Staff: 8, SalesShirts: 9, SalesJeans: 10}
	require.NoError(t, s.Save("Vadodara", want))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.Load("Vadodara")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestSQLiteStoreZeroValuesRoundTrip(t *testing.T) {
	s := newSQLiteStore(t)

	require.NoError(t, s.Save("Empty", branch.Counters{}))

	got, ok, err := s.Load("Empty")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, branch.Counters{}, got)
}
