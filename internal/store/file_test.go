// ABOUTME: Tests for the file-backed snapshot store: round-trips, legacy format, fallbacks.
// ABOUTME: Verifies the on-disk layout stays compatible with existing data directories.

package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailops/branchsim/internal/branch"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFileStoreRoundTrip(t *testing.T) {
	s := newFileStore(t)

	want := branch.Counters{Shirts: 12, Jeans: 0, Staff: 8, SalesShirts: 41, SalesJeans: 7}
	require.NoError(t, s.Save("Surat", want))

	got, ok, err := s.Load("Surat")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestFileStoreMissingBranch(t *testing.T) {
	s := newFileStore(t)

	_, ok, err := s.Load("Nowhere")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreOverwritesWholesale(t *testing.T) {
	s := newFileStore(t)

	require.NoError(t, s.Save("Surat", branch.Counters{Shirts: 100, Jeans: 100, Staff: 10}))
	want := branch.Counters{Shirts: 1, Jeans: 2, Staff: 3, SalesShirts: 4, SalesJeans: 5}
	require.NoError(t, s.Save("Surat", want))

	got, ok, err := s.Load("Surat")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestFileStoreBranchesAreIndependent(t *testing.T) {
	s := newFileStore(t)

	require.NoError(t, s.Save("A", branch.Counters{Shirts: 1}))
	require.NoError(t, s.Save("B", branch.Counters{Shirts: 2}))

	a, _, err := s.Load("A")
	require.NoError(t, err)
	b, _, err := s.Load("B")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Shirts)
	assert.Equal(t, 2, b.Shirts)
}

// TestFileStoreLegacyLayout writes the files by hand in the historical
// format and expects the store to read them back.
func TestFileStoreLegacyLayout(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "data_Ahmedabad")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "stock.txt"), []byte("shirts 15\njeans 9\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "staff.txt"), []byte("staff_count 6\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sales.txt"), []byte("shirts 5\njeans 11\n"), 0o644))

	s, err := NewFileStore(root)
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.Load("Ahmedabad")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, branch.Counters{Shirts: 15, Jeans: 9, Staff: 6, SalesShirts: 5, SalesJeans: 11}, got)
}

func TestFileStorePartialFilesFallBackToDefaults(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "data_Surat")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	// Only stock was persisted; staff and sales keep their defaults.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stock.txt"), []byte("shirts 3\njeans 4\nnonsense here\n"), 0o644))

	s, err := NewFileStore(root)
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.Load("Surat")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, got.Shirts)
	assert.Equal(t, 4, got.Jeans)
	assert.Equal(t, 5, got.Staff)
	assert.Equal(t, 0, got.SalesShirts)
}

func TestFileStoreClosed(t *testing.T) {
	s := newFileStore(t)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Save("Surat", branch.Counters{}), ErrClosed)
	_, _, err := s.Load("Surat")
	assert.ErrorIs(t, err, ErrClosed)
}
