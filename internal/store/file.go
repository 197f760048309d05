// ABOUTME: File-backed snapshot store using per-branch directories of key-value text files.
// ABOUTME: Keeps the legacy on-disk layout: stock.txt, staff.txt, sales.txt under data_<branch>/.

package store

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/retailops/branchsim/internal/branch"
)

// FileStore persists snapshots as whitespace-separated "key value" text
// files, one directory per branch under a common root. The format matches
// what earlier deployments of the simulator wrote, so old data directories
// load unchanged.
type FileStore struct {
	root   string
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}

	logger := slog.Default().With("component", "store")
	logger.Info("file snapshot store initialized", "dir", dir)
	return &FileStore{root: dir, logger: logger}, nil
}

// branchDir returns the snapshot directory for one branch.
func (s *FileStore) branchDir(name string) string {
	return filepath.Join(s.root, "data_"+name)
}

// Save writes the three snapshot files, overwriting whatever was there.
func (s *FileStore) Save(name string, c branch.Counters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	dir := s.branchDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating branch directory: %w", err)
	}

	files := map[string]string{
		"stock.txt": fmt.Sprintf("shirts %d\njeans %d\n", c.Shirts, c.Jeans),
		"staff.txt": fmt.Sprintf("staff_count %d\n", c.Staff),
		"sales.txt": fmt.Sprintf("shirts %d\njeans %d\n", c.SalesShirts, c.SalesJeans),
	}
	for file, body := range files {
		if err := os.WriteFile(filepath.Join(dir, file), []byte(body), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", file, err)
		}
	}
	return nil
}

// Load reads the snapshot files for one branch. A branch with no directory
// (or no readable files) reports no snapshot; malformed lines are skipped.
func (s *FileStore) Load(name string) (branch.Counters, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return branch.Counters{}, false, ErrClosed
	}

	dir := s.branchDir(name)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return branch.Counters{}, false, nil
		}
		return branch.Counters{}, false, fmt.Errorf("checking branch directory: %w", err)
	}

	c := branch.DefaultCounters()
	found := false

	if kv, ok := readKeyValues(filepath.Join(dir, "stock.txt")); ok {
		found = true
		if v, ok := kv["shirts"]; ok {
			c.Shirts = v
		}
		if v, ok := kv["jeans"]; ok {
			c.Jeans = v
		}
	}
	if kv, ok := readKeyValues(filepath.Join(dir, "staff.txt")); ok {
		found = true
		if v, ok := kv["staff_count"]; ok {
			c.Staff = v
		}
	}
	if kv, ok := readKeyValues(filepath.Join(dir, "sales.txt")); ok {
		found = true
		if v, ok := kv["shirts"]; ok {
			c.SalesShirts = v
		}
		if v, ok := kv["jeans"]; ok {
			c.SalesJeans = v
		}
	}

	return c, found, nil
}

// Close marks the store closed. File stores hold no open handles between
// operations, so this only fences further use.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// readKeyValues parses a "key value" per-line file into a map. Returns
// ok=false when the file cannot be opened.
func readKeyValues(path string) (map[string]int, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	kv := make(map[string]int)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		v, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		kv[fields[0]] = v
	}
	return kv, true
}
