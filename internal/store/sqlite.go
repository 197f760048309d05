// ABOUTME: SQLite implementation of the snapshot Store using modernc.org/sqlite.
// ABOUTME: One row per branch counter with automatic schema creation and WAL mode.

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/retailops/branchsim/internal/branch"
)

// SQLiteStore implements Store on a SQLite database. Each save replaces the
// branch's counter rows inside one transaction, so a snapshot is always
// observed whole.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// counterColumns maps snapshot keys to and from Counters fields.
const (
	keyShirts      = "stock_shirts"
	keyJeans       = "stock_jeans"
	keyStaff       = "staff_count"
	keySalesShirts = "sales_shirts"
	keySalesJeans  = "sales_jeans"
)

// NewSQLiteStore creates a SQLite snapshot store at the given path. The
// schema is created if it doesn't exist; parent directories are created as
// needed. Pass ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS branch_snapshots (
			branch TEXT NOT NULL,
			counter TEXT NOT NULL,
			value INTEGER NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (branch, counter)
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite snapshot store initialized", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Save replaces the branch's counters in one transaction.
func (s *SQLiteStore) Save(name string, c branch.Counters) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	counters := map[string]int{
		keyShirts:      c.Shirts,
		keyJeans:       c.Jeans,
		keyStaff:       c.Staff,
		keySalesShirts: c.SalesShirts,
		keySalesJeans:  c.SalesJeans,
	}
	for counter, value := range counters {
		if _, err := tx.Exec(
			`INSERT INTO branch_snapshots (branch, counter, value, updated_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (branch, counter) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			name, counter, value, now,
		); err != nil {
			return fmt.Errorf("writing counter %s: %w", counter, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Load reads the branch's counters. Missing rows fall back to defaults;
// a branch with no rows at all reports no snapshot.
func (s *SQLiteStore) Load(name string) (branch.Counters, bool, error) {
	rows, err := s.db.Query(
		`SELECT counter, value FROM branch_snapshots WHERE branch = ?`, name,
	)
	if err != nil {
		return branch.Counters{}, false, fmt.Errorf("querying snapshot: %w", err)
	}
	defer rows.Close()

	c := branch.DefaultCounters()
	found := false
	for rows.Next() {
		var counter string
		var value int
		if err := rows.Scan(&counter, &value); err != nil {
			return branch.Counters{}, false, fmt.Errorf("scanning snapshot row: %w", err)
		}
		found = true
		switch counter {
		case keyShirts:
			c.Shirts = value
		case keyJeans:
			c.Jeans = value
		case keyStaff:
			c.Staff = value
		case keySalesShirts:
			c.SalesShirts = value
		case keySalesJeans:
			c.SalesJeans = value
		}
	}
	if err := rows.Err(); err != nil {
		return branch.Counters{}, false, fmt.Errorf("reading snapshot rows: %w", err)
	}

	return c, found, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
