// Package catalog provides the read-only chapter/page/artist lookup for
// stamp identifiers. The table lives in its own SQLite database, is loaded
// wholesale into memory for constant-time lookups, and hot-reloads when
// another process rewrites the file. Absence of an entry is a valid state:
// the card simply renders those fields empty.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stampworks/stampcard/watch"
)

// Schema is the DDL for the catalog table.
const Schema = `
CREATE TABLE IF NOT EXISTS stamp_catalog (
    stamp_id TEXT PRIMARY KEY,
    chapter  TEXT NOT NULL DEFAULT '',
    page     TEXT NOT NULL DEFAULT '',
    artist   TEXT NOT NULL DEFAULT ''
);
`

// Entry is the descriptive metadata for one stamp identifier.
type Entry struct {
	Chapter string `json:"chapter"`
	Page    string `json:"page"`
	Artist  string `json:"artist"`
}

// Service is an in-memory snapshot of the catalog table.
type Service struct {
	db     *sql.DB
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates a Service and performs the initial load.
func New(ctx context.Context, db *sql.DB, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{db: db, logger: logger}
	if err := s.Reload(ctx); err != nil {
		return nil, fmt.Errorf("catalog: initial load: %w", err)
	}
	return s, nil
}

// Reload replaces the in-memory snapshot with the current table contents.
func (s *Service) Reload(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT stamp_id, chapter, page, artist FROM stamp_catalog")
	if err != nil {
		return fmt.Errorf("catalog: query: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]Entry)
	for rows.Next() {
		var id string
		var e Entry
		if err := rows.Scan(&id, &e.Chapter, &e.Page, &e.Artist); err != nil {
			return fmt.Errorf("catalog: scan: %w", err)
		}
		entries[id] = e
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("catalog: rows: %w", err)
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	s.logger.Info("catalog: loaded", "entries", len(entries))
	return nil
}

// Lookup returns the entry for stampID. The boolean reports presence;
// a missing entry is not an error.
func (s *Service) Lookup(stampID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[stampID]
	return e, ok
}

// Len returns the number of loaded entries.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// StartWatcher polls the catalog database and reloads the snapshot on
// change. Blocks until ctx is cancelled; run it in a goroutine.
func (s *Service) StartWatcher(ctx context.Context, interval time.Duration) {
	w := watch.New(s.db, watch.Options{
		Interval: interval,
		Debounce: 250 * time.Millisecond,
		Logger:   s.logger,
	})
	w.OnChange(ctx, func() error { return s.Reload(ctx) })

	st := w.Stats()
	s.logger.Info("catalog watcher stopped",
		"checks", st.Checks,
		"changes", st.ChangesDetected,
		"reloads", st.Reloads,
		"errors", st.Errors)
}
