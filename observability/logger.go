// Package observability records domain events to a dedicated SQLite
// database. Writes never propagate failure to the caller: a broken
// observability store must not break card interactions.
package observability

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/stampworks/stampcard/idgen"
)

// Event types written by the card controller.
const (
	EventCardCreated       = "card_created"
	EventRecordLoaded      = "record_loaded"
	EventRecordFailed      = "record_failed"
	EventDispenserSelected = "dispenser_selected"
	EventAddressCopied     = "address_copied"
)

// Event represents a domain-level event to record.
type Event struct {
	EventType string
	CardID    string
	StampID   string
	Detail    string // optional JSON
	Success   bool
}

// EventLogger writes card events and manages retention cleanup.
type EventLogger struct {
	db    *sql.DB
	newID idgen.Generator
}

// EventLoggerOption configures an EventLogger.
type EventLoggerOption func(*EventLogger)

// WithEventIDGenerator sets a custom ID generator for event IDs.
func WithEventIDGenerator(gen idgen.Generator) EventLoggerOption {
	return func(l *EventLogger) { l.newID = gen }
}

// NewEventLogger creates a logger backed by the given observability database.
func NewEventLogger(db *sql.DB, opts ...EventLoggerOption) *EventLogger {
	l := &EventLogger{
		db:    db,
		newID: idgen.Prefixed("evt_", idgen.Default),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// LogEvent records a card event. Errors are logged via slog but do not
// propagate.
func (l *EventLogger) LogEvent(ctx context.Context, event Event) {
	eventID := l.newID()
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO card_event_logs (
			event_id, event_type, card_id, stamp_id, detail, success, created_at
		) VALUES (?,?,?,?,?,?,?)`,
		eventID, event.EventType, event.CardID, event.StampID,
		event.Detail, event.Success, time.Now().Unix())
	if err != nil {
		slog.Error("observability event log failed", "error", err, "event_type", event.EventType)
	}
}

// RetentionConfig specifies per-table retention in days. Zero means no cleanup.
type RetentionConfig struct {
	HTTPLogsDays   int
	EventLogsDays  int
	RunVacuumAfter bool
}

// Cleanup deletes records exceeding the retention thresholds.
func Cleanup(ctx context.Context, db *sql.DB, cfg RetentionConfig) error {
	now := time.Now().Unix()

	type cleanupTarget struct {
		table string
		days  int
	}
	targets := []cleanupTarget{
		{"http_request_logs", cfg.HTTPLogsDays},
		{"card_event_logs", cfg.EventLogsDays},
	}

	for _, t := range targets {
		if t.days <= 0 {
			continue
		}
		cutoff := now - int64(t.days*86400)
		q := fmt.Sprintf("DELETE FROM %s WHERE created_at < ?", t.table)
		if _, err := db.ExecContext(ctx, q, cutoff); err != nil {
			return fmt.Errorf("cleanup %s: %w", t.table, err)
		}
	}

	if cfg.RunVacuumAfter {
		if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
			return fmt.Errorf("vacuum: %w", err)
		}
	}
	return nil
}
