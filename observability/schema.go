package observability

import "database/sql"

// Schema contains the DDL for the observability tables the stampcard
// service writes: domain events and HTTP request logs.
const Schema = `
-- Card Event Logs
CREATE TABLE IF NOT EXISTS card_event_logs (
    event_id TEXT PRIMARY KEY,
    event_type TEXT NOT NULL,
    card_id TEXT,
    stamp_id TEXT,
    detail TEXT,
    success INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_card_events_type ON card_event_logs(event_type, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_card_events_stamp ON card_event_logs(stamp_id, created_at DESC);

-- HTTP Request Logs (for retention cleanup)
CREATE TABLE IF NOT EXISTS http_request_logs (
    log_id TEXT PRIMARY KEY DEFAULT ('hrl_' || hex(randomblob(16))),
    method TEXT NOT NULL,
    path TEXT NOT NULL,
    trace_id TEXT,
    status_code INTEGER,
    duration_ms INTEGER,
    ip_address TEXT,
    user_agent TEXT,
    created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_http_logs_time ON http_request_logs(created_at DESC);
`

// Init applies the observability schema to the given database.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
