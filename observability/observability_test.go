package observability

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stampworks/stampcard/dbopen"
	"github.com/stampworks/stampcard/kit"
	_ "modernc.org/sqlite"
)

func TestLogEvent(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	l := NewEventLogger(db)
	ctx := context.Background()

	l.LogEvent(ctx, Event{
		EventType: EventRecordLoaded,
		CardID:    "card_1",
		StampID:   "A12345",
		Success:   true,
	})

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM card_event_logs WHERE event_type = ?", EventRecordLoaded).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("count: got %d, want 1", count)
	}
}

func TestLogEvent_IDPrefix(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	l := NewEventLogger(db)

	l.LogEvent(context.Background(), Event{EventType: EventCardCreated, Success: true})

	var id string
	if err := db.QueryRow("SELECT event_id FROM card_event_logs").Scan(&id); err != nil {
		t.Fatal(err)
	}
	if len(id) < 5 || id[:4] != "evt_" {
		t.Fatalf("event ID prefix: got %q", id)
	}
}

func TestCleanup_Retention(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	ctx := context.Background()

	old := time.Now().Add(-40 * 24 * time.Hour).Unix()
	recent := time.Now().Unix()
	for i, ts := range []int64{old, recent} {
		if _, err := db.Exec(`INSERT INTO card_event_logs (event_id, event_type, success, created_at)
			VALUES (?, 'record_loaded', 1, ?)`, fmt.Sprintf("evt_%d", i), ts); err != nil {
			t.Fatal(err)
		}
	}

	if err := Cleanup(ctx, db, RetentionConfig{EventLogsDays: 30}); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM card_event_logs").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("count after cleanup: got %d, want 1", count)
	}
}

func TestLogHTTP(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	l := NewEventLogger(db)

	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cards/card_1", nil)
	req.RemoteAddr = "10.0.0.9:51234"
	req = req.WithContext(kit.WithTraceID(req.Context(), "trace1234"))

	l.LogHTTP(inner).ServeHTTP(rr, req)

	var method, path, traceID, ip string
	var status int
	err := db.QueryRow("SELECT method, path, trace_id, status_code, ip_address FROM http_request_logs").
		Scan(&method, &path, &traceID, &status, &ip)
	if err != nil {
		t.Fatal(err)
	}
	if method != "GET" || path != "/api/cards/card_1" {
		t.Errorf("logged %s %s", method, path)
	}
	if traceID != "trace1234" {
		t.Errorf("trace_id: got %q", traceID)
	}
	if status != http.StatusTeapot {
		t.Errorf("status: got %d", status)
	}
	if ip != "10.0.0.9" {
		t.Errorf("ip: got %q", ip)
	}
}
