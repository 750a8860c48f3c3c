package watch

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// Force single connection so PRAGMA changes are visible to all callers.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func setUserVersion(t *testing.T, db *sql.DB, v int) {
	t.Helper()
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", v)); err != nil {
		t.Fatal(err)
	}
}

func TestPragmaUserVersion(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	v, err := PragmaUserVersion(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Fatalf("expected 0, got %d", v)
	}

	setUserVersion(t, db, 42)
	v, err = PragmaUserVersion(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestOnChange_FiresOnVersionBump(t *testing.T) {
	db := testDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var fired atomic.Int64
	w := New(db, Options{
		Interval: 10 * time.Millisecond,
		Detector: PragmaUserVersion,
	})

	go w.OnChange(ctx, func() error {
		fired.Add(1)
		return nil
	})

	// Let the watcher seed its initial version.
	time.Sleep(50 * time.Millisecond)
	setUserVersion(t, db, 7)

	if err := w.WaitForVersion(mustTimeout(t, 2*time.Second), 7); err != nil {
		t.Fatalf("WaitForVersion: %v", err)
	}
	if fired.Load() == 0 {
		t.Fatal("action never fired")
	}
}

func TestOnChange_ErrorDoesNotAdvance(t *testing.T) {
	db := testDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int64
	w := New(db, Options{
		Interval: 10 * time.Millisecond,
		Detector: PragmaUserVersion,
	})

	go w.OnChange(ctx, func() error {
		calls.Add(1)
		return fmt.Errorf("reload failed")
	})

	time.Sleep(50 * time.Millisecond)
	setUserVersion(t, db, 3)
	time.Sleep(100 * time.Millisecond)

	if w.Version() == 3 {
		t.Fatal("version advanced despite failing action")
	}
	if calls.Load() < 2 {
		t.Fatalf("expected retries, got %d calls", calls.Load())
	}
}

func TestWaitForVersion_ContextExpiry(t *testing.T) {
	db := testDB(t)
	w := New(db, Options{Detector: PragmaUserVersion})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := w.WaitForVersion(ctx, 99); err == nil {
		t.Fatal("expected context error")
	}
}

func mustTimeout(t *testing.T, d time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)
	return ctx
}
