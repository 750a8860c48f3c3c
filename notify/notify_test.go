package notify

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func TestCopy_TwoAcksNoDedup(t *testing.T) {
	clock := newFakeClock()
	a := NewAckCenter(nil, WithClock(clock.now))

	first := a.Copy("bc1qaaa")
	clock.advance(500 * time.Millisecond)
	second := a.Copy("bc1qaaa")

	if first.ID == second.ID {
		t.Fatal("identical texts must produce independent acks")
	}
	if got := len(a.Active()); got != 2 {
		t.Fatalf("active: got %d, want 2", got)
	}
}

func TestAcks_ExpireIndependently(t *testing.T) {
	clock := newFakeClock()
	a := NewAckCenter(nil, WithClock(clock.now), WithDisplayDuration(2*time.Second))

	a.Copy("bc1qaaa")
	clock.advance(1500 * time.Millisecond)
	a.Copy("bc1qbbb")

	// First ack expires at t+2s; second at t+3.5s.
	clock.advance(1 * time.Second) // t+2.5s
	live := a.Active()
	if len(live) != 1 {
		t.Fatalf("active: got %d, want 1", len(live))
	}
	if live[0].Text != "bc1qbbb" {
		t.Fatalf("survivor: got %q", live[0].Text)
	}

	clock.advance(2 * time.Second) // t+4.5s
	if got := len(a.Active()); got != 0 {
		t.Fatalf("active after full expiry: got %d", got)
	}
}

func TestCopy_ClipboardFailureSwallowed(t *testing.T) {
	failing := ClipboardFunc(func(string) error { return errors.New("no clipboard") })
	a := NewAckCenter(nil, WithClipboard(failing))

	ack := a.Copy("bc1qaaa")
	if ack.ID == "" {
		t.Fatal("ack not recorded despite clipboard failure")
	}
	if got := len(a.Active()); got != 1 {
		t.Fatalf("active: got %d, want 1", got)
	}
}

func TestCopy_WritesToClipboard(t *testing.T) {
	var written []string
	rec := ClipboardFunc(func(s string) error {
		written = append(written, s)
		return nil
	})
	a := NewAckCenter(nil, WithClipboard(rec))

	a.Copy("bc1qaaa")
	a.Copy("bc1qbbb")

	if len(written) != 2 || written[0] != "bc1qaaa" || written[1] != "bc1qbbb" {
		t.Fatalf("clipboard writes: %v", written)
	}
}

func TestActive_OldestFirst(t *testing.T) {
	clock := newFakeClock()
	a := NewAckCenter(nil, WithClock(clock.now), WithDisplayDuration(time.Minute))

	a.Copy("first")
	clock.advance(time.Second)
	a.Copy("second")
	clock.advance(time.Second)
	a.Copy("third")

	live := a.Active()
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if live[i].Text != w {
			t.Fatalf("order[%d]: got %q, want %q", i, live[i].Text, w)
		}
	}
}
