// Package notify models the copy-to-clipboard side effect as an injected
// capability plus transient acknowledgements. Copy never fails from the
// caller's perspective: clipboard errors are swallowed and logged, and each
// call produces its own independently expiring acknowledgement.
package notify

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/stampworks/stampcard/idgen"
)

// DefaultDisplayDuration is how long an acknowledgement stays active.
const DefaultDisplayDuration = 2 * time.Second

// Clipboard is the narrow capability for writing text to wherever the
// embedding context keeps its clipboard.
type Clipboard interface {
	Write(text string) error
}

// ClipboardFunc adapts a function to the Clipboard interface.
type ClipboardFunc func(text string) error

func (f ClipboardFunc) Write(text string) error { return f(text) }

// Discard is a Clipboard that accepts and drops everything. It is the
// default for deployments where the real clipboard lives client-side and
// the server only tracks acknowledgements.
var Discard Clipboard = ClipboardFunc(func(string) error { return nil })

// Ack is one transient acknowledgement.
type Ack struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AckCenter records copy acknowledgements. Safe for concurrent use.
type AckCenter struct {
	clipboard Clipboard
	duration  time.Duration
	now       func() time.Time
	newID     idgen.Generator
	logger    *slog.Logger

	mu   sync.Mutex
	acks map[string]Ack
}

// Option configures an AckCenter.
type Option func(*AckCenter)

// WithClipboard sets the clipboard capability. Default: Discard.
func WithClipboard(c Clipboard) Option { return func(a *AckCenter) { a.clipboard = c } }

// WithDisplayDuration sets the fixed acknowledgement lifetime.
func WithDisplayDuration(d time.Duration) Option { return func(a *AckCenter) { a.duration = d } }

// WithClock sets the time source, for deterministic tests.
func WithClock(now func() time.Time) Option { return func(a *AckCenter) { a.now = now } }

// WithIDGenerator sets a custom ID generator for ack IDs.
func WithIDGenerator(gen idgen.Generator) Option { return func(a *AckCenter) { a.newID = gen } }

// NewAckCenter creates an AckCenter.
func NewAckCenter(logger *slog.Logger, opts ...Option) *AckCenter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &AckCenter{
		clipboard: Discard,
		duration:  DefaultDisplayDuration,
		now:       time.Now,
		newID:     idgen.Prefixed("ack_", idgen.NanoID(8)),
		logger:    logger,
		acks:      make(map[string]Ack),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Copy writes text to the clipboard capability and records an
// acknowledgement. It always succeeds: a failing clipboard is logged and
// otherwise ignored. Identical texts are not deduplicated; every call gets
// its own acknowledgement with its own expiry.
func (a *AckCenter) Copy(text string) Ack {
	if err := a.clipboard.Write(text); err != nil {
		a.logger.Warn("notify: clipboard write failed", "error", err)
	}

	now := a.now()
	ack := Ack{
		ID:        a.newID(),
		Text:      text,
		CreatedAt: now,
		ExpiresAt: now.Add(a.duration),
	}

	a.mu.Lock()
	a.acks[ack.ID] = ack
	a.mu.Unlock()

	return ack
}

// Active returns the acknowledgements that have not yet expired, oldest
// first. Expired acks are pruned as a side effect.
func (a *AckCenter) Active() []Ack {
	now := a.now()

	a.mu.Lock()
	live := make([]Ack, 0, len(a.acks))
	for id, ack := range a.acks {
		if now.Before(ack.ExpiresAt) {
			live = append(live, ack)
		} else {
			delete(a.acks, id)
		}
	}
	a.mu.Unlock()

	sort.Slice(live, func(i, j int) bool { return live[i].CreatedAt.Before(live[j].CreatedAt) })
	return live
}
