package card

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/stampworks/stampcard/idgen"
	"github.com/stampworks/stampcard/observability"
)

// DefaultIdleTTL is how long an untouched card survives before the janitor
// evicts it.
const DefaultIdleTTL = 30 * time.Minute

// Registry holds the live cards, keyed by card ID. Cards that are not
// touched for the idle TTL are evicted by the janitor loop.
type Registry struct {
	cfg    Config
	newID  idgen.Generator
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	cards  map[string]*entry
	closed bool
}

type entry struct {
	card     *Card
	lastUsed time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithIdleTTL overrides the janitor eviction threshold.
func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) { r.ttl = ttl }
}

// WithIDGenerator sets a custom card ID generator.
func WithIDGenerator(gen idgen.Generator) RegistryOption {
	return func(r *Registry) { r.newID = gen }
}

// NewRegistry creates a registry that builds cards from cfg.
func NewRegistry(cfg Config, opts ...RegistryOption) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := &Registry{
		cfg:    cfg,
		newID:  idgen.Prefixed("card_", idgen.Default),
		ttl:    DefaultIdleTTL,
		logger: cfg.Logger,
		cards:  make(map[string]*entry),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Create builds a new card and registers it. When stampID is non-empty the
// card immediately begins loading it.
func (r *Registry) Create(ctx context.Context, stampID string) (*Card, error) {
	id := r.newID()
	c, err := New(id, r.cfg)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		c.Close()
		return nil, ErrRegistryClosed
	}
	r.cards[id] = &entry{card: c, lastUsed: time.Now()}
	r.mu.Unlock()

	if r.cfg.Events != nil {
		r.cfg.Events.LogEvent(ctx, observability.Event{
			EventType: observability.EventCardCreated,
			CardID:    id,
			StampID:   stampID,
			Success:   true,
		})
	}
	if stampID != "" {
		c.SetStamp(ctx, stampID)
	}
	return c, nil
}

// Get returns the card with the given ID and refreshes its idle timer.
func (r *Registry) Get(id string) (*Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.cards[id]
	if !ok {
		return nil, ErrCardNotFound
	}
	e.lastUsed = time.Now()
	return e.card, nil
}

// Delete removes a card and abandons its in-flight work.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	e, ok := r.cards[id]
	delete(r.cards, id)
	r.mu.Unlock()

	if !ok {
		return ErrCardNotFound
	}
	e.card.Close()
	return nil
}

// Len returns the number of live cards.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cards)
}

// Janitor evicts idle cards every interval until ctx is canceled.
func (r *Registry) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.evictIdle(time.Now()); n > 0 {
				r.logger.Info("evicted idle cards", "count", n, "remaining", r.Len())
			}
		}
	}
}

func (r *Registry) evictIdle(now time.Time) int {
	r.mu.Lock()
	var victims []*Card
	for id, e := range r.cards {
		if now.Sub(e.lastUsed) > r.ttl {
			victims = append(victims, e.card)
			delete(r.cards, id)
		}
	}
	r.mu.Unlock()

	for _, c := range victims {
		c.Close()
	}
	return len(victims)
}

// Close evicts every card. The registry must not be used afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	cards := r.cards
	r.cards = make(map[string]*entry)
	r.closed = true
	r.mu.Unlock()

	for _, e := range cards {
		e.card.Close()
	}
}
