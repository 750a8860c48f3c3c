// Package card implements the stamp presentation controller: the
// asynchronous load lifecycle for a single record keyed by a changeable
// identifier, dispenser ordering and selection, the front/back flip and
// purchase-modal state machine, and the copy side effect.
//
// All state mutation is serialized under one mutex; the only asynchronous
// boundary is the record fetch. A fetch completion carries the request
// generation it was started with and is dropped when a newer identifier has
// superseded it, so a stale response can never overwrite a fresher record.
package card

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/stampworks/stampcard/catalog"
	"github.com/stampworks/stampcard/notify"
	"github.com/stampworks/stampcard/observability"
	"github.com/stampworks/stampcard/render"
	"github.com/stampworks/stampcard/stamp"
)

// LoadState is the record lifecycle state.
type LoadState string

const (
	StateLoading LoadState = "loading"
	StateLoaded  LoadState = "loaded"
	StateFailed  LoadState = "failed"
)

// Side is the flip orientation of the card.
type Side string

const (
	SideFront Side = "front"
	SideBack  Side = "back"
)

// Fetcher retrieves stamp records. *stamp.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, stampID string) (*stamp.Record, error)
}

// CatalogLookup resolves descriptive metadata for an identifier.
// *catalog.Service satisfies it.
type CatalogLookup interface {
	Lookup(stampID string) (catalog.Entry, bool)
}

// EventSink receives domain events. *observability.EventLogger satisfies it.
type EventSink interface {
	LogEvent(ctx context.Context, e observability.Event)
}

// Config wires a Card's collaborators.
type Config struct {
	Fetcher Fetcher
	Catalog CatalogLookup     // optional
	Planner *render.Planner   // defaults to render.NewPlanner()
	Acks    *notify.AckCenter // defaults to a fresh AckCenter
	Events  EventSink         // optional
	Logger  *slog.Logger      // defaults to slog.Default()
}

// Card is the presentation controller for one displayed stamp.
type Card struct {
	id      string
	fetcher Fetcher
	catalog CatalogLookup
	planner *render.Planner
	acks    *notify.AckCenter
	events  EventSink
	logger  *slog.Logger

	mu           sync.Mutex
	stampID      string
	gen          uint64 // request generation; only the latest fetch may apply
	state        LoadState
	failReason   string
	record       *stamp.Record
	offers       []stamp.Offer // ascending by rate
	selection    string        // offer source, "" when the list is empty
	plan         render.Plan
	side         Side
	modalOpen    bool
	visible      bool
	entry        catalog.Entry
	entryFound   bool
	entryPending bool // catalog lookup deferred until the card is visible
	cancelFetch  context.CancelFunc
}

// New creates a Card with the given ID. The card starts without a stamp;
// call SetStamp to begin loading.
func New(id string, cfg Config) (*Card, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("card: Config.Fetcher is required")
	}
	if cfg.Planner == nil {
		cfg.Planner = render.NewPlanner()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Acks == nil {
		cfg.Acks = notify.NewAckCenter(cfg.Logger)
	}
	return &Card{
		id:      id,
		fetcher: cfg.Fetcher,
		catalog: cfg.Catalog,
		planner: cfg.Planner,
		acks:    cfg.Acks,
		events:  cfg.Events,
		logger:  cfg.Logger.With("card_id", id),
		state:   StateLoading,
		side:    SideFront,
		visible: true,
	}, nil
}

// ID returns the card's identifier.
func (c *Card) ID() string { return c.id }

// SetStamp switches the card to a new stamp identifier. The view state
// machine resets to its initial state (front, modal closed), the previous
// record is discarded, and a fresh fetch begins. An in-flight fetch for the
// previous identifier is abandoned, not aborted: its eventual result is
// dropped by the generation check.
func (c *Card) SetStamp(ctx context.Context, stampID string) {
	c.mu.Lock()
	c.stampID = stampID
	c.gen++
	gen := c.gen
	c.state = StateLoading
	c.failReason = ""
	c.record = nil
	c.offers = nil
	c.selection = ""
	c.plan = render.Plan{}
	c.side = SideFront
	c.modalOpen = false
	c.lookupCatalogLocked(stampID)
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancelFetch = cancel
	c.mu.Unlock()

	go c.runFetch(fetchCtx, cancel, gen, stampID)
}

// Reload re-triggers the fetch for the current identifier. This is the only
// recovery path after a failure: failures are terminal until re-requested.
func (c *Card) Reload(ctx context.Context) {
	c.mu.Lock()
	stampID := c.stampID
	c.gen++
	gen := c.gen
	c.state = StateLoading
	c.failReason = ""
	c.record = nil
	c.offers = nil
	c.selection = ""
	c.plan = render.Plan{}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancelFetch = cancel
	c.mu.Unlock()

	go c.runFetch(fetchCtx, cancel, gen, stampID)
}

// runFetch performs one fetch attempt for the given generation. The cancel
// func must be installed under the same lock that bumped gen, so Close always
// targets the latest fetch.
func (c *Card) runFetch(ctx context.Context, cancel context.CancelFunc, gen uint64, stampID string) {
	defer cancel()
	rec, err := c.fetcher.Fetch(ctx, stampID)
	c.apply(context.WithoutCancel(ctx), gen, rec, err)
}

// apply installs a fetch result, unless a newer request generation has
// superseded it.
func (c *Card) apply(ctx context.Context, gen uint64, rec *stamp.Record, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.logger.Debug("stale fetch dropped", "fetch_gen", gen, "current_gen", c.gen)
		return
	}

	if err != nil {
		c.state = StateFailed
		c.failReason = failReason(err)
		c.logger.Warn("record load failed", "stamp_id", c.stampID, "error", err)
		c.logEvent(ctx, observability.EventRecordFailed, false, c.failReason)
		return
	}

	c.state = StateLoaded
	c.record = rec
	c.offers = SortOffers(rec.Offers)
	c.selection = DefaultSelection(c.offers)
	c.plan = c.planner.Plan(rec)
	c.logger.Info("record loaded",
		"stamp_id", rec.StampID,
		"content_type", rec.ContentType,
		"strategy", c.plan.Strategy,
		"offers", len(c.offers))
	c.logEvent(ctx, observability.EventRecordLoaded, true, string(c.plan.Strategy))
}

func failReason(err error) string {
	if errors.Is(err, stamp.ErrNotFound) {
		return "not found"
	}
	if errors.Is(err, stamp.ErrMalformed) {
		return "malformed record"
	}
	return "fetch failed"
}

// SelectOffer overrides the default selection. The offer must be a member of
// the current record's list; the override is scoped to this record and a
// later record replacement re-applies the cheapest-offer default. Selection
// never triggers network activity.
func (c *Card) SelectOffer(ctx context.Context, source string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateLoaded {
		return ErrNotLoaded
	}
	if !containsOffer(c.offers, source) {
		return ErrUnknownOffer
	}
	c.selection = source
	c.logEvent(ctx, observability.EventDispenserSelected, true, source)
	return nil
}

// Tap handles a tap on the card surface. interactive marks taps that landed
// on an element that opted out of flip toggling (buttons, menus, links);
// those never change orientation. A plain surface tap toggles front/back.
func (c *Card) Tap(interactive bool) {
	if interactive {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.side == SideFront {
		c.side = SideBack
	} else {
		c.side = SideFront
	}
}

// Buy forces the card to its purchase-detail back side.
func (c *Card) Buy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.side = SideBack
}

// Back forces the card to its informational front side.
func (c *Card) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.side = SideFront
}

// OpenModal opens the purchase modal, independent of flip orientation.
// It requires a loaded record with a selected offer: the modal collaborator
// is always invoked with a (record, offer) pair.
func (c *Card) OpenModal() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateLoaded {
		return ErrNotLoaded
	}
	if c.selection == "" {
		return ErrNotPurchasable
	}
	c.modalOpen = true
	return nil
}

// CloseModal closes the purchase modal.
func (c *Card) CloseModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modalOpen = false
}

// Copy writes text (a dispenser address) through the clipboard capability
// and records a transient acknowledgement. It never fails.
func (c *Card) Copy(ctx context.Context, text string) notify.Ack {
	ack := c.acks.Copy(text)
	c.logEvent(ctx, observability.EventAddressCopied, true, "")
	return ack
}

// SetVisible records whether the card is scrolled into view. Visibility
// gates only deferred non-essential work (the catalog lookup); it never
// affects load or selection correctness.
func (c *Card) SetVisible(visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = visible
	if visible && c.entryPending {
		c.lookupCatalogLocked(c.stampID)
	}
}

// Close abandons any in-flight fetch. The card must not be used afterwards.
func (c *Card) Close() {
	c.mu.Lock()
	cancel := c.cancelFetch
	c.cancelFetch = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// PurchaseContext returns the pair the purchase-modal collaborator is
// invoked with: the loaded record and the currently selected offer.
func (c *Card) PurchaseContext() (*stamp.Record, stamp.Offer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateLoaded {
		return nil, stamp.Offer{}, ErrNotLoaded
	}
	for _, o := range c.offers {
		if o.Source == c.selection {
			return c.record, o, nil
		}
	}
	return nil, stamp.Offer{}, ErrNotPurchasable
}

func (c *Card) lookupCatalogLocked(stampID string) {
	c.entry = catalog.Entry{}
	c.entryFound = false
	c.entryPending = false
	if c.catalog == nil {
		return
	}
	if !c.visible {
		c.entryPending = true
		return
	}
	c.entry, c.entryFound = c.catalog.Lookup(stampID)
}

func (c *Card) logEvent(ctx context.Context, eventType string, success bool, detail string) {
	if c.events == nil {
		return
	}
	c.events.LogEvent(ctx, observability.Event{
		EventType: eventType,
		CardID:    c.id,
		StampID:   c.stampID,
		Detail:    detail,
		Success:   success,
	})
}
