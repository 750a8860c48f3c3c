package card

import (
	"github.com/stampworks/stampcard/catalog"
	"github.com/stampworks/stampcard/render"
	"github.com/stampworks/stampcard/stamp"
)

// View is an immutable snapshot of a card's presentation state.
type View struct {
	CardID     string        `json:"card_id"`
	StampID    string        `json:"stamp_id"`
	State      LoadState     `json:"state"`
	FailReason string        `json:"fail_reason,omitempty"`
	Offers     []stamp.Offer `json:"dispensers"`
	Selection  string        `json:"selection,omitempty"`
	Plan       render.Plan   `json:"plan"`
	Side       Side          `json:"side"`
	ModalOpen  bool          `json:"modal_open"`
	Visible    bool          `json:"visible"`

	Catalog      catalog.Entry `json:"catalog,omitempty"`
	CatalogFound bool          `json:"catalog_found"`
}

// Snapshot returns a copy of the card's current view state. The offers slice
// is copied; mutating the snapshot never affects the card.
func (c *Card) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	offers := make([]stamp.Offer, len(c.offers))
	copy(offers, c.offers)

	return View{
		CardID:       c.id,
		StampID:      c.stampID,
		State:        c.state,
		FailReason:   c.failReason,
		Offers:       offers,
		Selection:    c.selection,
		Plan:         c.plan,
		Side:         c.side,
		ModalOpen:    c.modalOpen,
		Visible:      c.visible,
		Catalog:      c.entry,
		CatalogFound: c.entryFound,
	}
}
