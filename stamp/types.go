// Package stamp defines the stamp record domain model and the client that
// fetches records from an upstream stamp indexer.
package stamp

// Record is the metadata and payload for one collectible stamp, as returned
// by the indexer. A Record is immutable once fetched: an identifier change
// produces a wholesale replacement, never a partial mutation.
type Record struct {
	StampID     string // opaque identifier
	ContentType string // declared mime-like tag, e.g. "image/png", "text/html"
	Payload     []byte // inline payload bytes; nil when only a remote URL exists
	RemoteURL   string // remote payload location; "" when the payload is inline
	Offers      []Offer
}

// Offer is a purchasable dispenser listing for a stamp. Identity is the
// source address; rate is satoshis per dispensed unit. Immutable per fetch.
type Offer struct {
	Source    string `json:"source"`
	RateSats  int64  `json:"rate_sats"`
	Remaining int64  `json:"remaining"`
	Total     int64  `json:"total"`
}
