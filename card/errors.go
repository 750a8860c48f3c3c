package card

import "errors"

// ErrNotLoaded is returned when an operation needs a loaded record.
var ErrNotLoaded = errors.New("card: record not loaded")

// ErrUnknownOffer is returned when a selection targets an offer that is not
// in the current record's list.
var ErrUnknownOffer = errors.New("card: offer not in current record")

// ErrNotPurchasable is returned when the purchase modal is opened on a card
// with no selectable offer.
var ErrNotPurchasable = errors.New("card: no offer available for purchase")

// ErrCardNotFound is returned by the registry for unknown card IDs.
var ErrCardNotFound = errors.New("card: not found")

// ErrRegistryClosed is returned by Create after the registry shut down.
var ErrRegistryClosed = errors.New("card: registry closed")
