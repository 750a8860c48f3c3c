package stamp

import "errors"

// ErrNotFound is returned when the indexer has no record for the identifier.
var ErrNotFound = errors.New("stamp: not found")

// ErrMalformed is returned when the indexer response cannot be decoded into
// a Record.
var ErrMalformed = errors.New("stamp: malformed record payload")
