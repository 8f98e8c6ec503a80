package wava

import "errors"

// Sentinel kinds for reference table errors.
var (
	ErrMalformedTable = errors.New("malformed standards table")
)
