package timefmt

import "errors"

// Sentinel kinds for finish-time errors.
var (
	ErrInvalidTime = errors.New("invalid finish time")
)
