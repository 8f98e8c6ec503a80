package importer

import "errors"

// Sentinel kinds for import errors.
var (
	ErrMissingColumns = errors.New("sheet is missing required columns")
	ErrBadDate        = errors.New("unparseable date")
	ErrBadDistance    = errors.New("unparseable distance")
	ErrBadGender      = errors.New("unparseable gender")
)
