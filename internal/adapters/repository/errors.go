package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrRunnerNotFound  = errors.New("runner not found")
	ErrRaceNotFound    = errors.New("race not found")
	ErrResultNotFound  = errors.New("result not found")
	ErrDuplicateResult = errors.New("runner already has a result in this race")
	ErrInvalidBestN    = errors.New("invalid best-n setting")
)
