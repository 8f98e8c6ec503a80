package agegrade

import "errors"

// Sentinel kinds for age-grading errors.
var (
	ErrInvalidDate     = errors.New("invalid calendar date")
	ErrNonPositiveTime = errors.New("finish time must be positive")
)
