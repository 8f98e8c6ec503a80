// Package timefmt parses and formats race finish times.
//
// The wire format is "HH:MM:SS"; "MM:SS" is accepted and normalized by
// prefixing a zero hour component. Comparison elsewhere is done on parsed
// seconds, never on the raw string.
package timefmt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// finishTimePattern matches a normalized finish time.
var finishTimePattern = regexp.MustCompile(`^(\d{1,2}):([0-5]\d):([0-5]\d)$`)

// Normalize returns the canonical zero-padded "HH:MM:SS" form of a finish
// time, accepting "MM:SS" shorthand. It returns ErrInvalidTime for anything
// else.
func Normalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) == 2 {
		s = "00:" + s
		parts = strings.Split(s, ":")
	}
	if !finishTimePattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	// Left-pad a single-digit hour so all stored times are fixed width.
	if len(parts[0]) == 1 {
		s = "0" + s
	}
	return s, nil
}

// ToSeconds converts a "HH:MM:SS" or "MM:SS" time to whole seconds.
// Malformed input yields 0, mirroring the tolerant interval conversion the
// scoring pipeline expects for dirty rows.
func ToSeconds(s string) int {
	parts := strings.Split(strings.TrimSpace(s), ":")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0
		}
		nums[i] = n
	}
	switch len(nums) {
	case 3:
		return nums[0]*3600 + nums[1]*60 + nums[2]
	case 2:
		return nums[0]*60 + nums[1]
	default:
		return 0
	}
}

// FromSeconds renders whole seconds as zero-padded "HH:MM:SS".
func FromSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	sec := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}
