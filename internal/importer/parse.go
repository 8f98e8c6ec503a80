package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/strideclub/champ/internal/domain/agegrade"
	"github.com/strideclub/champ/internal/domain/model"
)

// legacyPivot splits two-digit years: below it means 2000s, otherwise 1900s.
const legacyPivot = 30

// ParseLegacyDate accepts the sheet formats D/Mon/YY and D/Mon/YYYY, plus
// ISO YYYY-MM-DD.
func ParseLegacyDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := agegrade.ParseDate(s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2/Jan/2006", s); err == nil {
		return t, nil
	}

	t, err := time.Parse("2/Jan/06", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	// time.Parse pivots two-digit years at 69; the sheets pivot at 30.
	year := t.Year() % 100
	if year < legacyPivot {
		year += 2000
	} else {
		year += 1900
	}
	return time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ParseDistance reads the leading numeric part of a distance cell, so
// "21.0975", "10 km" and "5km" all work. Kilometres are assumed.
func ParseDistance(s string) (float64, error) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadDistance, s)
	}
	distance, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || distance <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadDistance, s)
	}
	return distance, nil
}

// ParseGender accepts one-letter codes and full words, case-insensitive.
func ParseGender(s string) (model.Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return model.Male, nil
	case "f", "female":
		return model.Female, nil
	}
	return "", fmt.Errorf("%w: %q", ErrBadGender, s)
}
