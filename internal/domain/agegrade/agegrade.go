// Package agegrade computes runner ages and age-graded performance ratios.
package agegrade

import (
	"fmt"
	"time"

	"github.com/strideclub/champ/internal/domain/model"
	"github.com/strideclub/champ/internal/domain/wava"
)

// dateLayout is the calendar-date wire format. Dates are parsed as plain
// calendar days, never as instants, so no timezone can shift them.
const dateLayout = "2006-01-02"

// ParseDate parses a "YYYY-MM-DD" calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders a calendar date as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// Age returns the integer age on a given date: the year difference, minus
// one when the birthday has not yet occurred that year.
func Age(dateOfBirth, onDate time.Time) int {
	age := onDate.Year() - dateOfBirth.Year()
	if onDate.Month() < dateOfBirth.Month() ||
		(onDate.Month() == dateOfBirth.Month() && onDate.Day() < dateOfBirth.Day()) {
		age--
	}
	return age
}

// Calculator derives age-graded performance ratios from a reference table.
type Calculator struct {
	table *wava.Table
}

// NewCalculator creates a calculator backed by the given standards table.
func NewCalculator(table *wava.Table) *Calculator {
	return &Calculator{table: table}
}

// Percent returns the ratio of the runner's speed to the age- and
// gender-adjusted reference speed at the same distance. The value is a
// plain ratio: it may exceed 1.0 for performances beyond the reference.
// timeSeconds must be positive.
func (c *Calculator) Percent(distanceKm, timeSeconds float64, age int, gender model.Gender) (float64, error) {
	if timeSeconds <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrNonPositiveTime, timeSeconds)
	}

	runnerSpeed := distanceKm * 1000 / timeSeconds

	standard := c.table.StandardTime(distanceKm, gender)
	factor := c.table.AgeFactor(distanceKm, float64(age), gender)
	referenceSpeed := distanceKm * 1000 / standard * factor

	return runnerSpeed / referenceSpeed, nil
}
