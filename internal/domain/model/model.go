// Package model contains domain models passed between layers.
package model

import "time"

// Gender partitions runners for ranking. Only two values are valid.
type Gender string

const (
	Male   Gender = "M"
	Female Gender = "F"
)

// Valid reports whether g is one of the two recognized genders.
func (g Gender) Valid() bool {
	return g == Male || g == Female
}

// Runner is a registered series participant. DateOfBirth is optional; a
// runner without one simply never receives age-graded scores.
type Runner struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Gender      Gender     `json:"gender"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Race is a single event in the series. DistanceKm and Date are required
// before any result in the race can be age-graded.
type Race struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Date       time.Time `json:"race_date"`
	DistanceKm float64   `json:"distance_km"`
	CreatedAt  time.Time `json:"created_at"`
}

// Result links one runner to one race. FinishTime is stored normalized as
// zero-padded "HH:MM:SS". The derived fields (Position, Points and the
// age-graded trio) are owned by the scoring engine and recomputed in full
// whenever any result in the same race changes; they are never hand-edited.
type Result struct {
	ID         string `json:"id"`
	RaceID     string `json:"race_id"`
	RunnerID   string `json:"runner_id"`
	FinishTime string `json:"finish_time"`

	Position *int `json:"position,omitempty"`
	Points   *int `json:"points,omitempty"`

	AgeGradedPercent  *float64 `json:"age_graded_percent,omitempty"`
	AgeGradedPosition *int     `json:"age_graded_position,omitempty"`
	AgeGradedPoints   *int     `json:"age_graded_points,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// Joined data
	Runner *Runner `json:"runner,omitempty"`
}

// Standing is one row of a championship table. Transient: recomputed from
// the full result set on every standings request.
type Standing struct {
	Position          int    `json:"position"`
	RunnerID          string `json:"runner_id"`
	RunnerName        string `json:"runner_name"`
	Gender            Gender `json:"gender"`
	TotalPoints       int    `json:"total_points"`
	RacesParticipated int    `json:"races_participated"`
}
