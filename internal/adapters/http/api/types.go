// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/strideclub/champ/internal/domain/agegrade"
	"github.com/strideclub/champ/internal/domain/model"
)

// runnerRequest mirrors the wire schema for runner writes.
type runnerRequest struct {
	Name        string `json:"name"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

func (r runnerRequest) validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return errors.New("missing name")
	case strings.TrimSpace(r.Gender) == "":
		return errors.New("missing gender")
	}
	if _, err := parseGender(r.Gender); err != nil {
		return err
	}
	if r.DateOfBirth != "" {
		if _, err := agegrade.ParseDate(r.DateOfBirth); err != nil {
			return errors.New("invalid date_of_birth; must be YYYY-MM-DD")
		}
	}
	return nil
}

func (r runnerRequest) toModel() model.Runner {
	runner := model.Runner{
		Name:   strings.TrimSpace(r.Name),
		Gender: model.Gender(r.Gender),
	}
	if r.DateOfBirth != "" {
		if dob, err := agegrade.ParseDate(r.DateOfBirth); err == nil {
			runner.DateOfBirth = &dob
		}
	}
	return runner
}

type runnerResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

func toRunnerResponse(runner model.Runner) runnerResponse {
	resp := runnerResponse{
		ID:     runner.ID,
		Name:   runner.Name,
		Gender: string(runner.Gender),
	}
	if runner.DateOfBirth != nil {
		resp.DateOfBirth = agegrade.FormatDate(*runner.DateOfBirth)
	}
	return resp
}

// raceRequest mirrors the wire schema for race writes.
type raceRequest struct {
	Name       string  `json:"name"`
	Date       string  `json:"date"`
	DistanceKm float64 `json:"distance_km"`
}

func (r raceRequest) validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return errors.New("missing name")
	case strings.TrimSpace(r.Date) == "":
		return errors.New("missing date")
	case r.DistanceKm <= 0:
		return errors.New("distance_km must be positive")
	}
	if _, err := agegrade.ParseDate(r.Date); err != nil {
		return errors.New("invalid date; must be YYYY-MM-DD")
	}
	return nil
}

func (r raceRequest) toModel() model.Race {
	date, _ := agegrade.ParseDate(r.Date)
	return model.Race{
		Name:       strings.TrimSpace(r.Name),
		Date:       date,
		DistanceKm: r.DistanceKm,
	}
}

type raceResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Date       string  `json:"date"`
	DistanceKm float64 `json:"distance_km"`
}

func toRaceResponse(race model.Race) raceResponse {
	return raceResponse{
		ID:         race.ID,
		Name:       race.Name,
		Date:       agegrade.FormatDate(race.Date),
		DistanceKm: race.DistanceKm,
	}
}

// resultRequest mirrors the wire schema for POST /results.
type resultRequest struct {
	RaceID     string `json:"race_id"`
	RunnerID   string `json:"runner_id"`
	FinishTime string `json:"finish_time"`
}

func (r resultRequest) validate() error {
	switch {
	case strings.TrimSpace(r.RaceID) == "":
		return errors.New("missing race_id")
	case strings.TrimSpace(r.RunnerID) == "":
		return errors.New("missing runner_id")
	case strings.TrimSpace(r.FinishTime) == "":
		return errors.New("missing finish_time")
	}
	return nil
}

// resultUpdateRequest mirrors the wire schema for PUT /results/{id}.
type resultUpdateRequest struct {
	FinishTime string `json:"finish_time"`
}

type resultResponse struct {
	ID                string   `json:"id"`
	RaceID            string   `json:"race_id"`
	RunnerID          string   `json:"runner_id"`
	RunnerName        string   `json:"runner_name,omitempty"`
	Gender            string   `json:"gender,omitempty"`
	FinishTime        string   `json:"finish_time"`
	Position          *int     `json:"position"`
	Points            *int     `json:"points"`
	AgeGradedPercent  *float64 `json:"age_graded_percent"`
	AgeGradedPosition *int     `json:"age_graded_position"`
	AgeGradedPoints   *int     `json:"age_graded_points"`
	CreatedAt         string   `json:"created_at"`
}

func toResultResponse(result model.Result) resultResponse {
	resp := resultResponse{
		ID:                result.ID,
		RaceID:            result.RaceID,
		RunnerID:          result.RunnerID,
		FinishTime:        result.FinishTime,
		Position:          result.Position,
		Points:            result.Points,
		AgeGradedPercent:  result.AgeGradedPercent,
		AgeGradedPosition: result.AgeGradedPosition,
		AgeGradedPoints:   result.AgeGradedPoints,
		CreatedAt:         result.CreatedAt.Format(time.RFC3339),
	}
	if result.Runner != nil {
		resp.RunnerName = result.Runner.Name
		resp.Gender = string(result.Runner.Gender)
	}
	return resp
}

// sortByPosition orders race results by raw position, gender groups
// interleaved, with unranked rows at the end.
func sortByPosition(results []resultResponse) {
	sort.SliceStable(results, func(i, j int) bool {
		switch {
		case results[i].Position == nil:
			return false
		case results[j].Position == nil:
			return true
		case *results[i].Position != *results[j].Position:
			return *results[i].Position < *results[j].Position
		}
		return results[i].RunnerName < results[j].RunnerName
	})
}

type standingResponse struct {
	Position          int    `json:"position"`
	RunnerID          string `json:"runner_id"`
	RunnerName        string `json:"runner_name"`
	Gender            string `json:"gender"`
	TotalPoints       int    `json:"total_points"`
	RacesParticipated int    `json:"races_participated"`
}

func toStandingResponses(table []model.Standing) []standingResponse {
	out := make([]standingResponse, 0, len(table))
	for _, s := range table {
		out = append(out, standingResponse{
			Position:          s.Position,
			RunnerID:          s.RunnerID,
			RunnerName:        s.RunnerName,
			Gender:            string(s.Gender),
			TotalPoints:       s.TotalPoints,
			RacesParticipated: s.RacesParticipated,
		})
	}
	return out
}
