// Package importer loads legacy result sheets into the store.
//
// The input is CSV with a header row. Recognized columns: runner, gender,
// dob, race, date, distance, time. Runner and race rows are matched by
// name (and date, for races) against existing records, so re-running an
// import is safe: already-loaded results count as duplicates, not errors.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/strideclub/champ/internal/adapters/repository"
	service "github.com/strideclub/champ/internal/app"
	"github.com/strideclub/champ/internal/domain/model"
	"github.com/strideclub/champ/pkg/logger"
	"github.com/strideclub/champ/pkg/metrics"
	"github.com/strideclub/champ/pkg/timefmt"
)

// Report summarizes one import run.
type Report struct {
	Created    int
	Duplicates int
	Invalid    int
	Races      int
	Errors     []RowError
}

// RowError records why one row was skipped.
type RowError struct {
	Line   int
	Reason string
}

// Importer parses result sheets and feeds them through the service.
type Importer struct {
	svc *service.Service
	log logger.Logger
}

// Option applies a configuration option to the Importer.
type Option func(*Importer)

// WithLogger sets a custom logger for the importer.
func WithLogger(log logger.Logger) Option {
	return func(i *Importer) {
		if log != nil {
			i.log = log
		}
	}
}

// New creates an importer backed by the given service.
func New(svc *service.Service, opts ...Option) *Importer {
	i := &Importer{svc: svc}
	for _, opt := range opts {
		opt(i)
	}
	if i.log == nil {
		i.log = logger.Get()
	}
	return i
}

// row holds one parsed CSV line.
type row struct {
	runnerName string
	gender     model.Gender
	dob        string
	raceName   string
	raceDate   string
	distance   string
	finishTime string
}

// Import reads the whole sheet, creates missing runners and races, records
// results, and rescores each touched race once at the end.
func (i *Importer) Import(ctx context.Context, r io.Reader) (Report, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return Report{}, fmt.Errorf("read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return Report{}, err
	}

	var report Report
	runnersByName := map[string]model.Runner{}
	racesByKey := map[string]model.Race{}
	touchedRaces := map[string]struct{}{}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			report.skip(line, "unreadable line")
			continue
		}

		parsed, reason := cols.parse(record)
		if reason != "" {
			report.skip(line, reason)
			continue
		}

		runner, err := i.ensureRunner(ctx, parsed, runnersByName)
		if err != nil {
			report.skip(line, err.Error())
			continue
		}
		race, err := i.ensureRace(ctx, parsed, racesByKey)
		if err != nil {
			report.skip(line, err.Error())
			continue
		}

		_, err = i.svc.Store().CreateResult(ctx, model.Result{
			RaceID:     race.ID,
			RunnerID:   runner.ID,
			FinishTime: parsed.finishTime,
		})
		switch {
		case errors.Is(err, repository.ErrDuplicateResult):
			report.Duplicates++
			metrics.RecordImportRow("duplicate")
			continue
		case err != nil:
			report.skip(line, err.Error())
			continue
		}
		report.Created++
		metrics.RecordImportRow("created")
		touchedRaces[race.ID] = struct{}{}
	}

	for raceID := range touchedRaces {
		if err := i.svc.RescoreRace(ctx, raceID); err != nil {
			return report, fmt.Errorf("rescore race %s: %w", raceID, err)
		}
		report.Races++
	}

	i.log.Info(ctx, "import complete",
		logger.Int("created", report.Created),
		logger.Int("duplicates", report.Duplicates),
		logger.Int("invalid", report.Invalid),
		logger.Int("races", report.Races),
	)
	return report, nil
}

// ensureRunner finds a runner by name or creates one from the row.
func (i *Importer) ensureRunner(ctx context.Context, parsed row, cache map[string]model.Runner) (model.Runner, error) {
	key := strings.ToLower(parsed.runnerName)
	if runner, ok := cache[key]; ok {
		return runner, nil
	}
	runner, err := i.svc.Store().FindRunnerByName(ctx, parsed.runnerName)
	if errors.Is(err, repository.ErrRunnerNotFound) {
		newRunner := model.Runner{
			Name:   parsed.runnerName,
			Gender: parsed.gender,
		}
		if parsed.dob != "" {
			dob, dobErr := ParseLegacyDate(parsed.dob)
			if dobErr != nil {
				return model.Runner{}, fmt.Errorf("bad date of birth %q", parsed.dob)
			}
			newRunner.DateOfBirth = &dob
		}
		runner, err = i.svc.Store().CreateRunner(ctx, newRunner)
	}
	if err != nil {
		return model.Runner{}, err
	}
	cache[key] = runner
	return runner, nil
}

// ensureRace finds a race by name and date or creates one from the row.
func (i *Importer) ensureRace(ctx context.Context, parsed row, cache map[string]model.Race) (model.Race, error) {
	key := parsed.raceName + "|" + parsed.raceDate
	if race, ok := cache[key]; ok {
		return race, nil
	}

	date, err := ParseLegacyDate(parsed.raceDate)
	if err != nil {
		return model.Race{}, fmt.Errorf("bad race date %q", parsed.raceDate)
	}
	distance, err := ParseDistance(parsed.distance)
	if err != nil {
		return model.Race{}, fmt.Errorf("bad distance %q", parsed.distance)
	}

	races, err := i.svc.Store().ListRaces(ctx)
	if err != nil {
		return model.Race{}, err
	}
	for _, race := range races {
		if race.Name == parsed.raceName && race.Date.Equal(date) {
			cache[key] = race
			return race, nil
		}
	}

	race, err := i.svc.Store().CreateRace(ctx, model.Race{
		Name:       parsed.raceName,
		Date:       date,
		DistanceKm: distance,
	})
	if err != nil {
		return model.Race{}, err
	}
	cache[key] = race
	return race, nil
}

func (r *Report) skip(line int, reason string) {
	r.Invalid++
	r.Errors = append(r.Errors, RowError{Line: line, Reason: reason})
	metrics.RecordImportRow("invalid")
}

// columns maps recognized header names to field indexes.
type columns struct {
	runner, gender, dob, race, date, distance, finish int
}

func mapColumns(header []string) (columns, error) {
	cols := columns{runner: -1, gender: -1, dob: -1, race: -1, date: -1, distance: -1, finish: -1}
	for idx, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "runner", "name", "runner_name":
			cols.runner = idx
		case "gender", "sex":
			cols.gender = idx
		case "dob", "date_of_birth", "born":
			cols.dob = idx
		case "race", "race_name", "event":
			cols.race = idx
		case "date", "race_date":
			cols.date = idx
		case "distance", "distance_km":
			cols.distance = idx
		case "time", "finish_time", "result":
			cols.finish = idx
		}
	}
	if cols.runner < 0 || cols.gender < 0 || cols.race < 0 || cols.date < 0 || cols.distance < 0 || cols.finish < 0 {
		return columns{}, ErrMissingColumns
	}
	return cols, nil
}

// parse extracts one row, returning a skip reason for invalid rows.
func (c columns) parse(record []string) (row, string) {
	get := func(idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	parsed := row{
		runnerName: get(c.runner),
		dob:        get(c.dob),
		raceName:   get(c.race),
		raceDate:   get(c.date),
		distance:   get(c.distance),
	}
	if parsed.runnerName == "" {
		return row{}, "missing runner name"
	}
	if parsed.raceName == "" {
		return row{}, "missing race name"
	}
	if parsed.raceDate == "" {
		return row{}, "missing race date"
	}

	gender, err := ParseGender(get(c.gender))
	if err != nil {
		return row{}, err.Error()
	}
	parsed.gender = gender

	finish, err := timefmt.Normalize(get(c.finish))
	if err != nil {
		return row{}, fmt.Sprintf("bad finish time %q", get(c.finish))
	}
	parsed.finishTime = finish

	return parsed, ""
}
