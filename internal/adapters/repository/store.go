// Package repository defines the championship store interface and errors.
package repository

import (
	"context"

	"github.com/strideclub/champ/internal/domain/model"
	"github.com/strideclub/champ/internal/domain/scoring"
)

// Store provides read/write access to runners, races, results and the
// season settings.
type Store interface {
	// CreateRunner stores a new runner, assigning an ID when empty.
	CreateRunner(ctx context.Context, runner model.Runner) (model.Runner, error)
	// GetRunner returns a runner by ID.
	// Returns ErrRunnerNotFound if the runner is unknown.
	GetRunner(ctx context.Context, id string) (model.Runner, error)
	// UpdateRunner replaces a stored runner's mutable fields.
	UpdateRunner(ctx context.Context, runner model.Runner) (model.Runner, error)
	// DeleteRunner removes a runner and every result they hold.
	DeleteRunner(ctx context.Context, id string) error
	// ListRunners returns all runners ordered by name.
	ListRunners(ctx context.Context) ([]model.Runner, error)
	// FindRunnerByName returns the runner whose name matches, ignoring case.
	// Returns ErrRunnerNotFound if no runner matches.
	FindRunnerByName(ctx context.Context, name string) (model.Runner, error)

	// CreateRace stores a new race, assigning an ID when empty.
	CreateRace(ctx context.Context, race model.Race) (model.Race, error)
	// GetRace returns a race by ID.
	// Returns ErrRaceNotFound if the race is unknown.
	GetRace(ctx context.Context, id string) (model.Race, error)
	// UpdateRace replaces a stored race's mutable fields.
	UpdateRace(ctx context.Context, race model.Race) (model.Race, error)
	// DeleteRace removes a race and all of its results.
	DeleteRace(ctx context.Context, id string) error
	// ListRaces returns all races ordered by date.
	ListRaces(ctx context.Context) ([]model.Race, error)

	// CreateResult stores a new finish record. The race and runner must
	// exist and the runner must not already hold a result in the race;
	// otherwise ErrDuplicateResult.
	CreateResult(ctx context.Context, result model.Result) (model.Result, error)
	// GetResult returns a result by ID with its runner joined.
	GetResult(ctx context.Context, id string) (model.Result, error)
	// UpdateResult replaces a stored result's finish time.
	UpdateResult(ctx context.Context, result model.Result) (model.Result, error)
	// DeleteResult removes a result.
	DeleteResult(ctx context.Context, id string) error
	// FindResult returns the result a runner holds in a race.
	// Returns ErrResultNotFound if the runner has no result there.
	FindResult(ctx context.Context, raceID, runnerID string) (model.Result, error)
	// ResultsForRace returns every result of one race with runners joined.
	ResultsForRace(ctx context.Context, raceID string) ([]model.Result, error)
	// AllResults returns every stored result with runners joined.
	AllResults(ctx context.Context) ([]model.Result, error)

	// WriteScores applies a batch of derived-field updates from one
	// scoring run as a single logical write. Readers never observe a
	// race with some rows rescored and some not.
	WriteScores(ctx context.Context, updates []scoring.Update) error

	// BestN returns the number of races counted toward season totals.
	BestN(ctx context.Context) int
	// SetBestN changes the best-N setting. n must be positive.
	SetBestN(ctx context.Context, n int) error

	// Counts returns the number of stored runners, races and results.
	Counts(ctx context.Context) (runners, races, results int)
}
