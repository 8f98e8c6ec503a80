// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	repository "github.com/strideclub/champ/internal/adapters/repository"
	"github.com/strideclub/champ/internal/domain/agegrade"
	"github.com/strideclub/champ/internal/domain/model"
	"github.com/strideclub/champ/internal/domain/scoring"
	"github.com/strideclub/champ/internal/domain/standings"
	"github.com/strideclub/champ/internal/domain/wava"
	"github.com/strideclub/champ/pkg/logger"
	"github.com/strideclub/champ/pkg/metrics"
	"github.com/strideclub/champ/pkg/timefmt"
)

// Stats summarizes the current store contents.
type Stats struct {
	Runners int `json:"runners"`
	Races   int `json:"races"`
	Results int `json:"results"`
	BestN   int `json:"best_n"`
}

// Service implements the API dependencies for the championship system.
type Service struct {
	mu sync.Mutex

	// Core components
	store  repository.Store
	table  *wava.Table
	calc   *agegrade.Calculator
	engine *scoring.Engine

	// Configuration
	bestN          int
	pointsBase     int
	tablePath      string
	rescoreWorkers int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets a custom store implementation.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithBestN sets the initial number of races counted toward season totals.
func WithBestN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.bestN = n
		}
	}
}

// WithPointsBase sets the points awarded for first place in a race.
func WithPointsBase(points int) Option {
	return func(s *Service) {
		if points > 0 {
			s.pointsBase = points
		}
	}
}

// WithTablePath sets a standards file to load instead of the embedded table.
func WithTablePath(path string) Option {
	return func(s *Service) {
		s.tablePath = path
	}
}

// WithRescoreWorkers bounds concurrent race rescores during a full recompute.
func WithRescoreWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.rescoreWorkers = count
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		bestN:          standings.DefaultBestN,
		pointsBase:     scoring.DefaultBasePoints,
		rescoreWorkers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting championship service...")

	var err error
	if s.tablePath != "" {
		s.table, err = wava.LoadFile(s.tablePath, wava.WithLogger(s.logger))
		if err != nil {
			return fmt.Errorf("load standards table: %w", err)
		}
		s.logger.Info(ctx, "loaded standards table", logger.String("path", s.tablePath))
	} else {
		s.table, err = wava.LoadDefault(wava.WithLogger(s.logger))
		if err != nil {
			return fmt.Errorf("load embedded standards table: %w", err)
		}
	}
	s.calc = agegrade.NewCalculator(s.table)
	s.engine = scoring.NewEngine(
		scoring.WithBasePoints(s.pointsBase),
		scoring.WithLogger(s.logger),
	)
	if s.store == nil {
		s.store = repository.NewMemStore(repository.WithBestN(s.bestN))
	}

	s.started = true
	s.logger.Info(ctx, "championship service started",
		logger.Int("bestN", s.bestN),
		logger.Int("pointsBase", s.pointsBase),
		logger.Int("rescoreWorkers", s.rescoreWorkers),
	)
	return nil
}

// Store exposes the underlying store for ingestion tooling.
func (s *Service) Store() repository.Store {
	return s.store
}

// CreateRunner registers a runner.
func (s *Service) CreateRunner(ctx context.Context, runner model.Runner) (model.Runner, error) {
	if runner.Name == "" {
		return model.Runner{}, fmt.Errorf("%w: runner name must not be empty", ErrInvalidInput)
	}
	if !runner.Gender.Valid() {
		return model.Runner{}, fmt.Errorf("%w: gender must be M or F", ErrInvalidInput)
	}
	return s.store.CreateRunner(ctx, runner)
}

// GetRunner returns a runner by ID.
func (s *Service) GetRunner(ctx context.Context, id string) (model.Runner, error) {
	return s.store.GetRunner(ctx, id)
}

// ListRunners returns all runners.
func (s *Service) ListRunners(ctx context.Context) ([]model.Runner, error) {
	return s.store.ListRunners(ctx)
}

// UpdateRunner updates a runner and rescores every race the runner
// appears in, since gender and date of birth feed both ranking passes.
func (s *Service) UpdateRunner(ctx context.Context, runner model.Runner) (model.Runner, error) {
	if !runner.Gender.Valid() {
		return model.Runner{}, fmt.Errorf("%w: gender must be M or F", ErrInvalidInput)
	}
	updated, err := s.store.UpdateRunner(ctx, runner)
	if err != nil {
		return model.Runner{}, err
	}
	if err := s.rescoreRunnerRaces(ctx, updated.ID); err != nil {
		return model.Runner{}, err
	}
	return updated, nil
}

// DeleteRunner removes a runner, their results, and rescores affected races.
func (s *Service) DeleteRunner(ctx context.Context, id string) error {
	raceIDs, err := s.racesOf(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRunner(ctx, id); err != nil {
		return err
	}
	for _, raceID := range raceIDs {
		if err := s.RescoreRace(ctx, raceID); err != nil {
			return err
		}
	}
	return nil
}

// CreateRace registers a race.
func (s *Service) CreateRace(ctx context.Context, race model.Race) (model.Race, error) {
	if race.Name == "" {
		return model.Race{}, fmt.Errorf("%w: race name must not be empty", ErrInvalidInput)
	}
	if race.DistanceKm <= 0 {
		return model.Race{}, fmt.Errorf("%w: race distance must be positive", ErrInvalidInput)
	}
	return s.store.CreateRace(ctx, race)
}

// GetRace returns a race by ID.
func (s *Service) GetRace(ctx context.Context, id string) (model.Race, error) {
	return s.store.GetRace(ctx, id)
}

// ListRaces returns all races.
func (s *Service) ListRaces(ctx context.Context) ([]model.Race, error) {
	return s.store.ListRaces(ctx)
}

// UpdateRace updates a race and rescores it, since date and distance feed
// the age-graded pass.
func (s *Service) UpdateRace(ctx context.Context, race model.Race) (model.Race, error) {
	if race.DistanceKm <= 0 {
		return model.Race{}, fmt.Errorf("%w: race distance must be positive", ErrInvalidInput)
	}
	updated, err := s.store.UpdateRace(ctx, race)
	if err != nil {
		return model.Race{}, err
	}
	if err := s.RescoreRace(ctx, updated.ID); err != nil {
		return model.Race{}, err
	}
	return updated, nil
}

// DeleteRace removes a race and its results.
func (s *Service) DeleteRace(ctx context.Context, id string) error {
	return s.store.DeleteRace(ctx, id)
}

// AddResult records a finish time and rescores the race before returning,
// so the response already carries positions and points.
func (s *Service) AddResult(ctx context.Context, raceID, runnerID, finishTime string) (model.Result, error) {
	normalized, err := timefmt.Normalize(finishTime)
	if err != nil {
		return model.Result{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	created, err := s.store.CreateResult(ctx, model.Result{
		RaceID:     raceID,
		RunnerID:   runnerID,
		FinishTime: normalized,
	})
	if err != nil {
		return model.Result{}, err
	}
	if err := s.RescoreRace(ctx, raceID); err != nil {
		return model.Result{}, err
	}
	return s.store.GetResult(ctx, created.ID)
}

// UpdateResult changes a finish time and rescores the race.
func (s *Service) UpdateResult(ctx context.Context, resultID, finishTime string) (model.Result, error) {
	normalized, err := timefmt.Normalize(finishTime)
	if err != nil {
		return model.Result{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	stored, err := s.store.GetResult(ctx, resultID)
	if err != nil {
		return model.Result{}, err
	}
	stored.FinishTime = normalized
	if _, err := s.store.UpdateResult(ctx, stored); err != nil {
		return model.Result{}, err
	}
	if err := s.RescoreRace(ctx, stored.RaceID); err != nil {
		return model.Result{}, err
	}
	return s.store.GetResult(ctx, resultID)
}

// DeleteResult removes a finish record and rescores the race so the
// remaining runners close the gap.
func (s *Service) DeleteResult(ctx context.Context, resultID string) error {
	stored, err := s.store.GetResult(ctx, resultID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteResult(ctx, resultID); err != nil {
		return err
	}
	return s.RescoreRace(ctx, stored.RaceID)
}

// GetResult returns a result by ID.
func (s *Service) GetResult(ctx context.Context, id string) (model.Result, error) {
	return s.store.GetResult(ctx, id)
}

// RaceResults returns the scored results of one race ordered by position.
func (s *Service) RaceResults(ctx context.Context, raceID string) ([]model.Result, error) {
	return s.store.ResultsForRace(ctx, raceID)
}

// RescoreRace recomputes every derived field of one race from current
// runner and race data and writes the whole batch atomically.
func (s *Service) RescoreRace(ctx context.Context, raceID string) error {
	start := time.Now()

	race, err := s.store.GetRace(ctx, raceID)
	if err != nil {
		return err
	}
	results, err := s.store.ResultsForRace(ctx, raceID)
	if err != nil {
		return err
	}

	// Age-graded percentages are recomputed here rather than reused, so a
	// corrected date of birth or race distance propagates on rescore.
	for i := range results {
		results[i].AgeGradedPercent = s.percentFor(ctx, race, &results[i])
	}

	updates := s.engine.ScoreRace(ctx, results)
	if err := s.store.WriteScores(ctx, updates); err != nil {
		metrics.RecordRescoreError()
		return err
	}

	metrics.RecordRaceRescored()
	metrics.RecordResultsScored(len(results))
	metrics.RecordRescoreDuration(float64(time.Since(start).Milliseconds()))
	s.logger.Debug(ctx, "race rescored",
		logger.String("raceID", raceID),
		logger.Int("results", len(results)),
	)
	return nil
}

// RescoreAll recomputes every race, bounded by the configured worker
// count. Returns the number of races rescored.
func (s *Service) RescoreAll(ctx context.Context) (int, error) {
	races, err := s.store.ListRaces(ctx)
	if err != nil {
		return 0, err
	}

	sem := make(chan struct{}, s.rescoreWorkers)
	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	for _, race := range races {
		wg.Add(1)
		sem <- struct{}{}
		go func(raceID string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := s.RescoreRace(ctx, raceID); err != nil {
				errOnce.Do(func() { firstErr = err })
			}
		}(race.ID)
	}
	wg.Wait()

	if firstErr != nil {
		return 0, firstErr
	}
	s.logger.Info(ctx, "full rescore complete", logger.Int("races", len(races)))
	return len(races), nil
}

// RawStandings builds the gender-separated season tables.
func (s *Service) RawStandings(ctx context.Context) (male, female []model.Standing, err error) {
	start := time.Now()
	results, err := s.store.AllResults(ctx)
	if err != nil {
		return nil, nil, err
	}
	male, female = standings.Raw(results, s.store.BestN(ctx))
	metrics.RecordStandingsComputed("raw")
	metrics.RecordStandingsDuration(float64(time.Since(start).Milliseconds()))
	return male, female, nil
}

// AgeGradedStandings builds the combined-gender season table.
func (s *Service) AgeGradedStandings(ctx context.Context) ([]model.Standing, error) {
	start := time.Now()
	results, err := s.store.AllResults(ctx)
	if err != nil {
		return nil, err
	}
	table := standings.AgeGraded(results, s.store.BestN(ctx))
	metrics.RecordStandingsComputed("age_graded")
	metrics.RecordStandingsDuration(float64(time.Since(start).Milliseconds()))
	return table, nil
}

// AgeGradedPercent computes a one-off percentage without touching the store.
func (s *Service) AgeGradedPercent(ctx context.Context, distanceKm float64, finishTime string, age int, gender model.Gender) (float64, error) {
	if !gender.Valid() {
		return 0, fmt.Errorf("%w: gender must be M or F", ErrInvalidInput)
	}
	normalized, err := timefmt.Normalize(finishTime)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	seconds := timefmt.ToSeconds(normalized)
	percent, err := s.calc.Percent(distanceKm, float64(seconds), age, gender)
	if err != nil {
		if errors.Is(err, agegrade.ErrNonPositiveTime) {
			return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return 0, err
	}
	return percent, nil
}

// BestN returns the current best-N setting.
func (s *Service) BestN(ctx context.Context) int {
	return s.store.BestN(ctx)
}

// SetBestN changes the best-N setting. Standings are computed on read, so
// no rescore is needed.
func (s *Service) SetBestN(ctx context.Context, n int) error {
	if err := s.store.SetBestN(ctx, n); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	s.logger.Info(ctx, "best-n setting changed", logger.Int("bestN", n))
	return nil
}

// GetStats returns store counters for the stats endpoint.
func (s *Service) GetStats(ctx context.Context) Stats {
	runners, races, results := s.store.Counts(ctx)
	return Stats{
		Runners: runners,
		Races:   races,
		Results: results,
		BestN:   s.store.BestN(ctx),
	}
}

// percentFor computes one result's age-graded percentage, or nil when the
// runner lacks a date of birth or the time cannot be parsed.
func (s *Service) percentFor(ctx context.Context, race model.Race, result *model.Result) *float64 {
	if result.Runner == nil || result.Runner.DateOfBirth == nil || !result.Runner.Gender.Valid() {
		return nil
	}
	seconds := timefmt.ToSeconds(result.FinishTime)
	if seconds <= 0 {
		return nil
	}
	age := agegrade.Age(*result.Runner.DateOfBirth, race.Date)
	percent, err := s.calc.Percent(race.DistanceKm, float64(seconds), age, result.Runner.Gender)
	if err != nil {
		s.logger.Warn(ctx, "age-graded percent unavailable",
			logger.String("resultID", result.ID),
			logger.Error(err),
		)
		return nil
	}
	return &percent
}

// racesOf lists the distinct races a runner holds results in.
func (s *Service) racesOf(ctx context.Context, runnerID string) ([]string, error) {
	results, err := s.store.AllResults(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var raceIDs []string
	for i := range results {
		if results[i].RunnerID != runnerID {
			continue
		}
		if _, ok := seen[results[i].RaceID]; ok {
			continue
		}
		seen[results[i].RaceID] = struct{}{}
		raceIDs = append(raceIDs, results[i].RaceID)
	}
	return raceIDs, nil
}

// rescoreRunnerRaces rescores every race a runner appears in.
func (s *Service) rescoreRunnerRaces(ctx context.Context, runnerID string) error {
	raceIDs, err := s.racesOf(ctx, runnerID)
	if err != nil {
		return err
	}
	for _, raceID := range raceIDs {
		if err := s.RescoreRace(ctx, raceID); err != nil {
			return err
		}
	}
	return nil
}
