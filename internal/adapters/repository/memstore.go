package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/strideclub/champ/internal/domain/model"
	"github.com/strideclub/champ/internal/domain/scoring"
	"github.com/strideclub/champ/pkg/metrics"
)

// In-memory Store implementation.
//
// All maps live behind one RWMutex. WriteScores mutates every row of a
// scoring run under a single write-lock acquisition, which is what makes
// the batch atomic for readers.

// MemStore is an in-memory implementation of Store.
type MemStore struct {
	mu sync.RWMutex

	runners map[string]model.Runner
	races   map[string]model.Race
	results map[string]model.Result

	// resultsByRace indexes result IDs per race for fast race reads and
	// duplicate checks.
	resultsByRace map[string]map[string]struct{}

	bestN int
}

// NewMemStore creates an empty store with configuration options.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		runners:       make(map[string]model.Runner),
		races:         make(map[string]model.Race),
		results:       make(map[string]model.Result),
		resultsByRace: make(map[string]map[string]struct{}),
		bestN:         defaultBestN,
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateBestNSetting(s.bestN)
	return s
}

func (s *MemStore) CreateRunner(_ context.Context, runner model.Runner) (model.Runner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if runner.ID == "" {
		runner.ID = uuid.NewString()
	}
	if runner.CreatedAt.IsZero() {
		runner.CreatedAt = time.Now().UTC()
	}
	s.runners[runner.ID] = runner
	metrics.UpdateStoreRunners(len(s.runners))
	return runner, nil
}

func (s *MemStore) GetRunner(_ context.Context, id string) (model.Runner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runner, ok := s.runners[id]
	if !ok {
		return model.Runner{}, ErrRunnerNotFound
	}
	return runner, nil
}

func (s *MemStore) UpdateRunner(_ context.Context, runner model.Runner) (model.Runner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.runners[runner.ID]
	if !ok {
		return model.Runner{}, ErrRunnerNotFound
	}
	stored.Name = runner.Name
	stored.Gender = runner.Gender
	stored.DateOfBirth = runner.DateOfBirth
	s.runners[runner.ID] = stored
	return stored, nil
}

func (s *MemStore) DeleteRunner(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runners[id]; !ok {
		return ErrRunnerNotFound
	}
	delete(s.runners, id)
	for resultID, result := range s.results {
		if result.RunnerID == id {
			s.dropResultLocked(resultID)
		}
	}
	metrics.UpdateStoreRunners(len(s.runners))
	metrics.UpdateStoreResults(len(s.results))
	return nil
}

func (s *MemStore) ListRunners(_ context.Context) ([]model.Runner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Runner, 0, len(s.runners))
	for _, runner := range s.runners {
		out = append(out, runner)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) FindRunnerByName(_ context.Context, name string) (model.Runner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, runner := range s.runners {
		if strings.EqualFold(runner.Name, name) {
			return runner, nil
		}
	}
	return model.Runner{}, ErrRunnerNotFound
}

func (s *MemStore) CreateRace(_ context.Context, race model.Race) (model.Race, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if race.ID == "" {
		race.ID = uuid.NewString()
	}
	if race.CreatedAt.IsZero() {
		race.CreatedAt = time.Now().UTC()
	}
	s.races[race.ID] = race
	metrics.UpdateStoreRaces(len(s.races))
	return race, nil
}

func (s *MemStore) GetRace(_ context.Context, id string) (model.Race, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	race, ok := s.races[id]
	if !ok {
		return model.Race{}, ErrRaceNotFound
	}
	return race, nil
}

func (s *MemStore) UpdateRace(_ context.Context, race model.Race) (model.Race, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.races[race.ID]
	if !ok {
		return model.Race{}, ErrRaceNotFound
	}
	stored.Name = race.Name
	stored.Date = race.Date
	stored.DistanceKm = race.DistanceKm
	s.races[race.ID] = stored
	return stored, nil
}

func (s *MemStore) DeleteRace(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.races[id]; !ok {
		return ErrRaceNotFound
	}
	delete(s.races, id)
	for resultID := range s.resultsByRace[id] {
		delete(s.results, resultID)
	}
	delete(s.resultsByRace, id)
	metrics.UpdateStoreRaces(len(s.races))
	metrics.UpdateStoreResults(len(s.results))
	return nil
}

func (s *MemStore) ListRaces(_ context.Context) ([]model.Race, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Race, 0, len(s.races))
	for _, race := range s.races {
		out = append(out, race)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) CreateResult(_ context.Context, result model.Result) (model.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.races[result.RaceID]; !ok {
		return model.Result{}, ErrRaceNotFound
	}
	if _, ok := s.runners[result.RunnerID]; !ok {
		return model.Result{}, ErrRunnerNotFound
	}
	for resultID := range s.resultsByRace[result.RaceID] {
		if s.results[resultID].RunnerID == result.RunnerID {
			return model.Result{}, ErrDuplicateResult
		}
	}

	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}
	result.Runner = nil
	s.results[result.ID] = result
	if s.resultsByRace[result.RaceID] == nil {
		s.resultsByRace[result.RaceID] = make(map[string]struct{})
	}
	s.resultsByRace[result.RaceID][result.ID] = struct{}{}
	metrics.UpdateStoreResults(len(s.results))
	return s.joinRunnerLocked(result), nil
}

func (s *MemStore) GetResult(_ context.Context, id string) (model.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[id]
	if !ok {
		return model.Result{}, ErrResultNotFound
	}
	return s.joinRunnerLocked(result), nil
}

func (s *MemStore) UpdateResult(_ context.Context, result model.Result) (model.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.results[result.ID]
	if !ok {
		return model.Result{}, ErrResultNotFound
	}
	stored.FinishTime = result.FinishTime
	s.results[result.ID] = stored
	return s.joinRunnerLocked(stored), nil
}

func (s *MemStore) DeleteResult(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.results[id]; !ok {
		return ErrResultNotFound
	}
	s.dropResultLocked(id)
	metrics.UpdateStoreResults(len(s.results))
	return nil
}

func (s *MemStore) FindResult(_ context.Context, raceID, runnerID string) (model.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for resultID := range s.resultsByRace[raceID] {
		if result := s.results[resultID]; result.RunnerID == runnerID {
			return s.joinRunnerLocked(result), nil
		}
	}
	return model.Result{}, ErrResultNotFound
}

func (s *MemStore) ResultsForRace(_ context.Context, raceID string) ([]model.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.races[raceID]; !ok {
		return nil, ErrRaceNotFound
	}
	out := make([]model.Result, 0, len(s.resultsByRace[raceID]))
	for resultID := range s.resultsByRace[raceID] {
		out = append(out, s.joinRunnerLocked(s.results[resultID]))
	}
	sortResults(out)
	return out, nil
}

func (s *MemStore) AllResults(_ context.Context) ([]model.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Result, 0, len(s.results))
	for _, result := range s.results {
		out = append(out, s.joinRunnerLocked(result))
	}
	sortResults(out)
	return out, nil
}

func (s *MemStore) WriteScores(_ context.Context, updates []scoring.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range updates {
		result, ok := s.results[u.ResultID]
		if !ok {
			// The result was deleted between scoring and write. The next
			// rescore of its race settles positions, so skip it here.
			continue
		}
		result.Position = u.Position
		result.Points = u.Points
		result.AgeGradedPercent = u.AgeGradedPercent
		result.AgeGradedPosition = u.AgeGradedPosition
		result.AgeGradedPoints = u.AgeGradedPoints
		s.results[u.ResultID] = result
	}
	return nil
}

func (s *MemStore) BestN(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bestN
}

func (s *MemStore) SetBestN(_ context.Context, n int) error {
	if n <= 0 {
		return ErrInvalidBestN
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bestN = n
	metrics.UpdateBestNSetting(n)
	return nil
}

func (s *MemStore) Counts(_ context.Context) (runners, races, results int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runners), len(s.races), len(s.results)
}

// joinRunnerLocked attaches a copy of the owning runner. Caller holds the
// lock in either mode.
func (s *MemStore) joinRunnerLocked(result model.Result) model.Result {
	if runner, ok := s.runners[result.RunnerID]; ok {
		result.Runner = &runner
	}
	return result
}

// dropResultLocked removes a result and its race index entry. Caller holds
// the write lock.
func (s *MemStore) dropResultLocked(id string) {
	result, ok := s.results[id]
	if !ok {
		return
	}
	delete(s.results, id)
	if byRace, ok := s.resultsByRace[result.RaceID]; ok {
		delete(byRace, id)
		if len(byRace) == 0 {
			delete(s.resultsByRace, result.RaceID)
		}
	}
}

// sortResults orders by race, then creation time, then ID. Stable output
// order regardless of map iteration.
func sortResults(results []model.Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].RaceID != results[j].RaceID {
			return results[i].RaceID < results[j].RaceID
		}
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.Before(results[j].CreatedAt)
		}
		return results[i].ID < results[j].ID
	})
}
