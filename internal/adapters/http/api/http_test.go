package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/strideclub/champ/internal/adapters/http/api"
	"github.com/strideclub/champ/internal/adapters/repository"
	service "github.com/strideclub/champ/internal/app"
	"github.com/strideclub/champ/internal/domain/model"
)

// mockService implements api.Dependencies with overridable behavior.
type mockService struct {
	runners   map[string]model.Runner
	races     map[string]model.Race
	results   map[string]model.Result
	bestN     int
	rescored  int
	male      []model.Standing
	female    []model.Standing
	ageGraded []model.Standing
}

func newMockService() *mockService {
	return &mockService{
		runners: map[string]model.Runner{},
		races:   map[string]model.Race{},
		results: map[string]model.Result{},
		bestN:   5,
	}
}

func (m *mockService) CreateRunner(_ context.Context, runner model.Runner) (model.Runner, error) {
	runner.ID = "runner-1"
	m.runners[runner.ID] = runner
	return runner, nil
}

func (m *mockService) GetRunner(_ context.Context, id string) (model.Runner, error) {
	runner, ok := m.runners[id]
	if !ok {
		return model.Runner{}, repository.ErrRunnerNotFound
	}
	return runner, nil
}

func (m *mockService) ListRunners(_ context.Context) ([]model.Runner, error) {
	out := make([]model.Runner, 0, len(m.runners))
	for _, r := range m.runners {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockService) UpdateRunner(_ context.Context, runner model.Runner) (model.Runner, error) {
	if _, ok := m.runners[runner.ID]; !ok {
		return model.Runner{}, repository.ErrRunnerNotFound
	}
	m.runners[runner.ID] = runner
	return runner, nil
}

func (m *mockService) DeleteRunner(_ context.Context, id string) error {
	if _, ok := m.runners[id]; !ok {
		return repository.ErrRunnerNotFound
	}
	delete(m.runners, id)
	return nil
}

func (m *mockService) CreateRace(_ context.Context, race model.Race) (model.Race, error) {
	race.ID = "race-1"
	m.races[race.ID] = race
	return race, nil
}

func (m *mockService) GetRace(_ context.Context, id string) (model.Race, error) {
	race, ok := m.races[id]
	if !ok {
		return model.Race{}, repository.ErrRaceNotFound
	}
	return race, nil
}

func (m *mockService) ListRaces(_ context.Context) ([]model.Race, error) {
	out := make([]model.Race, 0, len(m.races))
	for _, r := range m.races {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockService) UpdateRace(_ context.Context, race model.Race) (model.Race, error) {
	if _, ok := m.races[race.ID]; !ok {
		return model.Race{}, repository.ErrRaceNotFound
	}
	m.races[race.ID] = race
	return race, nil
}

func (m *mockService) DeleteRace(_ context.Context, id string) error {
	if _, ok := m.races[id]; !ok {
		return repository.ErrRaceNotFound
	}
	delete(m.races, id)
	return nil
}

func (m *mockService) RaceResults(_ context.Context, raceID string) ([]model.Result, error) {
	if _, ok := m.races[raceID]; !ok {
		return nil, repository.ErrRaceNotFound
	}
	out := make([]model.Result, 0)
	for _, r := range m.results {
		if r.RaceID == raceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockService) RescoreRace(_ context.Context, raceID string) error {
	if _, ok := m.races[raceID]; !ok {
		return repository.ErrRaceNotFound
	}
	m.rescored++
	return nil
}

func (m *mockService) AddResult(_ context.Context, raceID, runnerID, finishTime string) (model.Result, error) {
	if _, ok := m.races[raceID]; !ok {
		return model.Result{}, repository.ErrRaceNotFound
	}
	if _, ok := m.runners[runnerID]; !ok {
		return model.Result{}, repository.ErrRunnerNotFound
	}
	for _, r := range m.results {
		if r.RaceID == raceID && r.RunnerID == runnerID {
			return model.Result{}, repository.ErrDuplicateResult
		}
	}
	result := model.Result{ID: "result-1", RaceID: raceID, RunnerID: runnerID, FinishTime: finishTime}
	m.results[result.ID] = result
	return result, nil
}

func (m *mockService) GetResult(_ context.Context, id string) (model.Result, error) {
	result, ok := m.results[id]
	if !ok {
		return model.Result{}, repository.ErrResultNotFound
	}
	return result, nil
}

func (m *mockService) UpdateResult(_ context.Context, resultID, finishTime string) (model.Result, error) {
	result, ok := m.results[resultID]
	if !ok {
		return model.Result{}, repository.ErrResultNotFound
	}
	result.FinishTime = finishTime
	m.results[resultID] = result
	return result, nil
}

func (m *mockService) DeleteResult(_ context.Context, resultID string) error {
	if _, ok := m.results[resultID]; !ok {
		return repository.ErrResultNotFound
	}
	delete(m.results, resultID)
	return nil
}

func (m *mockService) RawStandings(_ context.Context) ([]model.Standing, []model.Standing, error) {
	return m.male, m.female, nil
}

func (m *mockService) AgeGradedStandings(_ context.Context) ([]model.Standing, error) {
	return m.ageGraded, nil
}

func (m *mockService) RescoreAll(_ context.Context) (int, error) {
	m.rescored += len(m.races)
	return len(m.races), nil
}

func (m *mockService) BestN(_ context.Context) int { return m.bestN }

func (m *mockService) SetBestN(_ context.Context, n int) error {
	if n <= 0 {
		return repository.ErrInvalidBestN
	}
	m.bestN = n
	return nil
}

func (m *mockService) AgeGradedPercent(_ context.Context, distanceKm float64, finishTime string, age int, gender model.Gender) (float64, error) {
	return 0.75, nil
}

func (m *mockService) GetStats(_ context.Context) service.Stats {
	return service.Stats{
		Runners: len(m.runners),
		Races:   len(m.races),
		Results: len(m.results),
		BestN:   m.bestN,
	}
}

func newTestServer(mock *mockService) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(mock, 100).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func postJSON(url string, body any) (*http.Response, error) {
	buf, _ := json.Marshal(body)
	return http.Post(url, "application/json", bytes.NewReader(buf))
}

func putJSON(url string, body any) (*http.Response, error) {
	buf, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	return http.DefaultClient.Do(req)
}

func TestRunnersEndpoints(t *testing.T) {
	convey.Convey("Given a running API server", t, func() {
		mock := newMockService()
		srv := newTestServer(mock)
		defer srv.Close()

		convey.Convey("When creating a runner", func() {
			resp, err := postJSON(srv.URL+"/runners", map[string]any{
				"name":          "Ann Archer",
				"gender":        "F",
				"date_of_birth": "1988-03-15",
			})

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusCreated)

			var created map[string]any
			convey.So(json.NewDecoder(resp.Body).Decode(&created), convey.ShouldBeNil)
			convey.So(created["id"], convey.ShouldNotBeEmpty)
			convey.So(created["gender"], convey.ShouldEqual, "F")

			convey.Convey("Then the runner is retrievable", func() {
				getResp, err := http.Get(srv.URL + "/runners/runner-1")
				convey.So(err, convey.ShouldBeNil)
				defer func() { _ = getResp.Body.Close() }()
				convey.So(getResp.StatusCode, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When the gender code is invalid", func() {
			resp, err := postJSON(srv.URL+"/runners", map[string]any{
				"name":   "Ann",
				"gender": "X",
			})

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("When the date of birth is malformed", func() {
			resp, err := postJSON(srv.URL+"/runners", map[string]any{
				"name":          "Ann",
				"gender":        "F",
				"date_of_birth": "15/03/1988",
			})

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("When fetching a missing runner", func() {
			resp, err := http.Get(srv.URL + "/runners/ghost")

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestResultsEndpoints(t *testing.T) {
	convey.Convey("Given a server with a runner and a race", t, func() {
		mock := newMockService()
		mock.runners["runner-1"] = model.Runner{ID: "runner-1", Name: "Ann", Gender: model.Female}
		mock.races["race-1"] = model.Race{ID: "race-1", Name: "Spring 5k", DistanceKm: 5}
		srv := newTestServer(mock)
		defer srv.Close()

		convey.Convey("When posting a result", func() {
			resp, err := postJSON(srv.URL+"/results", map[string]any{
				"race_id":     "race-1",
				"runner_id":   "runner-1",
				"finish_time": "20:30",
			})

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusCreated)

			convey.Convey("Then posting the same runner again conflicts", func() {
				dup, err := postJSON(srv.URL+"/results", map[string]any{
					"race_id":     "race-1",
					"runner_id":   "runner-1",
					"finish_time": "21:00",
				})

				convey.So(err, convey.ShouldBeNil)
				defer func() { _ = dup.Body.Close() }()
				convey.So(dup.StatusCode, convey.ShouldEqual, http.StatusConflict)
			})

			convey.Convey("Then the finish time can be corrected", func() {
				upd, err := putJSON(srv.URL+"/results/result-1", map[string]any{
					"finish_time": "19:55",
				})

				convey.So(err, convey.ShouldBeNil)
				defer func() { _ = upd.Body.Close() }()
				convey.So(upd.StatusCode, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When posting a result through the race subresource", func() {
			resp, err := postJSON(srv.URL+"/races/race-1/results", map[string]any{
				"runner_id":   "runner-1",
				"finish_time": "22:10",
			})

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusCreated)
		})

		convey.Convey("When a required field is missing", func() {
			resp, err := postJSON(srv.URL+"/results", map[string]any{
				"race_id": "race-1",
			})

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("When the race does not exist", func() {
			resp, err := postJSON(srv.URL+"/results", map[string]any{
				"race_id":     "ghost",
				"runner_id":   "runner-1",
				"finish_time": "20:30",
			})

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestStandingsEndpoints(t *testing.T) {
	convey.Convey("Given a server with season tables", t, func() {
		mock := newMockService()
		mock.male = []model.Standing{
			{Position: 1, RunnerID: "b", RunnerName: "Bob", Gender: model.Male, TotalPoints: 50, RacesParticipated: 2},
		}
		mock.female = []model.Standing{
			{Position: 1, RunnerID: "a", RunnerName: "Ann", Gender: model.Female, TotalPoints: 49, RacesParticipated: 2},
			{Position: 2, RunnerID: "c", RunnerName: "Cat", Gender: model.Female, TotalPoints: 40, RacesParticipated: 3},
		}
		mock.ageGraded = []model.Standing{
			{Position: 1, RunnerID: "a", RunnerName: "Ann", Gender: model.Female, TotalPoints: 50, RacesParticipated: 2},
		}
		srv := newTestServer(mock)
		defer srv.Close()

		convey.Convey("When fetching raw standings", func() {
			resp, err := http.Get(srv.URL + "/standings")

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			var body struct {
				Male   []map[string]any `json:"male"`
				Female []map[string]any `json:"female"`
			}
			convey.So(json.NewDecoder(resp.Body).Decode(&body), convey.ShouldBeNil)
			convey.So(body.Male, convey.ShouldHaveLength, 1)
			convey.So(body.Female, convey.ShouldHaveLength, 2)
			convey.So(body.Female[0]["runner_name"], convey.ShouldEqual, "Ann")
		})

		convey.Convey("When limiting the tables", func() {
			resp, err := http.Get(srv.URL + "/standings?limit=1")

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			var body struct {
				Female []map[string]any `json:"female"`
			}
			convey.So(json.NewDecoder(resp.Body).Decode(&body), convey.ShouldBeNil)
			convey.So(body.Female, convey.ShouldHaveLength, 1)
		})

		convey.Convey("When the limit is not a number", func() {
			resp, err := http.Get(srv.URL + "/standings?limit=lots")

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("When the limit exceeds the cap", func() {
			resp, err := http.Get(srv.URL + "/standings?limit=101")

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("When fetching the age-graded table", func() {
			resp, err := http.Get(srv.URL + "/standings/age-graded")

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			var table []map[string]any
			convey.So(json.NewDecoder(resp.Body).Decode(&table), convey.ShouldBeNil)
			convey.So(table, convey.ShouldHaveLength, 1)
		})
	})
}

func TestSettingsAndRescoreEndpoints(t *testing.T) {
	convey.Convey("Given a running API server", t, func() {
		mock := newMockService()
		mock.races["race-1"] = model.Race{ID: "race-1", Name: "Spring 5k", DistanceKm: 5}
		srv := newTestServer(mock)
		defer srv.Close()

		convey.Convey("When reading the best-n setting", func() {
			resp, err := http.Get(srv.URL + "/settings/best-n")

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]int
			convey.So(json.NewDecoder(resp.Body).Decode(&body), convey.ShouldBeNil)
			convey.So(body["best_n"], convey.ShouldEqual, 5)
		})

		convey.Convey("When changing the best-n setting", func() {
			resp, err := putJSON(srv.URL+"/settings/best-n", map[string]any{"best_n": 6})

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(mock.bestN, convey.ShouldEqual, 6)
		})

		convey.Convey("When the new setting is invalid", func() {
			resp, err := putJSON(srv.URL+"/settings/best-n", map[string]any{"best_n": 0})

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("When triggering a full rescore", func() {
			resp, err := postJSON(srv.URL+"/rescore", nil)

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			var body map[string]any
			convey.So(json.NewDecoder(resp.Body).Decode(&body), convey.ShouldBeNil)
			convey.So(body["races"], convey.ShouldEqual, 1)
		})

		convey.Convey("When rescoring one race", func() {
			resp, err := postJSON(srv.URL+"/races/race-1/rescore", nil)

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			convey.So(mock.rescored, convey.ShouldEqual, 1)
		})
	})
}

func TestAgeGradeEndpoint(t *testing.T) {
	convey.Convey("Given a running API server", t, func() {
		mock := newMockService()
		srv := newTestServer(mock)
		defer srv.Close()

		convey.Convey("When all parameters are valid", func() {
			resp, err := http.Get(srv.URL + "/age-grade?distance_km=5&time=20:30&age=38&gender=F")

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			var body map[string]float64
			convey.So(json.NewDecoder(resp.Body).Decode(&body), convey.ShouldBeNil)
			convey.So(body["percent"], convey.ShouldEqual, 0.75)
		})

		convey.Convey("When the distance is missing", func() {
			resp, err := http.Get(srv.URL + "/age-grade?time=20:30&age=38&gender=F")

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("When the gender is invalid", func() {
			resp, err := http.Get(srv.URL + "/age-grade?distance_km=5&time=20:30&age=38&gender=Q")

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	convey.Convey("Given a server with some data", t, func() {
		mock := newMockService()
		mock.runners["runner-1"] = model.Runner{ID: "runner-1", Name: "Ann", Gender: model.Female}
		mock.races["race-1"] = model.Race{ID: "race-1", Name: "Spring 5k", DistanceKm: 5}
		srv := newTestServer(mock)
		defer srv.Close()

		convey.Convey("When fetching stats", func() {
			resp, err := http.Get(srv.URL + "/stats")

			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			var stats service.Stats
			convey.So(json.NewDecoder(resp.Body).Decode(&stats), convey.ShouldBeNil)
			convey.So(stats.Runners, convey.ShouldEqual, 1)
			convey.So(stats.Races, convey.ShouldEqual, 1)
			convey.So(stats.BestN, convey.ShouldEqual, 5)
		})
	})
}
