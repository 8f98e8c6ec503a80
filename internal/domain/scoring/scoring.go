// Package scoring ranks a single race's results and allocates points.
//
// Two independent passes run over the same result set. Pass A ranks raw
// finish times per gender; Pass B ranks the age-graded percentage across
// both genders combined. Both use standard competition ranking ("1224"):
// tied entries share a position and the next distinct entry skips past the
// whole tie group.
package scoring

import (
	"context"
	"math"
	"sort"

	"github.com/strideclub/champ/internal/domain/model"
	"github.com/strideclub/champ/pkg/logger"
	"github.com/strideclub/champ/pkg/timefmt"
)

// DefaultBasePoints is the points awarded for first place; every position
// after it scores one less, floored at zero.
const DefaultBasePoints = 25

// percentTieScale rounds age-graded percentages to 5 decimal places before
// tie comparison. This absorbs floating-point noise; it is an epsilon
// policy, not an exact-equality law, and must stay at this granularity for
// compatibility with historically computed positions.
const percentTieScale = 100000

// Update carries the full set of derived fields for one result. The store
// writes every field verbatim; nil clears the stored value.
type Update struct {
	ResultID          string
	Position          *int
	Points            *int
	AgeGradedPercent  *float64
	AgeGradedPosition *int
	AgeGradedPoints   *int
}

// Engine scores races.
type Engine struct {
	basePoints int
	log        logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithBasePoints sets the points awarded for first place.
func WithBasePoints(points int) Option {
	return func(e *Engine) {
		if points > 0 {
			e.basePoints = points
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine creates a scoring engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		basePoints: DefaultBasePoints,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// points applies the decay formula: base for position 1, minus one per
// position, never negative.
func (e *Engine) points(position int) int {
	p := e.basePoints - (position - 1)
	if p < 0 {
		return 0
	}
	return p
}

// ScoreRace computes every derived field for all results of one race.
// It returns one Update per input result, including explicit nils for
// results excluded from a pass. The input is read-only; callers apply the
// updates through the store in one logical write.
func (e *Engine) ScoreRace(ctx context.Context, results []model.Result) []Update {
	updates := make(map[string]*Update, len(results))
	for i := range results {
		updates[results[i].ID] = &Update{ResultID: results[i].ID}
	}

	e.rankByFinishTime(ctx, results, updates)
	e.rankByAgeGrade(results, updates)

	out := make([]Update, 0, len(results))
	for i := range results {
		out = append(out, *updates[results[i].ID])
	}
	return out
}

// entry is a result admitted to a ranking pass.
type entry struct {
	id  string
	tie string  // runner id, deterministic order inside tie groups
	key float64 // sort key: seconds asc (Pass A) or rounded percent desc (Pass B)
}

// rankByFinishTime is Pass A: gender-separated ranking on raw finish time.
func (e *Engine) rankByFinishTime(ctx context.Context, results []model.Result, updates map[string]*Update) {
	byGender := map[model.Gender][]entry{}
	for i := range results {
		r := &results[i]
		if r.Runner == nil || !r.Runner.Gender.Valid() {
			continue
		}
		seconds := timefmt.ToSeconds(r.FinishTime)
		if seconds <= 0 {
			// Malformed time: skip the row, keep scoring the rest.
			if e.log != nil {
				e.log.Warn(ctx, "skipping result with unparseable finish time",
					logger.String("resultID", r.ID),
					logger.String("finishTime", r.FinishTime),
				)
			}
			continue
		}
		byGender[r.Runner.Gender] = append(byGender[r.Runner.Gender], entry{
			id:  r.ID,
			tie: r.Runner.ID,
			key: float64(seconds),
		})
	}

	for _, group := range byGender {
		sort.Slice(group, func(i, j int) bool {
			if group[i].key != group[j].key {
				return group[i].key < group[j].key
			}
			return group[i].tie < group[j].tie
		})
		e.assign(group, func(u *Update, position, points int) {
			u.Position = &position
			u.Points = &points
		}, updates)
	}
}

// rankByAgeGrade is Pass B: combined-gender ranking on the age-graded
// percentage. Results without a percentage are excluded and keep explicit
// nil age-graded fields.
func (e *Engine) rankByAgeGrade(results []model.Result, updates map[string]*Update) {
	var group []entry
	for i := range results {
		r := &results[i]
		if r.AgeGradedPercent == nil {
			continue
		}
		rounded := roundPercent(*r.AgeGradedPercent)
		updates[r.ID].AgeGradedPercent = r.AgeGradedPercent
		tie := r.ID
		if r.Runner != nil {
			tie = r.Runner.ID
		}
		group = append(group, entry{id: r.ID, tie: tie, key: rounded})
	}

	sort.Slice(group, func(i, j int) bool {
		if group[i].key != group[j].key {
			return group[i].key > group[j].key // higher percentage ranks earlier
		}
		return group[i].tie < group[j].tie
	})
	e.assign(group, func(u *Update, position, points int) {
		u.AgeGradedPosition = &position
		u.AgeGradedPoints = &points
	}, updates)
}

// assign walks a sorted group applying standard competition ranking: equal
// keys share a position and the counter advances past the tie group.
func (e *Engine) assign(group []entry, set func(u *Update, position, points int), updates map[string]*Update) {
	position := 0
	tied := 0
	for i := range group {
		if i == 0 || group[i].key != group[i-1].key {
			position = position + tied + 1
			tied = 0
		} else {
			tied++
		}
		set(updates[group[i].id], position, e.points(position))
	}
}

// roundPercent rounds to the tie-comparison granularity.
func roundPercent(p float64) float64 {
	return math.Round(p*percentTieScale) / percentTieScale
}
