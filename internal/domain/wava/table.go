// Package wava loads the age-grading reference table and interpolates
// standard times and age factors for arbitrary distances and ages.
//
// The table is a WAVA-style standard: per gender, a strictly increasing
// sequence of distances (km), a parallel sequence of open-class standard
// times (seconds), and per integer age (5..100) a parallel sequence of age
// factors. Malformed tables are a configuration error and fail at load.
package wava

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/strideclub/champ/internal/domain/model"
	"github.com/strideclub/champ/pkg/logger"
	"github.com/strideclub/champ/pkg/metrics"
)

// Age bounds of the reference table. Ages outside clamp to the boundary.
const (
	MinAge = 5
	MaxAge = 100
)

// genderTable holds the table rows for one gender.
type genderTable struct {
	Distances  []float64            `json:"distances"`
	Standards  []float64            `json:"standards"`
	AgeFactors map[string][]float64 `json:"ageFactors"`
}

// tableFile mirrors the standards JSON document.
type tableFile struct {
	Men   genderTable `json:"men"`
	Women genderTable `json:"women"`
}

// Table answers standard-time and age-factor queries.
type Table struct {
	men   genderTable
	women genderTable
	log   logger.Logger
}

// Option applies a configuration option to the Table.
type Option func(*Table)

// WithLogger sets a custom logger for the table.
func WithLogger(log logger.Logger) Option {
	return func(t *Table) {
		if log != nil {
			t.log = log
		}
	}
}

// Load parses and validates a standards document.
func Load(data []byte, opts ...Option) (*Table, error) {
	var f tableFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTable, err)
	}

	t := &Table{men: f.Men, women: f.Women}
	for _, opt := range opts {
		opt(t)
	}

	if err := validate("men", &t.men); err != nil {
		return nil, err
	}
	if err := validate("women", &t.women); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadFile reads and validates a standards document from disk.
func LoadFile(path string, opts ...Option) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read standards table: %w", err)
	}
	return Load(data, opts...)
}

// validate enforces the table invariants: a non-empty strictly increasing
// distance sequence, and every value sequence exactly as long as it.
func validate(name string, g *genderTable) error {
	n := len(g.Distances)
	if n == 0 {
		return fmt.Errorf("%w: %s: no distances", ErrMalformedTable, name)
	}
	for i := 1; i < n; i++ {
		if g.Distances[i] <= g.Distances[i-1] {
			return fmt.Errorf("%w: %s: distances not strictly increasing at index %d", ErrMalformedTable, name, i)
		}
	}
	if len(g.Standards) != n {
		return fmt.Errorf("%w: %s: %d standards for %d distances", ErrMalformedTable, name, len(g.Standards), n)
	}
	for age, factors := range g.AgeFactors {
		if len(factors) != n {
			return fmt.Errorf("%w: %s: age %s: %d factors for %d distances", ErrMalformedTable, name, age, len(factors), n)
		}
	}
	return nil
}

func (t *Table) forGender(g model.Gender) *genderTable {
	if g == model.Female {
		return &t.women
	}
	return &t.men
}

// StandardTime returns the open-class standard time in seconds for a
// distance, interpolating between tabulated distances.
func (t *Table) StandardTime(distanceKm float64, gender model.Gender) float64 {
	g := t.forGender(gender)
	return interpolateByDistance(distanceKm, g.Distances, g.Standards)
}

// AgeFactor returns the age factor for a distance and age. Age clamps to
// [MinAge, MaxAge]. A missing age row is recorded and falls back to 1.0.
// Fractional ages interpolate between the bracketing integer-age rows.
func (t *Table) AgeFactor(distanceKm, age float64, gender model.Gender) float64 {
	g := t.forGender(gender)

	clamped := math.Max(MinAge, math.Min(MaxAge, age))
	lowerAge := int(math.Floor(clamped))

	lowerFactors, ok := g.AgeFactors[fmt.Sprint(lowerAge)]
	if !ok {
		t.recordFallback(clamped)
		return 1.0
	}
	factor := interpolateByDistance(distanceKm, g.Distances, lowerFactors)

	// Fractional age: interpolate between the two bracketing age rows.
	if clamped != math.Floor(clamped) {
		upperAge := lowerAge + 1
		if upperAge > MaxAge {
			upperAge = MaxAge
		}
		if upperFactors, ok := g.AgeFactors[fmt.Sprint(upperAge)]; ok {
			upper := interpolateByDistance(distanceKm, g.Distances, upperFactors)
			return interpolate(clamped, float64(lowerAge), float64(upperAge), factor, upper)
		}
	}
	return factor
}

func (t *Table) recordFallback(age float64) {
	metrics.RecordAgeFactorFallback()
	if t.log != nil {
		t.log.Warn(context.Background(), "no age factors for age, defaulting to 1.0",
			logger.Float64("age", age),
		)
	}
}

// interpolate is plain linear interpolation with a degenerate-bracket guard.
func interpolate(x, x0, x1, y0, y1 float64) float64 {
	if x1 == x0 {
		return y0
	}
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}

// bracket locates the two table indices surrounding distance. Below the
// table it is [0, min(1,n-1)], above it [max(0,n-2), n-1], otherwise the
// first adjacent pair containing the value.
func bracket(distance float64, distances []float64) (int, int) {
	n := len(distances)
	if distance <= distances[0] {
		if n == 1 {
			return 0, 0
		}
		return 0, 1
	}
	if distance >= distances[n-1] {
		if n == 1 {
			return 0, 0
		}
		return n - 2, n - 1
	}
	for i := 0; i < n-1; i++ {
		if distances[i] <= distance && distance <= distances[i+1] {
			return i, i + 1
		}
	}
	return 0, 1
}

func interpolateByDistance(distance float64, distances, values []float64) float64 {
	i0, i1 := bracket(distance, distances)
	if i0 == i1 {
		return values[i0]
	}
	// Exact grid hit returns the tabulated value untouched.
	if distance == distances[i0] {
		return values[i0]
	}
	if distance == distances[i1] {
		return values[i1]
	}
	return interpolate(distance, distances[i0], distances[i1], values[i0], values[i1])
}
