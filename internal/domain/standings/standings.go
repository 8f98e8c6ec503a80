// Package standings aggregates already-scored results into season tables.
//
// A runner's season total counts only their best N races on each axis;
// extra races still count toward participation but not toward the total.
// Tables use standard competition ranking on the total.
package standings

import (
	"sort"

	"github.com/strideclub/champ/internal/domain/model"
)

// DefaultBestN is the number of races counted toward a season total.
const DefaultBestN = 5

// runnerSeason accumulates one runner's scores across the season.
type runnerSeason struct {
	runner *model.Runner
	points []int
	races  int
}

// Raw builds the gender-separated season tables from raw race points.
// Results without a joined runner are ignored. A bestN of zero or less
// counts every race.
func Raw(results []model.Result, bestN int) (male, female []model.Standing) {
	seasons := map[model.Gender]map[string]*runnerSeason{
		model.Male:   {},
		model.Female: {},
	}
	for i := range results {
		r := &results[i]
		if r.Runner == nil || !r.Runner.Gender.Valid() {
			continue
		}
		byRunner := seasons[r.Runner.Gender]
		s, ok := byRunner[r.Runner.ID]
		if !ok {
			s = &runnerSeason{runner: r.Runner}
			byRunner[r.Runner.ID] = s
		}
		s.races++
		if r.Points != nil {
			s.points = append(s.points, *r.Points)
		}
	}
	return rank(seasons[model.Male], bestN), rank(seasons[model.Female], bestN)
}

// AgeGraded builds the combined-gender season table from age-graded points.
// Only results that carry age-graded points count, for participation too:
// a race where the runner had no age-graded score does not appear on this
// axis at all.
func AgeGraded(results []model.Result, bestN int) []model.Standing {
	byRunner := map[string]*runnerSeason{}
	for i := range results {
		r := &results[i]
		if r.Runner == nil || r.AgeGradedPoints == nil {
			continue
		}
		s, ok := byRunner[r.Runner.ID]
		if !ok {
			s = &runnerSeason{runner: r.Runner}
			byRunner[r.Runner.ID] = s
		}
		s.races++
		s.points = append(s.points, *r.AgeGradedPoints)
	}
	return rank(byRunner, bestN)
}

// rank totals each runner's best races and orders the table.
func rank(byRunner map[string]*runnerSeason, bestN int) []model.Standing {
	table := make([]model.Standing, 0, len(byRunner))
	for _, s := range byRunner {
		table = append(table, model.Standing{
			RunnerID:          s.runner.ID,
			RunnerName:        s.runner.Name,
			Gender:            s.runner.Gender,
			TotalPoints:       bestSum(s.points, bestN),
			RacesParticipated: s.races,
		})
	}

	sort.Slice(table, func(i, j int) bool {
		if table[i].TotalPoints != table[j].TotalPoints {
			return table[i].TotalPoints > table[j].TotalPoints
		}
		if table[i].RunnerName != table[j].RunnerName {
			return table[i].RunnerName < table[j].RunnerName
		}
		return table[i].RunnerID < table[j].RunnerID
	})

	for i := range table {
		if i > 0 && table[i].TotalPoints == table[i-1].TotalPoints {
			table[i].Position = table[i-1].Position
		} else {
			table[i].Position = i + 1
		}
	}
	return table
}

// bestSum sums the highest bestN values.
func bestSum(points []int, bestN int) int {
	sorted := make([]int, len(points))
	copy(sorted, points)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	if bestN > 0 && len(sorted) > bestN {
		sorted = sorted[:bestN]
	}
	total := 0
	for _, p := range sorted {
		total += p
	}
	return total
}
