package conference

import (
	"sort"
	"strconv"
)

// Selection is the result of running the series/year pipeline.
type Selection struct {
	Series      Series
	Conferences []Conference // series members with a valid date range
	Years       []string     // distinct year labels, newest first
	Selected    *Conference  // nil when no conference matches the year
}

// FilterSeries keeps conferences of the given series whose date range is valid.
// Malformed or inverted ranges are dropped, never reported as errors.
// PRE: none
// POST: Returns a new slice in input order
func FilterSeries(list []Conference, series Series) []Conference {
	var out []Conference
	for _, c := range list {
		if c.Series != series {
			continue
		}
		if _, _, ok := c.DateRange(); !ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

// YearLabels returns the distinct year labels, sorted descending numerically.
// Labels that are not numbers sort after numeric ones, in descending string order.
// PRE: none
// POST: Returns labels without duplicates or blanks
func YearLabels(list []Conference) []string {
	seen := make(map[string]bool, len(list))
	var years []string
	for _, c := range list {
		if c.Year == "" || seen[c.Year] {
			continue
		}
		seen[c.Year] = true
		years = append(years, c.Year)
	}
	sort.SliceStable(years, func(i, j int) bool {
		a, errA := strconv.Atoi(years[i])
		b, errB := strconv.Atoi(years[j])
		switch {
		case errA == nil && errB == nil:
			return a > b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return years[i] > years[j]
		}
	})
	return years
}

// SelectYear returns the first conference whose year label equals year.
// PRE: none
// POST: Returns nil when nothing matches
func SelectYear(list []Conference, year string) *Conference {
	for i := range list {
		if list[i].Year == year {
			c := list[i]
			return &c
		}
	}
	return nil
}

// Pipeline runs filter, derive and select for one series.
// An empty year selects the newest available year.
func Pipeline(list []Conference, series Series, year string) Selection {
	filtered := FilterSeries(list, series)
	years := YearLabels(filtered)
	if year == "" && len(years) > 0 {
		year = years[0]
	}
	return Selection{
		Series:      series,
		Conferences: filtered,
		Years:       years,
		Selected:    SelectYear(filtered, year),
	}
}
