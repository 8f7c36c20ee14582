package projections

import (
	"context"
	"fmt"

	"confsched/internal/domain/conference"
)

// GetPublicScheduleQuery carries query parameters.
type GetPublicScheduleQuery struct {
	Series string // ICICYTA or ICODSA; anything else falls back to ICICYTA
	Year   string // empty selects the newest year
}

// GetPublicScheduleResult carries the query result.
type GetPublicScheduleResult struct {
	Selection conference.Selection
	Board     *Board // nil when no conference matches
}

// GetPublicScheduleDeps holds dependencies for GetPublicSchedule.
type GetPublicScheduleDeps struct {
	Reader ScheduleReader
}

// QueryGetPublicSchedule runs the series/year pipeline over every conference
// and builds the board of the selected one. All calls are anonymous.
// PRE: none
// POST: Board has no admin warnings
func QueryGetPublicSchedule(ctx context.Context, query GetPublicScheduleQuery, deps GetPublicScheduleDeps) (GetPublicScheduleResult, error) {
	series, ok := conference.ParseSeries(query.Series)
	if !ok {
		series = conference.SeriesICICYTA
	}

	bundles, err := deps.Reader.ListConferences(ctx, nil, false)
	if err != nil {
		return GetPublicScheduleResult{}, fmt.Errorf("load conferences: %w", err)
	}
	list := make([]conference.Conference, 0, len(bundles))
	for _, b := range bundles {
		list = append(list, b.Conference)
	}

	result := GetPublicScheduleResult{Selection: conference.Pipeline(list, series, query.Year)}
	if result.Selection.Selected == nil {
		return result, nil
	}

	src, err := loadBoardSources(ctx, deps.Reader, nil, result.Selection.Selected.ID)
	if err != nil {
		return GetPublicScheduleResult{}, err
	}
	board := BuildBoard(src).Public()
	result.Board = &board
	return result, nil
}
