package projections

import (
	"context"
	"fmt"

	"confsched/internal/adapters/api"
	"confsched/internal/application/listutil"
	"confsched/internal/domain/conference"
)

// GetConferenceListQuery carries query parameters.
type GetConferenceListQuery struct {
	Series string // empty lists every series
	Page   listutil.PageParams
	Auth   api.TokenSource
}

// ConferenceRow is one admin list row.
type ConferenceRow struct {
	conference.Conference
	ValidRange bool // false rows are hidden from the public schedule
}

// GetConferenceListResult carries the query result.
type GetConferenceListResult struct {
	Rows          []ConferenceRow
	Page          listutil.PageInfo
	Series        string
	SeriesOptions []conference.Series
}

// GetConferenceListDeps holds dependencies for GetConferenceList.
type GetConferenceListDeps struct {
	Reader ScheduleReader
}

// QueryGetConferenceList returns a page of conferences for staff.
// Conferences with broken date ranges are kept and flagged so staff can fix them.
// PRE: query.Auth is non-nil
// POST: Rows are in API order, filtered by series when one is given
func QueryGetConferenceList(ctx context.Context, query GetConferenceListQuery, deps GetConferenceListDeps) (GetConferenceListResult, error) {
	bundles, err := deps.Reader.ListConferences(ctx, query.Auth, false)
	if err != nil {
		return GetConferenceListResult{}, fmt.Errorf("load conferences: %w", err)
	}

	series, filtered := conference.ParseSeries(query.Series)
	var rows []ConferenceRow
	for _, b := range listutil.MergeByID(bundles) {
		if filtered && b.Series != series {
			continue
		}
		_, _, ok := b.DateRange()
		rows = append(rows, ConferenceRow{Conference: b.Conference, ValidRange: ok})
	}

	page, info := listutil.Paginate(rows, query.Page)
	result := GetConferenceListResult{Rows: page, Page: info, SeriesOptions: conference.ValidSeries}
	if filtered {
		result.Series = string(series)
	}
	return result, nil
}
