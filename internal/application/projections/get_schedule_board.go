package projections

import (
	"context"
	"fmt"

	"confsched/internal/adapters/api"
)

// GetScheduleBoardQuery carries query parameters.
type GetScheduleBoardQuery struct {
	ConferenceID int64
	Auth         api.TokenSource // nil for anonymous reads
}

// GetScheduleBoardDeps holds dependencies for GetScheduleBoard.
type GetScheduleBoardDeps struct {
	Reader ScheduleReader
}

// QueryGetScheduleBoard fetches one conference with every schedule, room, track
// and session source the API offers and builds its board.
// PRE: query.ConferenceID > 0
// POST: Returns the merged board or the first API error; nothing is cached
func QueryGetScheduleBoard(ctx context.Context, query GetScheduleBoardQuery, deps GetScheduleBoardDeps) (Board, error) {
	src, err := loadBoardSources(ctx, deps.Reader, query.Auth, query.ConferenceID)
	if err != nil {
		return Board{}, err
	}
	return BuildBoard(src), nil
}

// loadBoardSources performs the fetches sequentially; each authorized call refreshes its own token.
func loadBoardSources(ctx context.Context, r ScheduleReader, ts api.TokenSource, conferenceID int64) (BoardSources, error) {
	var src BoardSources
	var err error

	if src.Conference, err = r.GetConference(ctx, ts, conferenceID, true); err != nil {
		return BoardSources{}, fmt.Errorf("load conference %d: %w", conferenceID, err)
	}
	if src.FlatSchedules, err = r.ListSchedules(ctx, ts, conferenceID); err != nil {
		return BoardSources{}, fmt.Errorf("load schedules of conference %d: %w", conferenceID, err)
	}
	if src.FlatRooms, err = r.ListRooms(ctx, ts, 0); err != nil {
		return BoardSources{}, fmt.Errorf("load rooms: %w", err)
	}
	if src.Tracks, err = r.ListTracks(ctx, ts); err != nil {
		return BoardSources{}, fmt.Errorf("load tracks: %w", err)
	}
	if src.Sessions, err = r.ListTrackSessions(ctx, ts, 0); err != nil {
		return BoardSources{}, fmt.Errorf("load track sessions: %w", err)
	}

	scheduled := make(map[int64]bool)
	for _, e := range src.Conference.Schedules {
		scheduled[e.ID] = true
	}
	for _, e := range src.FlatSchedules {
		scheduled[e.ID] = true
	}
	rooms := src.FlatRooms[:0:0]
	for _, rm := range src.FlatRooms {
		if scheduled[rm.ScheduleID] {
			rooms = append(rooms, rm)
		}
	}
	src.FlatRooms = rooms
	return src, nil
}
