package projections

import (
	"context"

	"confsched/internal/adapters/api"
	"confsched/internal/domain/room"
	"confsched/internal/domain/schedule"
	"confsched/internal/domain/track"
)

// ScheduleReader is the read side of the remote schedule API.
// A nil TokenSource makes an anonymous call.
type ScheduleReader interface {
	ListConferences(ctx context.Context, ts api.TokenSource, withSchedules bool) ([]api.ConferenceBundle, error)
	GetConference(ctx context.Context, ts api.TokenSource, id int64, withSchedules bool) (api.ConferenceBundle, error)
	ListSchedules(ctx context.Context, ts api.TokenSource, conferenceID int64) ([]schedule.Entry, error)
	ListRooms(ctx context.Context, ts api.TokenSource, scheduleID int64) ([]room.Room, error)
	ListTracks(ctx context.Context, ts api.TokenSource) ([]track.Track, error)
	ListTrackSessions(ctx context.Context, ts api.TokenSource, trackID int64) ([]track.Session, error)
}

var _ ScheduleReader = (*api.Client)(nil)
