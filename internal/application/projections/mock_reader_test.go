package projections

import (
	"context"
	"errors"

	"confsched/internal/adapters/api"
	"confsched/internal/domain/room"
	"confsched/internal/domain/schedule"
	"confsched/internal/domain/track"
)

type mockReader struct {
	conferences []api.ConferenceBundle
	schedules   []schedule.Entry
	rooms       []room.Room
	tracks      []track.Track
	sessions    []track.Session
	failOn      string
	calls       []string
	tokens      []api.TokenSource
}

var errMockAPI = errors.New("api down")

func (m *mockReader) record(call string, ts api.TokenSource) error {
	m.calls = append(m.calls, call)
	m.tokens = append(m.tokens, ts)
	if m.failOn == call {
		return errMockAPI
	}
	return nil
}

// ListConferences returns the seeded conferences.
func (m *mockReader) ListConferences(_ context.Context, ts api.TokenSource, _ bool) ([]api.ConferenceBundle, error) {
	if err := m.record("ListConferences", ts); err != nil {
		return nil, err
	}
	return m.conferences, nil
}

// GetConference returns the seeded conference by ID.
func (m *mockReader) GetConference(_ context.Context, ts api.TokenSource, id int64, _ bool) (api.ConferenceBundle, error) {
	if err := m.record("GetConference", ts); err != nil {
		return api.ConferenceBundle{}, err
	}
	for _, c := range m.conferences {
		if c.ID == id {
			return c, nil
		}
	}
	return api.ConferenceBundle{}, api.ErrNotFound
}

// ListSchedules returns the seeded flat schedules of a conference.
func (m *mockReader) ListSchedules(_ context.Context, ts api.TokenSource, conferenceID int64) ([]schedule.Entry, error) {
	if err := m.record("ListSchedules", ts); err != nil {
		return nil, err
	}
	var out []schedule.Entry
	for _, e := range m.schedules {
		if e.ConferenceID == conferenceID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListRooms returns every seeded flat room.
func (m *mockReader) ListRooms(_ context.Context, ts api.TokenSource, _ int64) ([]room.Room, error) {
	if err := m.record("ListRooms", ts); err != nil {
		return nil, err
	}
	return m.rooms, nil
}

// ListTracks returns the seeded tracks.
func (m *mockReader) ListTracks(_ context.Context, ts api.TokenSource) ([]track.Track, error) {
	if err := m.record("ListTracks", ts); err != nil {
		return nil, err
	}
	return m.tracks, nil
}

// ListTrackSessions returns every seeded session.
func (m *mockReader) ListTrackSessions(_ context.Context, ts api.TokenSource, _ int64) ([]track.Session, error) {
	if err := m.record("ListTrackSessions", ts); err != nil {
		return nil, err
	}
	return m.sessions, nil
}

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) { return string(s), nil }
