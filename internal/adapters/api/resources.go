package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"confsched/internal/domain/conference"
	"confsched/internal/domain/room"
	"confsched/internal/domain/schedule"
	"confsched/internal/domain/track"
)

// Resource paths on the remote API.
const (
	PathConferences   = "/conferences"
	PathSchedules     = "/schedules"
	PathRooms         = "/rooms"
	PathTracks        = "/tracks"
	PathTrackSessions = "/track-sessions"
)

// fetch performs one authorized (or anonymous when ts is nil) call and decodes data into out.
func (c *Client) fetch(ctx context.Context, ts TokenSource, req request, out any) error {
	token, err := bearer(ctx, ts)
	if err != nil {
		return err
	}
	req.token = token
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decodeData(resp, out)
}

func itemPath(base string, id int64) string {
	return base + "/" + strconv.FormatInt(id, 10)
}

// listOf fetches a collection and normalises every DTO.
func listOf[D any, T any](ctx context.Context, c *Client, ts TokenSource, path string, q url.Values, conv func(D) T) ([]T, error) {
	var dtos []D
	if err := c.fetch(ctx, ts, request{method: http.MethodGet, path: path, query: q}, &dtos); err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	out := make([]T, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, conv(d))
	}
	return out, nil
}

// oneOf performs a call whose payload is a single record.
func oneOf[D any, T any](ctx context.Context, c *Client, ts TokenSource, req request, conv func(D) T) (T, error) {
	var dto D
	if err := c.fetch(ctx, ts, req, &dto); err != nil {
		var zero T
		return zero, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	return conv(dto), nil
}

func (c *Client) remove(ctx context.Context, ts TokenSource, path string, id int64) error {
	p := itemPath(path, id)
	if err := c.fetch(ctx, ts, request{method: http.MethodDelete, path: p}, nil); err != nil {
		return fmt.Errorf("delete %s: %w", p, err)
	}
	return nil
}

func includeSchedules(include bool) url.Values {
	if !include {
		return nil
	}
	return url.Values{"include_schedules": {"true"}}
}

func scoped(key string, id int64) url.Values {
	if id == 0 {
		return nil
	}
	return url.Values{key: {strconv.FormatInt(id, 10)}}
}

// --- Conferences ---

// ListConferences returns every conference, optionally with nested schedules and rooms.
func (c *Client) ListConferences(ctx context.Context, ts TokenSource, withSchedules bool) ([]ConferenceBundle, error) {
	return listOf(ctx, c, ts, PathConferences, includeSchedules(withSchedules), conferenceDTO.toDomain)
}

// GetConference returns one conference, optionally with nested schedules and rooms.
func (c *Client) GetConference(ctx context.Context, ts TokenSource, id int64, withSchedules bool) (ConferenceBundle, error) {
	return oneOf(ctx, c, ts, request{method: http.MethodGet, path: itemPath(PathConferences, id), query: includeSchedules(withSchedules)}, conferenceDTO.toDomain)
}

// CreateConference creates a conference and returns the stored record.
func (c *Client) CreateConference(ctx context.Context, ts TokenSource, conf conference.Conference) (conference.Conference, error) {
	b, err := oneOf(ctx, c, ts, request{method: http.MethodPost, path: PathConferences, body: newConferencePayload(conf)}, conferenceDTO.toDomain)
	return b.Conference, err
}

// UpdateConference replaces a conference's fields.
// PRE: conf.ID != 0
func (c *Client) UpdateConference(ctx context.Context, ts TokenSource, conf conference.Conference) (conference.Conference, error) {
	b, err := oneOf(ctx, c, ts, request{method: http.MethodPut, path: itemPath(PathConferences, conf.ID), body: newConferencePayload(conf)}, conferenceDTO.toDomain)
	return b.Conference, err
}

// DeleteConference deletes a conference.
func (c *Client) DeleteConference(ctx context.Context, ts TokenSource, id int64) error {
	return c.remove(ctx, ts, PathConferences, id)
}

// --- Schedules ---

// ListSchedules returns the flat schedule list, scoped to a conference when conferenceID != 0.
func (c *Client) ListSchedules(ctx context.Context, ts TokenSource, conferenceID int64) ([]schedule.Entry, error) {
	return listOf(ctx, c, ts, PathSchedules, scoped("conference_id", conferenceID), scheduleDTO.toDomain)
}

// GetSchedule returns one schedule entry.
func (c *Client) GetSchedule(ctx context.Context, ts TokenSource, id int64) (schedule.Entry, error) {
	return oneOf(ctx, c, ts, request{method: http.MethodGet, path: itemPath(PathSchedules, id)}, scheduleDTO.toDomain)
}

// CreateSchedule creates a schedule entry.
func (c *Client) CreateSchedule(ctx context.Context, ts TokenSource, e schedule.Entry) (schedule.Entry, error) {
	return oneOf(ctx, c, ts, request{method: http.MethodPost, path: PathSchedules, body: newSchedulePayload(e)}, scheduleDTO.toDomain)
}

// UpdateSchedule replaces a schedule entry's fields.
func (c *Client) UpdateSchedule(ctx context.Context, ts TokenSource, e schedule.Entry) (schedule.Entry, error) {
	return oneOf(ctx, c, ts, request{method: http.MethodPut, path: itemPath(PathSchedules, e.ID), body: newSchedulePayload(e)}, scheduleDTO.toDomain)
}

// DeleteSchedule deletes a schedule entry.
func (c *Client) DeleteSchedule(ctx context.Context, ts TokenSource, id int64) error {
	return c.remove(ctx, ts, PathSchedules, id)
}

// --- Rooms ---

// ListRooms returns the flat room list, scoped to a schedule entry when scheduleID != 0.
func (c *Client) ListRooms(ctx context.Context, ts TokenSource, scheduleID int64) ([]room.Room, error) {
	return listOf(ctx, c, ts, PathRooms, scoped("schedule_id", scheduleID), roomDTO.toDomain)
}

// GetRoom returns one room.
func (c *Client) GetRoom(ctx context.Context, ts TokenSource, id int64) (room.Room, error) {
	return oneOf(ctx, c, ts, request{method: http.MethodGet, path: itemPath(PathRooms, id)}, roomDTO.toDomain)
}

// CreateRoom creates a room.
func (c *Client) CreateRoom(ctx context.Context, ts TokenSource, r room.Room) (room.Room, error) {
	return oneOf(ctx, c, ts, request{method: http.MethodPost, path: PathRooms, body: newRoomPayload(r)}, roomDTO.toDomain)
}

// UpdateRoom replaces a room's fields.
func (c *Client) UpdateRoom(ctx context.Context, ts TokenSource, r room.Room) (room.Room, error) {
	return oneOf(ctx, c, ts, request{method: http.MethodPut, path: itemPath(PathRooms, r.ID), body: newRoomPayload(r)}, roomDTO.toDomain)
}

// DeleteRoom deletes a room.
func (c *Client) DeleteRoom(ctx context.Context, ts TokenSource, id int64) error {
	return c.remove(ctx, ts, PathRooms, id)
}

// --- Tracks ---

// ListTracks returns every track.
func (c *Client) ListTracks(ctx context.Context, ts TokenSource) ([]track.Track, error) {
	return listOf(ctx, c, ts, PathTracks, nil, trackDTO.toDomain)
}

// GetTrack returns one track.
func (c *Client) GetTrack(ctx context.Context, ts TokenSource, id int64) (track.Track, error) {
	return oneOf(ctx, c, ts, request{method: http.MethodGet, path: itemPath(PathTracks, id)}, trackDTO.toDomain)
}

// CreateTrack creates a track.
func (c *Client) CreateTrack(ctx context.Context, ts TokenSource, t track.Track) (track.Track, error) {
	return oneOf(ctx, c, ts, request{method: http.MethodPost, path: PathTracks, body: newTrackPayload(t)}, trackDTO.toDomain)
}

// UpdateTrack replaces a track's fields.
func (c *Client) UpdateTrack(ctx context.Context, ts TokenSource, t track.Track) (track.Track, error) {
	return oneOf(ctx, c, ts, request{method: http.MethodPut, path: itemPath(PathTracks, t.ID), body: newTrackPayload(t)}, trackDTO.toDomain)
}

// DeleteTrack deletes a track.
func (c *Client) DeleteTrack(ctx context.Context, ts TokenSource, id int64) error {
	return c.remove(ctx, ts, PathTracks, id)
}

// --- Track sessions ---

// ListTrackSessions returns track sessions, scoped to a track when trackID != 0.
func (c *Client) ListTrackSessions(ctx context.Context, ts TokenSource, trackID int64) ([]track.Session, error) {
	return listOf(ctx, c, ts, PathTrackSessions, scoped("track_id", trackID), sessionDTO.toDomain)
}

// GetTrackSession returns one track session.
func (c *Client) GetTrackSession(ctx context.Context, ts TokenSource, id int64) (track.Session, error) {
	return oneOf(ctx, c, ts, request{method: http.MethodGet, path: itemPath(PathTrackSessions, id)}, sessionDTO.toDomain)
}

// CreateTrackSession creates a track session.
func (c *Client) CreateTrackSession(ctx context.Context, ts TokenSource, s track.Session) (track.Session, error) {
	return oneOf(ctx, c, ts, request{method: http.MethodPost, path: PathTrackSessions, body: newSessionPayload(s)}, sessionDTO.toDomain)
}

// UpdateTrackSession replaces a track session's fields.
func (c *Client) UpdateTrackSession(ctx context.Context, ts TokenSource, s track.Session) (track.Session, error) {
	return oneOf(ctx, c, ts, request{method: http.MethodPut, path: itemPath(PathTrackSessions, s.ID), body: newSessionPayload(s)}, sessionDTO.toDomain)
}

// DeleteTrackSession deletes a track session.
func (c *Client) DeleteTrackSession(ctx context.Context, ts TokenSource, id int64) error {
	return c.remove(ctx, ts, PathTrackSessions, id)
}
