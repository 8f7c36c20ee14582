package orchestrators

import (
	"context"
	"errors"
	"time"

	"confsched/internal/adapters/api"
	"confsched/internal/domain/audit"
	"confsched/internal/domain/conference"
	"confsched/internal/domain/room"
	"confsched/internal/domain/schedule"
	"confsched/internal/domain/session"
	"confsched/internal/domain/track"
)

var fixedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedToken() (string, error) { return "session-token-001", nil }

// mockAuthAPI implements AuthAPI for testing.
type mockAuthAPI struct {
	result    api.LoginResult
	loginErr  error
	logoutErr error
	revoked   []string
}

// Login returns the seeded result or error.
func (m *mockAuthAPI) Login(_ context.Context, _, _ string) (api.LoginResult, error) {
	return m.result, m.loginErr
}

// Logout records the revoked credential.
func (m *mockAuthAPI) Logout(_ context.Context, refresh string) error {
	m.revoked = append(m.revoked, refresh)
	return m.logoutErr
}

// mockSessionStore implements the session store interfaces for testing.
type mockSessionStore struct {
	sessions map[string]session.Session
	expired  int64
	err      error
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]session.Session)}
}

// Save stores the session.
func (m *mockSessionStore) Save(_ context.Context, s session.Session) error {
	if m.err != nil {
		return m.err
	}
	m.sessions[s.Token] = s
	return nil
}

// Delete removes the session.
func (m *mockSessionStore) Delete(_ context.Context, token string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.sessions, token)
	return nil
}

// DeleteExpired returns the seeded count.
func (m *mockSessionStore) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return m.expired, m.err
}

// mockAuditStore implements AuditRecorder and AuditStoreForRetention for testing.
type mockAuditStore struct {
	events  []audit.Event
	pruned  int64
	cutoff  time.Time
	saveErr error
}

// Save records the event.
func (m *mockAuditStore) Save(_ context.Context, e audit.Event) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.events = append(m.events, e)
	return nil
}

// PruneBefore records the cutoff and returns the seeded count.
func (m *mockAuditStore) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.cutoff = cutoff
	return m.pruned, nil
}

// mockNotifier records notices.
type mockNotifier struct {
	events []audit.Event
	err    error
}

// NotifyChange records the event.
func (m *mockNotifier) NotifyChange(_ context.Context, e audit.Event) error {
	m.events = append(m.events, e)
	return m.err
}

// mockWriter implements ScheduleWriter, assigning ids on create.
type mockWriter struct {
	calls  []string
	nextID int64
	err    error
	auth   []api.TokenSource
}

func (m *mockWriter) call(name string, ts api.TokenSource) error {
	m.calls = append(m.calls, name)
	m.auth = append(m.auth, ts)
	return m.err
}

func (m *mockWriter) id(cur int64) int64 {
	if cur != 0 {
		return cur
	}
	m.nextID++
	return 100 + m.nextID
}

func (m *mockWriter) CreateConference(_ context.Context, ts api.TokenSource, c conference.Conference) (conference.Conference, error) {
	c.ID = m.id(c.ID)
	return c, m.call("CreateConference", ts)
}

func (m *mockWriter) UpdateConference(_ context.Context, ts api.TokenSource, c conference.Conference) (conference.Conference, error) {
	return c, m.call("UpdateConference", ts)
}

func (m *mockWriter) DeleteConference(_ context.Context, ts api.TokenSource, _ int64) error {
	return m.call("DeleteConference", ts)
}

func (m *mockWriter) CreateSchedule(_ context.Context, ts api.TokenSource, e schedule.Entry) (schedule.Entry, error) {
	e.ID = m.id(e.ID)
	return e, m.call("CreateSchedule", ts)
}

func (m *mockWriter) UpdateSchedule(_ context.Context, ts api.TokenSource, e schedule.Entry) (schedule.Entry, error) {
	return e, m.call("UpdateSchedule", ts)
}

func (m *mockWriter) DeleteSchedule(_ context.Context, ts api.TokenSource, _ int64) error {
	return m.call("DeleteSchedule", ts)
}

func (m *mockWriter) CreateRoom(_ context.Context, ts api.TokenSource, r room.Room) (room.Room, error) {
	r.ID = m.id(r.ID)
	return r, m.call("CreateRoom", ts)
}

func (m *mockWriter) UpdateRoom(_ context.Context, ts api.TokenSource, r room.Room) (room.Room, error) {
	return r, m.call("UpdateRoom", ts)
}

func (m *mockWriter) DeleteRoom(_ context.Context, ts api.TokenSource, _ int64) error {
	return m.call("DeleteRoom", ts)
}

func (m *mockWriter) CreateTrack(_ context.Context, ts api.TokenSource, t track.Track) (track.Track, error) {
	t.ID = m.id(t.ID)
	return t, m.call("CreateTrack", ts)
}

func (m *mockWriter) UpdateTrack(_ context.Context, ts api.TokenSource, t track.Track) (track.Track, error) {
	return t, m.call("UpdateTrack", ts)
}

func (m *mockWriter) DeleteTrack(_ context.Context, ts api.TokenSource, _ int64) error {
	return m.call("DeleteTrack", ts)
}

func (m *mockWriter) CreateTrackSession(_ context.Context, ts api.TokenSource, s track.Session) (track.Session, error) {
	s.ID = m.id(s.ID)
	return s, m.call("CreateTrackSession", ts)
}

func (m *mockWriter) UpdateTrackSession(_ context.Context, ts api.TokenSource, s track.Session) (track.Session, error) {
	return s, m.call("UpdateTrackSession", ts)
}

func (m *mockWriter) DeleteTrackSession(_ context.Context, ts api.TokenSource, _ int64) error {
	return m.call("DeleteTrackSession", ts)
}

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) { return string(s), nil }

var errAPIDown = errors.New("api down")
