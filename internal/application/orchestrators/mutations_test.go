package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	"confsched/internal/domain/audit"
	"confsched/internal/domain/conference"
	"confsched/internal/domain/room"
	"confsched/internal/domain/schedule"
	"confsched/internal/domain/track"
)

type mutationHarness struct {
	writer   *mockWriter
	audit    *mockAuditStore
	notifier *mockNotifier
}

func newHarness() *mutationHarness {
	return &mutationHarness{writer: &mockWriter{}, audit: &mockAuditStore{}, notifier: &mockNotifier{}}
}

func (h *mutationHarness) deps() MutationDeps {
	return MutationDeps{Writer: h.writer, Audit: h.audit, Notifier: h.notifier, Now: fixedNow}
}

func actor() Mutation {
	return Mutation{Auth: staticTokens("tok"), ActorEmail: "ana@example.org", ActorRole: "admin", IPAddress: "10.0.0.1"}
}

func validConference() conference.Conference {
	return conference.Conference{Name: "ICODSA 2025", Year: "2025", Series: conference.SeriesICODSA, StartDate: "2025-08-01", EndDate: "2025-08-02"}
}

// TestExecuteSaveConference_CreateThenUpdate picks the call from the ID.
func TestExecuteSaveConference_CreateThenUpdate(t *testing.T) {
	h := newHarness()
	created, err := ExecuteSaveConference(context.Background(), SaveConferenceInput{Mutation: actor(), Conference: validConference()}, h.deps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != 101 {
		t.Errorf("ID = %d, want 101", created.ID)
	}

	created.Name = "ICODSA 2025 (rev)"
	if _, err := ExecuteSaveConference(context.Background(), SaveConferenceInput{Mutation: actor(), Conference: created}, h.deps()); err != nil {
		t.Fatal(err)
	}

	if strings.Join(h.writer.calls, ",") != "CreateConference,UpdateConference" {
		t.Errorf("calls = %v", h.writer.calls)
	}
	if len(h.audit.events) != 2 {
		t.Fatalf("audit = %d events", len(h.audit.events))
	}
	first, second := h.audit.events[0], h.audit.events[1]
	if first.Action != audit.ActionCreate || second.Action != audit.ActionUpdate {
		t.Errorf("actions = %s, %s", first.Action, second.Action)
	}
	if first.ResourceID != "101" || first.Category != audit.CategoryConference || first.ActorEmail != "ana@example.org" || first.IPAddress != "10.0.0.1" {
		t.Errorf("event = %+v", first)
	}
	if !strings.Contains(first.Metadata, `"name":"ICODSA 2025"`) {
		t.Errorf("metadata = %s", first.Metadata)
	}
	if len(h.notifier.events) != 2 {
		t.Errorf("notices = %d, want 2", len(h.notifier.events))
	}
	for _, ts := range h.writer.auth {
		if ts != staticTokens("tok") {
			t.Error("writer must receive the caller's token source")
		}
	}
}

// TestExecuteSave_Validation rejects invalid input before any API call.
func TestExecuteSave_Validation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	bad := validConference()
	bad.EndDate = "2025-07-01"
	_, err := ExecuteSaveConference(ctx, SaveConferenceInput{Mutation: actor(), Conference: bad}, h.deps())
	if !errors.Is(err, ErrInvalidInput) || !errors.Is(err, conference.ErrEndBeforeStart) {
		t.Errorf("conference err = %v", err)
	}

	_, err = ExecuteSaveSchedule(ctx, SaveScheduleInput{Mutation: actor(), Entry: schedule.Entry{ConferenceID: 1, Date: "nope", Type: schedule.TypeTalk}}, h.deps())
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("schedule err = %v", err)
	}

	_, err = ExecuteSaveRoom(ctx, SaveRoomInput{Mutation: actor(), Room: room.Room{ScheduleID: 1, Name: "Room A", Type: "SIDE"}}, h.deps())
	if !errors.Is(err, room.ErrInvalidType) {
		t.Errorf("room err = %v", err)
	}

	_, err = ExecuteSaveTrack(ctx, SaveTrackInput{Mutation: actor(), Track: track.Track{}}, h.deps())
	if !errors.Is(err, track.ErrEmptyName) {
		t.Errorf("track err = %v", err)
	}

	_, err = ExecuteSaveTrackSession(ctx, SaveTrackSessionInput{Mutation: actor(), Session: track.Session{TrackID: 1, Title: "T", Mode: "HYBRID"}}, h.deps())
	if !errors.Is(err, track.ErrInvalidMode) {
		t.Errorf("session err = %v", err)
	}

	if len(h.writer.calls) != 0 || len(h.audit.events) != 0 || len(h.notifier.events) != 0 {
		t.Errorf("side effects on invalid input: calls=%v audit=%d", h.writer.calls, len(h.audit.events))
	}
}

// TestExecuteSave_EachResource covers the create path of every resource.
func TestExecuteSave_EachResource(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	e, err := ExecuteSaveSchedule(ctx, SaveScheduleInput{Mutation: actor(), Entry: schedule.Entry{ConferenceID: 1, Date: "2025-06-10", StartTime: "09:00", Type: schedule.TypeTalk}}, h.deps())
	if err != nil || e.ID == 0 {
		t.Fatalf("schedule = %+v, %v", e, err)
	}
	r, err := ExecuteSaveRoom(ctx, SaveRoomInput{Mutation: actor(), Room: room.Room{ScheduleID: e.ID, Name: "Hall", Type: room.TypeParallel}}, h.deps())
	if err != nil || r.ID == 0 {
		t.Fatalf("room = %+v, %v", r, err)
	}
	tr, err := ExecuteSaveTrack(ctx, SaveTrackInput{Mutation: actor(), Track: track.Track{Name: "Track 1A"}}, h.deps())
	if err != nil || tr.ID == 0 {
		t.Fatalf("track = %+v, %v", tr, err)
	}
	s, err := ExecuteSaveTrackSession(ctx, SaveTrackSessionInput{Mutation: actor(), Session: track.Session{TrackID: tr.ID, Title: "Graph Nets", Mode: track.ModeOnsite}}, h.deps())
	if err != nil || s.ID == 0 {
		t.Fatalf("session = %+v, %v", s, err)
	}

	want := []audit.Category{audit.CategorySchedule, audit.CategoryRoom, audit.CategoryTrack, audit.CategoryTrackSession}
	for i, c := range want {
		if h.audit.events[i].Category != c {
			t.Errorf("event %d category = %s, want %s", i, h.audit.events[i].Category, c)
		}
	}
}

// TestExecuteSave_APIError records nothing when the API rejects the change.
func TestExecuteSave_APIError(t *testing.T) {
	h := newHarness()
	h.writer.err = errAPIDown
	_, err := ExecuteSaveTrack(context.Background(), SaveTrackInput{Mutation: actor(), Track: track.Track{Name: "T"}}, h.deps())
	if !errors.Is(err, errAPIDown) {
		t.Errorf("err = %v", err)
	}
	if len(h.audit.events) != 0 || len(h.notifier.events) != 0 {
		t.Error("failed mutation must not be audited or announced")
	}
}

// TestExecuteSave_NotifyFailureIgnored keeps the mutation successful.
func TestExecuteSave_NotifyFailureIgnored(t *testing.T) {
	h := newHarness()
	h.notifier.err = errAPIDown
	h.audit.saveErr = errAPIDown
	if _, err := ExecuteSaveTrack(context.Background(), SaveTrackInput{Mutation: actor(), Track: track.Track{Name: "T"}}, h.deps()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(h.notifier.events) != 1 {
		t.Error("notifier should still be called when the audit save fails")
	}
}

// TestExecuteDelete dispatches by resource.
func TestExecuteDelete(t *testing.T) {
	tests := []struct {
		resource Resource
		wantCall string
		wantCat  audit.Category
	}{
		{ResourceConferences, "DeleteConference", audit.CategoryConference},
		{ResourceSchedules, "DeleteSchedule", audit.CategorySchedule},
		{ResourceRooms, "DeleteRoom", audit.CategoryRoom},
		{ResourceTracks, "DeleteTrack", audit.CategoryTrack},
		{ResourceTrackSessions, "DeleteTrackSession", audit.CategoryTrackSession},
	}
	for _, tt := range tests {
		t.Run(string(tt.resource), func(t *testing.T) {
			h := newHarness()
			err := ExecuteDelete(context.Background(), DeleteInput{Mutation: actor(), Resource: tt.resource, ID: 7}, h.deps())
			if err != nil {
				t.Fatal(err)
			}
			if len(h.writer.calls) != 1 || h.writer.calls[0] != tt.wantCall {
				t.Errorf("calls = %v", h.writer.calls)
			}
			ev := h.audit.events[0]
			if ev.Action != audit.ActionDelete || ev.Category != tt.wantCat || ev.ResourceID != "7" {
				t.Errorf("event = %+v", ev)
			}
		})
	}
}

// TestExecuteDelete_Invalid rejects bad ids and resources.
func TestExecuteDelete_Invalid(t *testing.T) {
	h := newHarness()
	for _, in := range []DeleteInput{
		{Mutation: actor(), Resource: ResourceRooms},
		{Mutation: actor(), Resource: "speakers", ID: 1},
	} {
		if err := ExecuteDelete(context.Background(), in, h.deps()); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%+v: err = %v", in, err)
		}
	}
	if len(h.writer.calls) != 0 {
		t.Errorf("calls = %v", h.writer.calls)
	}
}

// TestAuditMetadata encodes saved records and degrades to empty on encoding failure.
func TestAuditMetadata(t *testing.T) {
	got := auditMetadata(audit.CategoryTrack, track.Track{ID: 3, Name: "Track 1A"})
	if !strings.Contains(got, `"name":"Track 1A"`) {
		t.Errorf("metadata = %s", got)
	}
	if got := auditMetadata(audit.CategoryTrack, map[string]any{"bad": make(chan int)}); got != "" {
		t.Errorf("unencodable metadata = %q, want empty", got)
	}
}
