package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"confsched/internal/adapters/api"
	"confsched/internal/domain/audit"
	"confsched/internal/domain/conference"
	"confsched/internal/domain/room"
	"confsched/internal/domain/schedule"
	"confsched/internal/domain/track"
)

// ErrInvalidInput wraps every validation failure so handlers can answer 400.
var ErrInvalidInput = errors.New("invalid input")

// Resource names a mutable API collection, as it appears in admin URLs.
type Resource string

const (
	ResourceConferences   Resource = "conferences"
	ResourceSchedules     Resource = "schedules"
	ResourceRooms         Resource = "rooms"
	ResourceTracks        Resource = "tracks"
	ResourceTrackSessions Resource = "track-sessions"
)

// Category returns the audit category for r.
func (r Resource) Category() (audit.Category, bool) {
	switch r {
	case ResourceConferences:
		return audit.CategoryConference, true
	case ResourceSchedules:
		return audit.CategorySchedule, true
	case ResourceRooms:
		return audit.CategoryRoom, true
	case ResourceTracks:
		return audit.CategoryTrack, true
	case ResourceTrackSessions:
		return audit.CategoryTrackSession, true
	}
	return "", false
}

// ScheduleWriter is the write side of the schedule API.
type ScheduleWriter interface {
	CreateConference(ctx context.Context, ts api.TokenSource, c conference.Conference) (conference.Conference, error)
	UpdateConference(ctx context.Context, ts api.TokenSource, c conference.Conference) (conference.Conference, error)
	DeleteConference(ctx context.Context, ts api.TokenSource, id int64) error
	CreateSchedule(ctx context.Context, ts api.TokenSource, e schedule.Entry) (schedule.Entry, error)
	UpdateSchedule(ctx context.Context, ts api.TokenSource, e schedule.Entry) (schedule.Entry, error)
	DeleteSchedule(ctx context.Context, ts api.TokenSource, id int64) error
	CreateRoom(ctx context.Context, ts api.TokenSource, r room.Room) (room.Room, error)
	UpdateRoom(ctx context.Context, ts api.TokenSource, r room.Room) (room.Room, error)
	DeleteRoom(ctx context.Context, ts api.TokenSource, id int64) error
	CreateTrack(ctx context.Context, ts api.TokenSource, t track.Track) (track.Track, error)
	UpdateTrack(ctx context.Context, ts api.TokenSource, t track.Track) (track.Track, error)
	DeleteTrack(ctx context.Context, ts api.TokenSource, id int64) error
	CreateTrackSession(ctx context.Context, ts api.TokenSource, s track.Session) (track.Session, error)
	UpdateTrackSession(ctx context.Context, ts api.TokenSource, s track.Session) (track.Session, error)
	DeleteTrackSession(ctx context.Context, ts api.TokenSource, id int64) error
}

var _ ScheduleWriter = (*api.Client)(nil)

// ChangeNotifier announces a recorded change to staff.
type ChangeNotifier interface {
	NotifyChange(ctx context.Context, event audit.Event) error
}

// Mutation identifies who is changing something and how to authorize the API call.
type Mutation struct {
	Auth       api.TokenSource
	ActorEmail string
	ActorRole  string
	IPAddress  string
	UserAgent  string
}

// MutationDeps holds dependencies shared by every mutation.
type MutationDeps struct {
	Writer   ScheduleWriter
	Audit    AuditRecorder
	Notifier ChangeNotifier
	Now      func() time.Time
}

// SaveConferenceInput carries input for SaveConference.
type SaveConferenceInput struct {
	Mutation
	Conference conference.Conference
}

// ExecuteSaveConference creates the conference when ID is zero, otherwise updates it.
// PRE: input.Auth is non-nil
// POST: API holds the conference; audit event recorded; staff notified
func ExecuteSaveConference(ctx context.Context, input SaveConferenceInput, deps MutationDeps) (conference.Conference, error) {
	c := input.Conference
	return saveResource(ctx, input.Mutation, deps, audit.CategoryConference, c, c.Validate,
		deps.Writer.CreateConference, deps.Writer.UpdateConference,
		func(saved conference.Conference) string { return fmt.Sprintf("conference %q", saved.Name) })
}

// SaveScheduleInput carries input for SaveSchedule.
type SaveScheduleInput struct {
	Mutation
	Entry schedule.Entry
}

// ExecuteSaveSchedule creates the schedule entry when ID is zero, otherwise updates it.
// PRE: input.Auth is non-nil
// POST: API holds the entry; audit event recorded; staff notified
func ExecuteSaveSchedule(ctx context.Context, input SaveScheduleInput, deps MutationDeps) (schedule.Entry, error) {
	e := input.Entry
	return saveResource(ctx, input.Mutation, deps, audit.CategorySchedule, e, e.Validate,
		deps.Writer.CreateSchedule, deps.Writer.UpdateSchedule,
		func(saved schedule.Entry) string {
			return fmt.Sprintf("%s on %s at %s", saved.Type, saved.Date, saved.SortKey())
		})
}

// SaveRoomInput carries input for SaveRoom.
type SaveRoomInput struct {
	Mutation
	Room room.Room
}

// ExecuteSaveRoom creates the room when ID is zero, otherwise updates it.
// A parallel room whose name and identifier yield no column label is saved but logged.
// PRE: input.Auth is non-nil
// POST: API holds the room; audit event recorded; staff notified
func ExecuteSaveRoom(ctx context.Context, input SaveRoomInput, deps MutationDeps) (room.Room, error) {
	r := input.Room
	saved, err := saveResource(ctx, input.Mutation, deps, audit.CategoryRoom, r, r.Validate,
		deps.Writer.CreateRoom, deps.Writer.UpdateRoom,
		func(saved room.Room) string { return fmt.Sprintf("%s room %q", saved.Type, saved.Name) })
	if err == nil && !saved.IsMain() {
		if _, ok := saved.Label(); !ok {
			slog.Warn("room_event", "event", "room_without_column", "room_id", saved.ID, "name", saved.Name, "identifier", saved.Identifier)
		}
	}
	return saved, err
}

// SaveTrackInput carries input for SaveTrack.
type SaveTrackInput struct {
	Mutation
	Track track.Track
}

// ExecuteSaveTrack creates the track when ID is zero, otherwise updates it.
// PRE: input.Auth is non-nil
// POST: API holds the track; audit event recorded; staff notified
func ExecuteSaveTrack(ctx context.Context, input SaveTrackInput, deps MutationDeps) (track.Track, error) {
	t := input.Track
	return saveResource(ctx, input.Mutation, deps, audit.CategoryTrack, t, t.Validate,
		deps.Writer.CreateTrack, deps.Writer.UpdateTrack,
		func(saved track.Track) string { return fmt.Sprintf("track %q", saved.Name) })
}

// SaveTrackSessionInput carries input for SaveTrackSession.
type SaveTrackSessionInput struct {
	Mutation
	Session track.Session
}

// ExecuteSaveTrackSession creates the track session when ID is zero, otherwise updates it.
// PRE: input.Auth is non-nil
// POST: API holds the session; audit event recorded; staff notified
func ExecuteSaveTrackSession(ctx context.Context, input SaveTrackSessionInput, deps MutationDeps) (track.Session, error) {
	s := input.Session
	return saveResource(ctx, input.Mutation, deps, audit.CategoryTrackSession, s, s.Validate,
		deps.Writer.CreateTrackSession, deps.Writer.UpdateTrackSession,
		func(saved track.Session) string { return fmt.Sprintf("session %q", saved.Title) })
}

// DeleteInput carries input for Delete.
type DeleteInput struct {
	Mutation
	Resource Resource
	ID       int64
}

// ExecuteDelete removes one record of any resource.
// PRE: input.ID > 0
// POST: API no longer holds the record; audit event recorded; staff notified
func ExecuteDelete(ctx context.Context, input DeleteInput, deps MutationDeps) error {
	if input.ID <= 0 {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	category, ok := input.Resource.Category()
	if !ok {
		return fmt.Errorf("%w: unknown resource %q", ErrInvalidInput, input.Resource)
	}

	var del func(context.Context, api.TokenSource, int64) error
	switch input.Resource {
	case ResourceConferences:
		del = deps.Writer.DeleteConference
	case ResourceSchedules:
		del = deps.Writer.DeleteSchedule
	case ResourceRooms:
		del = deps.Writer.DeleteRoom
	case ResourceTracks:
		del = deps.Writer.DeleteTrack
	case ResourceTrackSessions:
		del = deps.Writer.DeleteTrackSession
	}
	if err := del(ctx, input.Auth, input.ID); err != nil {
		return err
	}

	slog.Info(string(category)+"_event", "event", string(category)+"_deleted", "id", input.ID, "actor", input.ActorEmail)
	announce(ctx, input.Mutation, deps, category, audit.ActionDelete, input.ID,
		fmt.Sprintf("deleted %s #%d", category, input.ID), "")
	return nil
}

// saveResource validates, sends the create or update call, then audits and notifies.
func saveResource[T interface{ EntityID() int64 }](
	ctx context.Context,
	m Mutation,
	deps MutationDeps,
	category audit.Category,
	item T,
	validate func() error,
	create, update func(context.Context, api.TokenSource, T) (T, error),
	describe func(T) string,
) (T, error) {
	var zero T
	if err := validate(); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	action := audit.ActionUpdate
	call := update
	if item.EntityID() == 0 {
		action = audit.ActionCreate
		call = create
	}
	saved, err := call(ctx, m.Auth, item)
	if err != nil {
		return zero, err
	}

	slog.Info(string(category)+"_event", "event", string(category)+"_"+string(action)+"d", "id", saved.EntityID(), "actor", m.ActorEmail)
	announce(ctx, m, deps, category, action, saved.EntityID(), describe(saved), auditMetadata(category, saved))
	return saved, nil
}

// auditMetadata encodes v for the audit trail. An encoding failure is logged
// and the event is recorded without metadata.
func auditMetadata(category audit.Category, v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("audit_event", "event", "metadata_failed", "category", category, "error", err)
		return ""
	}
	return string(b)
}

// announce records the audit event and sends the change notice.
// Neither failure undoes a mutation the API already accepted.
func announce(ctx context.Context, m Mutation, deps MutationDeps, category audit.Category, action audit.Action, id int64, desc, metadata string) {
	event := audit.NewEvent(m.ActorEmail, m.ActorRole, category, action, deps.Now()).
		WithResource(string(category), strconv.FormatInt(id, 10)).
		WithDescription(desc).
		WithRequest(m.IPAddress, m.UserAgent).
		WithMetadata(metadata)
	recordAudit(ctx, deps.Audit, event)

	if deps.Notifier == nil {
		return
	}
	if err := deps.Notifier.NotifyChange(ctx, event); err != nil {
		slog.Warn("notify_event", "event", "notify_failed", "category", category, "id", id, "error", err)
	}
}
