package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"confsched/internal/adapters/http/middleware"
	"confsched/internal/application/orchestrators"
	"confsched/internal/domain/conference"
	"confsched/internal/domain/room"
	"confsched/internal/domain/schedule"
	"confsched/internal/domain/track"
)

// mutationFromRequest identifies the staff member and request behind a change.
func mutationFromRequest(r *http.Request) orchestrators.Mutation {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return orchestrators.Mutation{
		Auth:       staffTokenSource(r),
		ActorEmail: sess.Email,
		ActorRole:  sess.Role,
		IPAddress:  middleware.ClientIP(r),
		UserAgent:  r.UserAgent(),
	}
}

func mutationDeps() orchestrators.MutationDeps {
	return orchestrators.MutationDeps{
		Writer:   deps.API,
		Audit:    deps.AuditStore,
		Notifier: deps.Notifier,
		Now:      timeNow,
	}
}

// decodeInput reads a JSON body, or a form through fromForm.
// Decoding failures are reported as invalid input.
func decodeInput[T any](r *http.Request, fromForm func(url.Values) (T, error)) (T, error) {
	var v T
	if isJSONRequest(r) {
		if err := strictDecode(r, &v); err != nil {
			return v, fmt.Errorf("%w: %w", orchestrators.ErrInvalidInput, err)
		}
		return v, nil
	}
	if err := r.ParseForm(); err != nil {
		return v, fmt.Errorf("%w: %w", orchestrators.ErrInvalidInput, err)
	}
	v, err := fromForm(r.PostForm)
	if err != nil {
		return v, fmt.Errorf("%w: %w", orchestrators.ErrInvalidInput, err)
	}
	return v, nil
}

// formID parses an optional numeric form field; empty means zero.
func formID(form url.Values, key string) (int64, error) {
	raw := strings.TrimSpace(form.Get(key))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%s must be a positive number", key)
	}
	return id, nil
}

func field(form url.Values, key string) string {
	return strings.TrimSpace(form.Get(key))
}

func conferenceFromForm(form url.Values) (conference.Conference, error) {
	return conference.Conference{
		Name:         field(form, "name"),
		Year:         field(form, "year"),
		Series:       conference.Series(strings.ToUpper(field(form, "type"))),
		StartDate:    field(form, "start_date"),
		EndDate:      field(form, "end_date"),
		Description:  form.Get("description"),
		Location:     field(form, "location"),
		ContactEmail: field(form, "contact_email"),
		Website:      field(form, "website"),
	}, nil
}

func scheduleFromForm(form url.Values) (schedule.Entry, error) {
	confID, err := formID(form, "conference_id")
	if err != nil {
		return schedule.Entry{}, err
	}
	return schedule.Entry{
		ConferenceID: confID,
		Date:         field(form, "date"),
		StartTime:    field(form, "start_time"),
		EndTime:      field(form, "end_time"),
		Type:         schedule.Type(strings.ToUpper(field(form, "type"))),
		Notes:        form.Get("notes"),
	}, nil
}

func roomFromForm(form url.Values) (room.Room, error) {
	scheduleID, err := formID(form, "schedule_id")
	if err != nil {
		return room.Room{}, err
	}
	trackID, err := formID(form, "track_id")
	if err != nil {
		return room.Room{}, err
	}
	rm := room.Room{
		ScheduleID:       scheduleID,
		Name:             field(form, "name"),
		Identifier:       field(form, "identifier"),
		Type:             room.Type(strings.ToUpper(field(form, "type"))),
		OnlineMeetingURL: field(form, "online_meeting_url"),
	}
	if trackID > 0 {
		rm.TrackID = &trackID
	}
	return rm, nil
}

func trackFromForm(form url.Values) (track.Track, error) {
	return track.Track{
		Name:        field(form, "name"),
		Description: form.Get("description"),
	}, nil
}

func trackSessionFromForm(form url.Values) (track.Session, error) {
	trackID, err := formID(form, "track_id")
	if err != nil {
		return track.Session{}, err
	}
	return track.Session{
		TrackID:   trackID,
		PaperID:   field(form, "paper_id"),
		Title:     field(form, "title"),
		Authors:   field(form, "authors"),
		Mode:      track.Mode(strings.ToUpper(field(form, "mode"))),
		StartTime: field(form, "start_time"),
		EndTime:   field(form, "end_time"),
		Notes:     form.Get("notes"),
	}, nil
}

// save decodes the resource named in the path, forces its id, and runs the matching orchestrator.
func save(r *http.Request, resource orchestrators.Resource, id int64) (any, error) {
	ctx, m, d := r.Context(), mutationFromRequest(r), mutationDeps()
	switch resource {
	case orchestrators.ResourceConferences:
		c, err := decodeInput(r, conferenceFromForm)
		if err != nil {
			return nil, err
		}
		c.ID = id
		return orchestrators.ExecuteSaveConference(ctx, orchestrators.SaveConferenceInput{Mutation: m, Conference: c}, d)
	case orchestrators.ResourceSchedules:
		e, err := decodeInput(r, scheduleFromForm)
		if err != nil {
			return nil, err
		}
		e.ID = id
		return orchestrators.ExecuteSaveSchedule(ctx, orchestrators.SaveScheduleInput{Mutation: m, Entry: e}, d)
	case orchestrators.ResourceRooms:
		rm, err := decodeInput(r, roomFromForm)
		if err != nil {
			return nil, err
		}
		rm.ID = id
		return orchestrators.ExecuteSaveRoom(ctx, orchestrators.SaveRoomInput{Mutation: m, Room: rm}, d)
	case orchestrators.ResourceTracks:
		t, err := decodeInput(r, trackFromForm)
		if err != nil {
			return nil, err
		}
		t.ID = id
		return orchestrators.ExecuteSaveTrack(ctx, orchestrators.SaveTrackInput{Mutation: m, Track: t}, d)
	case orchestrators.ResourceTrackSessions:
		s, err := decodeInput(r, trackSessionFromForm)
		if err != nil {
			return nil, err
		}
		s.ID = id
		return orchestrators.ExecuteSaveTrackSession(ctx, orchestrators.SaveTrackSessionInput{Mutation: m, Session: s}, d)
	}
	return nil, errUnknownResource
}

var errUnknownResource = fmt.Errorf("%w: unknown resource", orchestrators.ErrInvalidInput)

func knownResource(r *http.Request) (orchestrators.Resource, bool) {
	res := orchestrators.Resource(r.PathValue("resource"))
	_, ok := res.Category()
	return res, ok
}

// finishMutation answers a successful change: API callers get the record, forms are redirected.
func finishMutation(w http.ResponseWriter, r *http.Request, status int, saved any) {
	if !isFormPost(r) {
		if saved == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, status, saved)
		return
	}
	http.Redirect(w, r, safeReturn(r.PostFormValue("return_to"), "/admin/conferences"), http.StatusSeeOther)
}

// handleCreate creates a record (POST /api/admin/{resource})
// PRE: staff session; body is JSON or a CSRF-protected form
// POST: 201 with the saved record, or a redirect for forms
func handleCreate(w http.ResponseWriter, r *http.Request) {
	res, ok := knownResource(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	saved, err := save(r, res, 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	finishMutation(w, r, http.StatusCreated, saved)
}

// handleUpdate replaces a record (PUT /api/admin/{resource}/{id})
// PRE: staff session; id > 0
// POST: 200 with the saved record, or a redirect for forms
func handleUpdate(w http.ResponseWriter, r *http.Request) {
	res, ok := knownResource(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	saved, err := save(r, res, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	finishMutation(w, r, http.StatusOK, saved)
}

// handleDelete removes a record (DELETE /api/admin/{resource}/{id})
// PRE: staff session; id > 0
// POST: 204, or a redirect for forms
func handleDelete(w http.ResponseWriter, r *http.Request) {
	res, ok := knownResource(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	err := orchestrators.ExecuteDelete(r.Context(), orchestrators.DeleteInput{
		Mutation: mutationFromRequest(r),
		Resource: res,
		ID:       id,
	}, mutationDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	finishMutation(w, r, http.StatusNoContent, nil)
}
