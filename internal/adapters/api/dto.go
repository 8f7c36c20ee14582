package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"confsched/internal/domain/conference"
	"confsched/internal/domain/room"
	"confsched/internal/domain/schedule"
	"confsched/internal/domain/track"
)

// flexInt accepts 12, "12", "" and null.
type flexInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("flexInt: %w", err)
		}
		*f = flexInt(n)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	v, err := n.Int64()
	if err != nil {
		fv, ferr := n.Float64()
		if ferr != nil {
			return fmt.Errorf("flexInt: %w", err)
		}
		v = int64(fv)
	}
	*f = flexInt(v)
	return nil
}

// flexString accepts "2025", 2025 and null. The API is inconsistent about years and paper ids.
type flexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*f = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		*f = flexString(string(b))
	}
	return nil
}

type conferenceDTO struct {
	ID           flexInt       `json:"id"`
	Name         string        `json:"name"`
	Year         flexString    `json:"year"`
	Type         string        `json:"type"`
	StartDate    string        `json:"start_date"`
	EndDate      string        `json:"end_date"`
	Description  string        `json:"description"`
	Location     string        `json:"location"`
	ContactEmail string        `json:"contact_email"`
	Website      string        `json:"website"`
	Schedules    []scheduleDTO `json:"schedules"`
}

type scheduleDTO struct {
	ID           flexInt   `json:"id"`
	ConferenceID flexInt   `json:"conference_id"`
	Date         string    `json:"date"`
	StartTime    *string   `json:"start_time"`
	EndTime      *string   `json:"end_time"`
	Type         string    `json:"type"`
	Notes        string    `json:"notes"`
	Rooms        []roomDTO `json:"rooms"`
}

type roomDTO struct {
	ID               flexInt  `json:"id"`
	ScheduleID       flexInt  `json:"schedule_id"`
	Name             string   `json:"name"`
	Identifier       string   `json:"identifier"`
	Type             string   `json:"type"`
	OnlineMeetingURL string   `json:"online_meeting_url"`
	TrackID          *flexInt `json:"track_id"`
}

type trackDTO struct {
	ID          flexInt `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
}

type sessionDTO struct {
	ID        flexInt    `json:"id"`
	TrackID   flexInt    `json:"track_id"`
	PaperID   flexString `json:"paper_id"`
	Title     string     `json:"title"`
	Authors   string     `json:"authors"`
	Mode      string     `json:"mode"`
	StartTime *string    `json:"start_time"`
	EndTime   *string    `json:"end_time"`
	Notes     string     `json:"notes"`
}

// ConferenceBundle is a conference together with the schedules the API nested in it.
type ConferenceBundle struct {
	conference.Conference
	Schedules []schedule.Entry `json:"schedules,omitempty"`
}

// toDomain normalises the nested shape. Nested schedules inherit the
// conference id and nested rooms inherit the schedule id when the API omits them.
func (d conferenceDTO) toDomain() ConferenceBundle {
	c := conference.Conference{
		ID:           int64(d.ID),
		Name:         strings.TrimSpace(d.Name),
		Year:         strings.TrimSpace(string(d.Year)),
		Series:       conference.Series(strings.ToUpper(strings.TrimSpace(d.Type))),
		StartDate:    d.StartDate,
		EndDate:      d.EndDate,
		Description:  d.Description,
		Location:     d.Location,
		ContactEmail: d.ContactEmail,
		Website:      d.Website,
	}
	if s, ok := conference.ParseSeries(d.Type); ok {
		c.Series = s
	}
	b := ConferenceBundle{Conference: c}
	for _, sd := range d.Schedules {
		e := sd.toDomain()
		if e.ConferenceID == 0 {
			e.ConferenceID = c.ID
		}
		b.Schedules = append(b.Schedules, e)
	}
	return b
}

func (d scheduleDTO) toDomain() schedule.Entry {
	e := schedule.Entry{
		ID:           int64(d.ID),
		ConferenceID: int64(d.ConferenceID),
		Date:         d.Date,
		StartTime:    clockValue(d.StartTime),
		EndTime:      clockValue(d.EndTime),
		Type:         schedule.Type(strings.ToUpper(strings.TrimSpace(d.Type))),
		Notes:        d.Notes,
	}
	for _, rd := range d.Rooms {
		r := rd.toDomain()
		if r.ScheduleID == 0 {
			r.ScheduleID = e.ID
		}
		e.Rooms = append(e.Rooms, r)
	}
	return e
}

func (d roomDTO) toDomain() room.Room {
	r := room.Room{
		ID:               int64(d.ID),
		ScheduleID:       int64(d.ScheduleID),
		Name:             d.Name,
		Identifier:       d.Identifier,
		Type:             room.Type(strings.ToUpper(strings.TrimSpace(d.Type))),
		OnlineMeetingURL: d.OnlineMeetingURL,
	}
	if d.TrackID != nil && *d.TrackID != 0 {
		id := int64(*d.TrackID)
		r.TrackID = &id
	}
	return r
}

func (d trackDTO) toDomain() track.Track {
	return track.Track{ID: int64(d.ID), Name: d.Name, Description: d.Description}
}

func (d sessionDTO) toDomain() track.Session {
	return track.Session{
		ID:        int64(d.ID),
		TrackID:   int64(d.TrackID),
		PaperID:   string(d.PaperID),
		Title:     d.Title,
		Authors:   d.Authors,
		Mode:      track.Mode(strings.ToUpper(strings.TrimSpace(d.Mode))),
		StartTime: clockValue(d.StartTime),
		EndTime:   clockValue(d.EndTime),
		Notes:     d.Notes,
	}
}

// clockValue trims "09:00:00" to "09:00"; nil and blank become "".
func clockValue(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	if len(v) > 5 && v[2] == ':' && v[5] == ':' {
		v = v[:5]
	}
	return v
}

type conferencePayload struct {
	Name         string `json:"name"`
	Year         string `json:"year"`
	Type         string `json:"type"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Description  string `json:"description,omitempty"`
	Location     string `json:"location,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	Website      string `json:"website,omitempty"`
}

func newConferencePayload(c conference.Conference) conferencePayload {
	return conferencePayload{
		Name:         c.Name,
		Year:         c.Year,
		Type:         string(c.Series),
		StartDate:    c.StartDate,
		EndDate:      c.EndDate,
		Description:  c.Description,
		Location:     c.Location,
		ContactEmail: c.ContactEmail,
		Website:      c.Website,
	}
}

type schedulePayload struct {
	ConferenceID int64  `json:"conference_id"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time,omitempty"`
	EndTime      string `json:"end_time,omitempty"`
	Type         string `json:"type"`
	Notes        string `json:"notes,omitempty"`
}

func newSchedulePayload(e schedule.Entry) schedulePayload {
	return schedulePayload{
		ConferenceID: e.ConferenceID,
		Date:         e.Date,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		Type:         string(e.Type),
		Notes:        e.Notes,
	}
}

type roomPayload struct {
	ScheduleID       int64  `json:"schedule_id"`
	Name             string `json:"name"`
	Identifier       string `json:"identifier,omitempty"`
	Type             string `json:"type"`
	OnlineMeetingURL string `json:"online_meeting_url,omitempty"`
	TrackID          *int64 `json:"track_id,omitempty"`
}

func newRoomPayload(r room.Room) roomPayload {
	return roomPayload{
		ScheduleID:       r.ScheduleID,
		Name:             r.Name,
		Identifier:       r.Identifier,
		Type:             string(r.Type),
		OnlineMeetingURL: r.OnlineMeetingURL,
		TrackID:          r.TrackID,
	}
}

type trackPayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func newTrackPayload(t track.Track) trackPayload {
	return trackPayload{Name: t.Name, Description: t.Description}
}

type sessionPayload struct {
	TrackID   int64  `json:"track_id"`
	PaperID   string `json:"paper_id,omitempty"`
	Title     string `json:"title"`
	Authors   string `json:"authors,omitempty"`
	Mode      string `json:"mode"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func newSessionPayload(s track.Session) sessionPayload {
	return sessionPayload{
		TrackID:   s.TrackID,
		PaperID:   s.PaperID,
		Title:     s.Title,
		Authors:   s.Authors,
		Mode:      string(s.Mode),
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Notes:     s.Notes,
	}
}
