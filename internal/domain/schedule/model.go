package schedule

import (
	"errors"
	"strings"
	"time"

	"confsched/internal/domain/conference"
	"confsched/internal/domain/room"
)

// Type classifies a schedule entry.
type Type string

// Entry type constants
const (
	TypeTalk           Type = "TALK"
	TypeBreak          Type = "BREAK"
	TypeOneDayActivity Type = "ONE_DAY_ACTIVITY"
)

// ValidTypes contains all valid entry types.
var ValidTypes = []Type{TypeTalk, TypeBreak, TypeOneDayActivity}

// MissingStartTime is the sort key used for entries without a start time.
const MissingStartTime = "00:00"

// Domain errors
var (
	ErrEmptyConferenceID = errors.New("conference ID cannot be empty")
	ErrInvalidDate       = errors.New("date must be a valid calendar date")
	ErrInvalidType       = errors.New("type must be TALK, BREAK or ONE_DAY_ACTIVITY")
	ErrInvalidStartTime  = errors.New("start time must be HH:MM")
	ErrInvalidEndTime    = errors.New("end time must be HH:MM")
	ErrEndBeforeStart    = errors.New("end time cannot be before start time")
)

// Entry is one slot of a conference's daily schedule.
// Rooms is only populated when the API embeds them.
type Entry struct {
	ID           int64       `json:"id"`
	ConferenceID int64       `json:"conference_id"`
	Date         string      `json:"date"`
	StartTime    string      `json:"start_time,omitempty"` // HH:MM
	EndTime      string      `json:"end_time,omitempty"`   // HH:MM
	Type         Type        `json:"type"`
	Notes        string      `json:"notes,omitempty"`
	Rooms        []room.Room `json:"rooms,omitempty"`
}

// EntityID returns the API identifier.
func (e Entry) EntityID() int64 { return e.ID }

// SortKey returns the start time used for ordering within a day.
func (e Entry) SortKey() string {
	if strings.TrimSpace(e.StartTime) == "" {
		return MissingStartTime
	}
	return e.StartTime
}

// Validate checks if the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Entry) Validate() error {
	if e.ConferenceID <= 0 {
		return ErrEmptyConferenceID
	}
	if _, ok := DayKey(e.Date); !ok {
		return ErrInvalidDate
	}
	if !IsValidType(e.Type) {
		return ErrInvalidType
	}
	return ValidateTimes(e.StartTime, e.EndTime)
}

// ValidateTimes checks an optional HH:MM window.
// PRE: none
// POST: Returns nil when both are empty or well-formed with end >= start
func ValidateTimes(start, end string) error {
	var startT, endT time.Time
	var err error
	if start != "" {
		if startT, err = time.Parse("15:04", start); err != nil {
			return ErrInvalidStartTime
		}
	}
	if end != "" {
		if endT, err = time.Parse("15:04", end); err != nil {
			return ErrInvalidEndTime
		}
	}
	if start != "" && end != "" && endT.Before(startT) {
		return ErrEndBeforeStart
	}
	return nil
}

// IsValidType reports whether t is a known entry type.
func IsValidType(t Type) bool {
	for _, v := range ValidTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ParseDate delegates to the shared API date parser.
func ParseDate(raw string) (time.Time, bool) {
	return conference.ParseDate(raw)
}
