package track

import (
	"errors"
	"sort"
	"strings"

	"confsched/internal/domain/schedule"
)

// Mode is how a paper is presented.
type Mode string

// Presentation modes
const (
	ModeOnline Mode = "ONLINE"
	ModeOnsite Mode = "ONSITE"
)

// Max length constants.
const (
	MaxNameLength        = 200
	MaxDescriptionLength = 4000
	MaxTitleLength       = 500
)

// Domain errors
var (
	ErrEmptyName          = errors.New("track name cannot be empty")
	ErrNameTooLong        = errors.New("track name cannot exceed 200 characters")
	ErrDescriptionTooLong = errors.New("track description cannot exceed 4000 characters")
	ErrEmptyTrackID       = errors.New("track ID cannot be empty")
	ErrEmptyTitle         = errors.New("session title cannot be empty")
	ErrTitleTooLong       = errors.New("session title cannot exceed 500 characters")
	ErrInvalidMode        = errors.New("presentation mode must be ONLINE or ONSITE")
)

// Track groups paper presentations; generally one track per parallel room.
// Description may contain markdown.
type Track struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// EntityID returns the API identifier.
func (t Track) EntityID() int64 { return t.ID }

// Validate checks if the Track has valid data.
// PRE: Track struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Track) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if len(t.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if len(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// Session is a scheduled paper presentation inside a track.
// Its time window is independent of the parent schedule entry's.
type Session struct {
	ID        int64  `json:"id"`
	TrackID   int64  `json:"track_id"`
	PaperID   string `json:"paper_id,omitempty"`
	Title     string `json:"title"`
	Authors   string `json:"authors,omitempty"`
	Mode      Mode   `json:"mode"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// EntityID returns the API identifier.
func (s Session) EntityID() int64 { return s.ID }

// Validate checks if the Session has valid data.
// PRE: Session struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Session) Validate() error {
	if s.TrackID <= 0 {
		return ErrEmptyTrackID
	}
	if strings.TrimSpace(s.Title) == "" {
		return ErrEmptyTitle
	}
	if len(s.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if s.Mode != ModeOnline && s.Mode != ModeOnsite {
		return ErrInvalidMode
	}
	return schedule.ValidateTimes(s.StartTime, s.EndTime)
}

// SortSessions orders sessions by start time; missing start times sort as "00:00".
func SortSessions(sessions []Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return startKey(sessions[i]) < startKey(sessions[j])
	})
}

func startKey(s Session) string {
	if s.StartTime == "" {
		return schedule.MissingStartTime
	}
	return s.StartTime
}
