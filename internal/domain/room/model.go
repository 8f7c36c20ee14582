package room

import (
	"errors"
	"strings"
)

// Type distinguishes the plenary room from parallel-track rooms.
type Type string

// Room type constants
const (
	TypeMain     Type = "MAIN"
	TypeParallel Type = "PARALLEL"
)

// Max length constants.
const (
	MaxNameLength = 200
	MaxURLLength  = 2048
)

// Domain errors
var (
	ErrEmptyScheduleID = errors.New("schedule ID cannot be empty")
	ErrEmptyName       = errors.New("room name cannot be empty")
	ErrNameTooLong     = errors.New("room name cannot exceed 200 characters")
	ErrInvalidType     = errors.New("room type must be MAIN or PARALLEL")
	ErrURLTooLong      = errors.New("online meeting URL cannot exceed 2048 characters")
)

// Room is a physical or virtual room attached to a schedule entry.
// Identifier is free text such as "Parallel Session 1A".
type Room struct {
	ID               int64  `json:"id"`
	ScheduleID       int64  `json:"schedule_id"`
	Name             string `json:"name"`
	Identifier       string `json:"identifier,omitempty"`
	Type             Type   `json:"type"`
	OnlineMeetingURL string `json:"online_meeting_url,omitempty"`
	TrackID          *int64 `json:"track_id,omitempty"`
}

// EntityID returns the API identifier.
func (r Room) EntityID() int64 { return r.ID }

// IsMain reports whether this is the plenary room.
func (r Room) IsMain() bool { return r.Type == TypeMain }

// Validate checks if the Room has valid data.
// PRE: Room struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Room) Validate() error {
	if r.ScheduleID <= 0 {
		return ErrEmptyScheduleID
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if len(r.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if r.Type != TypeMain && r.Type != TypeParallel {
		return ErrInvalidType
	}
	if len(r.OnlineMeetingURL) > MaxURLLength {
		return ErrURLTooLong
	}
	return nil
}
