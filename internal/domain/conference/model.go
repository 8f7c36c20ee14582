package conference

import (
	"errors"
	"strings"
	"time"
)

// Series identifies one of the two conference series sharing the schedule model.
type Series string

// Series constants
const (
	SeriesICICYTA Series = "ICICYTA"
	SeriesICODSA  Series = "ICODSA"
)

// ValidSeries contains all supported series.
var ValidSeries = []Series{SeriesICICYTA, SeriesICODSA}

// Domain errors
var (
	ErrEmptyName      = errors.New("conference name cannot be empty")
	ErrInvalidSeries  = errors.New("conference type must be ICICYTA or ICODSA")
	ErrInvalidStart   = errors.New("conference start date is not a valid date")
	ErrInvalidEnd     = errors.New("conference end date is not a valid date")
	ErrEndBeforeStart = errors.New("conference end date cannot be before start date")
)

// Conference is a single edition of a conference series.
// StartDate and EndDate hold the raw values returned by the schedule API.
// INVARIANT: EndDate >= StartDate for any conference shown in listings.
type Conference struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Year         string `json:"year"`
	Series       Series `json:"type"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Description  string `json:"description,omitempty"`
	Location     string `json:"location,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	Website      string `json:"website,omitempty"`
}

// EntityID returns the API identifier.
func (c Conference) EntityID() int64 { return c.ID }

// Validate checks the conference before it is sent to the API.
// PRE: Conference struct is populated
// POST: Returns nil if valid, the first violation otherwise
func (c *Conference) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !IsValidSeries(c.Series) {
		return ErrInvalidSeries
	}
	start, ok := ParseDate(c.StartDate)
	if !ok {
		return ErrInvalidStart
	}
	end, ok := ParseDate(c.EndDate)
	if !ok {
		return ErrInvalidEnd
	}
	if end.Before(start) {
		return ErrEndBeforeStart
	}
	return nil
}

// DateRange returns the parsed start and end dates.
// PRE: none
// POST: ok is false when either date fails to parse or end precedes start
func (c Conference) DateRange() (start, end time.Time, ok bool) {
	start, okStart := ParseDate(c.StartDate)
	end, okEnd := ParseDate(c.EndDate)
	if !okStart || !okEnd || end.Before(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// IsValidSeries reports whether s is a known series.
func IsValidSeries(s Series) bool {
	for _, v := range ValidSeries {
		if v == s {
			return true
		}
	}
	return false
}

// ParseSeries normalises user input (any case) into a Series.
func ParseSeries(raw string) (Series, bool) {
	s := Series(strings.ToUpper(strings.TrimSpace(raw)))
	return s, IsValidSeries(s)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses the date formats the schedule API emits.
// Values without a zone are read as UTC.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
