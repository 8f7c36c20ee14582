// Package ical renders a schedule board as an iCalendar feed.
package ical

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"confsched/internal/application/projections"
	"confsched/internal/domain/room"
	"confsched/internal/domain/schedule"
)

const (
	productID = "-//confsched//conference schedule//EN"
	uidDomain = "confsched"
)

// Export renders every dated entry and every parallel session of b.
// Times are wall-clock times in loc. Entries without a start time become all-day events.
// PRE: loc is non-nil
// POST: Returns a serialized VCALENDAR; an empty board yields a calendar with no events
func Export(b projections.Board, loc *time.Location, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(b.Conference.Name)

	for _, day := range b.Days {
		for _, e := range day.Entries {
			addEntry(cal, b, day, e, loc, stamp)
		}
		for _, col := range day.Columns {
			addSessions(cal, day, col, loc, stamp)
		}
	}
	return cal.Serialize()
}

func addEntry(cal *ics.Calendar, b projections.Board, day projections.BoardDay, e projections.BoardEntry, loc *time.Location, stamp time.Time) {
	ev := cal.AddEvent(fmt.Sprintf("schedule-%d@%s", e.ID, uidDomain))
	ev.SetDtStampTime(stamp)
	ev.SetSummary(entrySummary(b, e))
	if e.Notes != "" {
		ev.SetDescription(e.Notes)
	}
	if where := roomNames(e.MainRooms); where != "" {
		ev.SetLocation(where)
	}
	for _, r := range e.MainRooms {
		if r.OnlineMeetingURL != "" {
			ev.SetURL(r.OnlineMeetingURL)
			break
		}
	}

	start, ok := clock(day.Key, e.StartTime, loc)
	if !ok {
		d, _ := time.Parse("2006-01-02", day.Key)
		ev.SetAllDayStartAt(d)
		ev.SetAllDayEndAt(d.AddDate(0, 0, 1))
		return
	}
	ev.SetStartAt(start)
	if end, ok := clock(day.Key, e.EndTime, loc); ok && end.After(start) {
		ev.SetEndAt(end)
	}
}

func addSessions(cal *ics.Calendar, day projections.BoardDay, col projections.BoardColumn, loc *time.Location, stamp time.Time) {
	if col.Room == nil {
		return
	}
	for _, s := range col.Sessions {
		start, ok := clock(day.Key, s.StartTime, loc)
		if !ok {
			continue
		}
		ev := cal.AddEvent(fmt.Sprintf("session-%d-%s@%s", s.ID, day.Key, uidDomain))
		ev.SetDtStampTime(stamp)
		ev.SetSummary(s.Title)
		ev.SetLocation(col.Room.Name)
		if col.Room.OnlineMeetingURL != "" {
			ev.SetURL(col.Room.OnlineMeetingURL)
		}
		var desc []string
		if s.Authors != "" {
			desc = append(desc, s.Authors)
		}
		if s.PaperID != "" {
			desc = append(desc, "Paper "+s.PaperID)
		}
		desc = append(desc, string(s.Mode))
		ev.SetDescription(strings.Join(desc, "\n"))
		ev.SetStartAt(start)
		if end, ok := clock(day.Key, s.EndTime, loc); ok && end.After(start) {
			ev.SetEndAt(end)
		}
	}
}

func entrySummary(b projections.Board, e projections.BoardEntry) string {
	var kind string
	switch e.Type {
	case schedule.TypeBreak:
		kind = "Break"
	case schedule.TypeOneDayActivity:
		kind = "One day activity"
	default:
		kind = "Session"
	}
	if b.Conference.Name == "" {
		return kind
	}
	return b.Conference.Name + ": " + kind
}

// clock combines a day key and HH:MM into a time in loc.
func clock(dayKey, hhmm string, loc *time.Location) (time.Time, bool) {
	if strings.TrimSpace(hhmm) == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", dayKey+" "+strings.TrimSpace(hhmm), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func roomNames(rooms []room.Room) string {
	names := make([]string, 0, len(rooms))
	for _, r := range rooms {
		names = append(names, r.Name)
	}
	return strings.Join(names, ", ")
}
