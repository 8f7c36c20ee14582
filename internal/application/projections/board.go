package projections

import (
	"confsched/internal/adapters/api"
	"confsched/internal/application/listutil"
	"confsched/internal/domain/conference"
	"confsched/internal/domain/room"
	"confsched/internal/domain/schedule"
	"confsched/internal/domain/track"
)

// Board is the day-by-day layout of one conference.
// Every field is plain data so it can be rendered as HTML or served as JSON.
type Board struct {
	Conference conference.Conference `json:"conference"`
	Days       []BoardDay            `json:"days"`
	Tracks     []track.Track         `json:"tracks"`

	// Dropped and Conflicts are admin warnings; Public clears them.
	Dropped   []schedule.Entry `json:"dropped,omitempty"`
	Conflicts []DayConflict    `json:"conflicts,omitempty"`
}

// BoardDay is one calendar day of the conference, present even when empty.
type BoardDay struct {
	Key       string        `json:"key"` // YYYY-MM-DD
	Ordinal   int           `json:"ordinal"`
	Display   string        `json:"display"`
	Entries   []BoardEntry  `json:"entries"`
	MainRooms []room.Room   `json:"main_rooms"`
	Columns   []BoardColumn `json:"columns"` // always A..E
}

// BoardEntry is a schedule entry with its merged rooms.
type BoardEntry struct {
	schedule.Entry
	MainRooms []room.Room `json:"main_rooms"`
}

// BoardColumn is a parallel room column with the sessions of the room's track.
type BoardColumn struct {
	Label    room.Label      `json:"label"`
	Ordinal  int             `json:"ordinal"`
	Room     *room.Room      `json:"room"`
	Track    *track.Track    `json:"track,omitempty"`
	Sessions []track.Session `json:"sessions"`
}

// DayConflict is a room label collision on a given day.
type DayConflict struct {
	Day string `json:"day"`
	room.Conflict
}

// BoardSources is everything the API returned for one conference, before merging.
type BoardSources struct {
	Conference    api.ConferenceBundle
	FlatSchedules []schedule.Entry
	FlatRooms     []room.Room
	Tracks        []track.Track
	Sessions      []track.Session
}

// BuildBoard merges nested and flat API results and lays them out by day.
// Nested records are always preferred over flat ones with the same id.
// Track sessions carry no date, so a track whose room appears on several days
// lists all of its sessions on each of those days.
// PRE: none
// POST: len(Days) equals the conference span; each day has five columns
func BuildBoard(src BoardSources) Board {
	conf := src.Conference.Conference
	entries := listutil.MergeByID(src.Conference.Schedules, src.FlatSchedules)

	flatRooms := make(map[int64][]room.Room)
	for _, r := range listutil.MergeByID(src.FlatRooms) {
		flatRooms[r.ScheduleID] = append(flatRooms[r.ScheduleID], r)
	}

	tracks := listutil.MergeByID(src.Tracks)
	trackByID := make(map[int64]track.Track, len(tracks))
	for _, t := range tracks {
		trackByID[t.ID] = t
	}
	sessionsByTrack := make(map[int64][]track.Session)
	for _, s := range listutil.MergeByID(src.Sessions) {
		sessionsByTrack[s.TrackID] = append(sessionsByTrack[s.TrackID], s)
	}
	for id := range sessionsByTrack {
		track.SortSessions(sessionsByTrack[id])
	}

	grouping := schedule.GroupByDay(conf.StartDate, conf.EndDate, entries)
	board := Board{
		Conference: conf,
		Days:       make([]BoardDay, 0, len(grouping.Days)),
		Tracks:     tracks,
		Dropped:    grouping.Dropped,
	}

	for _, key := range grouping.Days {
		day := BoardDay{
			Key:     key,
			Ordinal: schedule.DayOrdinal(key, conf.StartDate),
			Display: schedule.DisplayDate(key),
			Entries: []BoardEntry{},
		}

		var nested, flat []room.Room
		for _, e := range grouping.ByDay[key] {
			nested = append(nested, e.Rooms...)
			flat = append(flat, flatRooms[e.ID]...)

			e.Rooms = listutil.MergeByID(e.Rooms, flatRooms[e.ID])
			day.Entries = append(day.Entries, BoardEntry{Entry: e, MainRooms: mainRooms(e.Rooms)})
		}
		dayRooms := listutil.MergeByID(nested, flat)
		day.MainRooms = mainRooms(dayRooms)

		for _, col := range room.Columns(dayRooms) {
			bc := BoardColumn{Label: col.Label, Ordinal: col.Ordinal, Room: col.Room, Sessions: []track.Session{}}
			if !col.Empty() && col.Room.TrackID != nil {
				if t, ok := trackByID[*col.Room.TrackID]; ok {
					bc.Track = &t
				}
				if s := sessionsByTrack[*col.Room.TrackID]; s != nil {
					bc.Sessions = s
				}
			}
			day.Columns = append(day.Columns, bc)
		}
		for _, c := range room.Conflicts(dayRooms) {
			board.Conflicts = append(board.Conflicts, DayConflict{Day: key, Conflict: c})
		}
		board.Days = append(board.Days, day)
	}
	return board
}

// Public returns a copy without the admin warnings.
func (b Board) Public() Board {
	b.Dropped = nil
	b.Conflicts = nil
	return b
}

func mainRooms(rooms []room.Room) []room.Room {
	out := []room.Room{}
	for _, r := range rooms {
		if r.IsMain() {
			out = append(out, r)
		}
	}
	return out
}
