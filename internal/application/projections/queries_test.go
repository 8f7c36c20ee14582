package projections

import (
	"context"
	"errors"
	"testing"

	"confsched/internal/adapters/api"
	"confsched/internal/application/listutil"
	"confsched/internal/domain/conference"
	"confsched/internal/domain/room"
)

func readerFixture() *mockReader {
	src := boardFixture()
	icodsa := conference.Conference{ID: 2, Name: "ICODSA 2024", Year: "2024", Series: conference.SeriesICODSA, StartDate: "2024-08-01", EndDate: "2024-08-02"}
	older := conference.Conference{ID: 3, Name: "ICICYTA 2024", Year: "2024", Series: conference.SeriesICICYTA, StartDate: "2024-06-10", EndDate: "2024-06-11"}
	broken := conference.Conference{ID: 4, Name: "ICICYTA 2026", Year: "2026", Series: conference.SeriesICICYTA, StartDate: "2026-06-12", EndDate: "2026-06-10"}

	rooms := append([]room.Room{}, src.FlatRooms...)
	rooms = append(rooms, room.Room{ID: 999, ScheduleID: 500, Name: "Room C"})

	return &mockReader{
		conferences: []api.ConferenceBundle{
			src.Conference,
			{Conference: icodsa},
			{Conference: older},
			{Conference: broken},
		},
		schedules: src.FlatSchedules,
		rooms:     rooms,
		tracks:    src.Tracks,
		sessions:  src.Sessions,
	}
}

// TestQueryGetScheduleBoard_FetchOrderAndAuth uses the caller's token source for every call.
func TestQueryGetScheduleBoard_FetchOrderAndAuth(t *testing.T) {
	reader := readerFixture()
	ts := staticTokens("tok")

	b, err := QueryGetScheduleBoard(context.Background(), GetScheduleBoardQuery{ConferenceID: 1, Auth: ts}, GetScheduleBoardDeps{Reader: reader})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"GetConference", "ListSchedules", "ListRooms", "ListTracks", "ListTrackSessions"}
	if len(reader.calls) != len(want) {
		t.Fatalf("calls = %v", reader.calls)
	}
	for i, c := range want {
		if reader.calls[i] != c {
			t.Errorf("call %d = %s, want %s", i, reader.calls[i], c)
		}
		if reader.tokens[i] != ts {
			t.Errorf("call %s did not use the caller's token source", c)
		}
	}
	for _, day := range b.Days {
		for _, col := range day.Columns {
			if col.Room != nil && col.Room.ID == 999 {
				t.Error("rooms of other conferences must be filtered out")
			}
		}
	}
}

// TestQueryGetScheduleBoard_Errors wraps API failures and stops fetching.
func TestQueryGetScheduleBoard_Errors(t *testing.T) {
	for _, call := range []string{"GetConference", "ListSchedules", "ListRooms", "ListTracks", "ListTrackSessions"} {
		t.Run(call, func(t *testing.T) {
			reader := readerFixture()
			reader.failOn = call
			_, err := QueryGetScheduleBoard(context.Background(), GetScheduleBoardQuery{ConferenceID: 1}, GetScheduleBoardDeps{Reader: reader})
			if !errors.Is(err, errMockAPI) {
				t.Errorf("err = %v", err)
			}
			if reader.calls[len(reader.calls)-1] != call {
				t.Errorf("fetching continued after %s: %v", call, reader.calls)
			}
		})
	}
}

// TestQueryGetScheduleBoard_NotFound keeps the sentinel reachable.
func TestQueryGetScheduleBoard_NotFound(t *testing.T) {
	_, err := QueryGetScheduleBoard(context.Background(), GetScheduleBoardQuery{ConferenceID: 42}, GetScheduleBoardDeps{Reader: readerFixture()})
	if !errors.Is(err, api.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestQueryGetPublicSchedule covers series fallback, year defaulting and anonymous calls.
func TestQueryGetPublicSchedule(t *testing.T) {
	tests := []struct {
		name      string
		query     GetPublicScheduleQuery
		wantYears []string
		wantID    int64
	}{
		{"defaults to newest valid year", GetPublicScheduleQuery{}, []string{"2025", "2024"}, 1},
		{"explicit year", GetPublicScheduleQuery{Series: "icicyta", Year: "2024"}, []string{"2025", "2024"}, 3},
		{"other series", GetPublicScheduleQuery{Series: "ICODSA"}, []string{"2024"}, 2},
		{"unknown year", GetPublicScheduleQuery{Year: "1999"}, []string{"2025", "2024"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := readerFixture()
			got, err := QueryGetPublicSchedule(context.Background(), tt.query, GetPublicScheduleDeps{Reader: reader})
			if err != nil {
				t.Fatal(err)
			}
			if len(got.Selection.Years) != len(tt.wantYears) {
				t.Fatalf("years = %v, want %v", got.Selection.Years, tt.wantYears)
			}
			for i := range tt.wantYears {
				if got.Selection.Years[i] != tt.wantYears[i] {
					t.Errorf("years = %v, want %v", got.Selection.Years, tt.wantYears)
				}
			}
			if tt.wantID == 0 {
				if got.Board != nil {
					t.Errorf("board should be nil, got conference %d", got.Board.Conference.ID)
				}
				return
			}
			if got.Board == nil || got.Board.Conference.ID != tt.wantID {
				t.Fatalf("board = %+v", got.Board)
			}
			if got.Board.Dropped != nil || got.Board.Conflicts != nil {
				t.Error("public board leaked admin warnings")
			}
			for i, ts := range reader.tokens {
				if ts != nil {
					t.Errorf("call %s was not anonymous", reader.calls[i])
				}
			}
		})
	}
}

// TestQueryGetConferenceList filters, flags and paginates.
func TestQueryGetConferenceList(t *testing.T) {
	reader := readerFixture()
	got, err := QueryGetConferenceList(context.Background(), GetConferenceListQuery{
		Series: "ICICYTA",
		Page:   listutil.PageParams{Page: 1, PerPage: 2},
		Auth:   staticTokens("tok"),
	}, GetConferenceListDeps{Reader: reader})
	if err != nil {
		t.Fatal(err)
	}
	if got.Page.Total != 3 || len(got.Rows) != 2 {
		t.Fatalf("page = %+v rows = %d", got.Page, len(got.Rows))
	}
	if got.Series != "ICICYTA" {
		t.Errorf("series = %q", got.Series)
	}

	all, err := QueryGetConferenceList(context.Background(), GetConferenceListQuery{
		Page: listutil.PageParams{Page: 1, PerPage: 10},
		Auth: staticTokens("tok"),
	}, GetConferenceListDeps{Reader: reader})
	if err != nil {
		t.Fatal(err)
	}
	if len(all.Rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(all.Rows))
	}
	if !all.Rows[0].ValidRange || all.Rows[3].ValidRange {
		t.Errorf("range flags = %v/%v", all.Rows[0].ValidRange, all.Rows[3].ValidRange)
	}
}

// TestQueryGetConferenceList_Error wraps the API failure.
func TestQueryGetConferenceList_Error(t *testing.T) {
	reader := readerFixture()
	reader.failOn = "ListConferences"
	if _, err := QueryGetConferenceList(context.Background(), GetConferenceListQuery{}, GetConferenceListDeps{Reader: reader}); !errors.Is(err, errMockAPI) {
		t.Errorf("err = %v", err)
	}
}
